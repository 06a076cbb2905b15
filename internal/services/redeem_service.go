package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hoshichaam/crm_loyalty_go/internal/loyalty"
	"github.com/hoshichaam/crm_loyalty_go/internal/models"
	"github.com/hoshichaam/crm_loyalty_go/internal/repositories"
)

// RedeemService menukar poin member dengan voucher. Semua perubahan status
// lewat Transition; saldo dan stok hanya disentuh di Create dan refund.
type RedeemService struct {
	redeems  repositories.RedeemRepo
	members  repositories.MemberRepo
	vouchers repositories.VoucherRepo
	tx       repositories.Transactor
	now      func() time.Time
}

func NewRedeemService(r repositories.RedeemRepo, m repositories.MemberRepo, v repositories.VoucherRepo, tx repositories.Transactor) *RedeemService {
	return &RedeemService{redeems: r, members: m, vouchers: v, tx: tx, now: time.Now}
}

type RedeemDTO struct {
	ID          int64      `json:"id"`
	MemberID    string     `json:"member"`
	MemberName  string     `json:"member_name"`
	MemberEmail string     `json:"member_email"`
	VoucherID   int64      `json:"voucher"`
	VoucherCode string     `json:"voucher_code"`
	VoucherName string     `json:"voucher_name"`
	PointsCost  int        `json:"points_cost"`
	Status      string     `json:"status"`
	RedeemDate  time.Time  `json:"redeem_date"`
	UsedDate    *time.Time `json:"used_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toRedeemDTO(r repositories.RedeemRecord) RedeemDTO {
	var used *time.Time
	if r.UsedDate.Valid {
		t := r.UsedDate.Time
		used = &t
	}
	return RedeemDTO{
		ID:          r.ID,
		MemberID:    r.MemberID,
		MemberName:  r.MemberName,
		MemberEmail: r.MemberEmail,
		VoucherID:   r.VoucherID,
		VoucherCode: r.VoucherCode,
		VoucherName: r.VoucherName,
		PointsCost:  r.PointsCost,
		Status:      r.Status,
		RedeemDate:  r.RedeemDate,
		UsedDate:    used,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func redeemableError(err error) error {
	switch {
	case errors.Is(err, loyalty.ErrInsufficientPoints):
		return ErrBusinessRule{Field: "member", Msg: "Insufficient points for redemption"}
	case errors.Is(err, loyalty.ErrOutOfStock), errors.Is(err, repositories.ErrStockExhausted):
		return ErrBusinessRule{Field: "voucher", Msg: "Voucher is out of stock"}
	case errors.Is(err, loyalty.ErrVoucherUnavailable):
		return ErrBusinessRule{Field: "voucher", Msg: "Voucher is not available"}
	}
	return err
}

// Create memotong poin member dan stok voucher dalam satu transaksi. Baris
// member lalu voucher dikunci dengan urutan yang sama di semua jalur.
func (s *RedeemService) Create(ctx context.Context, in models.CreateRedeemRequest) (RedeemDTO, error) {
	in.Member = strings.TrimSpace(in.Member)
	if err := validate(in); err != nil {
		return RedeemDTO{}, err
	}
	status := loyalty.RedeemPending
	if in.Status != "" {
		st, ok := loyalty.ParseRedeemStatus(in.Status)
		if !ok || !loyalty.IsInitialRedeemStatus(st) {
			return RedeemDTO{}, fieldError("status", "Must be one of: Pending, Completed.")
		}
		status = st
	}

	now := s.now()
	rec := repositories.RedeemRecord{
		MemberID:   in.Member,
		VoucherID:  in.Voucher,
		Status:     string(status),
		RedeemDate: now,
	}
	err := s.tx.WithinTx(ctx, func(tx repositories.DBTX) error {
		m, err := s.members.GetForUpdate(ctx, tx, in.Member)
		if err != nil {
			return asField("member", err)
		}
		v, err := s.vouchers.GetForUpdate(ctx, tx, in.Voucher)
		if err != nil {
			return asField("voucher", err)
		}

		available := loyalty.IsVoucherAvailable(loyalty.VoucherStatus(v.Status), v.Stock, v.StartDate, v.EndDate, now)
		if err := loyalty.CheckRedeemable(m.TotalPoints, v.PointsCost, available, v.Stock); err != nil {
			return redeemableError(err)
		}

		rec.PointsCost = v.PointsCost
		if err := s.redeems.Create(ctx, tx, &rec); err != nil {
			return err
		}
		balance, tier, err := loyalty.ApplyDelta(m.TotalPoints, -v.PointsCost)
		if err != nil {
			return err
		}
		if err := s.members.UpdateBalance(ctx, tx, m.ID, balance, string(tier), now); err != nil {
			return err
		}
		if _, err := s.vouchers.AdjustStock(ctx, tx, v.ID, -1, now); err != nil {
			return redeemableError(err)
		}
		rec.MemberName, rec.MemberEmail = m.Name, m.Email
		rec.VoucherCode, rec.VoucherName = v.Code, v.Name
		return nil
	})
	if err != nil {
		return RedeemDTO{}, err
	}
	return toRedeemDTO(rec), nil
}

func asField(field string, err error) error {
	var nf repositories.ErrNotFound
	if errors.As(err, &nf) {
		return fieldError(field, nf.Message)
	}
	return err
}

// Transition memindahkan redemption ke target lewat loyalty.PlanTransition
// dan menjalankan efeknya. Status sama dengan sekarang tidak mengubah apa pun.
func (s *RedeemService) Transition(ctx context.Context, id int64, target loyalty.RedeemStatus) (RedeemDTO, error) {
	now := s.now()
	err := s.tx.WithinTx(ctx, func(tx repositories.DBTX) error {
		rec, err := s.redeems.GetForUpdate(ctx, tx, id)
		if err != nil {
			return translate(err)
		}
		current := loyalty.RedeemStatus(rec.Status)
		effect, err := loyalty.PlanTransition(current, target)
		if err != nil {
			return ErrBusinessRule{Field: "status", Msg: transitionMessage(current, target)}
		}

		switch effect {
		case loyalty.EffectNone:
			return nil
		case loyalty.EffectStatusOnly:
			return s.redeems.UpdateStatus(ctx, tx, id, string(target), rec.UsedDate, now)
		case loyalty.EffectMarkUsed:
			used := rec.UsedDate
			if !used.Valid {
				used = sql.NullTime{Time: now, Valid: true}
			}
			return s.redeems.UpdateStatus(ctx, tx, id, string(target), used, now)
		case loyalty.EffectRefund:
			m, err := s.members.GetForUpdate(ctx, tx, rec.MemberID)
			if err != nil {
				return translate(err)
			}
			balance, tier, err := loyalty.ApplyDelta(m.TotalPoints, rec.PointsCost)
			if err != nil {
				return ErrBusinessRule{Field: "member", Msg: "Refund would exceed the maximum point balance"}
			}
			if err := s.members.UpdateBalance(ctx, tx, m.ID, balance, string(tier), now); err != nil {
				return err
			}
			if _, err := s.vouchers.AdjustStock(ctx, tx, rec.VoucherID, 1, now); err != nil {
				return err
			}
			return s.redeems.UpdateStatus(ctx, tx, id, string(target), rec.UsedDate, now)
		}
		return fmt.Errorf("unknown transition effect %d", effect)
	})
	if err != nil {
		return RedeemDTO{}, err
	}
	return s.Get(ctx, id)
}

func transitionMessage(current, target loyalty.RedeemStatus) string {
	switch target {
	case loyalty.RedeemCancelled:
		return "Cannot cancel this redemption"
	case loyalty.RedeemUsed:
		return "Cannot mark this redemption as used"
	}
	return fmt.Sprintf("Cannot change status from %s to %s", current, target)
}

func (s *RedeemService) MarkUsed(ctx context.Context, id int64) (RedeemDTO, error) {
	return s.Transition(ctx, id, loyalty.RedeemUsed)
}

func (s *RedeemService) Cancel(ctx context.Context, id int64) (RedeemDTO, error) {
	return s.Transition(ctx, id, loyalty.RedeemCancelled)
}

// Update adalah PUT generik; statusnya tetap lewat Transition supaya refund
// dan used_date tidak terlewat.
func (s *RedeemService) Update(ctx context.Context, id int64, in models.UpdateRedeemRequest) (RedeemDTO, error) {
	if err := validate(in); err != nil {
		return RedeemDTO{}, err
	}
	target, ok := loyalty.ParseRedeemStatus(in.Status)
	if !ok {
		return RedeemDTO{}, fieldError("status", "Must be one of: Pending, Completed, Cancelled, Used.")
	}
	return s.Transition(ctx, id, target)
}

func (s *RedeemService) Get(ctx context.Context, id int64) (RedeemDTO, error) {
	rec, err := s.redeems.Get(ctx, id)
	if err != nil {
		return RedeemDTO{}, translate(err)
	}
	return toRedeemDTO(rec), nil
}

func (s *RedeemService) List(ctx context.Context, memberID string, limit int) ([]RedeemDTO, error) {
	rows, err := s.redeems.List(ctx, strings.TrimSpace(memberID), limit)
	if err != nil {
		return nil, err
	}
	out := make([]RedeemDTO, 0, len(rows))
	for _, r := range rows {
		out = append(out, toRedeemDTO(r))
	}
	return out, nil
}

func (s *RedeemService) Statistics(ctx context.Context, memberID string) (models.RedeemStatistics, error) {
	return s.redeems.Statistics(ctx, strings.TrimSpace(memberID))
}
