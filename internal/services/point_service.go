package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hoshichaam/crm_loyalty_go/internal/loyalty"
	"github.com/hoshichaam/crm_loyalty_go/internal/models"
	"github.com/hoshichaam/crm_loyalty_go/internal/repositories"
)

// PointService memegang ledger poin. Saldo member hanya berubah lewat Record
// (dan lewat RedeemService), tidak pernah lewat update member.
type PointService struct {
	points  repositories.PointRepo
	members repositories.MemberRepo
	tx      repositories.Transactor
	now     func() time.Time
}

func NewPointService(p repositories.PointRepo, m repositories.MemberRepo, tx repositories.Transactor) *PointService {
	return &PointService{points: p, members: m, tx: tx, now: time.Now}
}

type PointTransactionDTO struct {
	ID              int64     `json:"id"`
	MemberID        string    `json:"member"`
	MemberName      string    `json:"member_name"`
	MemberEmail     string    `json:"member_email"`
	TransactionType string    `json:"transaction_type"`
	Points          int       `json:"points"`
	Description     string    `json:"description"`
	TransactionDate time.Time `json:"transaction_date"`
	CreatedBy       string    `json:"created_by"`
	CreatedAt       time.Time `json:"created_at"`
}

func toPointDTO(p repositories.PointTransactionRecord) PointTransactionDTO {
	return PointTransactionDTO{
		ID:              p.ID,
		MemberID:        p.MemberID,
		MemberName:      p.MemberName,
		MemberEmail:     p.MemberEmail,
		TransactionType: p.Type,
		Points:          p.Points,
		Description:     p.Description,
		TransactionDate: p.TransactionDate,
		CreatedBy:       p.CreatedBy,
		CreatedAt:       p.CreatedAt,
	}
}

// Record menyimpan satu transaksi poin dan menerapkan delta ke saldo member
// di transaksi DB yang sama. Tanda poin dinormalisasi dulu (redeem negatif,
// earn positif) lalu divalidasi.
func (s *PointService) Record(ctx context.Context, actor string, in models.CreatePointTransactionRequest) (PointTransactionDTO, error) {
	in.TransactionType = strings.ToLower(strings.TrimSpace(in.TransactionType))
	if err := validate(in); err != nil {
		return PointTransactionDTO{}, err
	}
	typ, _ := loyalty.ParseTransactionType(in.TransactionType)
	pts := loyalty.NormalizePoints(typ, *in.Points)
	if err := loyalty.ValidatePointSign(typ, pts); err != nil {
		return PointTransactionDTO{}, fieldError("points", err.Error())
	}

	now := s.now()
	rec := repositories.PointTransactionRecord{
		MemberID:        strings.TrimSpace(in.Member),
		Type:            string(typ),
		Points:          pts,
		Description:     in.Description,
		TransactionDate: now,
		CreatedBy:       actor,
	}

	err := s.tx.WithinTx(ctx, func(tx repositories.DBTX) error {
		m, err := s.members.GetForUpdate(ctx, tx, rec.MemberID)
		if err != nil {
			return err
		}
		balance, tier, err := loyalty.ApplyDelta(m.TotalPoints, pts)
		if err != nil {
			return fieldError("points", fmt.Sprintf("Resulting balance would exceed %d points", loyalty.MaxBalance))
		}
		if err := s.points.Create(ctx, tx, &rec); err != nil {
			return err
		}
		rec.MemberName, rec.MemberEmail = m.Name, m.Email
		return s.members.UpdateBalance(ctx, tx, m.ID, balance, string(tier), now)
	})
	if err != nil {
		var nf repositories.ErrNotFound
		if errors.As(err, &nf) {
			return PointTransactionDTO{}, fieldError("member", nf.Message)
		}
		return PointTransactionDTO{}, err
	}
	return toPointDTO(rec), nil
}

func (s *PointService) Get(ctx context.Context, id int64) (PointTransactionDTO, error) {
	p, err := s.points.Get(ctx, id)
	if err != nil {
		return PointTransactionDTO{}, translate(err)
	}
	return toPointDTO(p), nil
}

func (s *PointService) List(ctx context.Context, limit int) ([]PointTransactionDTO, error) {
	return s.list(ctx, "", limit)
}

// ListByMember tidak mengecek keberadaan member; member tak dikenal = list kosong.
func (s *PointService) ListByMember(ctx context.Context, memberID string, limit int) ([]PointTransactionDTO, error) {
	return s.list(ctx, strings.TrimSpace(memberID), limit)
}

func (s *PointService) list(ctx context.Context, memberID string, limit int) ([]PointTransactionDTO, error) {
	rows, err := s.points.List(ctx, memberID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]PointTransactionDTO, 0, len(rows))
	for _, p := range rows {
		out = append(out, toPointDTO(p))
	}
	return out, nil
}

// Statistics: redeemed dan expired dilaporkan sebagai nilai absolut.
func (s *PointService) Statistics(ctx context.Context, memberID string) (models.PointStatistics, error) {
	st, err := s.points.Statistics(ctx, strings.TrimSpace(memberID))
	if err != nil {
		return st, err
	}
	st.TotalRedeemed = abs(st.TotalRedeemed)
	st.TotalExpired = abs(st.TotalExpired)
	return st, nil
}

func abs(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
