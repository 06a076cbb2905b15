package memrepo

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/hoshichaam/crm_loyalty_go/internal/loyalty"
	"github.com/hoshichaam/crm_loyalty_go/internal/models"
	"github.com/hoshichaam/crm_loyalty_go/internal/repositories"
)

type redeemRepo struct{ s *Store }

var errRedeemNotFound = repositories.ErrNotFound{Message: "Redeem transaction not found"}

func (r redeemRepo) joinLocked(rec repositories.RedeemRecord) repositories.RedeemRecord {
	if m, ok := r.s.d.members[rec.MemberID]; ok {
		rec.MemberName, rec.MemberEmail = m.Name, m.Email
	}
	if v, ok := r.s.d.vouchers[rec.VoucherID]; ok {
		rec.VoucherCode, rec.VoucherName = v.Code, v.Name
	}
	return rec
}

func (r redeemRepo) Create(_ context.Context, _ repositories.DBTX, rec *repositories.RedeemRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.d.members[rec.MemberID]; !ok {
		return errMemberNotFound
	}
	if _, ok := r.s.d.vouchers[rec.VoucherID]; !ok {
		return errVoucherNotFound
	}
	r.s.d.redeemSeq++
	rec.ID = r.s.d.redeemSeq
	now := r.s.now()
	rec.CreatedAt, rec.UpdatedAt = now, now
	r.s.d.redeems[rec.ID] = *rec
	return nil
}

func (r redeemRepo) Get(_ context.Context, id int64) (repositories.RedeemRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	rec, ok := r.s.d.redeems[id]
	if !ok {
		return rec, errRedeemNotFound
	}
	return r.joinLocked(rec), nil
}

func (r redeemRepo) GetForUpdate(ctx context.Context, _ repositories.DBTX, id int64) (repositories.RedeemRecord, error) {
	return r.Get(ctx, id)
}

func (r redeemRepo) List(_ context.Context, memberID string, limit int) ([]repositories.RedeemRecord, error) {
	r.s.mu.RLock()
	res := make([]repositories.RedeemRecord, 0)
	for _, rec := range r.s.d.redeems {
		if memberID == "" || rec.MemberID == memberID {
			res = append(res, r.joinLocked(rec))
		}
	}
	r.s.mu.RUnlock()

	sortNewestFirst(res,
		func(rec repositories.RedeemRecord) time.Time { return rec.RedeemDate },
		func(rec repositories.RedeemRecord) string { return strconv.FormatInt(rec.ID, 10) })
	return truncate(res, limit), nil
}

func (r redeemRepo) UpdateStatus(_ context.Context, _ repositories.DBTX, id int64, status string, usedDate sql.NullTime, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rec, ok := r.s.d.redeems[id]
	if !ok {
		return errRedeemNotFound
	}
	rec.Status, rec.UsedDate, rec.UpdatedAt = status, usedDate, at
	r.s.d.redeems[id] = rec
	return nil
}

func (r redeemRepo) Statistics(_ context.Context, memberID string) (models.RedeemStatistics, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var s models.RedeemStatistics
	for _, rec := range r.s.d.redeems {
		if memberID != "" && rec.MemberID != memberID {
			continue
		}
		s.TotalRedeems++
		switch loyalty.RedeemStatus(rec.Status) {
		case loyalty.RedeemPending:
			s.PendingRedeems++
		case loyalty.RedeemCompleted:
			s.CompletedRedeems++
		case loyalty.RedeemUsed:
			s.UsedRedeems++
		case loyalty.RedeemCancelled:
			s.CancelledRedeems++
			continue
		}
		s.TotalPointsRedeemed += int64(rec.PointsCost)
	}
	return s, nil
}
