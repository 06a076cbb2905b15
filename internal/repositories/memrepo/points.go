package memrepo

import (
	"context"
	"strconv"
	"time"

	"github.com/hoshichaam/crm_loyalty_go/internal/models"
	"github.com/hoshichaam/crm_loyalty_go/internal/repositories"
)

type pointRepo struct{ s *Store }

// join isi nama/email member seperti JOIN di query postgres.
func (r pointRepo) joinLocked(p repositories.PointTransactionRecord) repositories.PointTransactionRecord {
	if m, ok := r.s.d.members[p.MemberID]; ok {
		p.MemberName, p.MemberEmail = m.Name, m.Email
	}
	return p
}

func (r pointRepo) Create(_ context.Context, _ repositories.DBTX, p *repositories.PointTransactionRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.d.members[p.MemberID]; !ok {
		return errMemberNotFound
	}
	r.s.d.pointSeq++
	p.ID = r.s.d.pointSeq
	p.CreatedAt = r.s.now()
	r.s.d.points[p.ID] = *p
	return nil
}

func (r pointRepo) Get(_ context.Context, id int64) (repositories.PointTransactionRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.d.points[id]
	if !ok {
		return p, repositories.ErrNotFound{Message: "Point transaction not found"}
	}
	return r.joinLocked(p), nil
}

func (r pointRepo) List(_ context.Context, memberID string, limit int) ([]repositories.PointTransactionRecord, error) {
	r.s.mu.RLock()
	res := make([]repositories.PointTransactionRecord, 0)
	for _, p := range r.s.d.points {
		if memberID == "" || p.MemberID == memberID {
			res = append(res, r.joinLocked(p))
		}
	}
	r.s.mu.RUnlock()

	sortNewestFirst(res,
		func(p repositories.PointTransactionRecord) time.Time { return p.TransactionDate },
		func(p repositories.PointTransactionRecord) string { return strconv.FormatInt(p.ID, 10) })
	return truncate(res, limit), nil
}

func (r pointRepo) Statistics(_ context.Context, memberID string) (models.PointStatistics, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var s models.PointStatistics
	for _, p := range r.s.d.points {
		if memberID != "" && p.MemberID != memberID {
			continue
		}
		pts := int64(p.Points)
		switch p.Type {
		case "earn":
			s.TotalEarned += pts
		case "redeem":
			s.TotalRedeemed += pts
		case "expire":
			s.TotalExpired += pts
		case "adjustment":
			s.TotalAdjusted += pts
		}
		s.NetPoints += pts
		s.TotalTransactions++
	}
	return s, nil
}
