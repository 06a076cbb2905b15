package memrepo

import (
	"context"
	"time"

	"github.com/hoshichaam/crm_loyalty_go/internal/loyalty"
	"github.com/hoshichaam/crm_loyalty_go/internal/models"
	"github.com/hoshichaam/crm_loyalty_go/internal/repositories"
)

type memberRepo struct{ s *Store }

var errMemberNotFound = repositories.ErrNotFound{Message: "Member not found"}

func (r memberRepo) NextMemberNumber(_ context.Context, _ repositories.DBTX) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.d.memberSeq++
	return r.s.d.memberSeq, nil
}

func (r memberRepo) emailTakenLocked(email, excludeID string) bool {
	for id, m := range r.s.d.members {
		if id != excludeID && sameEmail(m.Email, email) {
			return true
		}
	}
	return false
}

func (r memberRepo) Create(_ context.Context, _ repositories.DBTX, m *repositories.MemberRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.d.members[m.ID]; ok {
		return repositories.ErrConflict{Field: "id", Message: "Member ID already exists"}
	}
	if r.emailTakenLocked(m.Email, "") {
		return repositories.ErrConflict{Field: "email", Message: "Email already exists"}
	}
	now := r.s.now()
	m.CreatedAt, m.UpdatedAt = now, now
	r.s.d.members[m.ID] = *m
	return nil
}

func (r memberRepo) Get(_ context.Context, id string) (repositories.MemberRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	m, ok := r.s.d.members[id]
	if !ok {
		return m, errMemberNotFound
	}
	return m, nil
}

func (r memberRepo) GetForUpdate(ctx context.Context, _ repositories.DBTX, id string) (repositories.MemberRecord, error) {
	return r.Get(ctx, id)
}

func (r memberRepo) List(_ context.Context, limit int) ([]repositories.MemberRecord, error) {
	r.s.mu.RLock()
	res := make([]repositories.MemberRecord, 0, len(r.s.d.members))
	for _, m := range r.s.d.members {
		res = append(res, m)
	}
	r.s.mu.RUnlock()

	sortNewestFirst(res,
		func(m repositories.MemberRecord) time.Time { return m.CreatedAt },
		func(m repositories.MemberRecord) string { return m.ID })
	return truncate(res, limit), nil
}

func (r memberRepo) Update(_ context.Context, _ repositories.DBTX, m *repositories.MemberRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.d.members[m.ID]
	if !ok {
		return errMemberNotFound
	}
	if r.emailTakenLocked(m.Email, m.ID) {
		return repositories.ErrConflict{Field: "email", Message: "Email already exists"}
	}
	cur.Name, cur.Email, cur.Phone, cur.Address = m.Name, m.Email, m.Phone, m.Address
	cur.JoinDate, cur.Status = m.JoinDate, m.Status
	cur.UpdatedAt = r.s.now()
	r.s.d.members[m.ID] = cur
	m.UpdatedAt = cur.UpdatedAt
	return nil
}

func (r memberRepo) UpdateBalance(_ context.Context, _ repositories.DBTX, id string, points int, tier string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m, ok := r.s.d.members[id]
	if !ok {
		return errMemberNotFound
	}
	m.TotalPoints, m.TierLevel, m.UpdatedAt = points, tier, at
	r.s.d.members[id] = m
	return nil
}

// Delete juga menghapus transaksi poin dan redeem milik member (ON DELETE CASCADE).
func (r memberRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.d.members[id]; !ok {
		return errMemberNotFound
	}
	delete(r.s.d.members, id)
	for pid, p := range r.s.d.points {
		if p.MemberID == id {
			delete(r.s.d.points, pid)
		}
	}
	for rid, rec := range r.s.d.redeems {
		if rec.MemberID == id {
			delete(r.s.d.redeems, rid)
		}
	}
	return nil
}

func (r memberRepo) EmailTaken(_ context.Context, email, excludeID string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.emailTakenLocked(email, excludeID), nil
}

func (r memberRepo) Statistics(_ context.Context) (models.MemberStatistics, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stats := models.MemberStatistics{ByTier: make(map[string]int, len(loyalty.Tiers))}
	for _, t := range loyalty.Tiers {
		stats.ByTier[string(t)] = 0
	}
	for _, m := range r.s.d.members {
		stats.TotalMembers++
		switch m.Status {
		case "Active":
			stats.ActiveMembers++
		case "Inactive":
			stats.InactiveMembers++
		}
		stats.ByTier[m.TierLevel]++
		stats.TotalPoints += int64(m.TotalPoints)
	}
	return stats, nil
}
