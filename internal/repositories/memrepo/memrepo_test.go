package memrepo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoshichaam/crm_loyalty_go/internal/repositories"
)

func seedMember(t *testing.T, s *Store, id, email string, points int) {
	t.Helper()
	m := &repositories.MemberRecord{ID: id, Name: "Budi", Email: email, TotalPoints: points, TierLevel: "Bronze", Status: "Active"}
	require.NoError(t, s.Members().Create(context.Background(), nil, m))
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedMember(t, s, "MEM-001", "budi@example.com", 100)

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(tx repositories.DBTX) error {
		if err := s.Members().UpdateBalance(ctx, tx, "MEM-001", 900, "Silver", time.Now()); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	m, err := s.Members().Get(ctx, "MEM-001")
	require.NoError(t, err)
	assert.Equal(t, 100, m.TotalPoints)
	assert.Equal(t, "Bronze", m.TierLevel)
}

func TestWithinTx_Commits(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedMember(t, s, "MEM-001", "budi@example.com", 100)

	require.NoError(t, s.WithinTx(ctx, func(tx repositories.DBTX) error {
		return s.Members().UpdateBalance(ctx, tx, "MEM-001", 600, "Silver", time.Now())
	}))

	m, _ := s.Members().Get(ctx, "MEM-001")
	assert.Equal(t, 600, m.TotalPoints)
}

func TestMembers_EmailUniqueCaseInsensitive(t *testing.T) {
	s := New()
	seedMember(t, s, "MEM-001", "budi@example.com", 0)

	err := s.Members().Create(context.Background(), nil,
		&repositories.MemberRecord{ID: "MEM-002", Email: "BUDI@example.com"})
	var conflict repositories.ErrConflict
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "email", conflict.Field)
}

func TestUsers_ConflictReportsCollidingField(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.Users().Create(ctx, &repositories.UserRecord{Username: "admin", Email: "admin@example.com"}))

	var conflict repositories.ErrConflict
	err := s.Users().Create(ctx, &repositories.UserRecord{Username: "admin", Email: "lain@example.com"})
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "username", conflict.Field)

	err = s.Users().Create(ctx, &repositories.UserRecord{Username: "kasir", Email: "Admin@Example.com"})
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, "email", conflict.Field)

	taken, err := s.Users().UsernameTaken(ctx, "admin")
	require.NoError(t, err)
	assert.True(t, taken)
	taken, err = s.Users().UsernameTaken(ctx, "kasir")
	require.NoError(t, err)
	assert.False(t, taken)
}

func TestMembers_NotFound(t *testing.T) {
	s := New()
	_, err := s.Members().Get(context.Background(), "MEM-404")
	var nf repositories.ErrNotFound
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Member not found", nf.Message)
}

func TestVouchers_AdjustStockNeverNegative(t *testing.T) {
	s := New()
	ctx := context.Background()
	v := &repositories.VoucherRecord{Code: "V1", Name: "Diskon", Type: "discount", Stock: 1, Status: "Active"}
	require.NoError(t, s.Vouchers().Create(ctx, nil, v))

	stock, err := s.Vouchers().AdjustStock(ctx, nil, v.ID, -1, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, stock)

	_, err = s.Vouchers().AdjustStock(ctx, nil, v.ID, -1, time.Now())
	assert.ErrorIs(t, err, repositories.ErrStockExhausted)
}

func TestMembers_ListNewestFirstWithLimit(t *testing.T) {
	s := New()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	s.Now = func() time.Time { tick++; return base.Add(time.Duration(tick) * time.Minute) }

	seedMember(t, s, "MEM-001", "a@example.com", 0)
	seedMember(t, s, "MEM-002", "b@example.com", 0)
	seedMember(t, s, "MEM-003", "c@example.com", 0)

	list, err := s.Members().List(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "MEM-003", list[0].ID)
	assert.Equal(t, "MEM-002", list[1].ID)
}

func TestMembers_DeleteCascades(t *testing.T) {
	s := New()
	ctx := context.Background()
	seedMember(t, s, "MEM-001", "budi@example.com", 0)
	p := &repositories.PointTransactionRecord{MemberID: "MEM-001", Type: "earn", Points: 10}
	require.NoError(t, s.Points().Create(ctx, nil, p))

	require.NoError(t, s.Members().Delete(ctx, "MEM-001"))

	list, err := s.Points().List(ctx, "", 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStatistics_ZeroFilledMaps(t *testing.T) {
	s := New()
	ctx := context.Background()

	ms, err := s.Members().Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Bronze": 0, "Silver": 0, "Gold": 0, "Platinum": 0}, ms.ByTier)

	vs, err := s.Vouchers().Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"discount": 0, "cashback": 0, "freebie": 0}, vs.ByType)
}
