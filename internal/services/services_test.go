package services

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoshichaam/crm_loyalty_go/internal/models"
	"github.com/hoshichaam/crm_loyalty_go/internal/repositories"
	"github.com/hoshichaam/crm_loyalty_go/internal/repositories/memrepo"
)

var today = time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store    *memrepo.Store
	members  *MemberService
	points   *PointService
	vouchers *VoucherService
	redeems  *RedeemService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memrepo.New()
	clock := func() time.Time { return today }
	store.Now = clock

	f := &fixture{
		store:    store,
		members:  NewMemberService(store.Members(), store),
		points:   NewPointService(store.Points(), store.Members(), store),
		vouchers: NewVoucherService(store.Vouchers(), store),
		redeems:  NewRedeemService(store.Redeems(), store.Members(), store.Vouchers(), store),
	}
	f.members.now = clock
	f.points.now = clock
	f.vouchers.now = clock
	f.redeems.now = clock
	return f
}

func ptr[T any](v T) *T { return &v }

func (f *fixture) member(t *testing.T, email string, points int) MemberDTO {
	t.Helper()
	m, err := f.members.Create(context.Background(), models.CreateMemberRequest{
		Name: "Siti", Email: email, Phone: "+62 812-3456",
	})
	require.NoError(t, err)
	if points > 0 {
		_, err = f.points.Record(context.Background(), "admin", models.CreatePointTransactionRequest{
			Member: m.ID, TransactionType: "earn", Points: ptr(points),
		})
		require.NoError(t, err)
	}
	m, err = f.members.Get(context.Background(), m.ID)
	require.NoError(t, err)
	return m
}

func (f *fixture) voucher(t *testing.T, code string, cost, stock int, start, end string) VoucherDTO {
	t.Helper()
	v, err := f.vouchers.Create(context.Background(), models.CreateVoucherRequest{
		Code: code, Name: "Voucher " + code, PointsCost: ptr(cost), Stock: ptr(stock),
		StartDate: start, EndDate: end,
	})
	require.NoError(t, err)
	return v
}

func requireFieldError(t *testing.T, err error, field string) {
	t.Helper()
	var ve ErrValidation
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, field)
}

// ---------- members ----------

func TestMemberCreate_SequentialIDsAndDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.members.Create(ctx, models.CreateMemberRequest{Name: "A", Email: "a@example.com", Phone: "0812"})
	require.NoError(t, err)
	b, err := f.members.Create(ctx, models.CreateMemberRequest{Name: "B", Email: "b@example.com", Phone: "0813"})
	require.NoError(t, err)

	assert.Equal(t, "MEM-001", a.ID)
	assert.Equal(t, "MEM-002", b.ID)
	assert.Equal(t, "Bronze", a.TierLevel)
	assert.Equal(t, 0, a.TotalPoints)
	assert.Equal(t, 500, a.PointsToNextTier)
	assert.Equal(t, "Active", a.Status)
	assert.Equal(t, "2025-06-15", a.JoinDate)
}

func TestMemberCreate_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	f.member(t, "dup@example.com", 0)

	_, err := f.members.Create(context.Background(), models.CreateMemberRequest{
		Name: "X", Email: "DUP@example.com", Phone: "0812",
	})
	requireFieldError(t, err, "email")
}

func TestMemberCreate_InvalidPhone(t *testing.T) {
	f := newFixture(t)
	_, err := f.members.Create(context.Background(), models.CreateMemberRequest{
		Name: "X", Email: "x@example.com", Phone: "call me",
	})
	requireFieldError(t, err, "phone")
}

func TestMemberUpdate_KeepsBalance(t *testing.T) {
	f := newFixture(t)
	m := f.member(t, "siti@example.com", 700)

	out, err := f.members.Update(context.Background(), m.ID, models.UpdateMemberRequest{
		Name: ptr("Siti Aminah"), Status: ptr("Inactive"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Siti Aminah", out.Name)
	assert.Equal(t, "Inactive", out.Status)
	assert.Equal(t, 700, out.TotalPoints)
	assert.Equal(t, "Silver", out.TierLevel)
}

func TestMemberGet_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.members.Get(context.Background(), "MEM-999")
	var nf ErrNotFoundResource
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "Member not found", nf.Msg)
}

// ---------- points ----------

func TestPointRecord_EarnToPlatinum(t *testing.T) {
	f := newFixture(t)
	m := f.member(t, "siti@example.com", 0)

	tx, err := f.points.Record(context.Background(), "admin", models.CreatePointTransactionRequest{
		Member: m.ID, TransactionType: "earn", Points: ptr(2600),
	})
	require.NoError(t, err)
	assert.Equal(t, 2600, tx.Points)
	assert.Equal(t, "admin", tx.CreatedBy)
	assert.Equal(t, "Siti", tx.MemberName)

	got, _ := f.members.Get(context.Background(), m.ID)
	assert.Equal(t, 2600, got.TotalPoints)
	assert.Equal(t, "Platinum", got.TierLevel)
	assert.Equal(t, 0, got.PointsToNextTier)
}

func TestPointRecord_NormalizesSignAndClamps(t *testing.T) {
	f := newFixture(t)
	m := f.member(t, "siti@example.com", 100)
	ctx := context.Background()

	tx, err := f.points.Record(ctx, "admin", models.CreatePointTransactionRequest{
		Member: m.ID, TransactionType: "redeem", Points: ptr(300),
	})
	require.NoError(t, err)
	assert.Equal(t, -300, tx.Points)

	got, _ := f.members.Get(ctx, m.ID)
	assert.Equal(t, 0, got.TotalPoints)

	earn, err := f.points.Record(ctx, "admin", models.CreatePointTransactionRequest{
		Member: m.ID, TransactionType: "earn", Points: ptr(-50),
	})
	require.NoError(t, err)
	assert.Equal(t, 50, earn.Points)
}

func TestPointRecord_UnknownMemberLeavesNoRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.points.Record(ctx, "admin", models.CreatePointTransactionRequest{
		Member: "MEM-404", TransactionType: "earn", Points: ptr(10),
	})
	requireFieldError(t, err, "member")

	list, err := f.points.List(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPointRecord_RejectsOutOfRangePoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.member(t, "siti@example.com", 1000)

	_, err := f.points.Record(ctx, "admin", models.CreatePointTransactionRequest{
		Member: m.ID, TransactionType: "earn", Points: ptr(math.MaxInt64),
	})
	requireFieldError(t, err, "points")

	// masih dalam range kolom, tapi saldo akhirnya tidak
	_, err = f.points.Record(ctx, "admin", models.CreatePointTransactionRequest{
		Member: m.ID, TransactionType: "earn", Points: ptr(math.MaxInt32),
	})
	requireFieldError(t, err, "points")

	got, err := f.members.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000, got.TotalPoints)
	assert.Equal(t, "Gold", got.TierLevel)

	rows, err := f.points.ListByMember(ctx, m.ID, 0)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "only the seeding earn is stored")
}

func TestPointRecord_RejectsUnknownType(t *testing.T) {
	f := newFixture(t)
	m := f.member(t, "siti@example.com", 0)
	_, err := f.points.Record(context.Background(), "admin", models.CreatePointTransactionRequest{
		Member: m.ID, TransactionType: "bonus", Points: ptr(10),
	})
	requireFieldError(t, err, "transaction_type")
}

func TestPointStatistics_AbsoluteRedeemAndExpire(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.member(t, "a@example.com", 1000)
	b := f.member(t, "b@example.com", 200)

	for _, in := range []models.CreatePointTransactionRequest{
		{Member: a.ID, TransactionType: "redeem", Points: ptr(100)},
		{Member: a.ID, TransactionType: "expire", Points: ptr(-50)},
		{Member: a.ID, TransactionType: "adjustment", Points: ptr(-20)},
	} {
		_, err := f.points.Record(ctx, "admin", in)
		require.NoError(t, err)
	}

	st, err := f.points.Statistics(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), st.TotalEarned)
	assert.Equal(t, int64(100), st.TotalRedeemed)
	assert.Equal(t, int64(50), st.TotalExpired)
	assert.Equal(t, int64(-20), st.TotalAdjusted)
	assert.Equal(t, int64(830), st.NetPoints)
	assert.Equal(t, 4, st.TotalTransactions)

	all, err := f.points.Statistics(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(1200), all.TotalEarned)

	byB, err := f.points.ListByMember(ctx, b.ID, 0)
	require.NoError(t, err)
	assert.Len(t, byB, 1)
}

// ---------- vouchers ----------

func TestVoucherCreate_DerivesStatus(t *testing.T) {
	f := newFixture(t)

	expired := f.voucher(t, "OLD", 100, 10, "2025-05-01", "2025-06-14")
	assert.Equal(t, "Expired", expired.Status)
	assert.False(t, expired.IsAvailable)
	assert.Equal(t, 0, expired.DaysUntilExpiry)

	future := f.voucher(t, "SOON", 100, 10, "2025-07-01", "2025-07-31")
	assert.Equal(t, "Inactive", future.Status)
	assert.False(t, future.IsAvailable)

	live := f.voucher(t, "LIVE", 100, 10, "2025-06-01", "2025-06-30")
	assert.Equal(t, "Active", live.Status)
	assert.True(t, live.IsAvailable)
	assert.Equal(t, 15, live.DaysUntilExpiry)
	assert.Equal(t, "discount", live.Type)

	empty := f.voucher(t, "EMPTY", 100, 0, "2025-06-01", "2025-06-30")
	assert.False(t, empty.IsAvailable)
}

func TestVoucherCreate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.voucher(t, "DUP", 100, 1, "2025-06-01", "2025-06-30")

	_, err := f.vouchers.Create(ctx, models.CreateVoucherRequest{
		Code: "DUP", Name: "x", PointsCost: ptr(1), StartDate: "2025-06-01", EndDate: "2025-06-30",
	})
	requireFieldError(t, err, "code")

	_, err = f.vouchers.Create(ctx, models.CreateVoucherRequest{
		Code: "BACK", Name: "x", PointsCost: ptr(1), StartDate: "2025-06-30", EndDate: "2025-06-01",
	})
	requireFieldError(t, err, "end_date")

	_, err = f.vouchers.Create(ctx, models.CreateVoucherRequest{
		Code: "NEG", Name: "x", PointsCost: ptr(-1), StartDate: "2025-06-01", EndDate: "2025-06-30",
	})
	requireFieldError(t, err, "points_cost")
}

func TestVoucherCreate_CaseInsensitiveEnums(t *testing.T) {
	f := newFixture(t)
	out, err := f.vouchers.Create(context.Background(), models.CreateVoucherRequest{
		Code: "CB10", Name: "Cashback", Type: "CashBack", Status: "inactive",
		PointsCost: ptr(10), StartDate: "2025-06-01", EndDate: "2025-06-30",
	})
	require.NoError(t, err)
	assert.Equal(t, "cashback", out.Type)
	assert.Equal(t, "Inactive", out.Status)
}

func TestVoucherUpdate_RecomputesStatus(t *testing.T) {
	f := newFixture(t)
	v := f.voucher(t, "V1", 100, 5, "2025-06-01", "2025-06-30")

	out, err := f.vouchers.Update(context.Background(), v.ID, models.UpdateVoucherRequest{
		EndDate: ptr("2025-06-10"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Expired", out.Status)
	assert.False(t, out.IsAvailable)
	assert.Equal(t, 5, out.Stock)
}

// interleavedVouchers menjalankan hook tepat setelah baris voucher dibaca
// untuk update, meniru redemption yang commit di antara baca dan tulis.
type interleavedVouchers struct {
	repositories.VoucherRepo
	afterRead func(id int64)
}

func (r interleavedVouchers) GetForUpdate(ctx context.Context, tx repositories.DBTX, id int64) (repositories.VoucherRecord, error) {
	v, err := r.VoucherRepo.GetForUpdate(ctx, tx, id)
	if err == nil && r.afterRead != nil {
		r.afterRead(id)
	}
	return v, err
}

func TestVoucherUpdate_DoesNotRewriteStock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.voucher(t, "V1", 100, 1, "2025-06-01", "2025-06-30")

	svc := NewVoucherService(interleavedVouchers{
		VoucherRepo: f.store.Vouchers(),
		afterRead: func(id int64) {
			_, err := f.store.Vouchers().AdjustStock(ctx, nil, id, -1, today)
			require.NoError(t, err)
		},
	}, f.store)
	svc.now = f.vouchers.now

	out, err := svc.Update(ctx, v.ID, models.UpdateVoucherRequest{Name: ptr("Renamed")})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", out.Name)
	assert.Equal(t, 0, out.Stock)

	got, err := f.vouchers.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock, "stock decrement between read and write must survive")
	assert.False(t, got.IsAvailable)
}

func TestVoucherUpdate_SetsStockWhenSent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v := f.voucher(t, "V1", 100, 1, "2025-06-01", "2025-06-30")

	out, err := f.vouchers.Update(ctx, v.ID, models.UpdateVoucherRequest{Stock: ptr(7)})
	require.NoError(t, err)
	assert.Equal(t, 7, out.Stock)

	out, err = f.vouchers.Update(ctx, v.ID, models.UpdateVoucherRequest{Stock: ptr(0)})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Stock)
	assert.False(t, out.IsAvailable)
}

func TestVoucherStatistics(t *testing.T) {
	f := newFixture(t)
	f.voucher(t, "V1", 100, 5, "2025-06-01", "2025-06-30")
	f.voucher(t, "V2", 100, 3, "2025-05-01", "2025-05-30")

	st, err := f.vouchers.Statistics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, st.TotalVouchers)
	assert.Equal(t, 1, st.ActiveVouchers)
	assert.Equal(t, int64(8), st.TotalStock)
	assert.Equal(t, 2, st.ByType["discount"])
	assert.Equal(t, 0, st.ByType["freebie"])
}

// ---------- redemptions ----------

func TestRedeem_InsufficientPointsChangesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.member(t, "siti@example.com", 0)
	v := f.voucher(t, "V500", 500, 1, "2025-06-01", "2025-06-30")

	_, err := f.redeems.Create(ctx, models.CreateRedeemRequest{Member: m.ID, Voucher: v.ID})
	var br ErrBusinessRule
	require.ErrorAs(t, err, &br)
	assert.Equal(t, "Insufficient points for redemption", br.Msg)

	gotM, _ := f.members.Get(ctx, m.ID)
	gotV, _ := f.vouchers.Get(ctx, v.ID)
	assert.Equal(t, 0, gotM.TotalPoints)
	assert.Equal(t, 1, gotV.Stock)

	list, _ := f.redeems.List(ctx, "", 0)
	assert.Empty(t, list)
}

func TestRedeem_CreateThenCancelRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.member(t, "siti@example.com", 1000)
	v := f.voucher(t, "V500", 500, 1, "2025-06-01", "2025-06-30")

	r, err := f.redeems.Create(ctx, models.CreateRedeemRequest{Member: m.ID, Voucher: v.ID})
	require.NoError(t, err)
	assert.Equal(t, "Pending", r.Status)
	assert.Equal(t, 500, r.PointsCost)
	assert.Equal(t, "V500", r.VoucherCode)

	gotM, _ := f.members.Get(ctx, m.ID)
	gotV, _ := f.vouchers.Get(ctx, v.ID)
	assert.Equal(t, 500, gotM.TotalPoints)
	assert.Equal(t, "Silver", gotM.TierLevel)
	assert.Equal(t, 0, gotV.Stock)
	assert.False(t, gotV.IsAvailable)

	c, err := f.redeems.Cancel(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cancelled", c.Status)

	gotM, _ = f.members.Get(ctx, m.ID)
	gotV, _ = f.vouchers.Get(ctx, v.ID)
	assert.Equal(t, 1000, gotM.TotalPoints)
	assert.Equal(t, "Gold", gotM.TierLevel)
	assert.Equal(t, 1, gotV.Stock)

	_, err = f.redeems.Cancel(ctx, r.ID)
	var br ErrBusinessRule
	require.ErrorAs(t, err, &br)
	assert.Equal(t, "Cannot cancel this redemption", br.Msg)

	gotM, _ = f.members.Get(ctx, m.ID)
	assert.Equal(t, 1000, gotM.TotalPoints)
}

func TestRedeem_OutOfStockAndUnavailable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.member(t, "siti@example.com", 5000)
	empty := f.voucher(t, "EMPTY", 100, 0, "2025-06-01", "2025-06-30")
	expired := f.voucher(t, "OLD", 100, 5, "2025-05-01", "2025-05-30")

	_, err := f.redeems.Create(ctx, models.CreateRedeemRequest{Member: m.ID, Voucher: empty.ID})
	var br ErrBusinessRule
	require.ErrorAs(t, err, &br)
	assert.Equal(t, "voucher", br.Field)
	assert.Equal(t, "Voucher is not available", br.Msg)

	_, err = f.redeems.Create(ctx, models.CreateRedeemRequest{Member: m.ID, Voucher: expired.ID})
	require.ErrorAs(t, err, &br)
	assert.Equal(t, "Voucher is not available", br.Msg)
}

func TestRedeem_UnknownVoucher(t *testing.T) {
	f := newFixture(t)
	m := f.member(t, "siti@example.com", 100)
	_, err := f.redeems.Create(context.Background(), models.CreateRedeemRequest{Member: m.ID, Voucher: 99})
	requireFieldError(t, err, "voucher")
}

func TestRedeem_MarkUsedStampsOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.member(t, "siti@example.com", 1000)
	v := f.voucher(t, "V1", 100, 3, "2025-06-01", "2025-06-30")

	r, err := f.redeems.Create(ctx, models.CreateRedeemRequest{Member: m.ID, Voucher: v.ID, Status: "completed"})
	require.NoError(t, err)
	assert.Equal(t, "Completed", r.Status)

	used, err := f.redeems.MarkUsed(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "Used", used.Status)
	require.NotNil(t, used.UsedDate)
	assert.True(t, used.UsedDate.Equal(today))

	later := today.Add(time.Hour)
	f.redeems.now = func() time.Time { return later }
	again, err := f.redeems.MarkUsed(ctx, r.ID)
	require.NoError(t, err)
	assert.True(t, again.UsedDate.Equal(today))

	_, err = f.redeems.Cancel(ctx, r.ID)
	var br ErrBusinessRule
	require.ErrorAs(t, err, &br)

	gotM, _ := f.members.Get(ctx, m.ID)
	assert.Equal(t, 900, gotM.TotalPoints)
}

func TestRedeem_GenericUpdateRoutesThroughStateMachine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.member(t, "siti@example.com", 1000)
	v := f.voucher(t, "V1", 300, 2, "2025-06-01", "2025-06-30")

	r, err := f.redeems.Create(ctx, models.CreateRedeemRequest{Member: m.ID, Voucher: v.ID})
	require.NoError(t, err)

	out, err := f.redeems.Update(ctx, r.ID, models.UpdateRedeemRequest{Status: "Cancelled"})
	require.NoError(t, err)
	assert.Equal(t, "Cancelled", out.Status)

	gotM, _ := f.members.Get(ctx, m.ID)
	gotV, _ := f.vouchers.Get(ctx, v.ID)
	assert.Equal(t, 1000, gotM.TotalPoints)
	assert.Equal(t, 2, gotV.Stock)

	_, err = f.redeems.Update(ctx, r.ID, models.UpdateRedeemRequest{Status: "Pending"})
	var br ErrBusinessRule
	require.ErrorAs(t, err, &br)
	assert.Equal(t, "Cannot change status from Cancelled to Pending", br.Msg)

	_, err = f.redeems.Update(ctx, r.ID, models.UpdateRedeemRequest{Status: "Lost"})
	requireFieldError(t, err, "status")
}

func TestRedeem_CreateRejectsTerminalStatus(t *testing.T) {
	f := newFixture(t)
	m := f.member(t, "siti@example.com", 1000)
	v := f.voucher(t, "V1", 100, 2, "2025-06-01", "2025-06-30")
	_, err := f.redeems.Create(context.Background(), models.CreateRedeemRequest{Member: m.ID, Voucher: v.ID, Status: "Used"})
	requireFieldError(t, err, "status")

	out, err := f.redeems.Create(context.Background(), models.CreateRedeemRequest{Member: m.ID, Voucher: v.ID, Status: "completed"})
	require.NoError(t, err)
	assert.Equal(t, "Completed", out.Status)
}

func TestRedeemStatistics_ExcludesCancelledPoints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	m := f.member(t, "siti@example.com", 1000)
	v := f.voucher(t, "V1", 200, 5, "2025-06-01", "2025-06-30")

	r1, err := f.redeems.Create(ctx, models.CreateRedeemRequest{Member: m.ID, Voucher: v.ID})
	require.NoError(t, err)
	_, err = f.redeems.Create(ctx, models.CreateRedeemRequest{Member: m.ID, Voucher: v.ID})
	require.NoError(t, err)
	_, err = f.redeems.Cancel(ctx, r1.ID)
	require.NoError(t, err)

	st, err := f.redeems.Statistics(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, st.TotalRedeems)
	assert.Equal(t, 1, st.PendingRedeems)
	assert.Equal(t, 1, st.CancelledRedeems)
	assert.Equal(t, int64(200), st.TotalPointsRedeemed)

	ms, err := f.members.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, ms.TotalMembers)
	assert.Equal(t, 1, ms.ByTier["Silver"])
	assert.Equal(t, int64(800), ms.TotalPoints)
}
