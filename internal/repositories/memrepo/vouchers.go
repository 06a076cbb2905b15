package memrepo

import (
	"context"
	"strconv"
	"time"

	"github.com/hoshichaam/crm_loyalty_go/internal/loyalty"
	"github.com/hoshichaam/crm_loyalty_go/internal/models"
	"github.com/hoshichaam/crm_loyalty_go/internal/repositories"
)

type voucherRepo struct{ s *Store }

var errVoucherNotFound = repositories.ErrNotFound{Message: "Voucher not found"}

func (r voucherRepo) codeTakenLocked(code string, excludeID int64) bool {
	for id, v := range r.s.d.vouchers {
		if id != excludeID && v.Code == code {
			return true
		}
	}
	return false
}

func (r voucherRepo) Create(_ context.Context, _ repositories.DBTX, v *repositories.VoucherRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.codeTakenLocked(v.Code, 0) {
		return repositories.ErrConflict{Field: "code", Message: "Voucher code already exists"}
	}
	r.s.d.voucherSeq++
	v.ID = r.s.d.voucherSeq
	now := r.s.now()
	v.CreatedAt, v.UpdatedAt = now, now
	r.s.d.vouchers[v.ID] = *v
	return nil
}

func (r voucherRepo) Get(_ context.Context, id int64) (repositories.VoucherRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	v, ok := r.s.d.vouchers[id]
	if !ok {
		return v, errVoucherNotFound
	}
	return v, nil
}

func (r voucherRepo) GetForUpdate(ctx context.Context, _ repositories.DBTX, id int64) (repositories.VoucherRecord, error) {
	return r.Get(ctx, id)
}

func (r voucherRepo) List(_ context.Context, limit int) ([]repositories.VoucherRecord, error) {
	r.s.mu.RLock()
	res := make([]repositories.VoucherRecord, 0, len(r.s.d.vouchers))
	for _, v := range r.s.d.vouchers {
		res = append(res, v)
	}
	r.s.mu.RUnlock()

	sortNewestFirst(res,
		func(v repositories.VoucherRecord) time.Time { return v.CreatedAt },
		func(v repositories.VoucherRecord) string { return strconv.FormatInt(v.ID, 10) })
	return truncate(res, limit), nil
}

func (r voucherRepo) Update(_ context.Context, _ repositories.DBTX, v *repositories.VoucherRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cur, ok := r.s.d.vouchers[v.ID]
	if !ok {
		return errVoucherNotFound
	}
	if r.codeTakenLocked(v.Code, v.ID) {
		return repositories.ErrConflict{Field: "code", Message: "Voucher code already exists"}
	}
	// stock hanya lewat AdjustStock
	v.Stock = cur.Stock
	v.CreatedAt = cur.CreatedAt
	v.UpdatedAt = r.s.now()
	r.s.d.vouchers[v.ID] = *v
	return nil
}

func (r voucherRepo) AdjustStock(_ context.Context, _ repositories.DBTX, id int64, delta int, at time.Time) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.d.vouchers[id]
	if !ok || v.Stock+delta < 0 {
		return 0, repositories.ErrStockExhausted
	}
	v.Stock += delta
	v.UpdatedAt = at
	r.s.d.vouchers[id] = v
	return v.Stock, nil
}

func (r voucherRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.d.vouchers[id]; !ok {
		return errVoucherNotFound
	}
	delete(r.s.d.vouchers, id)
	for rid, rec := range r.s.d.redeems {
		if rec.VoucherID == id {
			delete(r.s.d.redeems, rid)
		}
	}
	return nil
}

func (r voucherRepo) CodeTaken(_ context.Context, code string, excludeID int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return r.codeTakenLocked(code, excludeID), nil
}

func (r voucherRepo) Statistics(_ context.Context) (models.VoucherStatistics, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stats := models.VoucherStatistics{ByType: make(map[string]int, len(loyalty.VoucherTypes))}
	for _, t := range loyalty.VoucherTypes {
		stats.ByType[string(t)] = 0
	}
	for _, v := range r.s.d.vouchers {
		stats.TotalVouchers++
		if v.Status == string(loyalty.VoucherActive) {
			stats.ActiveVouchers++
		}
		stats.TotalStock += int64(v.Stock)
		stats.ByType[v.Type]++
	}
	return stats, nil
}
