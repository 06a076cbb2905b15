package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/hoshichaam/crm_loyalty_go/internal/loyalty"
	"github.com/hoshichaam/crm_loyalty_go/internal/models"
)

type VoucherRecord struct {
	ID            int64
	Code          string
	Name          string
	Description   string
	Type          string
	DiscountValue decimal.NullDecimal
	PointsCost    int
	Stock         int
	StartDate     time.Time
	EndDate       time.Time
	Status        string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type VoucherRepo interface {
	Create(ctx context.Context, tx DBTX, v *VoucherRecord) error
	Get(ctx context.Context, id int64) (VoucherRecord, error)
	GetForUpdate(ctx context.Context, tx DBTX, id int64) (VoucherRecord, error)
	List(ctx context.Context, limit int) ([]VoucherRecord, error)
	// Update tidak pernah menulis stock; v.Stock diisi ulang dari baris yang tersimpan.
	Update(ctx context.Context, tx DBTX, v *VoucherRecord) error
	// AdjustStock menambah delta ke stock; kalau hasilnya < 0 tidak ada baris
	// yang berubah dan ErrStockExhausted dikembalikan.
	AdjustStock(ctx context.Context, tx DBTX, id int64, delta int, at time.Time) (int, error)
	Delete(ctx context.Context, id int64) error
	CodeTaken(ctx context.Context, code string, excludeID int64) (bool, error)
	Statistics(ctx context.Context) (models.VoucherStatistics, error)
}

type voucherRepo struct{ db *sql.DB }

func NewVoucherRepo(db *sql.DB) VoucherRepo { return &voucherRepo{db: db} }

const voucherColumns = `id, code, name, description, type, discount_value, points_cost, stock,
	start_date, end_date, status, created_at, updated_at`

func scanVoucher(row interface{ Scan(...any) error }) (VoucherRecord, error) {
	var v VoucherRecord
	err := row.Scan(&v.ID, &v.Code, &v.Name, &v.Description, &v.Type, &v.DiscountValue,
		&v.PointsCost, &v.Stock, &v.StartDate, &v.EndDate, &v.Status, &v.CreatedAt, &v.UpdatedAt)
	return v, err
}

func (r *voucherRepo) Create(ctx context.Context, tx DBTX, v *VoucherRecord) error {
	const q = `
		INSERT INTO vouchers (code, name, description, type, discount_value, points_cost, stock, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`
	err := pick(r.db, tx).QueryRowContext(ctx, q,
		v.Code, v.Name, v.Description, v.Type, v.DiscountValue, v.PointsCost, v.Stock, v.StartDate, v.EndDate, v.Status,
	).Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	return uniqueViolation(err, "code", "Voucher code already exists")
}

func (r *voucherRepo) Get(ctx context.Context, id int64) (VoucherRecord, error) {
	v, err := scanVoucher(r.db.QueryRowContext(ctx, `SELECT `+voucherColumns+` FROM vouchers WHERE id = $1`, id))
	return v, notFound(err, "Voucher not found")
}

func (r *voucherRepo) GetForUpdate(ctx context.Context, tx DBTX, id int64) (VoucherRecord, error) {
	v, err := scanVoucher(pick(r.db, tx).QueryRowContext(ctx,
		`SELECT `+voucherColumns+` FROM vouchers WHERE id = $1 FOR UPDATE`, id))
	return v, notFound(err, "Voucher not found")
}

func (r *voucherRepo) List(ctx context.Context, limit int) ([]VoucherRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+voucherColumns+` FROM vouchers ORDER BY created_at DESC, id DESC LIMIT $1`, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []VoucherRecord
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, rows.Err()
}

func (r *voucherRepo) Update(ctx context.Context, tx DBTX, v *VoucherRecord) error {
	const q = `
		UPDATE vouchers
		SET code = $2, name = $3, description = $4, type = $5, discount_value = $6, points_cost = $7,
		    start_date = $8, end_date = $9, status = $10, updated_at = now()
		WHERE id = $1
		RETURNING stock, updated_at
	`
	err := pick(r.db, tx).QueryRowContext(ctx, q,
		v.ID, v.Code, v.Name, v.Description, v.Type, v.DiscountValue, v.PointsCost,
		v.StartDate, v.EndDate, v.Status,
	).Scan(&v.Stock, &v.UpdatedAt)
	if err != nil {
		return uniqueViolation(notFound(err, "Voucher not found"), "code", "Voucher code already exists")
	}
	return nil
}

func (r *voucherRepo) AdjustStock(ctx context.Context, tx DBTX, id int64, delta int, at time.Time) (int, error) {
	const q = `
		UPDATE vouchers SET stock = stock + $2, updated_at = $3
		WHERE id = $1 AND stock + $2 >= 0
		RETURNING stock
	`
	var stock int
	err := pick(r.db, tx).QueryRowContext(ctx, q, id, delta, at).Scan(&stock)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrStockExhausted
	}
	return stock, err
}

func (r *voucherRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM vouchers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound{Message: "Voucher not found"}
	}
	return nil
}

func (r *voucherRepo) CodeTaken(ctx context.Context, code string, excludeID int64) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM vouchers WHERE code = $1 AND id <> $2)`, code, excludeID).Scan(&ok)
	return ok, err
}

func (r *voucherRepo) Statistics(ctx context.Context) (models.VoucherStatistics, error) {
	const q = `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'Active'),
		       COALESCE(SUM(stock), 0)
		FROM vouchers
	`
	stats := models.VoucherStatistics{ByType: make(map[string]int, len(loyalty.VoucherTypes))}
	for _, t := range loyalty.VoucherTypes {
		stats.ByType[string(t)] = 0
	}
	if err := r.db.QueryRowContext(ctx, q).Scan(&stats.TotalVouchers, &stats.ActiveVouchers, &stats.TotalStock); err != nil {
		return stats, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT type, COUNT(*) FROM vouchers GROUP BY type`)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var typ string
		var n int
		if err := rows.Scan(&typ, &n); err != nil {
			return stats, err
		}
		stats.ByType[typ] = n
	}
	return stats, rows.Err()
}
