package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/hoshichaam/crm_loyalty_go/internal/models"
)

type RedeemRecord struct {
	ID          int64
	MemberID    string
	MemberName  string
	MemberEmail string
	VoucherID   int64
	VoucherCode string
	VoucherName string
	PointsCost  int
	Status      string
	RedeemDate  time.Time
	UsedDate    sql.NullTime
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type RedeemRepo interface {
	Create(ctx context.Context, tx DBTX, r *RedeemRecord) error
	Get(ctx context.Context, id int64) (RedeemRecord, error)
	// GetForUpdate mengunci baris redeem_transactions saja (bukan member/voucher).
	GetForUpdate(ctx context.Context, tx DBTX, id int64) (RedeemRecord, error)
	List(ctx context.Context, memberID string, limit int) ([]RedeemRecord, error)
	UpdateStatus(ctx context.Context, tx DBTX, id int64, status string, usedDate sql.NullTime, at time.Time) error
	Statistics(ctx context.Context, memberID string) (models.RedeemStatistics, error)
}

type redeemRepo struct{ db *sql.DB }

func NewRedeemRepo(db *sql.DB) RedeemRepo { return &redeemRepo{db: db} }

const redeemSelect = `
	SELECT r.id, r.member_id, m.name, m.email, r.voucher_id, v.code, v.name,
	       r.points_cost, r.status, r.redeem_date, r.used_date, r.created_at, r.updated_at
	FROM redeem_transactions r
	JOIN members m ON m.id = r.member_id
	JOIN vouchers v ON v.id = r.voucher_id
`

func scanRedeem(row interface{ Scan(...any) error }) (RedeemRecord, error) {
	var rec RedeemRecord
	err := row.Scan(&rec.ID, &rec.MemberID, &rec.MemberName, &rec.MemberEmail,
		&rec.VoucherID, &rec.VoucherCode, &rec.VoucherName,
		&rec.PointsCost, &rec.Status, &rec.RedeemDate, &rec.UsedDate, &rec.CreatedAt, &rec.UpdatedAt)
	return rec, err
}

func (r *redeemRepo) Create(ctx context.Context, tx DBTX, rec *RedeemRecord) error {
	const q = `
		INSERT INTO redeem_transactions (member_id, voucher_id, points_cost, status, redeem_date)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	return pick(r.db, tx).QueryRowContext(ctx, q,
		rec.MemberID, rec.VoucherID, rec.PointsCost, rec.Status, rec.RedeemDate,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
}

func (r *redeemRepo) Get(ctx context.Context, id int64) (RedeemRecord, error) {
	rec, err := scanRedeem(r.db.QueryRowContext(ctx, redeemSelect+` WHERE r.id = $1`, id))
	return rec, notFound(err, "Redeem transaction not found")
}

func (r *redeemRepo) GetForUpdate(ctx context.Context, tx DBTX, id int64) (RedeemRecord, error) {
	rec, err := scanRedeem(pick(r.db, tx).QueryRowContext(ctx, redeemSelect+` WHERE r.id = $1 FOR UPDATE OF r`, id))
	return rec, notFound(err, "Redeem transaction not found")
}

func (r *redeemRepo) List(ctx context.Context, memberID string, limit int) ([]RedeemRecord, error) {
	q := redeemSelect + `
		WHERE ($1::text = '' OR r.member_id = $1)
		ORDER BY r.redeem_date DESC, r.id DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, q, memberID, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []RedeemRecord
	for rows.Next() {
		rec, err := scanRedeem(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

func (r *redeemRepo) UpdateStatus(ctx context.Context, tx DBTX, id int64, status string, usedDate sql.NullTime, at time.Time) error {
	const q = `UPDATE redeem_transactions SET status = $2, used_date = $3, updated_at = $4 WHERE id = $1`
	res, err := pick(r.db, tx).ExecContext(ctx, q, id, status, usedDate, at)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound{Message: "Redeem transaction not found"}
	}
	return nil
}

func (r *redeemRepo) Statistics(ctx context.Context, memberID string) (models.RedeemStatistics, error) {
	const q = `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'Pending'),
		       COUNT(*) FILTER (WHERE status = 'Completed'),
		       COUNT(*) FILTER (WHERE status = 'Used'),
		       COUNT(*) FILTER (WHERE status = 'Cancelled'),
		       COALESCE(SUM(points_cost) FILTER (WHERE status <> 'Cancelled'), 0)
		FROM redeem_transactions
		WHERE ($1::text = '' OR member_id = $1)
	`
	var s models.RedeemStatistics
	err := r.db.QueryRowContext(ctx, q, memberID).Scan(
		&s.TotalRedeems, &s.PendingRedeems, &s.CompletedRedeems, &s.UsedRedeems, &s.CancelledRedeems, &s.TotalPointsRedeemed,
	)
	return s, err
}
