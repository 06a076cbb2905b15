package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/hoshichaam/crm_loyalty_go/internal/models"
)

// PointTransactionRecord adalah baris append-only; tidak ada Update/Delete.
type PointTransactionRecord struct {
	ID              int64
	MemberID        string
	MemberName      string
	MemberEmail     string
	Type            string
	Points          int
	Description     string
	TransactionDate time.Time
	CreatedBy       string
	CreatedAt       time.Time
}

type PointRepo interface {
	Create(ctx context.Context, tx DBTX, p *PointTransactionRecord) error
	Get(ctx context.Context, id int64) (PointTransactionRecord, error)
	// List: memberID kosong = semua member.
	List(ctx context.Context, memberID string, limit int) ([]PointTransactionRecord, error)
	// Statistics mengembalikan sum bertanda apa adanya.
	Statistics(ctx context.Context, memberID string) (models.PointStatistics, error)
}

type pointRepo struct{ db *sql.DB }

func NewPointRepo(db *sql.DB) PointRepo { return &pointRepo{db: db} }

const pointSelect = `
	SELECT p.id, p.member_id, m.name, m.email, p.transaction_type, p.points, p.description,
	       p.transaction_date, p.created_by, p.created_at
	FROM point_transactions p
	JOIN members m ON m.id = p.member_id
`

func scanPoint(row interface{ Scan(...any) error }) (PointTransactionRecord, error) {
	var p PointTransactionRecord
	err := row.Scan(&p.ID, &p.MemberID, &p.MemberName, &p.MemberEmail, &p.Type, &p.Points,
		&p.Description, &p.TransactionDate, &p.CreatedBy, &p.CreatedAt)
	return p, err
}

func (r *pointRepo) Create(ctx context.Context, tx DBTX, p *PointTransactionRecord) error {
	const q = `
		INSERT INTO point_transactions (member_id, transaction_type, points, description, transaction_date, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	return pick(r.db, tx).QueryRowContext(ctx, q,
		p.MemberID, p.Type, p.Points, p.Description, p.TransactionDate, p.CreatedBy,
	).Scan(&p.ID, &p.CreatedAt)
}

func (r *pointRepo) Get(ctx context.Context, id int64) (PointTransactionRecord, error) {
	p, err := scanPoint(r.db.QueryRowContext(ctx, pointSelect+` WHERE p.id = $1`, id))
	return p, notFound(err, "Point transaction not found")
}

func (r *pointRepo) List(ctx context.Context, memberID string, limit int) ([]PointTransactionRecord, error) {
	q := pointSelect + `
		WHERE ($1::text = '' OR p.member_id = $1)
		ORDER BY p.transaction_date DESC, p.id DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, q, memberID, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []PointTransactionRecord
	for rows.Next() {
		p, err := scanPoint(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, rows.Err()
}

func (r *pointRepo) Statistics(ctx context.Context, memberID string) (models.PointStatistics, error) {
	const q = `
		SELECT COALESCE(SUM(points) FILTER (WHERE transaction_type = 'earn'), 0),
		       COALESCE(SUM(points) FILTER (WHERE transaction_type = 'redeem'), 0),
		       COALESCE(SUM(points) FILTER (WHERE transaction_type = 'expire'), 0),
		       COALESCE(SUM(points) FILTER (WHERE transaction_type = 'adjustment'), 0),
		       COALESCE(SUM(points), 0),
		       COUNT(*)
		FROM point_transactions
		WHERE ($1::text = '' OR member_id = $1)
	`
	var s models.PointStatistics
	err := r.db.QueryRowContext(ctx, q, memberID).Scan(
		&s.TotalEarned, &s.TotalRedeemed, &s.TotalExpired, &s.TotalAdjusted, &s.NetPoints, &s.TotalTransactions,
	)
	return s, err
}
