package repositories

import (
	"context"
	"database/sql"
	"time"

	"github.com/hoshichaam/crm_loyalty_go/internal/loyalty"
	"github.com/hoshichaam/crm_loyalty_go/internal/models"
)

type MemberRecord struct {
	ID          string
	Name        string
	Email       string
	Phone       string
	Address     string
	JoinDate    time.Time
	TotalPoints int
	TierLevel   string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type MemberRepo interface {
	NextMemberNumber(ctx context.Context, tx DBTX) (int64, error)
	Create(ctx context.Context, tx DBTX, m *MemberRecord) error
	Get(ctx context.Context, id string) (MemberRecord, error)
	GetForUpdate(ctx context.Context, tx DBTX, id string) (MemberRecord, error)
	List(ctx context.Context, limit int) ([]MemberRecord, error)
	// Update menulis field profil saja; saldo lewat UpdateBalance.
	Update(ctx context.Context, tx DBTX, m *MemberRecord) error
	UpdateBalance(ctx context.Context, tx DBTX, id string, points int, tier string, at time.Time) error
	Delete(ctx context.Context, id string) error
	EmailTaken(ctx context.Context, email, excludeID string) (bool, error)
	Statistics(ctx context.Context) (models.MemberStatistics, error)
}

type memberRepo struct{ db *sql.DB }

func NewMemberRepo(db *sql.DB) MemberRepo { return &memberRepo{db: db} }

const memberColumns = `id, name, email, phone, address, join_date, total_points, tier_level, status, created_at, updated_at`

func scanMember(row interface{ Scan(...any) error }) (MemberRecord, error) {
	var m MemberRecord
	err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Phone, &m.Address, &m.JoinDate,
		&m.TotalPoints, &m.TierLevel, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (r *memberRepo) NextMemberNumber(ctx context.Context, tx DBTX) (int64, error) {
	var n int64
	err := pick(r.db, tx).QueryRowContext(ctx, `SELECT nextval('member_number_seq')`).Scan(&n)
	return n, err
}

func (r *memberRepo) Create(ctx context.Context, tx DBTX, m *MemberRecord) error {
	const q = `
		INSERT INTO members (id, name, email, phone, address, join_date, total_points, tier_level, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	err := pick(r.db, tx).QueryRowContext(ctx, q,
		m.ID, m.Name, m.Email, m.Phone, m.Address, m.JoinDate, m.TotalPoints, m.TierLevel, m.Status,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	return uniqueViolation(err, "email", "Email already exists")
}

func (r *memberRepo) Get(ctx context.Context, id string) (MemberRecord, error) {
	m, err := scanMember(r.db.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM members WHERE id = $1`, id))
	return m, notFound(err, "Member not found")
}

func (r *memberRepo) GetForUpdate(ctx context.Context, tx DBTX, id string) (MemberRecord, error) {
	m, err := scanMember(pick(r.db, tx).QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE id = $1 FOR UPDATE`, id))
	return m, notFound(err, "Member not found")
}

func (r *memberRepo) List(ctx context.Context, limit int) ([]MemberRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+memberColumns+` FROM members ORDER BY created_at DESC, id DESC LIMIT $1`, normalizeLimit(limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []MemberRecord
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

func (r *memberRepo) Update(ctx context.Context, tx DBTX, m *MemberRecord) error {
	const q = `
		UPDATE members
		SET name = $2, email = $3, phone = $4, address = $5, join_date = $6, status = $7, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`
	err := pick(r.db, tx).QueryRowContext(ctx, q,
		m.ID, m.Name, m.Email, m.Phone, m.Address, m.JoinDate, m.Status,
	).Scan(&m.UpdatedAt)
	if err != nil {
		return uniqueViolation(notFound(err, "Member not found"), "email", "Email already exists")
	}
	return nil
}

func (r *memberRepo) UpdateBalance(ctx context.Context, tx DBTX, id string, points int, tier string, at time.Time) error {
	const q = `UPDATE members SET total_points = $2, tier_level = $3, updated_at = $4 WHERE id = $1`
	res, err := pick(r.db, tx).ExecContext(ctx, q, id, points, tier, at)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound{Message: "Member not found"}
	}
	return nil
}

func (r *memberRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM members WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound{Message: "Member not found"}
	}
	return nil
}

func (r *memberRepo) EmailTaken(ctx context.Context, email, excludeID string) (bool, error) {
	const q = `SELECT EXISTS(SELECT 1 FROM members WHERE lower(email) = lower($1) AND id <> $2)`
	var ok bool
	err := r.db.QueryRowContext(ctx, q, email, excludeID).Scan(&ok)
	return ok, err
}

func (r *memberRepo) Statistics(ctx context.Context) (models.MemberStatistics, error) {
	const q = `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'Active'),
		       COUNT(*) FILTER (WHERE status = 'Inactive'),
		       COALESCE(SUM(total_points), 0)
		FROM members
	`
	stats := models.MemberStatistics{ByTier: make(map[string]int, len(loyalty.Tiers))}
	for _, t := range loyalty.Tiers {
		stats.ByTier[string(t)] = 0
	}
	if err := r.db.QueryRowContext(ctx, q).Scan(
		&stats.TotalMembers, &stats.ActiveMembers, &stats.InactiveMembers, &stats.TotalPoints,
	); err != nil {
		return stats, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT tier_level, COUNT(*) FROM members GROUP BY tier_level`)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var tier string
		var n int
		if err := rows.Scan(&tier, &n); err != nil {
			return stats, err
		}
		stats.ByTier[tier] = n
	}
	return stats, rows.Err()
}
