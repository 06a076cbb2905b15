package services

import (
	"context"
	"strings"
	"time"

	"github.com/hoshichaam/crm_loyalty_go/internal/loyalty"
	"github.com/hoshichaam/crm_loyalty_go/internal/models"
	"github.com/hoshichaam/crm_loyalty_go/internal/repositories"
)

type MemberService struct {
	repo repositories.MemberRepo
	tx   repositories.Transactor
	now  func() time.Time
}

func NewMemberService(r repositories.MemberRepo, tx repositories.Transactor) *MemberService {
	return &MemberService{repo: r, tx: tx, now: time.Now}
}

type MemberDTO struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone"`
	Address          string    `json:"address"`
	JoinDate         string    `json:"join_date"`
	TotalPoints      int       `json:"total_points"`
	TierLevel        string    `json:"tier_level"`
	Status           string    `json:"status"`
	PointsToNextTier int       `json:"points_to_next_tier"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toMemberDTO(m repositories.MemberRecord) MemberDTO {
	return MemberDTO{
		ID:               m.ID,
		Name:             m.Name,
		Email:            m.Email,
		Phone:            m.Phone,
		Address:          m.Address,
		JoinDate:         m.JoinDate.Format(loyalty.DateLayout),
		TotalPoints:      m.TotalPoints,
		TierLevel:        m.TierLevel,
		Status:           m.Status,
		PointsToNextTier: loyalty.PointsToNextTier(m.TotalPoints),
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func parseDate(field, s string) (time.Time, error) {
	t, err := time.Parse(loyalty.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fieldError(field, "Date has wrong format. Use YYYY-MM-DD.")
	}
	return t, nil
}

func (s *MemberService) checkEmail(ctx context.Context, email, excludeID string) error {
	taken, err := s.repo.EmailTaken(ctx, email, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return fieldError("email", "Email already exists")
	}
	return nil
}

// Create: saldo mulai dari 0 dan tier diturunkan dari saldo, bukan dari input.
func (s *MemberService) Create(ctx context.Context, in models.CreateMemberRequest) (MemberDTO, error) {
	in.Email = strings.TrimSpace(in.Email)
	if err := validate(in); err != nil {
		return MemberDTO{}, err
	}
	if err := s.checkEmail(ctx, in.Email, ""); err != nil {
		return MemberDTO{}, err
	}

	joinDate := loyalty.DateOnly(s.now())
	if in.JoinDate != "" {
		d, err := parseDate("join_date", in.JoinDate)
		if err != nil {
			return MemberDTO{}, err
		}
		joinDate = d
	}
	status := in.Status
	if status == "" {
		status = "Active"
	}

	m := repositories.MemberRecord{
		Name:        strings.TrimSpace(in.Name),
		Email:       in.Email,
		Phone:       strings.TrimSpace(in.Phone),
		Address:     in.Address,
		JoinDate:    joinDate,
		TotalPoints: 0,
		TierLevel:   string(loyalty.TierFor(0)),
		Status:      status,
	}
	err := s.tx.WithinTx(ctx, func(tx repositories.DBTX) error {
		n, err := s.repo.NextMemberNumber(ctx, tx)
		if err != nil {
			return err
		}
		m.ID = loyalty.FormatMemberID(n)
		return s.repo.Create(ctx, tx, &m)
	})
	if err != nil {
		return MemberDTO{}, translate(err)
	}
	return toMemberDTO(m), nil
}

func (s *MemberService) Get(ctx context.Context, id string) (MemberDTO, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return MemberDTO{}, translate(err)
	}
	return toMemberDTO(m), nil
}

func (s *MemberService) List(ctx context.Context, limit int) ([]MemberDTO, error) {
	rows, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]MemberDTO, 0, len(rows))
	for _, m := range rows {
		out = append(out, toMemberDTO(m))
	}
	return out, nil
}

// Update hanya menyentuh field profil. total_points dan tier_level tidak bisa
// diubah lewat sini.
func (s *MemberService) Update(ctx context.Context, id string, in models.UpdateMemberRequest) (MemberDTO, error) {
	if err := validate(in); err != nil {
		return MemberDTO{}, err
	}
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return MemberDTO{}, translate(err)
	}

	if in.Name != nil {
		m.Name = strings.TrimSpace(*in.Name)
	}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if err := s.checkEmail(ctx, email, id); err != nil {
			return MemberDTO{}, err
		}
		m.Email = email
	}
	if in.Phone != nil {
		m.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Address != nil {
		m.Address = *in.Address
	}
	if in.JoinDate != nil {
		d, err := parseDate("join_date", *in.JoinDate)
		if err != nil {
			return MemberDTO{}, err
		}
		m.JoinDate = d
	}
	if in.Status != nil {
		m.Status = *in.Status
	}

	if err := s.repo.Update(ctx, nil, &m); err != nil {
		return MemberDTO{}, translate(err)
	}
	return toMemberDTO(m), nil
}

func (s *MemberService) Delete(ctx context.Context, id string) error {
	return translate(s.repo.Delete(ctx, id))
}

func (s *MemberService) Statistics(ctx context.Context) (models.MemberStatistics, error) {
	return s.repo.Statistics(ctx)
}
