package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/hoshichaam/crm_loyalty_go/internal/models"
	"github.com/hoshichaam/crm_loyalty_go/internal/repositories"
	"github.com/hoshichaam/crm_loyalty_go/pkg/authutil"
)

type AuthConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	BcryptCost    int
}

type AuthService struct {
	users repositories.UserRepo
	cfg   AuthConfig
	now   func() time.Time
}

func NewAuthService(users repositories.UserRepo, cfg AuthConfig) *AuthService {
	return &AuthService{users: users, cfg: cfg, now: time.Now}
}

type UserDTO struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	Role        string     `json:"role"`
	Status      string     `json:"status"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type TokenPair struct {
	Access  string  `json:"access"`
	Refresh string  `json:"refresh"`
	User    UserDTO `json:"user"`
}

type AccessToken struct {
	Access string `json:"access"`
}

func toUserDTO(u repositories.UserRecord) UserDTO {
	var last *time.Time
	if u.LastLoginAt.Valid {
		t := u.LastLoginAt.Time
		last = &t
	}
	return UserDTO{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		FullName:    u.FullName,
		Role:        u.Role,
		Status:      u.Status,
		LastLoginAt: last,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (s *AuthService) Register(ctx context.Context, in models.RegisterRequest) (UserDTO, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if err := validate(in); err != nil {
		return UserDTO{}, err
	}

	taken, err := s.users.UsernameTaken(ctx, in.Username)
	if err != nil {
		return UserDTO{}, err
	}
	if taken {
		return UserDTO{}, ErrConflict{Field: "username", Msg: "Username already exists"}
	}
	taken, err = s.users.EmailTaken(ctx, in.Email, 0)
	if err != nil {
		return UserDTO{}, err
	}
	if taken {
		return UserDTO{}, ErrConflict{Field: "email", Msg: "Email already exists"}
	}

	hash, err := authutil.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return UserDTO{}, err
	}
	role := in.Role
	if role == "" {
		role = "staff"
	}
	u := repositories.UserRecord{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(in.FullName),
		Role:         role,
		Status:       "active",
	}
	if err := s.users.Create(ctx, &u); err != nil {
		return UserDTO{}, userConflict(err)
	}
	return toUserDTO(u), nil
}

// userConflict: unique violation di tabel users tetap 409, dengan field
// yang benar-benar bentrok.
func userConflict(err error) error {
	var cf repositories.ErrConflict
	if errors.As(err, &cf) {
		return ErrConflict{Field: cf.Field, Msg: cf.Message}
	}
	return translate(err)
}

// Login menerima username atau email di field username.
func (s *AuthService) Login(ctx context.Context, in models.LoginRequest) (TokenPair, error) {
	if err := validate(in); err != nil {
		return TokenPair{}, err
	}
	invalid := ErrUnauthorized{Msg: "Invalid credentials"}

	u, err := s.users.GetByLogin(ctx, strings.TrimSpace(in.Username))
	if err != nil {
		var nf repositories.ErrNotFound
		if errors.As(err, &nf) {
			return TokenPair{}, invalid
		}
		return TokenPair{}, err
	}
	if authutil.CheckPassword(u.PasswordHash, in.Password) != nil {
		return TokenPair{}, invalid
	}
	if u.Status != "active" {
		return TokenPair{}, ErrForbidden{Msg: "Account is inactive"}
	}

	pair, err := s.issue(u)
	if err != nil {
		return TokenPair{}, err
	}
	now := s.now()
	if err := s.users.TouchLastLogin(ctx, u.ID, now); err != nil {
		return TokenPair{}, err
	}
	pair.User.LastLoginAt = &now
	return pair, nil
}

func (s *AuthService) issue(u repositories.UserRecord) (TokenPair, error) {
	access, err := authutil.NewToken(s.cfg.AccessSecret, authutil.TokenAccess, u.ID, u.Username, u.Role, s.cfg.AccessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := authutil.NewToken(s.cfg.RefreshSecret, authutil.TokenRefresh, u.ID, u.Username, u.Role, s.cfg.RefreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh, User: toUserDTO(u)}, nil
}

// Refresh menukar refresh token dengan access token baru. User yang sudah
// dinonaktifkan tidak bisa refresh.
func (s *AuthService) Refresh(ctx context.Context, in models.RefreshRequest) (AccessToken, error) {
	if err := validate(in); err != nil {
		return AccessToken{}, err
	}
	claims, err := authutil.ParseToken(s.cfg.RefreshSecret, strings.TrimSpace(in.Refresh), authutil.TokenRefresh)
	if err != nil {
		return AccessToken{}, ErrUnauthorized{Msg: "Token is invalid or expired"}
	}
	id, err := claims.UserID()
	if err != nil {
		return AccessToken{}, ErrUnauthorized{Msg: "Token is invalid or expired"}
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		var nf repositories.ErrNotFound
		if errors.As(err, &nf) {
			return AccessToken{}, ErrUnauthorized{Msg: "User not found"}
		}
		return AccessToken{}, err
	}
	if u.Status != "active" {
		return AccessToken{}, ErrForbidden{Msg: "Account is inactive"}
	}
	access, err := authutil.NewToken(s.cfg.AccessSecret, authutil.TokenAccess, u.ID, u.Username, u.Role, s.cfg.AccessTTL)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Access: access}, nil
}

func (s *AuthService) Me(ctx context.Context, userID int64) (UserDTO, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return UserDTO{}, translate(err)
	}
	return toUserDTO(u), nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, in models.UpdateProfileRequest) (UserDTO, error) {
	if err := validate(in); err != nil {
		return UserDTO{}, err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return UserDTO{}, translate(err)
	}

	fullName, email := u.FullName, u.Email
	if in.FullName != nil {
		fullName = strings.TrimSpace(*in.FullName)
	}
	if in.Email != nil {
		email = strings.TrimSpace(*in.Email)
		taken, err := s.users.EmailTaken(ctx, email, userID)
		if err != nil {
			return UserDTO{}, err
		}
		if taken {
			return UserDTO{}, ErrConflict{Field: "email", Msg: "Email already exists"}
		}
	}
	if err := s.users.UpdateProfile(ctx, userID, fullName, email); err != nil {
		return UserDTO{}, userConflict(err)
	}
	return s.Me(ctx, userID)
}

func (s *AuthService) ChangePassword(ctx context.Context, userID int64, in models.ChangePasswordRequest) error {
	if err := validate(in); err != nil {
		return err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return translate(err)
	}
	if authutil.CheckPassword(u.PasswordHash, in.OldPassword) != nil {
		return fieldError("old_password", "Old password is incorrect")
	}
	hash, err := authutil.HashPassword(in.NewPassword, s.cfg.BcryptCost)
	if err != nil {
		return err
	}
	return translate(s.users.UpdatePassword(ctx, userID, hash))
}
