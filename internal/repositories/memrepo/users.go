package memrepo

import (
	"context"
	"database/sql"
	"time"

	"github.com/hoshichaam/crm_loyalty_go/internal/repositories"
)

type userRepo struct{ s *Store }

var errUserNotFound = repositories.ErrNotFound{Message: "user not found"}

func (r userRepo) Create(_ context.Context, u *repositories.UserRecord) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, x := range r.s.d.users {
		if x.Username == u.Username {
			return repositories.ErrConflict{Field: "username", Message: "Username already exists"}
		}
		if sameEmail(x.Email, u.Email) {
			return repositories.ErrConflict{Field: "email", Message: "Email already exists"}
		}
	}
	r.s.d.userSeq++
	u.ID = r.s.d.userSeq
	now := r.s.now()
	u.CreatedAt, u.UpdatedAt = now, now
	r.s.d.users[u.ID] = *u
	return nil
}

func (r userRepo) GetByID(_ context.Context, id int64) (repositories.UserRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	u, ok := r.s.d.users[id]
	if !ok {
		return u, errUserNotFound
	}
	return u, nil
}

func (r userRepo) GetByLogin(_ context.Context, login string) (repositories.UserRecord, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.d.users {
		if u.Username == login || sameEmail(u.Email, login) {
			return u, nil
		}
	}
	return repositories.UserRecord{}, errUserNotFound
}

func (r userRepo) UsernameTaken(_ context.Context, username string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.d.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (r userRepo) EmailTaken(_ context.Context, email string, excludeID int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for id, u := range r.s.d.users {
		if id != excludeID && sameEmail(u.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (r userRepo) update(id int64, fn func(u *repositories.UserRecord)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.d.users[id]
	if !ok {
		return errUserNotFound
	}
	fn(&u)
	r.s.d.users[id] = u
	return nil
}

func (r userRepo) UpdateProfile(_ context.Context, id int64, fullName, email string) error {
	now := r.s.now()
	return r.update(id, func(u *repositories.UserRecord) {
		u.FullName, u.Email, u.UpdatedAt = fullName, email, now
	})
}

func (r userRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	now := r.s.now()
	return r.update(id, func(u *repositories.UserRecord) {
		u.PasswordHash, u.UpdatedAt = hash, now
	})
}

func (r userRepo) TouchLastLogin(_ context.Context, id int64, at time.Time) error {
	return r.update(id, func(u *repositories.UserRecord) {
		u.LastLoginAt = sql.NullTime{Time: at, Valid: true}
	})
}
