// Package memrepo is an in-memory implementation of the repository
// interfaces. It backs STORAGE=memory for local runs and the service and
// handler tests.
//
// Transactions are serialised by a single mutex and rolled back by restoring
// a snapshot taken when the transaction began. Writes made outside WithinTx
// while a transaction is rolling back are lost; good enough for a single
// process dev server, not for production.
package memrepo

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hoshichaam/crm_loyalty_go/internal/repositories"
)

type data struct {
	users    map[int64]repositories.UserRecord
	members  map[string]repositories.MemberRecord
	points   map[int64]repositories.PointTransactionRecord
	vouchers map[int64]repositories.VoucherRecord
	redeems  map[int64]repositories.RedeemRecord

	userSeq, memberSeq, pointSeq, voucherSeq, redeemSeq int64
}

func (d data) clone() data {
	c := d
	c.users = maps.Clone(d.users)
	c.members = maps.Clone(d.members)
	c.points = maps.Clone(d.points)
	c.vouchers = maps.Clone(d.vouchers)
	c.redeems = maps.Clone(d.redeems)
	return c
}

type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	d    data

	// Now stamps created_at/updated_at. Defaults to time.Now.
	Now func() time.Time
}

func New() *Store {
	return &Store{
		d: data{
			users:    make(map[int64]repositories.UserRecord),
			members:  make(map[string]repositories.MemberRecord),
			points:   make(map[int64]repositories.PointTransactionRecord),
			vouchers: make(map[int64]repositories.VoucherRecord),
			redeems:  make(map[int64]repositories.RedeemRecord),
		},
		Now: time.Now,
	}
}

func (s *Store) Users() repositories.UserRepo       { return userRepo{s} }
func (s *Store) Members() repositories.MemberRepo   { return memberRepo{s} }
func (s *Store) Points() repositories.PointRepo     { return pointRepo{s} }
func (s *Store) Vouchers() repositories.VoucherRepo { return voucherRepo{s} }
func (s *Store) Redeems() repositories.RedeemRepo   { return redeemRepo{s} }

// WithinTx implements repositories.Transactor. fn receives a nil DBTX; the
// in-memory repos ignore it.
func (s *Store) WithinTx(ctx context.Context, fn func(tx repositories.DBTX) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snap := s.d.clone()
	s.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fn(nil); err != nil {
		s.mu.Lock()
		s.d = snap
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) now() time.Time { return s.Now() }

func limitOf(limit int) int {
	if limit <= 0 || limit > 1000 {
		return 100
	}
	return limit
}

func truncate[T any](items []T, limit int) []T {
	if n := limitOf(limit); len(items) > n {
		return items[:n]
	}
	return items
}

func sortNewestFirst[T any](items []T, at func(T) time.Time, id func(T) string) {
	sort.Slice(items, func(i, j int) bool {
		ai, aj := at(items[i]), at(items[j])
		if !ai.Equal(aj) {
			return ai.After(aj)
		}
		// id string dibandingkan panjang dulu supaya "10" > "9"
		ii, ij := id(items[i]), id(items[j])
		if len(ii) != len(ij) {
			return len(ii) > len(ij)
		}
		return ii > ij
	})
}

func sameEmail(a, b string) bool { return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) }
