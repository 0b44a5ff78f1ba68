// Package memory provides an in-memory store implementation, suitable
// for tests and single-process deployments.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xraph/paywall"
	"github.com/xraph/paywall/content"
	"github.com/xraph/paywall/pass"
	"github.com/xraph/paywall/pricing"
	"github.com/xraph/paywall/receipt"
	"github.com/xraph/paywall/treasury"
	"github.com/xraph/paywall/types"
)

type Store struct {
	mu sync.RWMutex

	// Content registry, keyed by fingerprint
	records map[string]*content.Record

	// Pass registry, keyed by token id
	passes  map[uint64]*pass.Pass
	counter uint64

	// Treasury and price policy singletons
	pools  *treasury.Pools
	policy *pricing.Policy

	// Append-only receipt stream
	receipts []*receipt.Receipt

	closed bool
}

func New() *Store {
	return &Store{
		records:  make(map[string]*content.Record),
		passes:   make(map[uint64]*pass.Pass),
		receipts: make([]*receipt.Receipt, 0),
	}
}

// Content Store implementation
func (s *Store) CreateContent(_ context.Context, r *content.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[r.Fingerprint]; exists {
		return paywall.ErrContentRegistered
	}
	s.records[r.Fingerprint] = r
	return nil
}

func (s *Store) GetContent(_ context.Context, fingerprint string) (*content.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if r, ok := s.records[fingerprint]; ok {
		return r, nil
	}
	return nil, paywall.ErrContentNotRegistered
}

func (s *Store) ListContent(_ context.Context, opts content.ListOpts) ([]*content.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*content.Record, 0)
	for _, r := range s.records {
		if opts.Owner == "" || r.Owner == opts.Owner {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Fingerprint < result[j].Fingerprint
	})

	return paginate(result, opts.Offset, opts.Limit), nil
}

// Pass Store implementation
func (s *Store) NextTokenID(_ context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.counter
	s.counter++
	return id, nil
}

func (s *Store) CreatePass(_ context.Context, p *pass.Pass) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.passes[p.TokenID]; exists {
		return paywall.ErrAlreadyExists
	}
	s.passes[p.TokenID] = p
	return nil
}

func (s *Store) GetPass(_ context.Context, tokenID uint64) (*pass.Pass, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.passes[tokenID]; ok {
		return p, nil
	}
	return nil, paywall.ErrUnknownToken
}

func (s *Store) ListPasses(_ context.Context, holder string, opts pass.ListOpts) ([]*pass.Pass, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*pass.Pass, 0)
	for _, p := range s.passes {
		if p.Holder == holder {
			if opts.Fingerprint == "" || p.Fingerprint == opts.Fingerprint {
				result = append(result, p)
			}
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].TokenID < result[j].TokenID
	})

	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) UpdatePassHolder(_ context.Context, tokenID uint64, holder string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.passes[tokenID]
	if !ok {
		return paywall.ErrUnknownToken
	}
	p.Holder = holder
	p.Touch()
	return nil
}

func (s *Store) PurgePasses(_ context.Context, expiredBefore time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var count int64
	for tokenID, p := range s.passes {
		if p.ExpiresAt.Before(expiredBefore) {
			delete(s.passes, tokenID)
			count++
		}
	}
	return count, nil
}

// Treasury Store implementation
func (s *Store) Pools(_ context.Context) (*treasury.Pools, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.pools == nil {
		return nil, paywall.ErrPoolsNotInitialized
	}
	return s.pools.Clone(), nil
}

func (s *Store) SavePools(_ context.Context, p *treasury.Pools) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pools = p.Clone()
	return nil
}

// Price policy Store implementation
func (s *Store) Price(_ context.Context) (*pricing.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.policy == nil {
		return nil, paywall.ErrPriceNotSet
	}
	return s.policy, nil
}

func (s *Store) SetPrice(_ context.Context, price types.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.policy == nil {
		s.policy = &pricing.Policy{
			Entity: types.NewEntity(),
			Price:  price,
		}
		return nil
	}
	s.policy.Price = price
	s.policy.Touch()
	return nil
}

// Receipt Store implementation
func (s *Store) AppendReceipt(_ context.Context, r *receipt.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.receipts = append(s.receipts, r)
	return nil
}

func (s *Store) ListReceipts(_ context.Context, opts receipt.ListOpts) ([]*receipt.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*receipt.Receipt, 0)
	for _, r := range s.receipts {
		if opts.Kind != "" && r.Kind != opts.Kind {
			continue
		}
		if opts.Identity != "" && r.Identity != opts.Identity {
			continue
		}
		if !opts.Since.IsZero() && r.At.Before(opts.Since) {
			continue
		}
		result = append(result, r)
	}

	return paginate(result, opts.Offset, opts.Limit), nil
}

// Store management
func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return paywall.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// Helper functions
func paginate[T any](in []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}
	start := offset
	if start > len(in) {
		start = len(in)
	}
	end := start + limit
	if limit == 0 || end > len(in) {
		end = len(in)
	}
	return in[start:end]
}
