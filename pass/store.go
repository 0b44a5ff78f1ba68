package pass

import (
	"context"
	"time"
)

type Store interface {
	// NextTokenID allocates the next token identity. The counter starts
	// at zero, only ever advances, and an allocated identity is never
	// handed out again.
	NextTokenID(ctx context.Context) (uint64, error)

	Create(ctx context.Context, p *Pass) error
	Get(ctx context.Context, tokenID uint64) (*Pass, error)
	List(ctx context.Context, holder string, opts ListOpts) ([]*Pass, error)

	// UpdateHolder records a transfer of the pass to a new holder.
	UpdateHolder(ctx context.Context, tokenID uint64, holder string) error

	// Purge deletes passes that expired before the given instant and
	// returns the number removed.
	Purge(ctx context.Context, expiredBefore time.Time) (int64, error)
}

type ListOpts struct {
	Fingerprint string
	Limit       int
	Offset      int
}
