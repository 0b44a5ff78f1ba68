package treasury

import "context"

type Store interface {
	// Pools returns the current pooled balances, or the store's
	// pools-not-initialized sentinel before the first SavePools.
	Pools(ctx context.Context) (*Pools, error)
	SavePools(ctx context.Context, p *Pools) error
}
