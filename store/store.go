package store

import (
	"context"
	"time"

	"github.com/xraph/paywall/content"
	"github.com/xraph/paywall/pass"
	"github.com/xraph/paywall/pricing"
	"github.com/xraph/paywall/receipt"
	"github.com/xraph/paywall/treasury"
	"github.com/xraph/paywall/types"
)

// Store is the unified storage interface for all Paywall entities.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
//
// Stores do not serialize compound operations themselves: the engine holds
// a single lock across every externally visible operation, so a store only
// has to make each individual method atomic.
type Store interface {
	// Content methods
	CreateContent(ctx context.Context, r *content.Record) error
	GetContent(ctx context.Context, fingerprint string) (*content.Record, error)
	ListContent(ctx context.Context, opts content.ListOpts) ([]*content.Record, error)

	// Pass methods
	NextTokenID(ctx context.Context) (uint64, error)
	CreatePass(ctx context.Context, p *pass.Pass) error
	GetPass(ctx context.Context, tokenID uint64) (*pass.Pass, error)
	ListPasses(ctx context.Context, holder string, opts pass.ListOpts) ([]*pass.Pass, error)
	UpdatePassHolder(ctx context.Context, tokenID uint64, holder string) error
	PurgePasses(ctx context.Context, expiredBefore time.Time) (int64, error)

	// Treasury methods
	Pools(ctx context.Context) (*treasury.Pools, error)
	SavePools(ctx context.Context, p *treasury.Pools) error

	// Price policy methods
	Price(ctx context.Context) (*pricing.Policy, error)
	SetPrice(ctx context.Context, price types.Money) error

	// Receipt methods
	AppendReceipt(ctx context.Context, r *receipt.Receipt) error
	ListReceipts(ctx context.Context, opts receipt.ListOpts) ([]*receipt.Receipt, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
