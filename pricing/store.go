package pricing

import (
	"context"

	"github.com/xraph/paywall/types"
)

type Store interface {
	Get(ctx context.Context) (*Policy, error)

	// Set unconditionally replaces the price, creating the policy on
	// first use.
	Set(ctx context.Context, price types.Money) error
}
