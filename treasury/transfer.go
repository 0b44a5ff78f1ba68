package treasury

import (
	"context"
	"sync"

	"github.com/xraph/paywall/types"
)

// Transfer is the outbound value-transfer primitive: credit an amount to
// an account, atomically from the caller's point of view. It may fail,
// and a failed credit must have no partial effect.
//
// This is the only external dependency of the withdrawal path. Wire a
// payment rail, a chain client, or the in-memory Book below.
type Transfer interface {
	Credit(ctx context.Context, account string, amount types.Money) error
}

// TransferFunc adapts a plain function to the Transfer interface.
type TransferFunc func(ctx context.Context, account string, amount types.Money) error

// Credit implements Transfer.
func (f TransferFunc) Credit(ctx context.Context, account string, amount types.Money) error {
	return f(ctx, account, amount)
}

// Book is an in-memory account book implementing Transfer. It is the
// default transfer backend and the one the test suite uses to verify
// conservation: every unit drained from a pool lands in an account.
type Book struct {
	mu       sync.Mutex
	balances map[string]types.Money
}

// NewBook creates an empty account book.
func NewBook() *Book {
	return &Book{balances: make(map[string]types.Money)}
}

// Credit implements Transfer.
func (b *Book) Credit(_ context.Context, account string, amount types.Money) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if current, ok := b.balances[account]; ok {
		b.balances[account] = current.Add(amount)
		return nil
	}
	b.balances[account] = amount
	return nil
}

// Balance returns the credited total for an account. Accounts that were
// never credited report a zero balance in the given currency.
func (b *Book) Balance(account string, currency string) types.Money {
	b.mu.Lock()
	defer b.mu.Unlock()

	if current, ok := b.balances[account]; ok {
		return current
	}
	return types.Zero(currency)
}

// Total returns the sum of all balances in the book.
func (b *Book) Total(currency string) types.Money {
	b.mu.Lock()
	defer b.mu.Unlock()

	total := types.Zero(currency)
	for _, bal := range b.balances {
		total = total.Add(bal)
	}
	return total
}
