package paywall_test

import (
	"context"
	"log"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/paywall"
	"github.com/xraph/paywall/store/memory"
	"github.com/xraph/paywall/types"
)

// TestDocumentationExamples verifies that all examples in the documentation compile
func TestDocumentationExamples(t *testing.T) {
	// Test Quick Start example from README
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use PostgreSQL in production)
		store := memory.New()

		// Initialize Paywall
		w := paywall.New(store,
			paywall.WithLogger(slog.Default()),
			paywall.WithAdmin("ops@example.com"),
			paywall.WithPassTTL(30*24*time.Hour),
		)

		// Start the engine
		ctx := context.Background()
		if err := w.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer w.Stop()

		// Register content and set the subscription price
		if _, err := w.RegisterContent(ctx, "ops@example.com", "sha256:9f86d0", "alice"); err != nil {
			t.Fatal(err)
		}
		if err := w.SetPrice(ctx, "ops@example.com", types.USD(499)); err != nil { // $4.99
			t.Fatal(err)
		}

		// Buy an access pass
		p, err := w.Purchase(ctx, "bob", "sha256:9f86d0", types.USD(499))
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("pass %d issued, expires %s\n", p.TokenID, p.ExpiresAt)

		// Gate content behind the pass
		fingerprint, err := w.Content(ctx, p.TokenID)
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("access granted to %s\n", fingerprint)

		// The owner collects their share
		amount, err := w.WithdrawOwnerFunds(ctx, "alice", "sha256:9f86d0")
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("withdrew %s\n", amount.String())
	})

	// Test Money type examples
	t.Run("MoneyExamples", func(t *testing.T) {
		// Constructors
		_ = types.USD(499)    // $4.99
		_ = types.EUR(999)    // €9.99
		_ = types.Zero("usd") // $0.00

		// Arithmetic
		m1 := types.USD(100)
		m2 := types.USD(200)
		_ = m1.Add(m2)     // $3.00
		_ = m1.Multiply(3) // $3.00
		_ = m1.Percent(90) // $0.90

		// Comparison
		if m1.LessThan(m2) {
			// m1 is less than m2
		}

		// Formatting
		_ = m1.String()      // "$1.00"
		_ = m1.FormatMajor() // "1.00"
	})
}
