package paywall_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/paywall"
	"github.com/xraph/paywall/content"
	"github.com/xraph/paywall/pass"
	"github.com/xraph/paywall/receipt"
	"github.com/xraph/paywall/store/memory"
	"github.com/xraph/paywall/treasury"
	"github.com/xraph/paywall/types"
)

const admin = "admin"

// fakeClock is a settable time source for pinning "now" in tests.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestPaywall(t *testing.T, opts ...paywall.Option) (*paywall.Paywall, *fakeClock) {
	t.Helper()

	clock := newFakeClock()
	base := []paywall.Option{
		paywall.WithAdmin(admin),
		paywall.WithClock(clock.Now),
	}
	w := paywall.New(memory.New(), append(base, opts...)...)

	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = w.Stop() })

	return w, clock
}

func TestRegisterContent(t *testing.T) {
	ctx := context.Background()

	t.Run("Register", func(t *testing.T) {
		w, _ := newTestPaywall(t)

		rec, err := w.RegisterContent(ctx, admin, "fp-1", "alice")
		if err != nil {
			t.Fatal(err)
		}
		if rec.Fingerprint != "fp-1" || rec.Owner != "alice" {
			t.Errorf("unexpected record: %+v", rec)
		}
		if rec.ID.IsNil() {
			t.Error("expected a content id to be assigned")
		}

		owner, err := w.OwnerOf(ctx, "fp-1")
		if err != nil {
			t.Fatal(err)
		}
		if owner != "alice" {
			t.Errorf("OwnerOf = %q, want alice", owner)
		}
	})

	t.Run("ReRegisterRejected", func(t *testing.T) {
		w, _ := newTestPaywall(t)

		if _, err := w.RegisterContent(ctx, admin, "fp-1", "alice"); err != nil {
			t.Fatal(err)
		}

		// Same fingerprint, same owner: still rejected. The registry is
		// append-only and first registration wins forever.
		if _, err := w.RegisterContent(ctx, admin, "fp-1", "alice"); !errors.Is(err, paywall.ErrContentRegistered) {
			t.Errorf("err = %v, want ErrContentRegistered", err)
		}
		if _, err := w.RegisterContent(ctx, admin, "fp-1", "mallory"); !errors.Is(err, paywall.ErrContentRegistered) {
			t.Errorf("err = %v, want ErrContentRegistered", err)
		}

		owner, err := w.OwnerOf(ctx, "fp-1")
		if err != nil {
			t.Fatal(err)
		}
		if owner != "alice" {
			t.Errorf("owner changed to %q after rejected re-registration", owner)
		}
	})

	t.Run("NonAdminRejected", func(t *testing.T) {
		w, _ := newTestPaywall(t)

		if _, err := w.RegisterContent(ctx, "mallory", "fp-1", "mallory"); !errors.Is(err, paywall.ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
		if _, err := w.OwnerOf(ctx, "fp-1"); !errors.Is(err, paywall.ErrContentNotRegistered) {
			t.Errorf("err = %v, want ErrContentNotRegistered", err)
		}
	})

	t.Run("NoAdminConfigured", func(t *testing.T) {
		clock := newFakeClock()
		w := paywall.New(memory.New(), paywall.WithClock(clock.Now))
		if err := w.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer w.Stop()

		// Without an admin identity every privileged call is refused.
		if _, err := w.RegisterContent(ctx, "", "fp-1", "alice"); !errors.Is(err, paywall.ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("EmptyFields", func(t *testing.T) {
		w, _ := newTestPaywall(t)

		if _, err := w.RegisterContent(ctx, admin, "", "alice"); err == nil {
			t.Error("expected validation error for empty fingerprint")
		}
		if _, err := w.RegisterContent(ctx, admin, "fp-1", ""); err == nil {
			t.Error("expected validation error for empty owner")
		}
	})

	t.Run("ListByOwner", func(t *testing.T) {
		w, _ := newTestPaywall(t)

		for _, fp := range []string{"fp-a", "fp-b", "fp-c"} {
			owner := "alice"
			if fp == "fp-b" {
				owner = "bob"
			}
			if _, err := w.RegisterContent(ctx, admin, fp, owner); err != nil {
				t.Fatal(err)
			}
		}

		recs, err := w.ListContent(ctx, content.ListOpts{Owner: "alice"})
		if err != nil {
			t.Fatal(err)
		}
		if len(recs) != 2 {
			t.Fatalf("len = %d, want 2", len(recs))
		}
		for _, r := range recs {
			if r.Owner != "alice" {
				t.Errorf("owner filter leaked record for %q", r.Owner)
			}
		}
	})
}

func TestSetPrice(t *testing.T) {
	ctx := context.Background()

	t.Run("DefaultIsZero", func(t *testing.T) {
		w, _ := newTestPaywall(t)

		price, err := w.Price(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if !price.IsZero() {
			t.Errorf("price = %v, want zero", price)
		}
	})

	t.Run("SetAndRead", func(t *testing.T) {
		w, _ := newTestPaywall(t)

		if err := w.SetPrice(ctx, admin, types.USD(500)); err != nil {
			t.Fatal(err)
		}
		price, err := w.Price(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if !price.Equal(types.USD(500)) {
			t.Errorf("price = %v, want $5.00", price)
		}

		// Unconditional replacement, including back to zero.
		if err := w.SetPrice(ctx, admin, types.Zero("usd")); err != nil {
			t.Fatal(err)
		}
		price, _ = w.Price(ctx)
		if !price.IsZero() {
			t.Errorf("price = %v, want zero after reset", price)
		}
	})

	t.Run("NonAdminRejected", func(t *testing.T) {
		w, _ := newTestPaywall(t)

		if err := w.SetPrice(ctx, "mallory", types.USD(1)); !errors.Is(err, paywall.ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("NegativeRejected", func(t *testing.T) {
		w, _ := newTestPaywall(t)

		if err := w.SetPrice(ctx, admin, types.USD(-1)); !errors.Is(err, paywall.ErrInvalidPrice) {
			t.Errorf("err = %v, want ErrInvalidPrice", err)
		}
	})

	t.Run("CurrencyMismatch", func(t *testing.T) {
		w, _ := newTestPaywall(t)

		if err := w.SetPrice(ctx, admin, types.EUR(100)); !errors.Is(err, paywall.ErrCurrencyMismatch) {
			t.Errorf("err = %v, want ErrCurrencyMismatch", err)
		}
	})
}

func TestPurchase(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, opts ...paywall.Option) (*paywall.Paywall, *fakeClock) {
		w, clock := newTestPaywall(t, opts...)
		if _, err := w.RegisterContent(ctx, admin, "fp-1", "alice"); err != nil {
			t.Fatal(err)
		}
		if err := w.SetPrice(ctx, admin, types.USD(100)); err != nil {
			t.Fatal(err)
		}
		return w, clock
	}

	t.Run("MintsPass", func(t *testing.T) {
		w, clock := setup(t)

		p, err := w.Purchase(ctx, "bob", "fp-1", types.USD(100))
		if err != nil {
			t.Fatal(err)
		}
		if p.TokenID != 0 {
			t.Errorf("first token id = %d, want 0", p.TokenID)
		}
		if p.Holder != "bob" || p.Fingerprint != "fp-1" {
			t.Errorf("unexpected pass: %+v", p)
		}
		if !p.IssuedAt.Equal(clock.Now()) {
			t.Errorf("issued at %v, want %v", p.IssuedAt, clock.Now())
		}
		if !p.ExpiresAt.Equal(clock.Now().Add(paywall.DefaultPassTTL)) {
			t.Errorf("expires at %v, want issue time + default TTL", p.ExpiresAt)
		}
	})

	t.Run("TokenIDsAreSequential", func(t *testing.T) {
		w, _ := setup(t)

		for want := uint64(0); want < 5; want++ {
			p, err := w.Purchase(ctx, "bob", "fp-1", types.USD(100))
			if err != nil {
				t.Fatal(err)
			}
			if p.TokenID != want {
				t.Fatalf("token id = %d, want %d", p.TokenID, want)
			}
		}
	})

	t.Run("SplitsPayment", func(t *testing.T) {
		w, _ := setup(t)

		if _, err := w.Purchase(ctx, "bob", "fp-1", types.USD(100)); err != nil {
			t.Fatal(err)
		}

		pools, err := w.Pools(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if !pools.Owner.Equal(types.USD(90)) {
			t.Errorf("owner pool = %v, want $0.90", pools.Owner)
		}
		if !pools.Operator.Equal(types.USD(10)) {
			t.Errorf("operator pool = %v, want $0.10", pools.Operator)
		}
	})

	t.Run("FlooredSplitLeavesRemainder", func(t *testing.T) {
		w, _ := setup(t)

		// 199 splits into 179 + 19; the leftover minor unit is credited
		// to neither pool.
		if _, err := w.Purchase(ctx, "bob", "fp-1", types.USD(199)); err != nil {
			t.Fatal(err)
		}

		pools, err := w.Pools(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if !pools.Owner.Equal(types.USD(179)) {
			t.Errorf("owner pool = %v, want $1.79", pools.Owner)
		}
		if !pools.Operator.Equal(types.USD(19)) {
			t.Errorf("operator pool = %v, want $0.19", pools.Operator)
		}
	})

	t.Run("OverpaymentAccepted", func(t *testing.T) {
		w, _ := setup(t)

		// The full payment is split, not just the price.
		if _, err := w.Purchase(ctx, "bob", "fp-1", types.USD(200)); err != nil {
			t.Fatal(err)
		}

		pools, _ := w.Pools(ctx)
		if !pools.Owner.Equal(types.USD(180)) || !pools.Operator.Equal(types.USD(20)) {
			t.Errorf("pools = %v / %v, want $1.80 / $0.20", pools.Owner, pools.Operator)
		}
	})

	t.Run("InsufficientPayment", func(t *testing.T) {
		w, _ := setup(t)

		if _, err := w.Purchase(ctx, "bob", "fp-1", types.USD(199)); err != nil {
			t.Fatal(err)
		}
		if _, err := w.Purchase(ctx, "bob", "fp-1", types.USD(50)); !errors.Is(err, paywall.ErrInsufficientPayment) {
			t.Fatalf("err = %v, want ErrInsufficientPayment", err)
		}

		// The rejected purchase moved no funds and burned no token id.
		pools, _ := w.Pools(ctx)
		if !pools.Owner.Equal(types.USD(179)) || !pools.Operator.Equal(types.USD(19)) {
			t.Errorf("pools changed on rejected purchase: %v / %v", pools.Owner, pools.Operator)
		}
		p, err := w.Purchase(ctx, "bob", "fp-1", types.USD(100))
		if err != nil {
			t.Fatal(err)
		}
		if p.TokenID != 1 {
			t.Errorf("token id = %d, want 1 (rejection must not advance the counter)", p.TokenID)
		}
	})

	t.Run("UnregisteredContent", func(t *testing.T) {
		w, _ := setup(t)

		if _, err := w.Purchase(ctx, "bob", "fp-unknown", types.USD(100)); !errors.Is(err, paywall.ErrContentNotRegistered) {
			t.Fatalf("err = %v, want ErrContentNotRegistered", err)
		}

		pools, _ := w.Pools(ctx)
		if !pools.Owner.IsZero() || !pools.Operator.IsZero() {
			t.Error("pools mutated by a rejected purchase")
		}
	})

	t.Run("CurrencyMismatch", func(t *testing.T) {
		w, _ := setup(t)

		if _, err := w.Purchase(ctx, "bob", "fp-1", types.EUR(100)); !errors.Is(err, paywall.ErrCurrencyMismatch) {
			t.Errorf("err = %v, want ErrCurrencyMismatch", err)
		}
	})

	t.Run("EmptyBuyer", func(t *testing.T) {
		w, _ := setup(t)

		if _, err := w.Purchase(ctx, "", "fp-1", types.USD(100)); err == nil {
			t.Error("expected validation error for empty buyer")
		}
	})

	t.Run("PersistedCurrencyMismatch", func(t *testing.T) {
		// One store, two engine configurations: the persisted price and
		// pools are denominated in usd, the second engine runs in eur.
		s := memory.New()
		clock := newFakeClock()
		usd := paywall.New(s,
			paywall.WithAdmin(admin),
			paywall.WithClock(clock.Now),
		)
		if err := usd.Start(ctx); err != nil {
			t.Fatal(err)
		}
		if _, err := usd.RegisterContent(ctx, admin, "fp-1", "alice"); err != nil {
			t.Fatal(err)
		}
		if err := usd.SetPrice(ctx, admin, types.USD(100)); err != nil {
			t.Fatal(err)
		}
		if _, err := usd.Purchase(ctx, "bob", "fp-1", types.USD(100)); err != nil {
			t.Fatal(err)
		}

		eur := paywall.New(s,
			paywall.WithAdmin(admin),
			paywall.WithClock(clock.Now),
			paywall.WithCurrency("eur"),
		)
		if err := eur.Start(ctx); err != nil {
			t.Fatal(err)
		}

		// A payment in the engine currency still fails cleanly against
		// the persisted usd price.
		if _, err := eur.Purchase(ctx, "bob", "fp-1", types.EUR(200)); !errors.Is(err, paywall.ErrCurrencyMismatch) {
			t.Fatalf("err = %v, want ErrCurrencyMismatch", err)
		}
		if _, err := eur.WithdrawOwnerFunds(ctx, "alice", "fp-1"); !errors.Is(err, paywall.ErrCurrencyMismatch) {
			t.Fatalf("err = %v, want ErrCurrencyMismatch", err)
		}

		// The usd engine is unaffected.
		if _, err := usd.Purchase(ctx, "bob", "fp-1", types.USD(100)); err != nil {
			t.Fatal(err)
		}
	})

	t.Run("ZeroPriceFreePurchase", func(t *testing.T) {
		w, _ := newTestPaywall(t)
		if _, err := w.RegisterContent(ctx, admin, "fp-1", "alice"); err != nil {
			t.Fatal(err)
		}

		// No price configured: any payment, even zero, clears the bar.
		p, err := w.Purchase(ctx, "bob", "fp-1", types.Zero("usd"))
		if err != nil {
			t.Fatal(err)
		}
		ok, err := w.IsValid(ctx, p.TokenID)
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Error("free pass should be valid")
		}
	})
}

func TestAccessChecks(t *testing.T) {
	ctx := context.Background()

	issue := func(t *testing.T, ttl time.Duration) (*paywall.Paywall, *fakeClock, *pass.Pass) {
		w, clock := newTestPaywall(t, paywall.WithPassTTL(ttl))
		if _, err := w.RegisterContent(ctx, admin, "fp-1", "alice"); err != nil {
			t.Fatal(err)
		}
		p, err := w.Purchase(ctx, "bob", "fp-1", types.USD(100))
		if err != nil {
			t.Fatal(err)
		}
		return w, clock, p
	}

	t.Run("ValidThroughExpiryInstant", func(t *testing.T) {
		w, clock, p := issue(t, time.Hour)

		ok, err := w.IsValid(ctx, p.TokenID)
		if err != nil {
			t.Fatal(err)
		}
		if !ok {
			t.Error("fresh pass should be valid")
		}

		// Exactly at the expiry instant the pass still grants access.
		clock.Advance(time.Hour)
		ok, _ = w.IsValid(ctx, p.TokenID)
		if !ok {
			t.Error("pass should be valid at its exact expiry instant")
		}

		clock.Advance(time.Nanosecond)
		ok, _ = w.IsValid(ctx, p.TokenID)
		if ok {
			t.Error("pass should be invalid one instant past expiry")
		}
	})

	t.Run("CheckResult", func(t *testing.T) {
		w, clock, p := issue(t, time.Hour)

		res, err := w.Check(ctx, p.TokenID)
		if err != nil {
			t.Fatal(err)
		}
		if !res.Allowed || res.Fingerprint != "fp-1" || res.TokenID != p.TokenID {
			t.Errorf("unexpected result: %+v", res)
		}

		clock.Advance(2 * time.Hour)
		res, err = w.Check(ctx, p.TokenID)
		if err != nil {
			t.Fatal(err)
		}
		if res.Allowed {
			t.Error("expired pass reported as allowed")
		}
		if res.Reason == "" {
			t.Error("denial should carry a reason")
		}
	})

	t.Run("UnknownToken", func(t *testing.T) {
		w, _ := newTestPaywall(t)

		if _, err := w.Check(ctx, 42); !errors.Is(err, paywall.ErrUnknownToken) {
			t.Errorf("err = %v, want ErrUnknownToken", err)
		}
		if _, err := w.IsValid(ctx, 42); !errors.Is(err, paywall.ErrUnknownToken) {
			t.Errorf("err = %v, want ErrUnknownToken", err)
		}
	})

	t.Run("ContentByAnyCaller", func(t *testing.T) {
		w, clock, p := issue(t, time.Hour)

		// Content access is gated by validity only; the caller's identity
		// never enters into it.
		fp, err := w.Content(ctx, p.TokenID)
		if err != nil {
			t.Fatal(err)
		}
		if fp != "fp-1" {
			t.Errorf("fingerprint = %q, want fp-1", fp)
		}

		clock.Advance(2 * time.Hour)
		if _, err := w.Content(ctx, p.TokenID); !errors.Is(err, paywall.ErrPassExpired) {
			t.Errorf("err = %v, want ErrPassExpired", err)
		}
	})
}

func TestTransferPass(t *testing.T) {
	ctx := context.Background()

	issue := func(t *testing.T) (*paywall.Paywall, *fakeClock, *pass.Pass) {
		w, clock := newTestPaywall(t, paywall.WithPassTTL(time.Hour))
		if _, err := w.RegisterContent(ctx, admin, "fp-1", "alice"); err != nil {
			t.Fatal(err)
		}
		p, err := w.Purchase(ctx, "bob", "fp-1", types.USD(100))
		if err != nil {
			t.Fatal(err)
		}
		return w, clock, p
	}

	t.Run("HolderTransfers", func(t *testing.T) {
		w, _, p := issue(t)

		if err := w.TransferPass(ctx, "bob", p.TokenID, "carol"); err != nil {
			t.Fatal(err)
		}
		holder, err := w.HolderOf(ctx, p.TokenID)
		if err != nil {
			t.Fatal(err)
		}
		if holder != "carol" {
			t.Errorf("holder = %q, want carol", holder)
		}

		// Expiry is untouched by transfer.
		res, _ := w.Check(ctx, p.TokenID)
		if !res.ExpiresAt.Equal(p.ExpiresAt) {
			t.Errorf("expiry changed across transfer: %v != %v", res.ExpiresAt, p.ExpiresAt)
		}
	})

	t.Run("NonHolderRejected", func(t *testing.T) {
		w, _, p := issue(t)

		if err := w.TransferPass(ctx, "mallory", p.TokenID, "mallory"); !errors.Is(err, paywall.ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
		holder, _ := w.HolderOf(ctx, p.TokenID)
		if holder != "bob" {
			t.Errorf("holder = %q after rejected transfer, want bob", holder)
		}
	})

	t.Run("ExpiredPassStillTransfers", func(t *testing.T) {
		w, clock, p := issue(t)

		clock.Advance(48 * time.Hour)
		if err := w.TransferPass(ctx, "bob", p.TokenID, "carol"); err != nil {
			t.Fatal(err)
		}
		holder, _ := w.HolderOf(ctx, p.TokenID)
		if holder != "carol" {
			t.Errorf("holder = %q, want carol", holder)
		}
	})

	t.Run("UnknownToken", func(t *testing.T) {
		w, _ := newTestPaywall(t)

		if err := w.TransferPass(ctx, "bob", 42, "carol"); !errors.Is(err, paywall.ErrUnknownToken) {
			t.Errorf("err = %v, want ErrUnknownToken", err)
		}
	})

	t.Run("ListPassesFollowsHolder", func(t *testing.T) {
		w, _, p := issue(t)

		if err := w.TransferPass(ctx, "bob", p.TokenID, "carol"); err != nil {
			t.Fatal(err)
		}

		bobs, err := w.ListPasses(ctx, "bob", pass.ListOpts{})
		if err != nil {
			t.Fatal(err)
		}
		if len(bobs) != 0 {
			t.Errorf("bob still holds %d passes after transfer", len(bobs))
		}
		carols, err := w.ListPasses(ctx, "carol", pass.ListOpts{})
		if err != nil {
			t.Fatal(err)
		}
		if len(carols) != 1 || carols[0].TokenID != p.TokenID {
			t.Errorf("carol's passes = %+v, want the transferred pass", carols)
		}
	})
}

func TestWithdrawals(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T, opts ...paywall.Option) *paywall.Paywall {
		w, _ := newTestPaywall(t, opts...)
		if _, err := w.RegisterContent(ctx, admin, "fp-1", "alice"); err != nil {
			t.Fatal(err)
		}
		if _, err := w.RegisterContent(ctx, admin, "fp-2", "bob"); err != nil {
			t.Fatal(err)
		}
		return w
	}

	t.Run("OwnerDrainsPool", func(t *testing.T) {
		book := treasury.NewBook()
		w := setup(t, paywall.WithTransfer(book))

		if _, err := w.Purchase(ctx, "buyer", "fp-1", types.USD(1000)); err != nil {
			t.Fatal(err)
		}

		amount, err := w.WithdrawOwnerFunds(ctx, "alice", "fp-1")
		if err != nil {
			t.Fatal(err)
		}
		if !amount.Equal(types.USD(900)) {
			t.Errorf("withdrew %v, want $9.00", amount)
		}
		if got := book.Balance("alice", "usd"); !got.Equal(types.USD(900)) {
			t.Errorf("alice credited %v, want $9.00", got)
		}

		pools, _ := w.Pools(ctx)
		if !pools.Owner.IsZero() {
			t.Errorf("owner pool = %v after withdrawal, want zero", pools.Owner)
		}
		if !pools.Operator.Equal(types.USD(100)) {
			t.Errorf("operator pool = %v, want $1.00 untouched", pools.Operator)
		}
	})

	t.Run("PoolIsGlobalAcrossOwners", func(t *testing.T) {
		book := treasury.NewBook()
		w := setup(t, paywall.WithTransfer(book))

		// Sales for both owners accrue into one pool; whoever withdraws
		// first takes everything, including the other owner's share.
		if _, err := w.Purchase(ctx, "buyer", "fp-1", types.USD(1000)); err != nil {
			t.Fatal(err)
		}
		if _, err := w.Purchase(ctx, "buyer", "fp-2", types.USD(1000)); err != nil {
			t.Fatal(err)
		}

		amount, err := w.WithdrawOwnerFunds(ctx, "bob", "fp-2")
		if err != nil {
			t.Fatal(err)
		}
		if !amount.Equal(types.USD(1800)) {
			t.Errorf("bob withdrew %v, want the whole $18.00 pool", amount)
		}

		// Nothing is left for alice.
		amount, err = w.WithdrawOwnerFunds(ctx, "alice", "fp-1")
		if err != nil {
			t.Fatal(err)
		}
		if !amount.IsZero() {
			t.Errorf("alice withdrew %v from a drained pool, want zero", amount)
		}
	})

	t.Run("OperatorWithdrawal", func(t *testing.T) {
		book := treasury.NewBook()
		w := setup(t, paywall.WithTransfer(book))

		if _, err := w.Purchase(ctx, "buyer", "fp-1", types.USD(1000)); err != nil {
			t.Fatal(err)
		}

		amount, err := w.WithdrawOperatorFunds(ctx, admin)
		if err != nil {
			t.Fatal(err)
		}
		if !amount.Equal(types.USD(100)) {
			t.Errorf("withdrew %v, want $1.00", amount)
		}
		if got := book.Balance(admin, "usd"); !got.Equal(types.USD(100)) {
			t.Errorf("admin credited %v, want $1.00", got)
		}
	})

	t.Run("UnauthorizedPaths", func(t *testing.T) {
		w := setup(t)

		if _, err := w.Purchase(ctx, "buyer", "fp-1", types.USD(1000)); err != nil {
			t.Fatal(err)
		}

		// Non-owner cannot drain the owner pool, not even the admin.
		if _, err := w.WithdrawOwnerFunds(ctx, "mallory", "fp-1"); !errors.Is(err, paywall.ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
		if _, err := w.WithdrawOwnerFunds(ctx, admin, "fp-1"); !errors.Is(err, paywall.ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
		if _, err := w.WithdrawOperatorFunds(ctx, "alice"); !errors.Is(err, paywall.ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
		if _, err := w.WithdrawOwnerFunds(ctx, "alice", "fp-unknown"); !errors.Is(err, paywall.ErrContentNotRegistered) {
			t.Errorf("err = %v, want ErrContentNotRegistered", err)
		}

		pools, _ := w.Pools(ctx)
		if !pools.Owner.Equal(types.USD(900)) || !pools.Operator.Equal(types.USD(100)) {
			t.Errorf("pools mutated by rejected withdrawals: %v / %v", pools.Owner, pools.Operator)
		}
	})

	t.Run("TransferFailureRestoresPool", func(t *testing.T) {
		failing := treasury.TransferFunc(func(ctx context.Context, account string, amount types.Money) error {
			return errors.New("rail unavailable")
		})
		w := setup(t, paywall.WithTransfer(failing))

		if _, err := w.Purchase(ctx, "buyer", "fp-1", types.USD(1000)); err != nil {
			t.Fatal(err)
		}

		if _, err := w.WithdrawOwnerFunds(ctx, "alice", "fp-1"); !errors.Is(err, paywall.ErrTransferFailed) {
			t.Fatalf("err = %v, want ErrTransferFailed", err)
		}

		// Balance is intact and withdrawable once the rail recovers.
		pools, _ := w.Pools(ctx)
		if !pools.Owner.Equal(types.USD(900)) {
			t.Errorf("owner pool = %v after failed transfer, want $9.00 restored", pools.Owner)
		}

		if _, err := w.WithdrawOperatorFunds(ctx, admin); !errors.Is(err, paywall.ErrTransferFailed) {
			t.Fatalf("err = %v, want ErrTransferFailed", err)
		}
		pools, _ = w.Pools(ctx)
		if !pools.Operator.Equal(types.USD(100)) {
			t.Errorf("operator pool = %v after failed transfer, want $1.00 restored", pools.Operator)
		}
	})

	t.Run("Conservation", func(t *testing.T) {
		book := treasury.NewBook()
		w := setup(t, paywall.WithTransfer(book))

		// 3 x 999: each purchase floors to 899 + 99, leaving 1 minor unit
		// unaccounted per purchase.
		for i := 0; i < 3; i++ {
			if _, err := w.Purchase(ctx, "buyer", "fp-1", types.USD(999)); err != nil {
				t.Fatal(err)
			}
		}

		if _, err := w.WithdrawOwnerFunds(ctx, "alice", "fp-1"); err != nil {
			t.Fatal(err)
		}
		if _, err := w.WithdrawOperatorFunds(ctx, admin); err != nil {
			t.Fatal(err)
		}

		// Everything drained from the pools landed in the book, and the
		// floored remainder (3 units) landed nowhere.
		total := book.Total("usd")
		if !total.Equal(types.USD(3*999 - 3)) {
			t.Errorf("book total = %v, want %v", total, types.USD(3*999-3))
		}
		pools, _ := w.Pools(ctx)
		if !pools.Owner.IsZero() || !pools.Operator.IsZero() {
			t.Errorf("pools not empty after draining: %v / %v", pools.Owner, pools.Operator)
		}
	})
}

func TestPurgeExpired(t *testing.T) {
	ctx := context.Background()

	w, clock := newTestPaywall(t, paywall.WithPassTTL(time.Hour))
	if _, err := w.RegisterContent(ctx, admin, "fp-1", "alice"); err != nil {
		t.Fatal(err)
	}

	if _, err := w.Purchase(ctx, "bob", "fp-1", types.USD(100)); err != nil {
		t.Fatal(err)
	}
	clock.Advance(2 * time.Hour)
	keep, err := w.Purchase(ctx, "bob", "fp-1", types.USD(100))
	if err != nil {
		t.Fatal(err)
	}

	t.Run("NonAdminRejected", func(t *testing.T) {
		if _, err := w.PurgeExpired(ctx, "bob", clock.Now()); !errors.Is(err, paywall.ErrUnauthorized) {
			t.Errorf("err = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("RemovesOnlyExpired", func(t *testing.T) {
		count, err := w.PurgeExpired(ctx, admin, clock.Now())
		if err != nil {
			t.Fatal(err)
		}
		if count != 1 {
			t.Errorf("purged %d passes, want 1", count)
		}

		if _, err := w.Check(ctx, 0); !errors.Is(err, paywall.ErrUnknownToken) {
			t.Errorf("purged pass still resolvable: %v", err)
		}
		if ok, err := w.IsValid(ctx, keep.TokenID); err != nil || !ok {
			t.Errorf("live pass lost in purge: ok=%v err=%v", ok, err)
		}
	})

	t.Run("TokenIDsNotReused", func(t *testing.T) {
		p, err := w.Purchase(ctx, "bob", "fp-1", types.USD(100))
		if err != nil {
			t.Fatal(err)
		}
		if p.TokenID != 2 {
			t.Errorf("token id = %d after purge, want 2 (ids are never reused)", p.TokenID)
		}
	})
}

func TestReceipts(t *testing.T) {
	ctx := context.Background()

	w, _ := newTestPaywall(t)
	if _, err := w.RegisterContent(ctx, admin, "fp-1", "alice"); err != nil {
		t.Fatal(err)
	}

	p, err := w.Purchase(ctx, "bob", "fp-1", types.USD(100))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.TransferPass(ctx, "bob", p.TokenID, "carol"); err != nil {
		t.Fatal(err)
	}
	if _, err := w.WithdrawOwnerFunds(ctx, "alice", "fp-1"); err != nil {
		t.Fatal(err)
	}
	if _, err := w.WithdrawOperatorFunds(ctx, admin); err != nil {
		t.Fatal(err)
	}

	all, err := w.Receipts(ctx, receipt.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 4 {
		t.Fatalf("len = %d, want 4", len(all))
	}

	wantKinds := []receipt.Kind{
		receipt.KindPurchase,
		receipt.KindPassTransferred,
		receipt.KindOwnerWithdrawal,
		receipt.KindOperatorWithdrawal,
	}
	for i, want := range wantKinds {
		if all[i].Kind != want {
			t.Errorf("receipt[%d].Kind = %q, want %q", i, all[i].Kind, want)
		}
	}

	purchase := all[0]
	if purchase.TokenID == nil || *purchase.TokenID != p.TokenID {
		t.Errorf("purchase receipt token id = %v, want %d", purchase.TokenID, p.TokenID)
	}
	if !purchase.Amount.Equal(types.USD(100)) {
		t.Errorf("purchase receipt amount = %v, want $1.00", purchase.Amount)
	}

	byKind, err := w.Receipts(ctx, receipt.ListOpts{Kind: receipt.KindPurchase})
	if err != nil {
		t.Fatal(err)
	}
	if len(byKind) != 1 {
		t.Errorf("kind filter returned %d receipts, want 1", len(byKind))
	}
}

func TestTransferProviderPlugin(t *testing.T) {
	ctx := context.Background()

	t.Run("PluginProvidesBackend", func(t *testing.T) {
		book := treasury.NewBook()
		clock := newFakeClock()
		w := paywall.New(memory.New(),
			paywall.WithAdmin(admin),
			paywall.WithClock(clock.Now),
			paywall.WithPlugin(&bookProvider{book: book}),
		)
		if err := w.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer w.Stop()

		if _, err := w.RegisterContent(ctx, admin, "fp-1", "alice"); err != nil {
			t.Fatal(err)
		}
		if _, err := w.Purchase(ctx, "bob", "fp-1", types.USD(1000)); err != nil {
			t.Fatal(err)
		}
		if _, err := w.WithdrawOperatorFunds(ctx, admin); err != nil {
			t.Fatal(err)
		}
		if got := book.Balance(admin, "usd"); !got.Equal(types.USD(100)) {
			t.Errorf("plugin-provided book credited %v, want $1.00", got)
		}
	})

	t.Run("ExplicitTransferWins", func(t *testing.T) {
		pluginBook := treasury.NewBook()
		explicitBook := treasury.NewBook()
		clock := newFakeClock()
		w := paywall.New(memory.New(),
			paywall.WithAdmin(admin),
			paywall.WithClock(clock.Now),
			paywall.WithPlugin(&bookProvider{book: pluginBook}),
			paywall.WithTransfer(explicitBook),
		)
		if err := w.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer w.Stop()

		if _, err := w.RegisterContent(ctx, admin, "fp-1", "alice"); err != nil {
			t.Fatal(err)
		}
		if _, err := w.Purchase(ctx, "bob", "fp-1", types.USD(1000)); err != nil {
			t.Fatal(err)
		}
		if _, err := w.WithdrawOperatorFunds(ctx, admin); err != nil {
			t.Fatal(err)
		}
		if !pluginBook.Total("usd").IsZero() {
			t.Error("plugin book credited despite explicit transfer backend")
		}
		if got := explicitBook.Balance(admin, "usd"); !got.Equal(types.USD(100)) {
			t.Errorf("explicit book credited %v, want $1.00", got)
		}
	})
}

// bookProvider exposes a treasury.Book through the TransferProvider hook.
type bookProvider struct {
	book *treasury.Book
}

func (p *bookProvider) Name() string { return "book-provider" }

func (p *bookProvider) Transfer() interface{} { return p.book }
