package paywall

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/paywall/access"
	"github.com/xraph/paywall/content"
	"github.com/xraph/paywall/id"
	"github.com/xraph/paywall/pass"
	"github.com/xraph/paywall/plugin"
	"github.com/xraph/paywall/receipt"
	"github.com/xraph/paywall/store"
	"github.com/xraph/paywall/treasury"
	"github.com/xraph/paywall/types"
)

// Revenue split applied to every purchase. Both shares are floored
// independently; up to one minor unit per purchase is credited to
// neither pool. That remainder is part of the accounting contract —
// do not redistribute it.
const (
	ownerSharePercent    = 90
	operatorSharePercent = 10
)

// DefaultPassTTL is the access window granted by a purchase.
const DefaultPassTTL = 30 * 24 * time.Hour

// Paywall is the content-access ledger engine.
//
// Every mutating operation executes under one mutex: no two of them
// interleave their reads and writes of the treasury pools, the token
// counter, or the registries. Read-only paths skip the mutex and rely
// on the store's per-method atomicity. Validation always precedes
// mutation, so a rejected call leaves state untouched. The one
// post-mutation failure point is the outbound transfer during
// withdrawal, which is compensated by restoring the drained pool.
type Paywall struct {
	store    store.Store
	plugins  *plugin.Registry
	logger   *slog.Logger
	transfer treasury.Transfer

	mu sync.Mutex

	admin    string
	currency string
	passTTL  time.Duration
	clock    func() time.Time

	transferSet bool
}

// New creates a new Paywall instance.
func New(s store.Store, opts ...Option) *Paywall {
	w := &Paywall{
		store:    s,
		plugins:  plugin.NewRegistry(),
		logger:   slog.Default(),
		currency: "usd",
		passTTL:  DefaultPassTTL,
		clock:    func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.transfer == nil {
		w.transfer = treasury.NewBook()
	}

	return w
}

// Option configures a Paywall instance.
type Option func(*Paywall)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Paywall) {
		w.logger = logger
		w.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(w *Paywall) {
		_ = w.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithAdmin sets the administrative identity permitted to register
// content, change the price, and withdraw operator funds.
func WithAdmin(identity string) Option {
	return func(w *Paywall) {
		w.admin = identity
	}
}

// WithCurrency sets the currency all prices, payments, and pools are
// denominated in (default "usd").
func WithCurrency(currency string) Option {
	return func(w *Paywall) {
		w.currency = types.Zero(currency).Currency
	}
}

// WithPassTTL sets the access window granted by a purchase.
func WithPassTTL(ttl time.Duration) Option {
	return func(w *Paywall) {
		w.passTTL = ttl
	}
}

// WithClock overrides the time source. Use in tests to pin "now".
func WithClock(clock func() time.Time) Option {
	return func(w *Paywall) {
		w.clock = clock
	}
}

// WithTransfer sets the outbound transfer backend used by withdrawals.
// Takes precedence over any TransferProvider plugin.
func WithTransfer(t treasury.Transfer) Option {
	return func(w *Paywall) {
		w.transfer = t
		w.transferSet = true
	}
}

// Start migrates the store and initializes plugins.
func (w *Paywall) Start(ctx context.Context) error {
	if err := w.store.Migrate(ctx); err != nil {
		return err
	}

	// An explicitly configured transfer backend wins over plugin providers.
	if !w.transferSet {
		for _, p := range w.plugins.GetTransferProviders() {
			if t, ok := p.Transfer().(treasury.Transfer); ok {
				w.transfer = t
				break
			}
		}
	}

	w.plugins.EmitInit(ctx, w)

	w.logger.Info("paywall started",
		"admin", w.admin,
		"currency", w.currency,
		"pass_ttl", w.passTTL,
	)

	return nil
}

// Stop shuts down the Paywall.
func (w *Paywall) Stop() error {
	ctx := context.Background()
	w.plugins.EmitShutdown(ctx)

	return w.store.Close()
}

// ──────────────────────────────────────────────────
// Content Registry
// ──────────────────────────────────────────────────

// RegisterContent permanently binds a content fingerprint to its owner.
// Only the administrative identity may register content, and a
// fingerprint can never be re-registered.
func (w *Paywall) RegisterContent(ctx context.Context, caller, fingerprint, owner string) (*content.Record, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.requireAdmin(caller); err != nil {
		return nil, err
	}
	if fingerprint == "" {
		return nil, ValidationError{Field: "fingerprint", Message: "must not be empty"}
	}
	if owner == "" {
		return nil, ValidationError{Field: "owner", Message: "must not be empty"}
	}

	if _, err := w.store.GetContent(ctx, fingerprint); err == nil {
		return nil, ErrContentRegistered
	} else if !errors.Is(err, ErrContentNotRegistered) {
		return nil, err
	}

	rec := &content.Record{
		Entity:      types.EntityAt(w.clock()),
		ID:          id.NewContentID(),
		Fingerprint: fingerprint,
		Owner:       owner,
	}
	if err := w.store.CreateContent(ctx, rec); err != nil {
		return nil, err
	}

	w.plugins.EmitContentRegistered(ctx, rec)
	w.logger.Info("content registered",
		"fingerprint", fingerprint,
		"owner", owner,
	)

	return rec, nil
}

// OwnerOf returns the registered owner of a fingerprint.
func (w *Paywall) OwnerOf(ctx context.Context, fingerprint string) (string, error) {
	rec, err := w.store.GetContent(ctx, fingerprint)
	if err != nil {
		return "", err
	}
	return rec.Owner, nil
}

// ListContent returns registered content records.
func (w *Paywall) ListContent(ctx context.Context, opts content.ListOpts) ([]*content.Record, error) {
	return w.store.ListContent(ctx, opts)
}

// ──────────────────────────────────────────────────
// Price Policy
// ──────────────────────────────────────────────────

// SetPrice unconditionally replaces the subscription price.
// Only the administrative identity may change it.
func (w *Paywall) SetPrice(ctx context.Context, caller string, price types.Money) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.requireAdmin(caller); err != nil {
		return err
	}
	if price.IsNegative() {
		return ErrInvalidPrice
	}
	if price.Currency != w.currency {
		return ErrCurrencyMismatch
	}

	old, err := w.price(ctx)
	if err != nil {
		return err
	}

	if err := w.store.SetPrice(ctx, price); err != nil {
		return err
	}

	w.plugins.EmitPriceChanged(ctx, old, price)
	w.logger.Info("price changed",
		"old", old.String(),
		"new", price.String(),
	)

	return nil
}

// Price returns the current subscription price. Before the first
// SetPrice the price is zero.
func (w *Paywall) Price(ctx context.Context) (types.Money, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.price(ctx)
}

// price reads the policy without locking; callers hold w.mu.
func (w *Paywall) price(ctx context.Context) (types.Money, error) {
	policy, err := w.store.Price(ctx)
	if errors.Is(err, ErrPriceNotSet) {
		return types.Zero(w.currency), nil
	}
	if err != nil {
		return types.Money{}, err
	}
	return policy.Price, nil
}

// ──────────────────────────────────────────────────
// Subscription Purchase
// ──────────────────────────────────────────────────

// Purchase buys a time-limited access pass for the given content.
//
// The payment must meet the current price; the content must be
// registered. The payment is then split 90/10 between the owner pool
// and the operator pool (both shares floored independently), a fresh
// token identity is allocated, and a pass valid for the configured TTL
// is minted to the buyer. The whole operation is all-or-nothing: a
// rejected purchase mints nothing, advances no counter, and moves no
// funds.
func (w *Paywall) Purchase(ctx context.Context, buyer, fingerprint string, payment types.Money) (*pass.Pass, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if buyer == "" {
		return nil, ValidationError{Field: "buyer", Message: "must not be empty"}
	}
	if payment.Currency != w.currency {
		return nil, ErrCurrencyMismatch
	}

	price, err := w.price(ctx)
	if err != nil {
		return nil, err
	}
	// The persisted price may predate a currency reconfiguration.
	if !price.SameCurrency(payment) {
		return nil, ErrCurrencyMismatch
	}
	if payment.LessThan(price) {
		return nil, ErrInsufficientPayment
	}

	if _, err := w.store.GetContent(ctx, fingerprint); err != nil {
		return nil, err
	}

	// All validation passed; everything below mutates.
	ownerShare := payment.Percent(ownerSharePercent)
	operatorShare := payment.Percent(operatorSharePercent)

	pools, err := w.pools(ctx)
	if err != nil {
		return nil, err
	}
	pools.Deposit(ownerShare, operatorShare)
	if err := w.store.SavePools(ctx, pools); err != nil {
		return nil, err
	}

	tokenID, err := w.store.NextTokenID(ctx)
	if err != nil {
		return nil, err
	}

	now := w.clock()
	p := &pass.Pass{
		Entity:      types.EntityAt(now),
		TokenID:     tokenID,
		Fingerprint: fingerprint,
		Holder:      buyer,
		Paid:        payment,
		IssuedAt:    now,
		ExpiresAt:   now.Add(w.passTTL),
	}
	if err := w.store.CreatePass(ctx, p); err != nil {
		return nil, err
	}

	if err := w.appendReceipt(ctx, receipt.KindPurchase, &tokenID, buyer, fingerprint, payment); err != nil {
		return nil, err
	}

	w.plugins.EmitPassIssued(ctx, p)
	w.logger.Info("pass issued",
		"token_id", tokenID,
		"buyer", buyer,
		"fingerprint", fingerprint,
		"paid", payment.String(),
		"expires_at", p.ExpiresAt,
	)

	return p, nil
}

// ──────────────────────────────────────────────────
// Access Checks
// ──────────────────────────────────────────────────

// Check evaluates a pass against the engine clock and returns the full
// access result. Unknown tokens fail with ErrUnknownToken.
func (w *Paywall) Check(ctx context.Context, tokenID uint64) (*access.Result, error) {
	p, err := w.store.GetPass(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	result := &access.Result{
		TokenID:     tokenID,
		Fingerprint: p.Fingerprint,
		ExpiresAt:   p.ExpiresAt,
	}

	if p.Expired(w.clock()) {
		result.Reason = "pass expired"
		w.plugins.EmitAccessDenied(ctx, tokenID, result.Reason)
		return result, nil
	}

	result.Allowed = true
	w.plugins.EmitAccessChecked(ctx, result)
	return result, nil
}

// IsValid reports whether a pass grants access right now. A pass is
// valid through its exact expiry instant and invalid forever after.
func (w *Paywall) IsValid(ctx context.Context, tokenID uint64) (bool, error) {
	result, err := w.Check(ctx, tokenID)
	if err != nil {
		return false, err
	}
	return result.Allowed, nil
}

// Content returns the fingerprint a pass grants access to.
//
// Access is gated by pass validity only: any caller presenting a valid
// token id may read the fingerprint. Holding the pass is enforced by
// transfer semantics, not by this read path.
func (w *Paywall) Content(ctx context.Context, tokenID uint64) (string, error) {
	result, err := w.Check(ctx, tokenID)
	if err != nil {
		return "", err
	}
	if !result.Allowed {
		return "", ErrPassExpired
	}
	return result.Fingerprint, nil
}

// ──────────────────────────────────────────────────
// Pass Registry
// ──────────────────────────────────────────────────

// HolderOf returns the current holder of a pass.
func (w *Paywall) HolderOf(ctx context.Context, tokenID uint64) (string, error) {
	p, err := w.store.GetPass(ctx, tokenID)
	if err != nil {
		return "", err
	}
	return p.Holder, nil
}

// TransferPass moves a pass to a new holder. Only the current holder
// may transfer. Expired passes transfer like any other; validity is a
// read-path concern.
func (w *Paywall) TransferPass(ctx context.Context, caller string, tokenID uint64, to string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if to == "" {
		return ValidationError{Field: "to", Message: "must not be empty"}
	}

	p, err := w.store.GetPass(ctx, tokenID)
	if err != nil {
		return err
	}
	if p.Holder != caller {
		return ErrUnauthorized
	}

	if err := w.store.UpdatePassHolder(ctx, tokenID, to); err != nil {
		return err
	}

	if err := w.appendReceipt(ctx, receipt.KindPassTransferred, &tokenID, to, p.Fingerprint, types.Zero(w.currency)); err != nil {
		return err
	}

	w.plugins.EmitPassTransferred(ctx, p, caller, to)
	w.logger.Info("pass transferred",
		"token_id", tokenID,
		"from", caller,
		"to", to,
	)

	return nil
}

// ListPasses returns the passes currently held by an identity.
func (w *Paywall) ListPasses(ctx context.Context, holder string, opts pass.ListOpts) ([]*pass.Pass, error) {
	return w.store.ListPasses(ctx, holder, opts)
}

// ──────────────────────────────────────────────────
// Treasury Withdrawal
// ──────────────────────────────────────────────────

// WithdrawOwnerFunds drains the entire owner pool to the registered
// owner of the given fingerprint.
//
// The pool is global: it also contains shares accrued from purchases of
// content registered to other owners, and the first owner to withdraw
// takes all of it. This is the accounting model of record; a per-owner
// ledger is a deliberate future redesign, not a patch.
//
// If the outbound transfer fails the pool is restored to its
// pre-withdrawal balance and ErrTransferFailed is returned.
func (w *Paywall) WithdrawOwnerFunds(ctx context.Context, caller, fingerprint string) (types.Money, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	rec, err := w.store.GetContent(ctx, fingerprint)
	if err != nil {
		return types.Zero(w.currency), err
	}
	if caller != rec.Owner {
		return types.Zero(w.currency), ErrUnauthorized
	}

	return w.withdraw(ctx, receipt.KindOwnerWithdrawal, caller, fingerprint, func(p *treasury.Pools) types.Money {
		return p.DrainOwner()
	}, func(p *treasury.Pools, amount types.Money) {
		p.Owner = p.Owner.Add(amount)
	})
}

// WithdrawOperatorFunds drains the entire operator pool to the caller.
// Only the administrative identity may withdraw operator funds.
func (w *Paywall) WithdrawOperatorFunds(ctx context.Context, caller string) (types.Money, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.requireAdmin(caller); err != nil {
		return types.Zero(w.currency), err
	}

	return w.withdraw(ctx, receipt.KindOperatorWithdrawal, caller, "", func(p *treasury.Pools) types.Money {
		return p.DrainOperator()
	}, func(p *treasury.Pools, amount types.Money) {
		p.Operator = p.Operator.Add(amount)
	})
}

// withdraw drains one pool, credits the recipient, and appends a
// receipt. Callers hold w.mu. drain empties the pool in place; restore
// undoes it when the credit fails.
func (w *Paywall) withdraw(
	ctx context.Context,
	kind receipt.Kind,
	recipient, fingerprint string,
	drain func(*treasury.Pools) types.Money,
	restore func(*treasury.Pools, types.Money),
) (types.Money, error) {
	pools, err := w.pools(ctx)
	if err != nil {
		return types.Zero(w.currency), err
	}

	amount := drain(pools)
	if err := w.store.SavePools(ctx, pools); err != nil {
		return types.Zero(w.currency), err
	}

	if err := w.transfer.Credit(ctx, recipient, amount); err != nil {
		restore(pools, amount)
		if saveErr := w.store.SavePools(ctx, pools); saveErr != nil {
			// The credit failed and the pool could not be restored; this
			// is the one state the engine cannot repair on its own.
			w.logger.Error("pool restore failed after transfer failure",
				"kind", string(kind),
				"recipient", recipient,
				"amount", amount.String(),
				"error", saveErr,
			)
		}
		w.plugins.EmitWithdrawalFailed(ctx, string(kind), recipient, amount, err)
		return types.Zero(w.currency), fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	if err := w.appendReceipt(ctx, kind, nil, recipient, fingerprint, amount); err != nil {
		return types.Zero(w.currency), err
	}

	w.plugins.EmitFundsWithdrawn(ctx, string(kind), recipient, amount)
	w.logger.Info("funds withdrawn",
		"kind", string(kind),
		"recipient", recipient,
		"amount", amount.String(),
	)

	return amount, nil
}

// Pools returns a copy of the current treasury balances.
func (w *Paywall) Pools(ctx context.Context) (*treasury.Pools, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	pools, err := w.pools(ctx)
	if err != nil {
		return nil, err
	}
	return pools.Clone(), nil
}

// pools reads the treasury without locking; callers hold w.mu.
func (w *Paywall) pools(ctx context.Context) (*treasury.Pools, error) {
	pools, err := w.store.Pools(ctx)
	if errors.Is(err, ErrPoolsNotInitialized) {
		return treasury.NewPools(w.currency), nil
	}
	if err != nil {
		return nil, err
	}
	// Persisted pools may predate a currency reconfiguration.
	if pools.Owner.Currency != w.currency {
		return nil, ErrCurrencyMismatch
	}
	return pools, nil
}

// ──────────────────────────────────────────────────
// Maintenance & Observers
// ──────────────────────────────────────────────────

// PurgeExpired deletes passes that expired before the given instant and
// returns the number removed. Admin-gated: the default posture is to
// retain expired passes forever, and archival is an operator decision.
func (w *Paywall) PurgeExpired(ctx context.Context, caller string, before time.Time) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.requireAdmin(caller); err != nil {
		return 0, err
	}

	count, err := w.store.PurgePasses(ctx, before)
	if err != nil {
		return 0, err
	}

	w.plugins.EmitPassesPurged(ctx, count)
	w.logger.Info("expired passes purged",
		"count", count,
		"before", before,
	)

	return count, nil
}

// Receipts returns entries from the append-only notification stream.
func (w *Paywall) Receipts(ctx context.Context, opts receipt.ListOpts) ([]*receipt.Receipt, error) {
	return w.store.ListReceipts(ctx, opts)
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

func (w *Paywall) requireAdmin(caller string) error {
	if w.admin == "" || caller != w.admin {
		return ErrUnauthorized
	}
	return nil
}

func (w *Paywall) appendReceipt(ctx context.Context, kind receipt.Kind, tokenID *uint64, identity, fingerprint string, amount types.Money) error {
	return w.store.AppendReceipt(ctx, &receipt.Receipt{
		ID:          id.NewReceiptID(),
		Kind:        kind,
		TokenID:     tokenID,
		Identity:    identity,
		Fingerprint: fingerprint,
		Amount:      amount,
		At:          w.clock(),
	})
}
