// Package paywall provides a content-access ledger for Go applications.
//
// Paywall is designed as a library, not a service. Import it directly into
// your Go application. It provides:
//
//   - An append-only registry binding content fingerprints to owners
//   - Time-limited, transferable access passes sold at a single price
//   - A 90/10 revenue split into pooled owner and operator balances
//   - Admin-gated registration, pricing, and operator withdrawal
//   - An append-only receipt stream for every balance-moving event
//   - Pluggable lifecycle hooks for audit and metrics extensions
//
// # Quick Start
//
// Create a paywall instance with your preferred store:
//
//	import (
//	    "github.com/xraph/paywall"
//	    "github.com/xraph/paywall/store/memory"
//	)
//
//	w := paywall.New(memory.New(),
//	    paywall.WithAdmin("ops@example.com"),
//	)
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
// # Core Concepts
//
// Content is registered once, permanently, by the administrative identity:
//
//	rec, err := w.RegisterContent(ctx, admin, fingerprint, "alice")
//
// Buyers purchase passes at the current price. The payment splits 90/10
// between the owner pool and the operator pool, and the buyer receives a
// pass valid for 30 days:
//
//	p, err := w.Purchase(ctx, "bob", fingerprint, paywall.USD(500))
//
// Passes gate access by token id:
//
//	ok, err := w.IsValid(ctx, p.TokenID)
//	fp, err := w.Content(ctx, p.TokenID)
//
// Owners and the operator drain their pools:
//
//	amount, err := w.WithdrawOwnerFunds(ctx, "alice", fingerprint)
//
// # Accounting Model
//
// All monetary calculations use integer arithmetic to avoid floating-point
// precision issues. The Money type represents amounts in the smallest
// currency unit (cents for USD, pence for GBP, etc). Both shares of a
// purchase are floored independently, so up to one minor unit per purchase
// is credited to neither pool.
//
// The pools are global. An owner withdrawal drains the whole owner pool to
// the caller, including shares accrued from other owners' content. Fit for
// single-owner deployments; a per-owner ledger is a planned redesign.
//
// # TypeID
//
// Content records and receipts use TypeID for globally unique, type-safe
// identifiers:
//
//	cnt_01h2xcejqtf2nbrexx3vqjhp41   // Content record ID
//	rcpt_01h455vb4pex5vsknk084sn02q  // Receipt ID
//
// Access passes deliberately do not: token ids are dense monotonic
// integers allocated by the store, because issuance order is part of the
// access contract.
package paywall
