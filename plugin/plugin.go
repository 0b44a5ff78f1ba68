// Package plugin provides an extensible plugin system for Paywall.
// Plugins can hook into various lifecycle events to extend functionality.
package plugin

import (
	"context"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, w interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Content registry hooks
// ──────────────────────────────────────────────────

// OnContentRegistered is called when a content fingerprint is registered.
type OnContentRegistered interface {
	Plugin
	OnContentRegistered(ctx context.Context, rec interface{}) error
}

// ──────────────────────────────────────────────────
// Pass lifecycle hooks
// ──────────────────────────────────────────────────

// OnPassIssued is called when a purchase mints a new pass.
type OnPassIssued interface {
	Plugin
	OnPassIssued(ctx context.Context, pass interface{}) error
}

// OnPassTransferred is called when a pass changes holders.
type OnPassTransferred interface {
	Plugin
	OnPassTransferred(ctx context.Context, pass interface{}, from, to string) error
}

// OnPassesPurged is called when expired passes are purged.
type OnPassesPurged interface {
	Plugin
	OnPassesPurged(ctx context.Context, count int64) error
}

// ──────────────────────────────────────────────────
// Access check hooks
// ──────────────────────────────────────────────────

// OnAccessChecked is called when a pass is checked and access is granted.
type OnAccessChecked interface {
	Plugin
	OnAccessChecked(ctx context.Context, result interface{}) error
}

// OnAccessDenied is called when a pass is checked and access is denied.
type OnAccessDenied interface {
	Plugin
	OnAccessDenied(ctx context.Context, tokenID uint64, reason string) error
}

// ──────────────────────────────────────────────────
// Treasury hooks
// ──────────────────────────────────────────────────

// OnFundsWithdrawn is called when a pool is drained to a recipient.
type OnFundsWithdrawn interface {
	Plugin
	OnFundsWithdrawn(ctx context.Context, pool, recipient string, amount interface{}) error
}

// OnWithdrawalFailed is called when the outbound transfer of a
// withdrawal fails and the pool is restored.
type OnWithdrawalFailed interface {
	Plugin
	OnWithdrawalFailed(ctx context.Context, pool, recipient string, amount interface{}, err error) error
}

// ──────────────────────────────────────────────────
// Price policy hooks
// ──────────────────────────────────────────────────

// OnPriceChanged is called when the subscription price is replaced.
type OnPriceChanged interface {
	Plugin
	OnPriceChanged(ctx context.Context, oldPrice, newPrice interface{}) error
}

// ──────────────────────────────────────────────────
// Transfer providers
// ──────────────────────────────────────────────────

// TransferProvider provides an outbound transfer backend implementation.
type TransferProvider interface {
	Plugin
	Transfer() interface{} // Returns treasury.Transfer
}
