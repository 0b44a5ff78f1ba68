// Package observability provides a metrics extension for Paywall that records
// lifecycle event counts through a pluggable MetricFactory.
package observability

import (
	"context"

	"github.com/xraph/paywall/pass"
	"github.com/xraph/paywall/plugin"
	"github.com/xraph/paywall/types"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin              = (*MetricsExtension)(nil)
	_ plugin.OnInit              = (*MetricsExtension)(nil)
	_ plugin.OnContentRegistered = (*MetricsExtension)(nil)
	_ plugin.OnPassIssued        = (*MetricsExtension)(nil)
	_ plugin.OnPassTransferred   = (*MetricsExtension)(nil)
	_ plugin.OnPassesPurged      = (*MetricsExtension)(nil)
	_ plugin.OnAccessChecked     = (*MetricsExtension)(nil)
	_ plugin.OnAccessDenied      = (*MetricsExtension)(nil)
	_ plugin.OnFundsWithdrawn    = (*MetricsExtension)(nil)
	_ plugin.OnWithdrawalFailed  = (*MetricsExtension)(nil)
	_ plugin.OnPriceChanged      = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Paywall plugin to automatically track access and
// payment metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Content metrics
	ContentRegistered Counter

	// Pass metrics
	PassIssued      Counter
	PassTransferred Counter
	PassesPurged    Counter
	PurchaseAmount  Histogram

	// Access metrics
	AccessChecks Counter
	AccessDenied Counter

	// Treasury metrics
	FundsWithdrawn    Counter
	WithdrawalsFailed Counter
	WithdrawalAmount  Histogram

	// Price metrics
	PriceChanged Counter

	// Error metrics
	StoreErrors  Counter
	PluginErrors Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Content metrics
		ContentRegistered: factory.Counter("paywall.content.registered"),

		// Pass metrics
		PassIssued:      factory.Counter("paywall.pass.issued"),
		PassTransferred: factory.Counter("paywall.pass.transferred"),
		PassesPurged:    factory.Counter("paywall.passes.purged"),
		PurchaseAmount:  factory.Histogram("paywall.purchase.amount"),

		// Access metrics
		AccessChecks: factory.Counter("paywall.access.checks"),
		AccessDenied: factory.Counter("paywall.access.denied"),

		// Treasury metrics
		FundsWithdrawn:    factory.Counter("paywall.funds.withdrawn"),
		WithdrawalsFailed: factory.Counter("paywall.withdrawals.failed"),
		WithdrawalAmount:  factory.Histogram("paywall.withdrawal.amount"),

		// Price metrics
		PriceChanged: factory.Counter("paywall.price.changed"),

		// Error metrics
		StoreErrors:  factory.Counter("paywall.store.errors"),
		PluginErrors: factory.Counter("paywall.plugin.errors"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Content registry hooks
// ──────────────────────────────────────────────────

// OnContentRegistered implements plugin.OnContentRegistered.
func (m *MetricsExtension) OnContentRegistered(_ context.Context, _ interface{}) error {
	m.ContentRegistered.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Pass lifecycle hooks
// ──────────────────────────────────────────────────

// OnPassIssued implements plugin.OnPassIssued.
func (m *MetricsExtension) OnPassIssued(_ context.Context, issued interface{}) error {
	m.PassIssued.Inc()
	if p, ok := issued.(*pass.Pass); ok {
		m.PurchaseAmount.Observe(float64(p.Paid.Amount))
	}
	return nil
}

// OnPassTransferred implements plugin.OnPassTransferred.
func (m *MetricsExtension) OnPassTransferred(_ context.Context, _ interface{}, _, _ string) error {
	m.PassTransferred.Inc()
	return nil
}

// OnPassesPurged implements plugin.OnPassesPurged.
func (m *MetricsExtension) OnPassesPurged(_ context.Context, count int64) error {
	m.PassesPurged.Add(float64(count))
	return nil
}

// ──────────────────────────────────────────────────
// Access check hooks
// ──────────────────────────────────────────────────

// OnAccessChecked implements plugin.OnAccessChecked.
func (m *MetricsExtension) OnAccessChecked(_ context.Context, _ interface{}) error {
	m.AccessChecks.Inc()
	return nil
}

// OnAccessDenied implements plugin.OnAccessDenied.
func (m *MetricsExtension) OnAccessDenied(_ context.Context, _ uint64, _ string) error {
	m.AccessChecks.Inc()
	m.AccessDenied.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Treasury hooks
// ──────────────────────────────────────────────────

// OnFundsWithdrawn implements plugin.OnFundsWithdrawn.
func (m *MetricsExtension) OnFundsWithdrawn(_ context.Context, _, _ string, amount interface{}) error {
	m.FundsWithdrawn.Inc()
	if a, ok := amount.(types.Money); ok {
		m.WithdrawalAmount.Observe(float64(a.Amount))
	}
	return nil
}

// OnWithdrawalFailed implements plugin.OnWithdrawalFailed.
func (m *MetricsExtension) OnWithdrawalFailed(_ context.Context, _, _ string, _ interface{}, _ error) error {
	m.WithdrawalsFailed.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Price policy hooks
// ──────────────────────────────────────────────────

// OnPriceChanged implements plugin.OnPriceChanged.
func (m *MetricsExtension) OnPriceChanged(_ context.Context, _, _ interface{}) error {
	m.PriceChanged.Inc()
	return nil
}
