// Package audithook bridges Paywall lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not import
// Chronicle directly. Callers inject a RecorderFunc adapter that bridges
// to Chronicle at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/paywall/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin              = (*Extension)(nil)
	_ plugin.OnContentRegistered = (*Extension)(nil)
	_ plugin.OnPassIssued        = (*Extension)(nil)
	_ plugin.OnPassTransferred   = (*Extension)(nil)
	_ plugin.OnPassesPurged      = (*Extension)(nil)
	_ plugin.OnAccessDenied      = (*Extension)(nil)
	_ plugin.OnFundsWithdrawn    = (*Extension)(nil)
	_ plugin.OnWithdrawalFailed  = (*Extension)(nil)
	_ plugin.OnPriceChanged      = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// This matches chronicle.Emitter but is defined locally so that the
// audit_hook package does not import Chronicle directly — callers inject
// the concrete *chronicle.Chronicle at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
// It mirrors chronicle/audit.Event but avoids a module dependency.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Paywall lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Content registry hooks
// ──────────────────────────────────────────────────

// OnContentRegistered implements plugin.OnContentRegistered.
func (e *Extension) OnContentRegistered(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionContentRegistered, SeverityInfo, OutcomeSuccess,
		ResourceContent, "", CategoryRegistry, nil,
		"event", "content_registered",
	)
}

// ──────────────────────────────────────────────────
// Pass lifecycle hooks
// ──────────────────────────────────────────────────

// OnPassIssued implements plugin.OnPassIssued.
func (e *Extension) OnPassIssued(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionPassIssued, SeverityInfo, OutcomeSuccess,
		ResourcePass, "", CategoryPayment, nil,
		"event", "pass_issued",
	)
}

// OnPassTransferred implements plugin.OnPassTransferred.
func (e *Extension) OnPassTransferred(ctx context.Context, _ interface{}, from, to string) error {
	return e.record(ctx, ActionPassTransferred, SeverityInfo, OutcomeSuccess,
		ResourcePass, "", CategoryRegistry, nil,
		"event", "pass_transferred",
		"from", from,
		"to", to,
	)
}

// OnPassesPurged implements plugin.OnPassesPurged.
func (e *Extension) OnPassesPurged(ctx context.Context, count int64) error {
	return e.record(ctx, ActionPassesPurged, SeverityInfo, OutcomeSuccess,
		ResourcePass, "", CategoryRegistry, nil,
		"event", "passes_purged",
		"count", count,
	)
}

// ──────────────────────────────────────────────────
// Access check hooks
// ──────────────────────────────────────────────────

// OnAccessDenied implements plugin.OnAccessDenied.
func (e *Extension) OnAccessDenied(ctx context.Context, tokenID uint64, reason string) error {
	return e.record(ctx, ActionAccessDenied, SeverityWarning, OutcomeFailure,
		ResourceAccess, fmt.Sprintf("%d", tokenID), CategoryAccess, nil,
		"token_id", tokenID,
		"reason", reason,
	)
}

// ──────────────────────────────────────────────────
// Treasury hooks
// ──────────────────────────────────────────────────

// OnFundsWithdrawn implements plugin.OnFundsWithdrawn.
func (e *Extension) OnFundsWithdrawn(ctx context.Context, pool, recipient string, _ interface{}) error {
	return e.record(ctx, ActionFundsWithdrawn, SeverityInfo, OutcomeSuccess,
		ResourceTreasury, pool, CategoryPayment, nil,
		"pool", pool,
		"recipient", recipient,
	)
}

// OnWithdrawalFailed implements plugin.OnWithdrawalFailed.
func (e *Extension) OnWithdrawalFailed(ctx context.Context, pool, recipient string, _ interface{}, err error) error {
	return e.record(ctx, ActionWithdrawalFailed, SeverityCritical, OutcomeFailure,
		ResourceTreasury, pool, CategoryPayment, err,
		"pool", pool,
		"recipient", recipient,
	)
}

// ──────────────────────────────────────────────────
// Price policy hooks
// ──────────────────────────────────────────────────

// OnPriceChanged implements plugin.OnPriceChanged.
func (e *Extension) OnPriceChanged(ctx context.Context, _, _ interface{}) error {
	return e.record(ctx, ActionPriceChanged, SeverityInfo, OutcomeSuccess,
		ResourcePrice, "", CategoryPayment, nil,
		"event", "price_changed",
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
