package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit              []OnInit
	onShutdown          []OnShutdown
	onContentRegistered []OnContentRegistered
	onPassIssued        []OnPassIssued
	onPassTransferred   []OnPassTransferred
	onPassesPurged      []OnPassesPurged
	onAccessChecked     []OnAccessChecked
	onAccessDenied      []OnAccessDenied
	onFundsWithdrawn    []OnFundsWithdrawn
	onWithdrawalFailed  []OnWithdrawalFailed
	onPriceChanged      []OnPriceChanged
	transferProviders   []TransferProvider
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnContentRegistered); ok {
		r.onContentRegistered = append(r.onContentRegistered, v)
	}
	if v, ok := p.(OnPassIssued); ok {
		r.onPassIssued = append(r.onPassIssued, v)
	}
	if v, ok := p.(OnPassTransferred); ok {
		r.onPassTransferred = append(r.onPassTransferred, v)
	}
	if v, ok := p.(OnPassesPurged); ok {
		r.onPassesPurged = append(r.onPassesPurged, v)
	}
	if v, ok := p.(OnAccessChecked); ok {
		r.onAccessChecked = append(r.onAccessChecked, v)
	}
	if v, ok := p.(OnAccessDenied); ok {
		r.onAccessDenied = append(r.onAccessDenied, v)
	}
	if v, ok := p.(OnFundsWithdrawn); ok {
		r.onFundsWithdrawn = append(r.onFundsWithdrawn, v)
	}
	if v, ok := p.(OnWithdrawalFailed); ok {
		r.onWithdrawalFailed = append(r.onWithdrawalFailed, v)
	}
	if v, ok := p.(OnPriceChanged); ok {
		r.onPriceChanged = append(r.onPriceChanged, v)
	}
	if v, ok := p.(TransferProvider); ok {
		r.transferProviders = append(r.transferProviders, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	// Check each interface
	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	// List all interfaces to check
	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnContentRegistered)(nil)).Elem(), "OnContentRegistered")
	checkInterface(reflect.TypeOf((*OnPassIssued)(nil)).Elem(), "OnPassIssued")
	checkInterface(reflect.TypeOf((*OnPassTransferred)(nil)).Elem(), "OnPassTransferred")
	checkInterface(reflect.TypeOf((*OnPassesPurged)(nil)).Elem(), "OnPassesPurged")
	checkInterface(reflect.TypeOf((*OnAccessChecked)(nil)).Elem(), "OnAccessChecked")
	checkInterface(reflect.TypeOf((*OnAccessDenied)(nil)).Elem(), "OnAccessDenied")
	checkInterface(reflect.TypeOf((*OnFundsWithdrawn)(nil)).Elem(), "OnFundsWithdrawn")
	checkInterface(reflect.TypeOf((*OnWithdrawalFailed)(nil)).Elem(), "OnWithdrawalFailed")
	checkInterface(reflect.TypeOf((*OnPriceChanged)(nil)).Elem(), "OnPriceChanged")
	checkInterface(reflect.TypeOf((*TransferProvider)(nil)).Elem(), "TransferProvider")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, w interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, w)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitContentRegistered emits a content registered event.
func (r *Registry) EmitContentRegistered(ctx context.Context, rec interface{}) {
	r.mu.RLock()
	plugins := r.onContentRegistered
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnContentRegistered(ctx, rec)
		}); err != nil {
			r.logger.Warn("plugin OnContentRegistered failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPassIssued emits a pass issued event.
func (r *Registry) EmitPassIssued(ctx context.Context, pass interface{}) {
	r.mu.RLock()
	plugins := r.onPassIssued
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPassIssued(ctx, pass)
		}); err != nil {
			r.logger.Warn("plugin OnPassIssued failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPassTransferred emits a pass transferred event.
func (r *Registry) EmitPassTransferred(ctx context.Context, pass interface{}, from, to string) {
	r.mu.RLock()
	plugins := r.onPassTransferred
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPassTransferred(ctx, pass, from, to)
		}); err != nil {
			r.logger.Warn("plugin OnPassTransferred failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPassesPurged emits a passes purged event.
func (r *Registry) EmitPassesPurged(ctx context.Context, count int64) {
	r.mu.RLock()
	plugins := r.onPassesPurged
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPassesPurged(ctx, count)
		}); err != nil {
			r.logger.Warn("plugin OnPassesPurged failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitAccessChecked emits an access checked event.
func (r *Registry) EmitAccessChecked(ctx context.Context, result interface{}) {
	r.mu.RLock()
	plugins := r.onAccessChecked
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnAccessChecked(ctx, result)
		}); err != nil {
			r.logger.Warn("plugin OnAccessChecked failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitAccessDenied emits an access denied event.
func (r *Registry) EmitAccessDenied(ctx context.Context, tokenID uint64, reason string) {
	r.mu.RLock()
	plugins := r.onAccessDenied
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnAccessDenied(ctx, tokenID, reason)
		}); err != nil {
			r.logger.Warn("plugin OnAccessDenied failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitFundsWithdrawn emits a funds withdrawn event.
func (r *Registry) EmitFundsWithdrawn(ctx context.Context, pool, recipient string, amount interface{}) {
	r.mu.RLock()
	plugins := r.onFundsWithdrawn
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnFundsWithdrawn(ctx, pool, recipient, amount)
		}); err != nil {
			r.logger.Warn("plugin OnFundsWithdrawn failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitWithdrawalFailed emits a withdrawal failed event.
func (r *Registry) EmitWithdrawalFailed(ctx context.Context, pool, recipient string, amount interface{}, failure error) {
	r.mu.RLock()
	plugins := r.onWithdrawalFailed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnWithdrawalFailed(ctx, pool, recipient, amount, failure)
		}); err != nil {
			r.logger.Warn("plugin OnWithdrawalFailed failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitPriceChanged emits a price changed event.
func (r *Registry) EmitPriceChanged(ctx context.Context, oldPrice, newPrice interface{}) {
	r.mu.RLock()
	plugins := r.onPriceChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPriceChanged(ctx, oldPrice, newPrice)
		}); err != nil {
			r.logger.Warn("plugin OnPriceChanged failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// GetTransferProviders returns all registered transfer provider plugins.
func (r *Registry) GetTransferProviders() []TransferProvider {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]TransferProvider, len(r.transferProviders))
	copy(result, r.transferProviders)
	return result
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the access or payment pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
