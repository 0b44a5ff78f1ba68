package extension

import (
	"time"

	"github.com/xraph/paywall"
	"github.com/xraph/paywall/plugin"
	"github.com/xraph/paywall/store"
)

// Option configures the Paywall Forge extension.
type Option func(*Extension)

// WithStore sets the store for the paywall engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithPaywallOption passes a paywall.Option through to the underlying engine.
func WithPaywallOption(opt paywall.Option) Option {
	return func(e *Extension) {
		e.paywallOpts = append(e.paywallOpts, opt)
	}
}

// WithPlugin registers a paywall plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.paywallOpts = append(e.paywallOpts, paywall.WithPlugin(p))
	}
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithAdmin sets the administrative identity.
func WithAdmin(identity string) Option {
	return func(e *Extension) { e.config.Admin = identity }
}

// WithCurrency sets the engine currency.
func WithCurrency(currency string) Option {
	return func(e *Extension) { e.config.Currency = currency }
}

// WithPassTTL sets the access window granted by a purchase.
func WithPassTTL(d time.Duration) Option {
	return func(e *Extension) { e.config.PassTTL = d }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}
