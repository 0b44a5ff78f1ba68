// Package extension provides the Forge extension adapter for Paywall.
//
// It implements the forge.Extension interface to integrate Paywall
// into a Forge application with automatic dependency discovery,
// DI registration, and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.paywall" or "paywall" keys.
package extension

import (
	"context"
	"errors"

	"github.com/xraph/forge"
	"github.com/xraph/vessel"

	"github.com/xraph/paywall"
	"github.com/xraph/paywall/store"
	"github.com/xraph/paywall/store/memory"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "paywall"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Content-access ledger with pooled revenue split"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Paywall as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config      Config
	engine      *paywall.Paywall
	store       store.Store
	paywallOpts []paywall.Option
}

// New creates a new Paywall Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying Paywall instance.
// This is nil until Register is called.
func (e *Extension) Engine() *paywall.Paywall { return e.engine }

// Register implements [forge.Extension]. It loads configuration,
// initializes the paywall engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	// Use memory store if no store was provided programmatically.
	if e.store == nil {
		e.store = memory.New()
	}

	// Build paywall options from resolved config.
	opts := e.buildPaywallOpts()

	eng := paywall.New(e.store, opts...)
	e.engine = eng

	return vessel.Provide(fapp.Container(), func() (*paywall.Paywall, error) {
		return e.engine, nil
	})
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("paywall: extension not initialized")
	}

	if !e.config.DisableMigrate {
		if err := e.engine.Start(ctx); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("paywall: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildPaywallOpts constructs paywall.Option values from the resolved config.
func (e *Extension) buildPaywallOpts() []paywall.Option {
	opts := make([]paywall.Option, 0, len(e.paywallOpts)+3)

	if e.config.Admin != "" {
		opts = append(opts, paywall.WithAdmin(e.config.Admin))
	}
	if e.config.Currency != "" {
		opts = append(opts, paywall.WithCurrency(e.config.Currency))
	}
	if e.config.PassTTL > 0 {
		opts = append(opts, paywall.WithPassTTL(e.config.PassTTL))
	}

	// Append any pass-through paywall options.
	opts = append(opts, e.paywallOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("paywall: configuration is required but not found in config files; " +
				"ensure 'extensions.paywall' or 'paywall' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = e.mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = e.mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("paywall: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("admin", e.config.Admin),
		forge.F("currency", e.config.Currency),
		forge.F("pass_ttl", e.config.PassTTL),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.paywall" first (namespaced pattern).
	if cm.IsSet("extensions.paywall") {
		if err := cm.Bind("extensions.paywall", &cfg); err == nil {
			e.Logger().Debug("paywall: loaded config from file",
				forge.F("key", "extensions.paywall"),
			)
			return cfg, true
		}
		e.Logger().Warn("paywall: failed to bind extensions.paywall config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "paywall" key.
	if cm.IsSet("paywall") {
		if err := cm.Bind("paywall", &cfg); err == nil {
			e.Logger().Debug("paywall: loaded config from file",
				forge.F("key", "paywall"),
			)
			return cfg, true
		}
		e.Logger().Warn("paywall: failed to bind paywall config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}

// mergeWithDefaults fills zero-valued fields with defaults.
func (e *Extension) mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.Currency == "" {
		cfg.Currency = defaults.Currency
	}
	if cfg.PassTTL == 0 {
		cfg.PassTTL = defaults.PassTTL
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic bool flags fill gaps.
func (e *Extension) mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.Admin == "" && programmaticConfig.Admin != "" {
		yamlConfig.Admin = programmaticConfig.Admin
	}
	if yamlConfig.Currency == "" && programmaticConfig.Currency != "" {
		yamlConfig.Currency = programmaticConfig.Currency
	}

	// Duration fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.PassTTL == 0 && programmaticConfig.PassTTL != 0 {
		yamlConfig.PassTTL = programmaticConfig.PassTTL
	}

	// Fill remaining zeros with defaults.
	return e.mergeWithDefaults(yamlConfig)
}
