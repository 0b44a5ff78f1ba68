package extension

import "time"

// Config holds the Paywall extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.paywall" or "paywall" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// Admin is the identity permitted to register content, change the
	// price, and withdraw operator funds.
	Admin string `json:"admin" mapstructure:"admin" yaml:"admin"`

	// Currency is the currency all prices, payments, and pools are
	// denominated in (default: "usd").
	Currency string `json:"currency" mapstructure:"currency" yaml:"currency"`

	// PassTTL is the access window granted by a purchase (default: 720h).
	PassTTL time.Duration `json:"pass_ttl" mapstructure:"pass_ttl" yaml:"pass_ttl"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Currency: "usd",
		PassTTL:  30 * 24 * time.Hour,
	}
}
