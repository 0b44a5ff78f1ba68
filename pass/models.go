package pass

import (
	"time"

	"github.com/xraph/paywall/types"
)

// Pass is a time-limited, transferable access right to one piece of
// content. The token identity is a monotonically increasing integer
// allocated by the store at mint time; it is never reused, even when a
// purchase later fails.
type Pass struct {
	types.Entity
	TokenID     uint64      `json:"token_id"`
	Fingerprint string      `json:"fingerprint"`
	Holder      string      `json:"holder"`
	Paid        types.Money `json:"paid"`
	IssuedAt    time.Time   `json:"issued_at"`
	ExpiresAt   time.Time   `json:"expires_at"` // set once at mint; no renewal path
}

// Expired reports whether the pass has lapsed at the given instant.
// A pass is still valid at the exact expiry instant.
func (p *Pass) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
