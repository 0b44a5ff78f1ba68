package access

import "time"

// Result is the outcome of an access check against a minted pass.
type Result struct {
	Allowed     bool      `json:"allowed"`
	TokenID     uint64    `json:"token_id"`
	Fingerprint string    `json:"fingerprint"`
	ExpiresAt   time.Time `json:"expires_at"`
	Reason      string    `json:"reason,omitempty"`
}
