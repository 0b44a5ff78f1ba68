package content

import (
	"github.com/xraph/paywall/id"
	"github.com/xraph/paywall/types"
)

// Record binds a content fingerprint to its registered owner.
// Once created a record is permanent: the fingerprint can never be
// re-registered and the owner never changes.
type Record struct {
	types.Entity
	ID          id.ContentID `json:"id"`
	Fingerprint string       `json:"fingerprint"`
	Owner       string       `json:"owner"`
}
