package pricing

import "github.com/xraph/paywall/types"

// Policy is the single mutable price applied to every purchase.
// Only the administrative identity may replace it.
type Policy struct {
	types.Entity
	Price types.Money `json:"price"`
}
