package paywall

import "github.com/xraph/paywall/id"

// ID is the primary identifier type for Paywall entities that carry one.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
