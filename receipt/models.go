package receipt

import (
	"time"

	"github.com/xraph/paywall/id"
	"github.com/xraph/paywall/types"
)

// Kind classifies a receipt.
type Kind string

const (
	KindPurchase           Kind = "purchase"
	KindPassTransferred    Kind = "pass_transferred"
	KindOwnerWithdrawal    Kind = "owner_withdrawal"
	KindOperatorWithdrawal Kind = "operator_withdrawal"
)

// Receipt is one entry in the append-only notification stream. Every
// purchase, pass transfer, and withdrawal appends exactly one; nothing
// ever mutates or removes them.
type Receipt struct {
	ID          id.ReceiptID `json:"id"`
	Kind        Kind         `json:"kind"`
	TokenID     *uint64      `json:"token_id,omitempty"`
	Identity    string       `json:"identity"`
	Fingerprint string       `json:"fingerprint,omitempty"`
	Amount      types.Money  `json:"amount"`
	At          time.Time    `json:"at"`
}
