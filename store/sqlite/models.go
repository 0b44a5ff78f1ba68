package sqlite

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/paywall/content"
	"github.com/xraph/paywall/id"
	"github.com/xraph/paywall/pass"
	"github.com/xraph/paywall/pricing"
	"github.com/xraph/paywall/receipt"
	"github.com/xraph/paywall/treasury"
	"github.com/xraph/paywall/types"
)

// ==================== Content models ====================

type contentModel struct {
	grove.BaseModel `grove:"table:paywall_content"`

	Fingerprint string    `grove:"fingerprint,pk"`
	ID          string    `grove:"id"`
	Owner       string    `grove:"owner"`
	CreatedAt   time.Time `grove:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"`
}

func toContentModel(r *content.Record) *contentModel {
	return &contentModel{
		Fingerprint: r.Fingerprint,
		ID:          r.ID.String(),
		Owner:       r.Owner,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func fromContentModel(m *contentModel) (*content.Record, error) {
	recordID, err := id.ParseContentID(m.ID)
	if err != nil {
		return nil, err
	}

	return &content.Record{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:          recordID,
		Fingerprint: m.Fingerprint,
		Owner:       m.Owner,
	}, nil
}

// ==================== Pass models ====================

type passModel struct {
	grove.BaseModel `grove:"table:paywall_passes"`

	TokenID      int64     `grove:"token_id,pk"`
	Fingerprint  string    `grove:"fingerprint"`
	Holder       string    `grove:"holder"`
	PaidCents    int64     `grove:"paid_cents"`
	PaidCurrency string    `grove:"paid_currency"`
	IssuedAt     time.Time `grove:"issued_at"`
	ExpiresAt    time.Time `grove:"expires_at"`
	CreatedAt    time.Time `grove:"created_at"`
	UpdatedAt    time.Time `grove:"updated_at"`
}

func toPassModel(p *pass.Pass) *passModel {
	return &passModel{
		TokenID:      int64(p.TokenID),
		Fingerprint:  p.Fingerprint,
		Holder:       p.Holder,
		PaidCents:    p.Paid.Amount,
		PaidCurrency: p.Paid.Currency,
		IssuedAt:     p.IssuedAt,
		ExpiresAt:    p.ExpiresAt,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func fromPassModel(m *passModel) *pass.Pass {
	return &pass.Pass{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		TokenID:     uint64(m.TokenID),
		Fingerprint: m.Fingerprint,
		Holder:      m.Holder,
		Paid:        types.Money{Amount: m.PaidCents, Currency: m.PaidCurrency},
		IssuedAt:    m.IssuedAt,
		ExpiresAt:   m.ExpiresAt,
	}
}

// ==================== Treasury models ====================

// treasuryModel is a singleton row; the pools are global.
type treasuryModel struct {
	grove.BaseModel `grove:"table:paywall_treasury"`

	ID            int       `grove:"id,pk"`
	OwnerCents    int64     `grove:"owner_cents"`
	OperatorCents int64     `grove:"operator_cents"`
	Currency      string    `grove:"currency"`
	CreatedAt     time.Time `grove:"created_at"`
	UpdatedAt     time.Time `grove:"updated_at"`
}

const treasuryRowID = 1

func toTreasuryModel(p *treasury.Pools) *treasuryModel {
	return &treasuryModel{
		ID:            treasuryRowID,
		OwnerCents:    p.Owner.Amount,
		OperatorCents: p.Operator.Amount,
		Currency:      p.Owner.Currency,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func fromTreasuryModel(m *treasuryModel) *treasury.Pools {
	return &treasury.Pools{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Owner:    types.Money{Amount: m.OwnerCents, Currency: m.Currency},
		Operator: types.Money{Amount: m.OperatorCents, Currency: m.Currency},
	}
}

// ==================== Price policy models ====================

// priceModel is a singleton row; there is one price for everything.
type priceModel struct {
	grove.BaseModel `grove:"table:paywall_price"`

	ID          int       `grove:"id,pk"`
	AmountCents int64     `grove:"amount_cents"`
	Currency    string    `grove:"currency"`
	CreatedAt   time.Time `grove:"created_at"`
	UpdatedAt   time.Time `grove:"updated_at"`
}

const priceRowID = 1

func fromPriceModel(m *priceModel) *pricing.Policy {
	return &pricing.Policy{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Price: types.Money{Amount: m.AmountCents, Currency: m.Currency},
	}
}

// ==================== Receipt models ====================

type receiptModel struct {
	grove.BaseModel `grove:"table:paywall_receipts"`

	ID             string    `grove:"id,pk"`
	Kind           string    `grove:"kind"`
	TokenID        *int64    `grove:"token_id"`
	Identity       string    `grove:"identity"`
	Fingerprint    string    `grove:"fingerprint"`
	AmountCents    int64     `grove:"amount_cents"`
	AmountCurrency string    `grove:"amount_currency"`
	At             time.Time `grove:"at"`
}

func toReceiptModel(r *receipt.Receipt) *receiptModel {
	var tokenID *int64
	if r.TokenID != nil {
		v := int64(*r.TokenID)
		tokenID = &v
	}

	return &receiptModel{
		ID:             r.ID.String(),
		Kind:           string(r.Kind),
		TokenID:        tokenID,
		Identity:       r.Identity,
		Fingerprint:    r.Fingerprint,
		AmountCents:    r.Amount.Amount,
		AmountCurrency: r.Amount.Currency,
		At:             r.At,
	}
}

func fromReceiptModel(m *receiptModel) (*receipt.Receipt, error) {
	receiptID, err := id.ParseReceiptID(m.ID)
	if err != nil {
		return nil, err
	}

	var tokenID *uint64
	if m.TokenID != nil {
		v := uint64(*m.TokenID)
		tokenID = &v
	}

	return &receipt.Receipt{
		ID:          receiptID,
		Kind:        receipt.Kind(m.Kind),
		TokenID:     tokenID,
		Identity:    m.Identity,
		Fingerprint: m.Fingerprint,
		Amount:      types.Money{Amount: m.AmountCents, Currency: m.AmountCurrency},
		At:          m.At,
	}, nil
}
