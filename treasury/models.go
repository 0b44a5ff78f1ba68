package treasury

import "github.com/xraph/paywall/types"

// Pools holds the two pooled balances fed by every purchase.
//
// Both pools are global: the owner pool accumulates shares from every
// registered owner's sales and is drained whole by whichever owner
// withdraws first. That is the observed accounting model, not a bug in
// this package; see the engine documentation before "fixing" it.
type Pools struct {
	types.Entity
	Owner    types.Money `json:"owner"`
	Operator types.Money `json:"operator"`
}

// NewPools returns empty pools denominated in the given currency.
func NewPools(currency string) *Pools {
	return &Pools{
		Entity:   types.NewEntity(),
		Owner:    types.Zero(currency),
		Operator: types.Zero(currency),
	}
}

// Deposit adds the split shares from one purchase.
func (p *Pools) Deposit(ownerShare, operatorShare types.Money) {
	p.Owner = p.Owner.Add(ownerShare)
	p.Operator = p.Operator.Add(operatorShare)
	p.Touch()
}

// DrainOwner empties the owner pool and returns the drained amount.
func (p *Pools) DrainOwner() types.Money {
	drained := p.Owner
	p.Owner = types.Zero(p.Owner.Currency)
	p.Touch()
	return drained
}

// DrainOperator empties the operator pool and returns the drained amount.
func (p *Pools) DrainOperator() types.Money {
	drained := p.Operator
	p.Operator = types.Zero(p.Operator.Currency)
	p.Touch()
	return drained
}

// Clone returns a deep copy of the pools.
func (p *Pools) Clone() *Pools {
	cp := *p
	return &cp
}
