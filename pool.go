package cgt

// Pool is the Section 104 holding for one security: all units of the same
// class pooled into a single running quantity and total cost, carried in the
// reporting currency. A pool is created lazily on the first transaction for
// its security and is never deleted; after a full disposal it sits at zero
// and can be reactivated by later acquisitions.
//
// Average cost is kept as an exact decimal for the whole run. Rounding a
// pool's average per mutation would compound the error across many small
// disposals, so rounding happens only at the reporting boundary.
type Pool struct {
	security string
	quantity Quantity
	cost     Money // running total cost in the reporting currency
}

// NewPool returns an empty pool for a security, costed in the given currency.
func NewPool(security, currency string) *Pool {
	return &Pool{security: security, quantity: Q(0), cost: M(0, currency)}
}

// Security returns the security identifier the pool belongs to.
func (p *Pool) Security() string { return p.security }

// Quantity returns the running pooled quantity.
func (p *Pool) Quantity() Quantity { return p.quantity }

// Cost returns the running total cost in the reporting currency.
func (p *Pool) Cost() Money { return p.cost }

// AverageCost returns the pool's average cost per unit, or zero when the
// pool is empty.
func (p *Pool) AverageCost() Money {
	if p.quantity.IsZero() {
		return M(0, p.cost.Currency())
	}
	return p.cost.Div(p.quantity)
}

// Acquire adds a quantity and its cost to the pool. Quantity and cost are
// always added, never replaced.
func (p *Pool) Acquire(quantity Quantity, cost Money) {
	p.quantity = p.quantity.Add(quantity)
	p.cost = p.cost.Add(cost)
}

// Dispose removes a quantity from the pool at the average cost computed just
// before this disposal, and returns the matched cost. The running total cost
// is reduced by exactly the matched cost, so the average of the remainder is
// unchanged. Disposing more than the pool holds is an InsufficientPoolError.
func (p *Pool) Dispose(quantity Quantity) (Money, error) {
	if quantity.GreaterThan(p.quantity) {
		return Money{}, &InsufficientPoolError{Security: p.security, Requested: quantity, Held: p.quantity}
	}
	matched := p.cost.Mul(quantity).Div(p.quantity)
	p.quantity = p.quantity.Sub(quantity)
	p.cost = p.cost.Sub(matched)
	if p.quantity.IsZero() {
		// Avoid a residual dust cost on an empty pool.
		p.cost = M(0, p.cost.Currency())
	}
	return matched, nil
}

// PoolState is the immutable end-of-run snapshot of a pool, as published in
// the report.
type PoolState struct {
	Security    string   `json:"security"`
	Quantity    Quantity `json:"quantity"`
	Cost        Money    `json:"cost"`
	AverageCost Money    `json:"averageCost"`
}

// State snapshots the pool for reporting.
func (p *Pool) State() PoolState {
	return PoolState{
		Security:    p.security,
		Quantity:    p.quantity,
		Cost:        p.cost,
		AverageCost: p.AverageCost(),
	}
}
