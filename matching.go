package cgt

import (
	"slices"
)

// MatchRule identifies which HMRC share identification rule matched a slice
// of a disposal.
type MatchRule string

// Match rules, in the strict priority order they are applied.
const (
	SameDay    MatchRule = "same-day"
	ThirtyDay  MatchRule = "30-day"
	Section104 MatchRule = "section-104"
)

// MatchEntry is one rule application: a quantity of a disposal matched
// against a specific acquisition (same-day or 30-day rules) or against the
// Section 104 pool. Cost is the matched cost in the reporting currency,
// converted at the acquisition's own trade date.
type MatchEntry struct {
	Rule     MatchRule `json:"rule"`
	Matched  Date      `json:"matched,omitzero"` // acquisition trade date, zero for pool entries
	Quantity Quantity  `json:"quantity"`
	Cost     Money     `json:"cost"`
}

// MatchResult is the complete match of one disposal. The entries' quantities
// always sum to the disposal's quantity exactly: an unmatched remainder is an
// error condition, never a silent state.
type MatchResult struct {
	Disposal Transaction
	Entries  []MatchEntry
}

// MatchedQuantity returns the sum of matched quantities across all entries.
func (m MatchResult) MatchedQuantity() Quantity {
	total := Q(0)
	for _, e := range m.Entries {
		total = total.Add(e.Quantity)
	}
	return total
}

// MatchedCost returns the total matched cost across all entries.
func (m MatchResult) MatchedCost() Money {
	var total Money
	for _, e := range m.Entries {
		total = total.Add(e.Cost)
	}
	return total
}

// acqLot tracks how much of an acquisition is still unmatched, with the
// unmatched portion's cost in the reporting currency. Only the remainder of
// a lot ever reaches the pool.
type acqLot struct {
	tx        Transaction
	remaining Quantity
	cost      Money
}

// consume takes a quantity out of the lot and returns its proportional cost.
func (l *acqLot) consume(qty Quantity) Money {
	cost := l.cost.Mul(qty).Div(l.remaining)
	l.remaining = l.remaining.Sub(qty)
	l.cost = l.cost.Sub(cost)
	return cost
}

// openDisposal tracks how much of a disposal is still unmatched while the
// rules are applied.
type openDisposal struct {
	tx        Transaction
	remaining Quantity
	entries   []MatchEntry
}

// matchSecurity applies the share identification rules to the complete
// transaction history of one security.
//
// The 30-day rule looks forward in time, so the security's full list is
// materialized and sorted before any disposal is finalized; streaming
// transaction-by-transaction cannot work here. Matching runs in three
// passes:
//
//  1. same-day: every disposal is matched against acquisitions sharing its
//     trade date, for all disposals before any 30-day match is attempted, so
//     an acquisition that is same-day for one disposal is never stolen by an
//     earlier disposal's 30-day window;
//  2. 30-day: remaining disposal quantity is matched against acquisitions in
//     the 30 calendar days after the disposal, earliest first;
//  3. pool replay: events are replayed chronologically, unmatched
//     acquisition remainders feed the Section 104 pool and unmatched
//     disposal remainders draw from it at average cost.
//
// Every unit of an acquisition ends in exactly one place: a same-day match,
// a 30-day match, or the pool.
//
// A non-nil error is either a *RateUnavailableError (fatal for the run) or a
// *NegativeHoldingError (this security aborts, others may continue).
func matchSecurity(security string, txs []Transaction, conv *Converter) ([]MatchResult, PoolState, []RateFallback, error) {
	ordered := make([]Transaction, len(txs))
	copy(ordered, txs)
	slices.SortFunc(ordered, func(a, b Transaction) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return a.seq - b.seq
	})

	var fallbacks []RateFallback
	convert := func(m Money, on Date) (Money, error) {
		converted, fb, err := conv.Convert(m, on)
		if err != nil {
			return Money{}, err
		}
		if fb != nil {
			fallbacks = append(fallbacks, *fb)
		}
		return converted, nil
	}

	// Acquisition costs are converted at the acquisition's trade date, once,
	// so the historical basis is preserved no matter which rule consumes the
	// lot later.
	lots := make([]*acqLot, 0, len(ordered))
	disposals := make([]*openDisposal, 0, len(ordered))
	for _, tx := range ordered {
		switch tx.Side {
		case Acquisition:
			cost, err := convert(tx.GrossAmount().Add(tx.Fees), tx.Date)
			if err != nil {
				return nil, PoolState{}, nil, err
			}
			lots = append(lots, &acqLot{tx: tx, remaining: tx.Quantity, cost: cost})
		case SideDisposal:
			disposals = append(disposals, &openDisposal{tx: tx, remaining: tx.Quantity})
		}
	}

	// Pass 1: same-day rule.
	for _, d := range disposals {
		for _, l := range lots {
			if d.remaining.IsZero() {
				break
			}
			if l.remaining.IsZero() || l.tx.Date != d.tx.Date {
				continue
			}
			qty := d.remaining.Min(l.remaining)
			cost := l.consume(qty)
			d.remaining = d.remaining.Sub(qty)
			d.entries = append(d.entries, MatchEntry{Rule: SameDay, Matched: l.tx.Date, Quantity: qty, Cost: cost})
		}
	}

	// Pass 2: 30-day bed-and-breakfast rule, earliest acquisition first.
	for _, d := range disposals {
		window := d.tx.Date.Add(30)
		for _, l := range lots {
			if d.remaining.IsZero() {
				break
			}
			if l.remaining.IsZero() || !l.tx.Date.After(d.tx.Date) {
				continue
			}
			if l.tx.Date.After(window) {
				// Lots are chronological, no later lot can be in the window.
				break
			}
			qty := d.remaining.Min(l.remaining)
			cost := l.consume(qty)
			d.remaining = d.remaining.Sub(qty)
			d.entries = append(d.entries, MatchEntry{Rule: ThirtyDay, Matched: l.tx.Date, Quantity: qty, Cost: cost})
		}
	}

	// Pass 3: chronological replay through the Section 104 pool.
	pool := NewPool(security, conv.Reporting)
	nextLot, nextDisposal := 0, 0
	for _, tx := range ordered {
		switch tx.Side {
		case Acquisition:
			l := lots[nextLot]
			nextLot++
			if l.remaining.IsPositive() {
				pool.Acquire(l.remaining, l.cost)
			}
		case SideDisposal:
			d := disposals[nextDisposal]
			nextDisposal++
			if d.remaining.IsZero() {
				continue
			}
			if d.remaining.GreaterThan(pool.Quantity()) {
				return nil, PoolState{}, nil, &NegativeHoldingError{
					Security:  security,
					Day:       tx.Date,
					Shortfall: d.remaining.Sub(pool.Quantity()),
				}
			}
			cost, err := pool.Dispose(d.remaining)
			if err != nil {
				return nil, PoolState{}, nil, err
			}
			d.entries = append(d.entries, MatchEntry{Rule: Section104, Quantity: d.remaining, Cost: cost})
			d.remaining = Q(0)
		}
	}

	matches := make([]MatchResult, 0, len(disposals))
	for _, d := range disposals {
		matches = append(matches, MatchResult{Disposal: d.tx, Entries: d.entries})
	}
	return matches, pool.State(), fallbacks, nil
}
