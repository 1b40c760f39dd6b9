package cgt

import (
	"errors"
	"testing"
)

// matchTest runs matchSecurity over a GBP-only history, assigning input
// sequence numbers the way Calculate does.
func matchTest(t *testing.T, txs []Transaction) ([]MatchResult, PoolState) {
	t.Helper()
	for i := range txs {
		txs[i].seq = i
	}
	conv := &Converter{Table: NewRateTable(), Reporting: GBP}
	matches, pool, _, err := matchSecurity(txs[0].Security, txs, conv)
	if err != nil {
		t.Fatalf("matchSecurity() error = %v", err)
	}
	return matches, pool
}

func TestMatching_SameDayRule(t *testing.T) {
	// Buy and sell the same quantity on the same date, at different prices:
	// the disposal matches that specific acquisition and bypasses the pool.
	matches, pool := matchTest(t, []Transaction{
		NewAcquisition("BP", day("2024-06-03"), qty(100), gbp(10), gbp(0)),
		NewDisposal("BP", day("2024-06-03"), qty(100), gbp(12), gbp(0)),
	})

	if len(matches) != 1 {
		t.Fatalf("got %d match results, want 1", len(matches))
	}
	m := matches[0]
	if len(m.Entries) != 1 || m.Entries[0].Rule != SameDay {
		t.Fatalf("entries = %+v, want a single same-day entry", m.Entries)
	}
	if !m.Entries[0].Cost.Equal(gbp(1000)) {
		t.Errorf("matched cost = %s, want £1,000 (that acquisition's cost)", m.Entries[0].Cost)
	}
	if !pool.Quantity.IsZero() || !pool.Cost.IsZero() {
		t.Errorf("pool = (%s, %s), want untouched (0, 0)", pool.Quantity, pool.Cost)
	}
}

func TestMatching_BedAndBreakfast(t *testing.T) {
	// Sell out of a long-held position and buy back two weeks later: the
	// disposal matches the buy-back, not the pool, so the loss against the
	// original holding is deferred and the pool keeps its historical cost.
	matches, pool := matchTest(t, []Transaction{
		NewAcquisition("LGEN", day("2023-01-10"), qty(1000), gbp(5.10), gbp(0)), // £5,100
		NewDisposal("LGEN", day("2024-03-01"), qty(1000), gbp(3.10), gbp(0)),    // £3,100
		NewAcquisition("LGEN", day("2024-03-15"), qty(1000), gbp(3.10), gbp(0)), // £3,100
	})

	m := matches[0]
	if len(m.Entries) != 1 || m.Entries[0].Rule != ThirtyDay {
		t.Fatalf("entries = %+v, want a single 30-day entry", m.Entries)
	}
	if !m.Entries[0].Cost.Equal(gbp(3100)) {
		t.Errorf("matched cost = %s, want £3,100 (the buy-back's cost)", m.Entries[0].Cost)
	}
	if m.Entries[0].Matched != day("2024-03-15") {
		t.Errorf("matched date = %s, want 2024-03-15", m.Entries[0].Matched)
	}
	// The continued holding keeps the original basis: 1000 shares, £5,100.
	if !pool.Quantity.Equal(qty(1000)) || !pool.Cost.Equal(gbp(5100)) {
		t.Errorf("pool = (%s, %s), want (1000, £5,100)", pool.Quantity, pool.Cost)
	}
}

func TestMatching_ThirtyDayWindowBounds(t *testing.T) {
	// Day +30 is inside the window, day +31 is not.
	t.Run("day 30 matches", func(t *testing.T) {
		matches, _ := matchTest(t, []Transaction{
			NewAcquisition("BP", day("2020-01-01"), qty(10), gbp(1), gbp(0)),
			NewDisposal("BP", day("2024-03-01"), qty(10), gbp(2), gbp(0)),
			NewAcquisition("BP", day("2024-03-31"), qty(10), gbp(3), gbp(0)),
		})
		if got := matches[0].Entries[0].Rule; got != ThirtyDay {
			t.Errorf("rule = %s, want %s", got, ThirtyDay)
		}
	})
	t.Run("day 31 falls to the pool", func(t *testing.T) {
		matches, _ := matchTest(t, []Transaction{
			NewAcquisition("BP", day("2020-01-01"), qty(10), gbp(1), gbp(0)),
			NewDisposal("BP", day("2024-03-01"), qty(10), gbp(2), gbp(0)),
			NewAcquisition("BP", day("2024-04-01"), qty(10), gbp(3), gbp(0)),
		})
		if got := matches[0].Entries[0].Rule; got != Section104 {
			t.Errorf("rule = %s, want %s", got, Section104)
		}
	})
}

func TestMatching_SameDayBeforeThirtyDay(t *testing.T) {
	// Two same-day acquisitions and one 10 days later: the same-day lots
	// must be exhausted before the 30-day lot is considered, whatever the
	// input order.
	base := []Transaction{
		NewAcquisition("AZN", day("2024-05-20"), qty(60), gbp(100), gbp(0)),
		NewAcquisition("AZN", day("2024-05-10"), qty(50), gbp(102), gbp(0)),
		NewDisposal("AZN", day("2024-05-10"), qty(120), gbp(110), gbp(0)),
		NewAcquisition("AZN", day("2024-05-10"), qty(50), gbp(104), gbp(0)),
		NewAcquisition("AZN", day("2024-01-15"), qty(500), gbp(90), gbp(0)),
	}
	permutations := [][]int{
		{0, 1, 2, 3, 4},
		{4, 3, 2, 1, 0},
		{2, 0, 4, 1, 3},
	}
	for _, perm := range permutations {
		txs := make([]Transaction, len(base))
		for i, j := range perm {
			txs[i] = base[j]
		}
		matches, _ := matchTest(t, txs)

		m := matches[0]
		sameDay, thirtyDay := Q(0), Q(0)
		for _, e := range m.Entries {
			switch e.Rule {
			case SameDay:
				sameDay = sameDay.Add(e.Quantity)
			case ThirtyDay:
				thirtyDay = thirtyDay.Add(e.Quantity)
			}
		}
		if !sameDay.Equal(qty(100)) {
			t.Errorf("perm %v: same-day matched %s, want 100", perm, sameDay)
		}
		if !thirtyDay.Equal(qty(20)) {
			t.Errorf("perm %v: 30-day matched %s, want 20", perm, thirtyDay)
		}
	}
}

func TestMatching_ThirtyDayEarliestFirst(t *testing.T) {
	matches, _ := matchTest(t, []Transaction{
		NewDisposal("BP", day("2024-03-01"), qty(10), gbp(2), gbp(0)),
		NewAcquisition("BP", day("2024-03-21"), qty(10), gbp(5), gbp(0)),
		NewAcquisition("BP", day("2024-03-06"), qty(4), gbp(3), gbp(0)),
	})
	m := matches[0]
	if len(m.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(m.Entries))
	}
	if m.Entries[0].Matched != day("2024-03-06") || !m.Entries[0].Quantity.Equal(qty(4)) {
		t.Errorf("first entry = %+v, want the 4 shares of 2024-03-06", m.Entries[0])
	}
	if m.Entries[1].Matched != day("2024-03-21") || !m.Entries[1].Quantity.Equal(qty(6)) {
		t.Errorf("second entry = %+v, want 6 shares of 2024-03-21", m.Entries[1])
	}
}

func TestMatching_PartialRemainderReachesPool(t *testing.T) {
	// An acquisition partly consumed by a same-day match contributes only
	// its remainder to the pool.
	matches, pool := matchTest(t, []Transaction{
		NewAcquisition("BP", day("2024-06-03"), qty(100), gbp(10), gbp(0)),
		NewDisposal("BP", day("2024-06-03"), qty(40), gbp(12), gbp(0)),
	})
	m := matches[0]
	if !m.Entries[0].Cost.Equal(gbp(400)) {
		t.Errorf("same-day matched cost = %s, want £400", m.Entries[0].Cost)
	}
	if !pool.Quantity.Equal(qty(60)) || !pool.Cost.Equal(gbp(600)) {
		t.Errorf("pool = (%s, %s), want (60, £600)", pool.Quantity, pool.Cost)
	}
}

func TestMatching_QuantityConservation(t *testing.T) {
	// Every disposal's entries must sum to its quantity exactly, across all
	// three rules combined.
	matches, _ := matchTest(t, []Transaction{
		NewAcquisition("BP", day("2024-01-10"), qty(500), gbp(4), gbp(10)),
		NewAcquisition("BP", day("2024-06-03"), qty(30), gbp(5), gbp(0)),
		NewDisposal("BP", day("2024-06-03"), qty(200), gbp(6), gbp(5)),
		NewAcquisition("BP", day("2024-06-20"), qty(50), gbp(5.5), gbp(0)),
		NewDisposal("BP", day("2024-07-10"), qty(100), gbp(7), gbp(5)),
	})
	for _, m := range matches {
		if !m.MatchedQuantity().Equal(m.Disposal.Quantity) {
			t.Errorf("disposal on %s: matched %s of %s", m.Disposal.Date, m.MatchedQuantity(), m.Disposal.Quantity)
		}
	}
}

func TestMatching_NegativeHolding(t *testing.T) {
	txs := []Transaction{
		NewAcquisition("BP", day("2024-01-10"), qty(5), gbp(4), gbp(0)),
		NewDisposal("BP", day("2024-06-03"), qty(12), gbp(6), gbp(0)),
	}
	for i := range txs {
		txs[i].seq = i
	}
	conv := &Converter{Table: NewRateTable(), Reporting: GBP}
	_, _, _, err := matchSecurity("BP", txs, conv)
	if err == nil {
		t.Fatal("expected a negative holding error")
	}
	var negative *NegativeHoldingError
	if !errors.As(err, &negative) {
		t.Fatalf("error type = %T, want *NegativeHoldingError", err)
	}
	if negative.Security != "BP" || !negative.Shortfall.Equal(qty(7)) {
		t.Errorf("got %+v, want security BP shortfall 7", negative)
	}
}
