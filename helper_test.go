package cgt

// Shared helpers for tests: compact constructors for money and dates.

func gbp(v float64) Money    { return M(v, GBP) }
func usd(v float64) Money    { return M(v, "USD") }
func day(s string) Date      { return MustParseDate(s) }
func qty(v float64) Quantity { return Q(v) }
