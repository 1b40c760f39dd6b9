package cgt

// SecurityFailure flags a security whose matching aborted on a
// data-integrity problem. The rest of the run is unaffected.
type SecurityFailure struct {
	Security string `json:"security"`
	Error    string `json:"error"`
}

// TaxReport is the immutable result of one calculation run and the sole
// value handed to reporting collaborators. Its JSON schema is stable: field
// names, types and order are fixed, and monetary values are rounded to their
// currency minor unit at this boundary only.
type TaxReport struct {
	Year              TaxYear
	Jurisdiction      Jurisdiction
	ReportingCurrency string

	// Disposals covers the complete history, each tagged with its own tax
	// year; the summaries below aggregate the selected year only.
	Disposals []Disposal
	Pools     []PoolState

	Capital   CGTSummary
	Dividends DividendSummary

	Failed        []SecurityFailure
	RateFallbacks []RateFallback
}

// YearDisposals returns the disposals belonging to the report's tax year.
func (r *TaxReport) YearDisposals() []Disposal {
	var out []Disposal
	for _, d := range r.Disposals {
		if d.TaxYear == r.Year {
			out = append(out, d)
		}
	}
	return out
}

// TotalGain returns the sum of all disposal gains and losses in the report,
// across all tax years.
func (r *TaxReport) TotalGain() Money {
	total := M(0, r.ReportingCurrency)
	for _, d := range r.Disposals {
		total = total.Add(d.Gain)
	}
	return total
}

// MarshalJSON implements the json.Marshaler interface for TaxReport with a
// fixed field order.
func (r *TaxReport) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("taxYear", r.Year)
	w.Append("jurisdiction", r.Jurisdiction)
	w.Append("reportingCurrency", r.ReportingCurrency)
	w.Append("disposals", emptyNotNull(r.Disposals))
	w.Append("pools", emptyNotNull(r.Pools))
	w.Append("capital", r.Capital)
	w.Append("dividends", r.Dividends)
	w.Append("failed", emptyNotNull(r.Failed))
	w.Append("rateFallbacks", emptyNotNull(r.RateFallbacks))
	return w.MarshalJSON()
}

// emptyNotNull keeps empty lists as [] in the published schema, never null.
func emptyNotNull[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
