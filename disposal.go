package cgt

// Disposal is the computed outcome of one matched disposal: proceeds,
// allowable cost and gain or loss in the reporting currency, with the
// rule-by-rule match breakdown.
type Disposal struct {
	Security string       `json:"security"`
	Date     Date         `json:"date"`
	TaxYear  TaxYear      `json:"taxYear"`
	Quantity Quantity     `json:"quantity"`
	Proceeds Money        `json:"proceeds"` // net of disposal-side fees
	Cost     Money        `json:"cost"`     // total matched cost basis
	Gain     Money        `json:"gain"`     // proceeds - cost, negative for a loss
	Matches  []MatchEntry `json:"matches"`
}

// MarshalJSON implements the json.Marshaler interface for Disposal, fixing
// the field order of the published schema.
func (d Disposal) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("security", d.Security)
	w.Append("date", d.Date)
	w.Append("taxYear", d.TaxYear)
	w.Append("quantity", d.Quantity)
	w.Append("proceeds", d.Proceeds)
	w.Append("cost", d.Cost)
	w.Append("gain", d.Gain)
	w.Append("matches", d.Matches)
	return w.MarshalJSON()
}

// computeDisposal turns a match result into a Disposal. Proceeds are the
// disposal's gross amount minus its fees, both converted at the disposal's
// trade date. The cost basis is the sum of matched costs, already converted
// at each acquisition's own trade date during matching.
func computeDisposal(m MatchResult, conv *Converter) (Disposal, []RateFallback, error) {
	var fallbacks []RateFallback

	gross, fb, err := conv.Convert(m.Disposal.GrossAmount(), m.Disposal.Date)
	if err != nil {
		return Disposal{}, nil, err
	}
	if fb != nil {
		fallbacks = append(fallbacks, *fb)
	}
	fees, fb, err := conv.Convert(m.Disposal.Fees, m.Disposal.Date)
	if err != nil {
		return Disposal{}, nil, err
	}
	if fb != nil {
		fallbacks = append(fallbacks, *fb)
	}

	proceeds := gross.Sub(fees)
	cost := m.MatchedCost()
	if cost.Currency() == "" {
		cost = M(0, conv.Reporting)
	}
	return Disposal{
		Security: m.Disposal.Security,
		Date:     m.Disposal.Date,
		TaxYear:  TaxYearOf(m.Disposal.Date),
		Quantity: m.Disposal.Quantity,
		Proceeds: proceeds,
		Cost:     cost,
		Gain:     proceeds.Sub(cost),
		Matches:  m.Entries,
	}, fallbacks, nil
}
