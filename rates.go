package cgt

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// RateTable holds exchange-rate histories per currency pair. Rates are
// published data (for instance month-end series) and are injected before a
// calculation run; the engine never fetches rates mid-run.
type RateTable struct {
	pairs map[string]*History[decimal.Decimal]
}

// NewRateTable returns an empty rate table.
func NewRateTable() *RateTable {
	return &RateTable{pairs: make(map[string]*History[decimal.Decimal])}
}

// Add records the rate converting one unit of 'from' into 'to', effective on
// the given day. Re-adding the same (pair, day) replaces the value.
func (t *RateTable) Add(from, to string, on Date, rate decimal.Decimal) {
	pair := from + to
	h, ok := t.pairs[pair]
	if !ok {
		h = &History[decimal.Decimal]{}
		t.pairs[pair] = h
	}
	h.Append(on, rate)
}

// Len returns the total number of observations in the table.
func (t *RateTable) Len() int {
	n := 0
	for _, h := range t.pairs {
		n += h.Len()
	}
	return n
}

// lookup finds the rate for a pair on a day, falling back to the nearest
// preceding observation, then to the inverse pair. It returns the rate and
// its effective date.
func (t *RateTable) lookup(from, to string, on Date) (decimal.Decimal, Date, bool) {
	if h, ok := t.pairs[from+to]; ok {
		if rate, day, ok := h.ValueAsOf(on); ok {
			return rate, day, true
		}
	}
	if h, ok := t.pairs[to+from]; ok {
		if rate, day, ok := h.ValueAsOf(on); ok && !rate.IsZero() {
			return decimal.NewFromInt(1).Div(rate), day, true
		}
	}
	return decimal.Decimal{}, Date{}, false
}

// RateFallback records that a conversion used a rate published before the
// requested day. The report carries these notices so consumers can flag
// reduced precision.
type RateFallback struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Requested Date   `json:"requested"`
	Used      Date   `json:"used"`
}

// Converter converts monetary amounts into the reporting currency using the
// rate effective on a given trade date. It is a pure function of its inputs
// and the injected rate table.
type Converter struct {
	Table     *RateTable
	Reporting string
}

// Convert converts an amount to the reporting currency at the rate effective
// on the given day. Identity conversions return the input unchanged. When the
// exact day has no published rate, the nearest preceding one is used and the
// fallback is returned so the caller can record it. With no rate at all the
// conversion fails with a RateUnavailableError.
func (c *Converter) Convert(m Money, on Date) (Money, *RateFallback, error) {
	if m.Currency() == c.Reporting || m.Currency() == "" {
		return NewMoney(m.Amount(), c.Reporting), nil, nil
	}
	rate, day, ok := c.Table.lookup(m.Currency(), c.Reporting, on)
	if !ok {
		return Money{}, nil, &RateUnavailableError{From: m.Currency(), To: c.Reporting, Day: on}
	}
	converted := m.MulRate(rate, c.Reporting)
	if day != on {
		return converted, &RateFallback{From: m.Currency(), To: c.Reporting, Requested: on, Used: day}, nil
	}
	return converted, nil, nil
}

// jsonRate is the wire format for one rate observation.
type jsonRate struct {
	From string          `json:"from"`
	To   string          `json:"to"`
	Date Date            `json:"date"`
	Rate decimal.Decimal `json:"rate"`
}

// DecodeRates reads rate observations from a JSONL stream into a table.
func DecodeRates(r io.Reader) (*RateTable, error) {
	table := NewRateTable()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var obs jsonRate
		if err := json.Unmarshal([]byte(text), &obs); err != nil {
			return nil, fmt.Errorf("line %d: invalid rate: %w", line, err)
		}
		if obs.From == "" || obs.To == "" || obs.Date.IsZero() {
			return nil, fmt.Errorf("line %d: rate needs from, to and date", line)
		}
		table.Add(obs.From, obs.To, obs.Date, obs.Rate)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading rates: %w", err)
	}
	return table, nil
}

// EncodeRates writes every observation of a table as JSONL, pair by pair in
// lexical order so the output is reproducible.
func EncodeRates(w io.Writer, t *RateTable) error {
	pairs := make([]string, 0, len(t.pairs))
	for pair := range t.pairs {
		pairs = append(pairs, pair)
	}
	slices.Sort(pairs)
	// Pair keys are 'from'+'to' of 3-letter codes.
	for _, pair := range pairs {
		for day, rate := range t.pairs[pair].Values() {
			obs := jsonRate{From: pair[:3], To: pair[3:], Date: day, Rate: rate}
			raw, err := json.Marshal(obs)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "%s\n", raw); err != nil {
				return err
			}
		}
	}
	return nil
}
