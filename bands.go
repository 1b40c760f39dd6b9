package cgt

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

// Jurisdiction selects the taxpayer's income-tax regime. Under current rules
// the CGT bands and rates are UK-wide, so the jurisdiction does not alter the
// capital gains split; it is carried through to the report for the
// income-side figures that do depend on it.
type Jurisdiction string

// Jurisdictions.
const (
	EnglandWalesNI Jurisdiction = "england-wales-ni"
	Scotland       Jurisdiction = "scotland"
)

// ParseJurisdiction parses a jurisdiction name.
func ParseJurisdiction(s string) (Jurisdiction, error) {
	switch Jurisdiction(s) {
	case EnglandWalesNI, Scotland:
		return Jurisdiction(s), nil
	default:
		return "", fmt.Errorf("unknown jurisdiction %q (want %q or %q)", s, EnglandWalesNI, Scotland)
	}
}

// Config carries the HMRC constants for one tax year. These change with
// every Finance Act, so they are versioned data maintained outside the
// engine: a built-in registry covers recent years and DecodeConfigs loads
// replacements or additions.
type Config struct {
	Year               TaxYear
	AnnualExemptAmount Money // CGT exemption, e.g. £3,000 for 2024-25
	PersonalAllowance  Money // income-tax personal allowance
	BasicRateLimit     Money // top of the basic-rate income band, e.g. £50,270
	HigherRateLimit    Money // top of the higher-rate income band, e.g. £125,140

	BasicGainRate  decimal.Decimal // CGT rate within the basic band
	HigherGainRate decimal.Decimal // CGT rate above it

	DividendAllowance      Money
	DividendBasicRate      decimal.Decimal
	DividendHigherRate     decimal.Decimal
	DividendAdditionalRate decimal.Decimal
}

// GBP is the reporting currency for UK tax figures.
const GBP = "GBP"

func rate(percent string) decimal.Decimal { return decimal.RequireFromString(percent) }

// DefaultConfigs returns the built-in per-year registry. Keyed data, not
// behaviour: callers can override any year with DecodeConfigs.
func DefaultConfigs() map[TaxYear]Config {
	configs := []Config{
		{
			Year:               TaxYear(2022),
			AnnualExemptAmount: M(12300, GBP),
			PersonalAllowance:  M(12570, GBP),
			BasicRateLimit:     M(50270, GBP),
			HigherRateLimit:    M(150000, GBP),
			BasicGainRate:      rate("0.10"),
			HigherGainRate:     rate("0.20"),
			DividendAllowance:  M(2000, GBP),

			DividendBasicRate:      rate("0.0875"),
			DividendHigherRate:     rate("0.3375"),
			DividendAdditionalRate: rate("0.3935"),
		},
		{
			Year:               TaxYear(2023),
			AnnualExemptAmount: M(6000, GBP),
			PersonalAllowance:  M(12570, GBP),
			BasicRateLimit:     M(50270, GBP),
			HigherRateLimit:    M(125140, GBP),
			BasicGainRate:      rate("0.10"),
			HigherGainRate:     rate("0.20"),
			DividendAllowance:  M(1000, GBP),

			DividendBasicRate:      rate("0.0875"),
			DividendHigherRate:     rate("0.3375"),
			DividendAdditionalRate: rate("0.3935"),
		},
		{
			Year:               TaxYear(2024),
			AnnualExemptAmount: M(3000, GBP),
			PersonalAllowance:  M(12570, GBP),
			BasicRateLimit:     M(50270, GBP),
			HigherRateLimit:    M(125140, GBP),
			// Autumn 2024 budget rates for share disposals.
			BasicGainRate:      rate("0.18"),
			HigherGainRate:     rate("0.24"),
			DividendAllowance:  M(500, GBP),

			DividendBasicRate:      rate("0.0875"),
			DividendHigherRate:     rate("0.3375"),
			DividendAdditionalRate: rate("0.3935"),
		},
	}
	byYear := make(map[TaxYear]Config, len(configs))
	for _, c := range configs {
		byYear[c.Year] = c
	}
	return byYear
}

// jsonConfig is the wire format for a tax year configuration.
type jsonConfig struct {
	Year                   TaxYear         `json:"year"`
	AnnualExemptAmount     decimal.Decimal `json:"annualExemptAmount"`
	PersonalAllowance      decimal.Decimal `json:"personalAllowance"`
	BasicRateLimit         decimal.Decimal `json:"basicRateLimit"`
	HigherRateLimit        decimal.Decimal `json:"higherRateLimit"`
	BasicGainRate          decimal.Decimal `json:"basicGainRate"`
	HigherGainRate         decimal.Decimal `json:"higherGainRate"`
	DividendAllowance      decimal.Decimal `json:"dividendAllowance"`
	DividendBasicRate      decimal.Decimal `json:"dividendBasicRate"`
	DividendHigherRate     decimal.Decimal `json:"dividendHigherRate"`
	DividendAdditionalRate decimal.Decimal `json:"dividendAdditionalRate"`
}

// DecodeConfigs reads a JSON array of tax year configurations, merged over
// the built-in registry so a partial file only overrides the years it names.
func DecodeConfigs(r io.Reader) (map[TaxYear]Config, error) {
	var raw []jsonConfig
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decoding tax year configs: %w", err)
	}
	byYear := DefaultConfigs()
	for _, c := range raw {
		if c.Year == 0 {
			return nil, fmt.Errorf("tax year config without a year")
		}
		byYear[c.Year] = Config{
			Year:                   c.Year,
			AnnualExemptAmount:     NewMoney(c.AnnualExemptAmount, GBP),
			PersonalAllowance:      NewMoney(c.PersonalAllowance, GBP),
			BasicRateLimit:         NewMoney(c.BasicRateLimit, GBP),
			HigherRateLimit:        NewMoney(c.HigherRateLimit, GBP),
			BasicGainRate:          c.BasicGainRate,
			HigherGainRate:         c.HigherGainRate,
			DividendAllowance:      NewMoney(c.DividendAllowance, GBP),
			DividendBasicRate:      c.DividendBasicRate,
			DividendHigherRate:     c.DividendHigherRate,
			DividendAdditionalRate: c.DividendAdditionalRate,
		}
	}
	return byYear, nil
}

// BandUsage is one band of a progressive tax computation.
type BandUsage struct {
	Band   string          `json:"band"`
	Amount Money           `json:"amount"`
	Rate   decimal.Decimal `json:"rate"`
	Tax    Money           `json:"tax"`
}

// CGTSummary aggregates a tax year's disposals into the capital gains
// liability figures.
type CGTSummary struct {
	TotalProceeds      Money       `json:"totalProceeds"`
	TotalGains         Money       `json:"totalGains"`
	TotalLosses        Money       `json:"totalLosses"` // absolute value
	NetGain            Money       `json:"netGain"`
	ExemptAmountUsed   Money       `json:"exemptAmountUsed"`
	TaxableGain        Money       `json:"taxableGain"`
	LossCarriedForward Money       `json:"lossCarriedForward"`
	Bands              []BandUsage `json:"bands"`
	TaxDue             Money       `json:"taxDue"`
}

// calculateCGT computes the CGT liability for the disposals of one tax year.
// Losses offset gains first; the annual exempt amount then reduces any net
// gain, floored at zero; what remains is split across the basic and higher
// bands according to how much of the taxpayer's basic-rate income band is
// unused.
func calculateCGT(cfg Config, totalIncome Money, disposals []Disposal) CGTSummary {
	zero := M(0, GBP)
	s := CGTSummary{
		TotalProceeds:      zero,
		TotalGains:         zero,
		TotalLosses:        zero,
		NetGain:            zero,
		ExemptAmountUsed:   zero,
		TaxableGain:        zero,
		LossCarriedForward: zero,
		TaxDue:             zero,
	}
	for _, d := range disposals {
		s.TotalProceeds = s.TotalProceeds.Add(d.Proceeds)
		if d.Gain.IsNegative() {
			s.TotalLosses = s.TotalLosses.Add(d.Gain.Neg())
		} else {
			s.TotalGains = s.TotalGains.Add(d.Gain)
		}
	}
	s.NetGain = s.TotalGains.Sub(s.TotalLosses)

	if s.NetGain.IsNegative() {
		// No CGT due. The excess loss is reported as a carry-forward figure;
		// persisting it across years is the caller's concern.
		s.LossCarriedForward = s.NetGain.Neg()
	} else {
		s.ExemptAmountUsed = minMoney(cfg.AnnualExemptAmount, s.NetGain)
		s.TaxableGain = s.NetGain.Sub(s.ExemptAmountUsed)
	}

	basicRoom := cfg.BasicRateLimit.Sub(totalIncome)
	if basicRoom.IsNegative() {
		basicRoom = zero
	}
	atBasic := minMoney(s.TaxableGain, basicRoom)
	atHigher := s.TaxableGain.Sub(atBasic)

	s.Bands = []BandUsage{
		{Band: "basic", Amount: atBasic, Rate: cfg.BasicGainRate, Tax: atBasic.MulRate(cfg.BasicGainRate, GBP)},
		{Band: "higher", Amount: atHigher, Rate: cfg.HigherGainRate, Tax: atHigher.MulRate(cfg.HigherGainRate, GBP)},
	}
	for _, b := range s.Bands {
		s.TaxDue = s.TaxDue.Add(b.Tax)
	}
	return s
}

// DividendSummary aggregates the dividend income tax figures for a year.
type DividendSummary struct {
	Income        Money       `json:"income"`
	AllowanceUsed Money       `json:"allowanceUsed"`
	Taxable       Money       `json:"taxable"`
	Bands         []BandUsage `json:"bands"`
	TaxDue        Money       `json:"taxDue"`
}

// calculateDividends taxes dividend income stacked on top of the other
// income. The dividend allowance taxes the first slice at 0% but still
// occupies its band, per HMRC ordering rules.
func calculateDividends(cfg Config, totalIncome, dividends Money) DividendSummary {
	zero := M(0, GBP)
	s := DividendSummary{Income: dividends, AllowanceUsed: zero, Taxable: zero, TaxDue: zero}
	if !dividends.IsPositive() {
		return s
	}

	segments := []struct {
		band    string
		upTo    Money
		bounded bool
		rate    decimal.Decimal
	}{
		{"personal-allowance", cfg.PersonalAllowance, true, decimal.Decimal{}},
		{"basic", cfg.BasicRateLimit, true, cfg.DividendBasicRate},
		{"higher", cfg.HigherRateLimit, true, cfg.DividendHigherRate},
		{"additional", zero, false, cfg.DividendAdditionalRate},
	}

	position := totalIncome
	remaining := dividends
	allowance := cfg.DividendAllowance
	for _, seg := range segments {
		if remaining.IsZero() {
			break
		}
		amount := remaining
		if seg.bounded {
			room := seg.upTo.Sub(position)
			if !room.IsPositive() {
				continue
			}
			amount = minMoney(remaining, room)
		}
		position = position.Add(amount)
		remaining = remaining.Sub(amount)

		if seg.rate.IsZero() {
			// Inside the personal allowance nothing is taxable and the
			// dividend allowance is not consumed.
			continue
		}
		covered := minMoney(allowance, amount)
		allowance = allowance.Sub(covered)
		taxed := amount.Sub(covered)
		s.AllowanceUsed = s.AllowanceUsed.Add(covered)
		if taxed.IsPositive() {
			s.Taxable = s.Taxable.Add(taxed)
			s.Bands = append(s.Bands, BandUsage{Band: seg.band, Amount: taxed, Rate: seg.rate, Tax: taxed.MulRate(seg.rate, GBP)})
		}
	}
	for _, b := range s.Bands {
		s.TaxDue = s.TaxDue.Add(b.Tax)
	}
	return s
}

func minMoney(a, b Money) Money {
	if a.LessThan(b) {
		return a
	}
	return b
}
