// Package renderer turns tax reports into markdown suitable for terminal
// display or inclusion in documents.
package renderer

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	cgt "github.com/skyersoft/cgtcalc"
)

var hundred = decimal.NewFromInt(100)

// ReportMarkdown renders a full tax report to a markdown string.
func ReportMarkdown(report *cgt.TaxReport) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Capital Gains Tax Report %s\n\n", report.Year)
	fmt.Fprintf(&b, "Jurisdiction: %s — reporting currency: %s\n\n", report.Jurisdiction, report.ReportingCurrency)

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprint(w, "## Disposals\n\n")
		fmt.Fprintln(w, "| Date | Security | Quantity | Proceeds | Cost | Gain/Loss | Rules |")
		fmt.Fprintln(w, "|:---|:---|---:|---:|---:|---:|:---|")
		for _, d := range report.Disposals {
			fmt.Fprintf(w, "| %s | %s | %s | %s | %s | %s | %s |\n",
				d.Date, d.Security, d.Quantity,
				d.Proceeds, d.Cost, d.Gain.SignedString(),
				ruleBreakdown(d.Matches),
			)
		}
		fmt.Fprintf(w, "\nTotal gain across all years: %s\n\n", report.TotalGain().SignedString())
		return len(report.Disposals) > 0
	})

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprint(w, "## Section 104 Holdings\n\n")
		fmt.Fprintln(w, "| Security | Quantity | Total Cost | Average Cost |")
		fmt.Fprintln(w, "|:---|---:|---:|---:|")
		n := 0
		for _, p := range report.Pools {
			if p.Quantity.IsZero() {
				continue
			}
			fmt.Fprintf(w, "| %s | %s | %s | %s |\n", p.Security, p.Quantity, p.Cost, p.AverageCost)
			n++
		}
		fmt.Fprintln(w)
		return n > 0
	})

	capitalMarkdown(&b, report)
	dividendsMarkdown(&b, report)

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprint(w, "## Failed Securities\n\n")
		for _, f := range report.Failed {
			fmt.Fprintf(w, "- **%s**: %s\n", f.Security, f.Error)
		}
		fmt.Fprintln(w)
		return len(report.Failed) > 0
	})

	ConditionalBlock(&b, func(w io.Writer) bool {
		fmt.Fprint(w, "## Rate Fallbacks\n\n")
		fmt.Fprintln(w, "Some conversions used the nearest preceding published rate:")
		fmt.Fprintln(w)
		for _, fb := range report.RateFallbacks {
			fmt.Fprintf(w, "- %s/%s requested %s, used %s\n", fb.From, fb.To, fb.Requested, fb.Used)
		}
		fmt.Fprintln(w)
		return len(report.RateFallbacks) > 0
	})

	return b.String()
}

func capitalMarkdown(b *strings.Builder, report *cgt.TaxReport) {
	s := report.Capital
	fmt.Fprintf(b, "## Tax Year Summary %s\n\n", report.Year)
	fmt.Fprintln(b, "| | |")
	fmt.Fprintln(b, "|:---|---:|")
	fmt.Fprintf(b, "| Total proceeds | %s |\n", s.TotalProceeds)
	fmt.Fprintf(b, "| Total gains | %s |\n", s.TotalGains)
	fmt.Fprintf(b, "| Total losses | %s |\n", s.TotalLosses)
	fmt.Fprintf(b, "| Net gain | %s |\n", s.NetGain.SignedString())
	fmt.Fprintf(b, "| Annual exempt amount used | %s |\n", s.ExemptAmountUsed)
	fmt.Fprintf(b, "| Taxable gain | %s |\n", s.TaxableGain)
	if !s.LossCarriedForward.IsZero() {
		fmt.Fprintf(b, "| Loss carried forward | %s |\n", s.LossCarriedForward)
	}
	fmt.Fprintf(b, "| **CGT due** | **%s** |\n\n", s.TaxDue)

	fmt.Fprint(b, "### Bands\n\n")
	fmt.Fprintln(b, "| Band | Amount | Rate | Tax |")
	fmt.Fprintln(b, "|:---|---:|---:|---:|")
	for _, band := range s.Bands {
		fmt.Fprintf(b, "| %s | %s | %s%% | %s |\n",
			band.Band, band.Amount, band.Rate.Mul(hundred).String(), band.Tax)
	}
	fmt.Fprintln(b)
}

func dividendsMarkdown(b *strings.Builder, report *cgt.TaxReport) {
	ConditionalBlock(b, func(w io.Writer) bool {
		s := report.Dividends
		fmt.Fprint(w, "## Dividend Income\n\n")
		fmt.Fprintln(w, "| | |")
		fmt.Fprintln(w, "|:---|---:|")
		fmt.Fprintf(w, "| Dividend income | %s |\n", s.Income)
		fmt.Fprintf(w, "| Allowance used | %s |\n", s.AllowanceUsed)
		fmt.Fprintf(w, "| Taxable | %s |\n", s.Taxable)
		fmt.Fprintf(w, "| **Dividend tax due** | **%s** |\n\n", s.TaxDue)
		for _, band := range s.Bands {
			fmt.Fprintf(w, "- %s: %s at %s%% = %s\n", band.Band, band.Amount, band.Rate.Mul(hundred), band.Tax)
		}
		fmt.Fprintln(w)
		return s.Income.IsPositive()
	})
}

// ruleBreakdown summarizes which rules matched a disposal, e.g.
// "same-day 100, section-104 500".
func ruleBreakdown(matches []cgt.MatchEntry) string {
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		parts = append(parts, fmt.Sprintf("%s %s", m.Rule, m.Quantity))
	}
	return strings.Join(parts, ", ")
}
