package renderer

import (
	"strings"
	"testing"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	cgt "github.com/skyersoft/cgtcalc"
)

// sampleReport runs a small calculation so the rendered report reflects real
// engine output rather than hand-built structs.
func sampleReport(t *testing.T) *cgt.TaxReport {
	t.Helper()
	calc := cgt.NewCalculator(nil, nil, cgt.GBP)
	report, err := calc.Calculate(cgt.Run{
		Transactions: []cgt.Transaction{
			cgt.NewAcquisition("VWRL", cgt.MustParseDate("2022-01-10"), cgt.Q(300), cgt.M(100, cgt.GBP), cgt.M(0, cgt.GBP)),
			cgt.NewDisposal("VWRL", cgt.MustParseDate("2024-06-03"), cgt.Q(100), cgt.M(130, cgt.GBP), cgt.M(0, cgt.GBP)),
			cgt.NewAcquisition("OVER", cgt.MustParseDate("2024-05-01"), cgt.Q(10), cgt.M(10, cgt.GBP), cgt.M(0, cgt.GBP)),
			cgt.NewDisposal("OVER", cgt.MustParseDate("2024-06-01"), cgt.Q(50), cgt.M(12, cgt.GBP), cgt.M(0, cgt.GBP)),
		},
		Year:           cgt.TaxYear(2024),
		TotalIncome:    cgt.M(30000, cgt.GBP),
		DividendIncome: cgt.M(2000, cgt.GBP),
	})
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}
	return report
}

// headings parses the markdown and collects its heading texts by level.
func headings(md string) map[int][]string {
	source := []byte(md)
	root := goldmark.DefaultParser().Parse(text.NewReader(source))
	out := make(map[int][]string)
	ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok {
			var b strings.Builder
			for i := 0; i < h.Lines().Len(); i++ {
				line := h.Lines().At(i)
				b.Write(line.Value(source))
			}
			out[h.Level] = append(out[h.Level], strings.TrimSpace(b.String()))
		}
		return ast.WalkContinue, nil
	})
	return out
}

func TestReportMarkdown_Structure(t *testing.T) {
	md := ReportMarkdown(sampleReport(t))
	hs := headings(md)

	if len(hs[1]) != 1 || !strings.Contains(hs[1][0], "2024-25") {
		t.Errorf("h1 = %v, want one title naming the tax year", hs[1])
	}
	for _, want := range []string{"Disposals", "Section 104 Holdings", "Tax Year Summary 2024-25", "Dividend Income", "Failed Securities"} {
		found := false
		for _, h := range hs[2] {
			if strings.Contains(h, want) {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("missing section %q in:\n%s", want, md)
		}
	}
}

func TestReportMarkdown_Content(t *testing.T) {
	md := ReportMarkdown(sampleReport(t))

	// One disposal row with the rule that matched it.
	if !strings.Contains(md, "| 2024-06-03 | VWRL | 100 |") {
		t.Errorf("missing the disposal row in:\n%s", md)
	}
	if !strings.Contains(md, "section-104 100") {
		t.Errorf("missing the rule breakdown in:\n%s", md)
	}
	// The failed security is listed with its reason.
	if !strings.Contains(md, "**OVER**") {
		t.Errorf("missing the failed security in:\n%s", md)
	}
	// The remaining holding appears with its average cost.
	if !strings.Contains(md, "| VWRL | 200 |") {
		t.Errorf("missing the holdings row in:\n%s", md)
	}
}

func TestReportMarkdown_OmitsEmptySections(t *testing.T) {
	calc := cgt.NewCalculator(nil, nil, cgt.GBP)
	report, err := calc.Calculate(cgt.Run{
		Transactions: []cgt.Transaction{
			cgt.NewAcquisition("VWRL", cgt.MustParseDate("2024-01-10"), cgt.Q(10), cgt.M(100, cgt.GBP), cgt.M(0, cgt.GBP)),
		},
		Year:        cgt.TaxYear(2024),
		TotalIncome: cgt.M(30000, cgt.GBP),
	})
	if err != nil {
		t.Fatalf("Calculate() error = %v", err)
	}
	md := ReportMarkdown(report)
	for _, section := range []string{"## Disposals", "## Dividend Income", "## Failed Securities", "## Rate Fallbacks"} {
		if strings.Contains(md, section) {
			t.Errorf("section %q rendered with nothing to show", section)
		}
	}
	if !strings.Contains(md, "## Section 104 Holdings") {
		t.Error("holdings section missing")
	}
}
