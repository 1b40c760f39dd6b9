package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	cgt "github.com/skyersoft/cgtcalc"
	"github.com/skyersoft/cgtcalc/renderer"
)

type calcCmd struct {
	transactionsFile string
	ratesFile        string
	configFile       string
	year             string
	jurisdiction     string
	income           float64
	dividends        float64
	asJSON           bool
}

func (*calcCmd) Name() string     { return "calc" }
func (*calcCmd) Synopsis() string { return "compute the capital gains tax report for a tax year" }
func (*calcCmd) Usage() string {
	return `calc -y <tax-year> [-t <transactions>] [-r <rates>] [-income <amount>] [-json]

  Matches every disposal in the transaction history against acquisitions
  using the HMRC rules (same-day, 30-day, Section 104 pool), and prints the
  tax report for the selected year.

Usage Examples:
# Report for 2024-25 with GBP-only transactions.
$ cgtcalc calc -y 2024-25 -t transactions.jsonl -income 45000

# Multi-currency history with a published rate table, JSON output.
$ cgtcalc calc -y 2023-24 -t transactions.jsonl -r rates.jsonl -json
`
}

func (c *calcCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.transactionsFile, "t", "transactions.jsonl", "Transaction history file (JSONL format)")
	f.StringVar(&c.ratesFile, "r", "", "Exchange rate table file (JSONL format)")
	f.StringVar(&c.configFile, "c", "", "Tax year configuration file, overrides the built-in registry")
	f.StringVar(&c.year, "y", "", "Tax year to report, e.g. 2024-25 (required)")
	f.StringVar(&c.jurisdiction, "j", string(cgt.EnglandWalesNI), "Jurisdiction: england-wales-ni or scotland")
	f.Float64Var(&c.income, "income", 0, "Taxpayer's total non-gain income, for the band split")
	f.Float64Var(&c.dividends, "dividends", 0, "Taxpayer's dividend income, optional")
	f.BoolVar(&c.asJSON, "json", false, "Print the report as JSON instead of markdown")
}

func (c *calcCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.year == "" {
		fmt.Fprintln(os.Stderr, "Error: -y <tax-year> is required.")
		return subcommands.ExitUsageError
	}
	year, err := cgt.ParseTaxYear(c.year)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	jurisdiction, err := cgt.ParseJurisdiction(c.jurisdiction)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	txs, err := DecodeTransactionsFile(c.transactionsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	rates, err := DecodeRatesFile(c.ratesFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	configs, err := DecodeConfigsFile(c.configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	calculator := cgt.NewCalculator(rates, configs, cgt.GBP)
	report, err := calculator.Calculate(cgt.Run{
		Transactions:   txs,
		Year:           year,
		Jurisdiction:   jurisdiction,
		TotalIncome:    cgt.M(c.income, cgt.GBP),
		DividendIncome: cgt.M(c.dividends, cgt.GBP),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if c.asJSON {
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Println(string(out))
		return subcommands.ExitSuccess
	}

	printMarkdown(renderer.ReportMarkdown(report))
	return subcommands.ExitSuccess
}
