// Package cmd implements the CLI application to compute UK capital gains tax.
package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	cgt "github.com/skyersoft/cgtcalc"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&calcCmd{}, "tax")
	c.Register(&checkCmd{}, "tax")
	c.Register(&fetchRatesCmd{}, "rates")
}

// DecodeTransactionsFile reads the transaction history from a JSONL file.
func DecodeTransactionsFile(filename string) ([]cgt.Transaction, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening transactions file: %w", err)
	}
	defer f.Close()
	return cgt.DecodeTransactions(f)
}

// DecodeRatesFile reads a rate table from a JSONL file. A missing name
// returns an empty table: runs in a single currency need no rates.
func DecodeRatesFile(filename string) (*cgt.RateTable, error) {
	if filename == "" {
		return cgt.NewRateTable(), nil
	}
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening rates file: %w", err)
	}
	defer f.Close()
	return cgt.DecodeRates(f)
}

// DecodeConfigsFile reads tax year configurations, falling back to the
// built-in registry when no file is given.
func DecodeConfigsFile(filename string) (map[cgt.TaxYear]cgt.Config, error) {
	if filename == "" {
		return cgt.DefaultConfigs(), nil
	}
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("opening tax year config file: %w", err)
	}
	defer f.Close()
	return cgt.DecodeConfigs(f)
}

// printMarkdown renders markdown for the terminal, falling back to the raw
// text when the renderer cannot run.
func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}
