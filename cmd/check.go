package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	cgt "github.com/skyersoft/cgtcalc"
)

type checkCmd struct {
	transactionsFile string
}

func (*checkCmd) Name() string     { return "check" }
func (*checkCmd) Synopsis() string { return "validate a transaction history without computing tax" }
func (*checkCmd) Usage() string {
	return `check [-t <transactions>]

  Runs the validation pass only. Every offending transaction is listed, not
  just the first one, so the whole file can be fixed in one go.
`
}

func (c *checkCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.transactionsFile, "t", "transactions.jsonl", "Transaction history file (JSONL format)")
}

func (c *checkCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	txs, err := DecodeTransactionsFile(c.transactionsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := cgt.ValidateTransactions(txs); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%d transaction(s) OK\n", len(txs))
	return subcommands.ExitSuccess
}
