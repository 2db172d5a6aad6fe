package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/psxtools/cgt"
	"github.com/psxtools/cgt/renderer"
)

type txCmd struct {
	security string
	start    string
	end      string
	head     int
	tail     int
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "list trade transactions in the ledger" }
func (*txCmd) Usage() string {
	return `tx [-s <security>] [-from <date>] [-to <date>] [-head <n> | -tail <n>]

  Lists trade transactions in commit order, with options for filtering and
  limiting the output.
`
}

func (p *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.security, "s", "", "Only transactions for this ticker")
	f.StringVar(&p.start, "from", "", "Only transactions on or after this trade date")
	f.StringVar(&p.end, "to", "", "Only transactions on or before this trade date")
	f.IntVar(&p.head, "head", 0, "Show only the first N transactions")
	f.IntVar(&p.tail, "tail", 0, "Show only the last N transactions")
}

func (p *txCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if p.head > 0 && p.tail > 0 {
		fmt.Fprintln(os.Stderr, "Error: -head and -tail flags cannot be used together.")
		return subcommands.ExitUsageError
	}

	ledger, err := DecodeLedger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	var period *cgt.Range
	if p.start != "" || p.end != "" {
		startStr, endStr := p.start, p.end
		if endStr == "" {
			endStr = cgt.Today().String()
		}
		end, err := cgt.ParseDate(endStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing -to date: %v\n", err)
			return subcommands.ExitUsageError
		}
		start := cgt.Date{}
		if startStr != "" {
			start, err = cgt.ParseDate(startStr)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error parsing -from date: %v\n", err)
				return subcommands.ExitUsageError
			}
		}
		r := cgt.NewRange(start, end)
		period = &r
	}

	var filters []func(cgt.Transaction) bool
	if p.security != "" {
		filters = append(filters, cgt.BySecurity(p.security))
	}

	var transactions []cgt.Transaction
	for _, tx := range ledger.Transactions(filters...) {
		if period != nil && !period.Contains(tx.When()) {
			continue
		}
		transactions = append(transactions, tx)
	}

	if p.head > 0 && len(transactions) > p.head {
		transactions = transactions[:p.head]
	}
	if p.tail > 0 && len(transactions) > p.tail {
		transactions = transactions[len(transactions)-p.tail:]
	}

	printMarkdown(renderer.TransactionsMarkdown(transactions))
	return subcommands.ExitSuccess
}
