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

// commitLedger persists a mutated ledger. The full state is rewritten on
// every committed mutation; there is no append-only fast path because sells
// and corporate actions are validated against the replayed state first.
func commitLedger(ledger *cgt.Ledger) subcommands.ExitStatus {
	if err := EncodeLedger(ledger); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing ledger file: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// --- Buy Command ---

type buyCmd struct {
	date       string
	security   string
	quantity   float64
	price      float64
	commission float64
	memo       string
}

func (*buyCmd) Name() string     { return "buy" }
func (*buyCmd) Synopsis() string { return "purchase shares to open or add to a position" }
func (*buyCmd) Usage() string {
	return `buy -d <date> -s <security> -q <quantity> -p <price> [-c <commission>] [-m <memo>]

  Purchases shares of a security. The new lot enters the FIFO queue dated at
  the trade's settlement (trade date + 2 business days).
`
}

func (c *buyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", cgt.Today().String(), "Trade date (YYYY-MM-DD)")
	f.StringVar(&c.security, "s", "", "Security ticker")
	f.Float64Var(&c.quantity, "q", 0, "Number of shares")
	f.Float64Var(&c.price, "p", 0, "Price per share")
	f.Float64Var(&c.commission, "c", 0, "Broker commission, tracked separately from cost basis")
	f.StringVar(&c.memo, "m", "", "An optional rationale or note for the transaction")
}

func (c *buyCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.security == "" || c.quantity <= 0 || c.price <= 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	day, err := cgt.ParseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}

	ledger, err := DecodeLedger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	tx, err := ledger.Buy(day, c.memo, c.security, cgt.Q(c.quantity), cgt.M(c.price, ""), cgt.M(c.commission, ""))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error recording buy: %v\n", err)
		return subcommands.ExitFailure
	}

	if status := commitLedger(ledger); status != subcommands.ExitSuccess {
		return status
	}
	fmt.Printf("Bought %s %s @ %s, settles %s\n", tx.Quantity, tx.Security, tx.Price, tx.Settlement())
	return subcommands.ExitSuccess
}

// --- Sell Command ---

type sellCmd struct {
	date       string
	security   string
	quantity   float64
	price      float64
	commission float64
	memo       string
	dryRun     bool
}

func (*sellCmd) Name() string     { return "sell" }
func (*sellCmd) Synopsis() string { return "sell shares, consuming lots in FIFO order" }
func (*sellCmd) Usage() string {
	return `sell -d <date> -s <security> -q <quantity> -p <price> [-c <commission>] [-m <memo>] [-dry-run]

  Sells shares of a security, consuming the oldest lots first. With -dry-run
  the sale is simulated and its tax assessment printed, without committing
  anything to the ledger.
`
}

func (c *sellCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", cgt.Today().String(), "Trade date (YYYY-MM-DD)")
	f.StringVar(&c.security, "s", "", "Security ticker")
	f.Float64Var(&c.quantity, "q", 0, "Number of shares")
	f.Float64Var(&c.price, "p", 0, "Price per share")
	f.Float64Var(&c.commission, "c", 0, "Broker commission, tracked separately from cost basis")
	f.StringVar(&c.memo, "m", "", "An optional rationale or note for the transaction")
	f.BoolVar(&c.dryRun, "dry-run", false, "Simulate the sale and print the tax assessment without committing")
}

func (c *sellCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.security == "" || c.quantity <= 0 || c.price <= 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	day, err := cgt.ParseDate(c.date)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing date: %v\n", err)
		return subcommands.ExitUsageError
	}

	ledger, err := DecodeLedger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	engine := TaxEngine()

	if c.dryRun {
		gain, err := ledger.SimulateSell(c.security, cgt.Q(c.quantity), cgt.M(c.price, ""), day)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error simulating sale: %v\n", err)
			return subcommands.ExitFailure
		}
		printMarkdown(renderer.SaleTaxMarkdown("Dry Run", gain, engine.TaxForSale(gain)))
		return subcommands.ExitSuccess
	}

	gain, err := ledger.Sell(day, c.memo, c.security, cgt.Q(c.quantity), cgt.M(c.price, ""), cgt.M(c.commission, ""))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error recording sell: %v\n", err)
		return subcommands.ExitFailure
	}

	if status := commitLedger(ledger); status != subcommands.ExitSuccess {
		return status
	}
	printMarkdown(renderer.SaleTaxMarkdown("Sale Recorded", gain, engine.TaxForSale(gain)))
	return subcommands.ExitSuccess
}
