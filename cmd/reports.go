package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/subcommands"
	"github.com/psxtools/cgt"
	"github.com/psxtools/cgt/renderer"
)

// --- Holdings Command ---

type holdingsCmd struct {
	lots bool
}

func (*holdingsCmd) Name() string     { return "holdings" }
func (*holdingsCmd) Synopsis() string { return "display open positions and their cost basis" }
func (*holdingsCmd) Usage() string {
	return `holdings [-lots]

  Displays every open position with its quantity, average cost and cost
  basis. With -lots, the per-lot FIFO breakdown is shown too.
`
}

func (c *holdingsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.lots, "lots", false, "Show the per-lot breakdown")
}

func (c *holdingsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ledger, err := DecodeLedger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	printMarkdown(renderer.HoldingsMarkdown(ledger.Holdings(), c.lots))
	return subcommands.ExitSuccess
}

// --- Gains Command ---

type gainsCmd struct {
	start string
	end   string
	year  string
}

func (*gainsCmd) Name() string     { return "gains" }
func (*gainsCmd) Synopsis() string { return "realized gains with their tax assessment" }
func (*gainsCmd) Usage() string {
	return `gains [-y <date-in-tax-year> | -s <start_date> -d <end_date>]

  Displays realized gains and the tax due on each sale. By default the
  current tax year (July 1st to June 30th) is reported; -y selects the tax
  year containing the given date, -s/-d select an explicit range over sale
  settlement dates.
`
}

func (c *gainsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.start, "s", "", "Start date of the reporting period")
	f.StringVar(&c.end, "d", "", "End date of the reporting period")
	f.StringVar(&c.year, "y", "", "Report the tax year containing this date")
}

func (c *gainsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.year != "" && (c.start != "" || c.end != "") {
		fmt.Fprintln(os.Stderr, "-y cannot be used together with -s or -d")
		return subcommands.ExitUsageError
	}

	var period cgt.Range
	switch {
	case c.start != "" || c.end != "":
		startStr, endStr := c.start, c.end
		if endStr == "" {
			endStr = cgt.Today().String()
		}
		if startStr == "" {
			startStr = cgt.TaxYear(cgt.Today()).From.String()
		}
		start, err := cgt.ParseDate(startStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing start date: %v\n", err)
			return subcommands.ExitUsageError
		}
		end, err := cgt.ParseDate(endStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing end date: %v\n", err)
			return subcommands.ExitUsageError
		}
		period = cgt.NewRange(start, end)
	case c.year != "":
		day, err := cgt.ParseDate(c.year)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing tax year date: %v\n", err)
			return subcommands.ExitUsageError
		}
		period = cgt.TaxYear(day)
	default:
		period = cgt.TaxYear(cgt.Today())
	}

	ledger, err := DecodeLedger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	printMarkdown(renderer.GainsMarkdown(ledger.RealizedGains(period), TaxEngine(), period))
	return subcommands.ExitSuccess
}

// --- What-If Command ---

type whatifCmd struct {
	date     string
	security string
	quantity float64
	price    float64
}

func (*whatifCmd) Name() string     { return "whatif" }
func (*whatifCmd) Synopsis() string { return "simulate a sale and its tax, without committing" }
func (*whatifCmd) Usage() string {
	return `whatif -s <security> -q <quantity> -p <price> [-d <date>]

  Runs the exact sell algorithm against a copy of the ledger state: FIFO
  consumption, settlement dating and the full tax assessment. The ledger is
  never modified.
`
}

func (c *whatifCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", cgt.Today().String(), "Hypothetical trade date (YYYY-MM-DD)")
	f.StringVar(&c.security, "s", "", "Security ticker")
	f.Float64Var(&c.quantity, "q", 0, "Number of shares")
	f.Float64Var(&c.price, "p", 0, "Assumed price per share")
}

func (c *whatifCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	scenario := cgt.NewScenario(ledger, TaxEngine())
	result, err := scenario.WhatIf(c.security, cgt.Q(c.quantity), cgt.M(c.price, ""), day)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error simulating sale: %v\n", err)
		return subcommands.ExitFailure
	}

	printMarkdown(renderer.SaleTaxMarkdown("What If", result.Gain, result.Tax))
	return subcommands.ExitSuccess
}

// --- Opportunities Command ---

type opportunitiesCmd struct {
	date   string
	prices string
}

func (*opportunitiesCmd) Name() string     { return "opportunities" }
func (*opportunitiesCmd) Synopsis() string { return "rank lots whose tax rate drops by waiting" }
func (*opportunitiesCmd) Usage() string {
	return `opportunities -prices <TICKER=price,...> [-d <date>]

  Scans every open lot for holding-period milestones: legacy-regime lots
  whose tax rate drops if the sale is deferred. The result is ranked by the
  tax saved at the assumed prices.
`
}

func (c *opportunitiesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "d", cgt.Today().String(), "Valuation date (YYYY-MM-DD)")
	f.StringVar(&c.prices, "prices", "", "Assumed sale prices, e.g. \"HBL=120.5,OGDC=98\"")
}

func (c *opportunitiesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.prices == "" {
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

	prices, err := parsePrices(c.prices, ledger.Currency())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing prices: %v\n", err)
		return subcommands.ExitUsageError
	}

	scenario := cgt.NewScenario(ledger, TaxEngine())
	printMarkdown(renderer.OpportunitiesMarkdown(scenario.Opportunities(prices, day), day))
	return subcommands.ExitSuccess
}

// parsePrices parses a "TICKER=price,TICKER=price" list.
func parsePrices(s, currency string) (map[string]cgt.Money, error) {
	prices := make(map[string]cgt.Money)
	for _, pair := range strings.Split(s, ",") {
		ticker, value, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found || ticker == "" {
			return nil, fmt.Errorf("want TICKER=price, got %q", pair)
		}
		var price float64
		if _, err := fmt.Sscanf(value, "%g", &price); err != nil || price <= 0 {
			return nil, fmt.Errorf("invalid price for %s: %q", ticker, value)
		}
		prices[ticker] = cgt.M(price, currency)
	}
	return prices, nil
}
