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

// --- Bonus Command ---

type bonusCmd struct {
	security string
	exDate   string
	ratio    string
	memo     string
}

func (*bonusCmd) Name() string     { return "bonus" }
func (*bonusCmd) Synopsis() string { return "apply a bonus share issue" }
func (*bonusCmd) Usage() string {
	return `bonus -s <security> -x <ex-date> -r <ratio> [-m <memo>]

  Applies a bonus issue: every lot acquired before the ex-date grows by
  floor(remaining x ratio) free shares, and its unit cost is rescaled so the
  lot's total cost basis is unchanged. The ratio is a percentage ("20%") or a
  decimal ("0.2").
`
}

func (c *bonusCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.security, "s", "", "Security ticker")
	f.StringVar(&c.exDate, "x", "", "Ex-date of the bonus issue (YYYY-MM-DD)")
	f.StringVar(&c.ratio, "r", "", "Bonus ratio, e.g. \"20%\" or \"0.2\"")
	f.StringVar(&c.memo, "m", "", "An optional note")
}

func (c *bonusCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.security == "" || c.exDate == "" || c.ratio == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	exDate, err := cgt.ParseDate(c.exDate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing ex-date: %v\n", err)
		return subcommands.ExitUsageError
	}

	ledger, err := DecodeLedger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	action, err := ledger.ApplyBonus(cgt.Today(), c.memo, c.security, c.ratio, exDate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error applying bonus: %v\n", err)
		return subcommands.ExitFailure
	}

	if status := commitLedger(ledger); status != subcommands.ExitSuccess {
		return status
	}
	fmt.Printf("Bonus %s applied to %s: %s shares added across %d lots\n",
		action.RatioText, action.Security, action.SharesAdded, action.LotsAffected)
	return subcommands.ExitSuccess
}

// --- Rights Command ---

type rightsCmd struct {
	security     string
	exDate       string
	ratio        string
	issuePrice   float64
	subscription string
	memo         string
}

func (*rightsCmd) Name() string     { return "rights" }
func (*rightsCmd) Synopsis() string { return "apply a rights share issue" }
func (*rightsCmd) Usage() string {
	return `rights -s <security> -x <ex-date> -r <ratio> -p <issue-price> [-sub <date>] [-m <memo>]

  Applies a rights issue: the entitlement is floor(eligible shares x ratio)
  new shares purchased at the issue price, recorded as a new lot dated at the
  subscription date (ex-date + 30 days when not given). The ratio is "n:m"
  (n new shares for every m held) or a decimal.
`
}

func (c *rightsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.security, "s", "", "Security ticker")
	f.StringVar(&c.exDate, "x", "", "Ex-date of the rights issue (YYYY-MM-DD)")
	f.StringVar(&c.ratio, "r", "", "Entitlement ratio, e.g. \"1:5\" or \"0.2\"")
	f.Float64Var(&c.issuePrice, "p", 0, "Subscription price per new share")
	f.StringVar(&c.subscription, "sub", "", "Subscription date, defaults to ex-date + 30 days")
	f.StringVar(&c.memo, "m", "", "An optional note")
}

func (c *rightsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.security == "" || c.exDate == "" || c.ratio == "" || c.issuePrice <= 0 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	exDate, err := cgt.ParseDate(c.exDate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing ex-date: %v\n", err)
		return subcommands.ExitUsageError
	}
	var subscription cgt.Date
	if c.subscription != "" {
		subscription, err = cgt.ParseDate(c.subscription)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing subscription date: %v\n", err)
			return subcommands.ExitUsageError
		}
	}

	ledger, err := DecodeLedger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	action, err := ledger.ApplyRights(cgt.Today(), c.memo, c.security, c.ratio, exDate, cgt.M(c.issuePrice, ""), subscription)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error applying rights: %v\n", err)
		return subcommands.ExitFailure
	}

	if status := commitLedger(ledger); status != subcommands.ExitSuccess {
		return status
	}
	fmt.Printf("Rights %s applied to %s: %s shares @ %s, lot dated %s\n",
		action.RatioText, action.Security, action.SharesAdded, action.IssuePrice, action.SubscriptionDate)
	return subcommands.ExitSuccess
}

// --- Reverse Command ---

type reverseCmd struct {
	security string
	kind     string
	exDate   string
}

func (*reverseCmd) Name() string     { return "reverse" }
func (*reverseCmd) Synopsis() string { return "reverse an applied corporate action" }
func (*reverseCmd) Usage() string {
	return `reverse -s <security> -k <bonus|rights> -x <ex-date>

  Reverses an active corporate action, restoring the exact pre-action lot
  state. Refused when a sale was recorded after the action was applied, or
  when a rights lot has been partially sold. The audit record stays in the
  log, flagged inactive.
`
}

func (c *reverseCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.security, "s", "", "Security ticker")
	f.StringVar(&c.kind, "k", "", "Action kind: bonus or rights")
	f.StringVar(&c.exDate, "x", "", "Ex-date of the action to reverse (YYYY-MM-DD)")
}

func (c *reverseCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var kind cgt.ActionKind
	switch c.kind {
	case "bonus":
		kind = cgt.BonusIssue
	case "rights":
		kind = cgt.RightsIssue
	default:
		f.Usage()
		return subcommands.ExitUsageError
	}
	if c.security == "" || c.exDate == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}
	exDate, err := cgt.ParseDate(c.exDate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing ex-date: %v\n", err)
		return subcommands.ExitUsageError
	}

	ledger, err := DecodeLedger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	if err := ledger.ReverseAction(cgt.Today(), c.security, kind, exDate); err != nil {
		fmt.Fprintf(os.Stderr, "Error reversing action: %v\n", err)
		return subcommands.ExitFailure
	}

	if status := commitLedger(ledger); status != subcommands.ExitSuccess {
		return status
	}
	fmt.Printf("Reversed %s for %s with ex-date %s\n", kind, c.security, exDate)
	return subcommands.ExitSuccess
}

// --- Actions Command ---

type actionsCmd struct{}

func (*actionsCmd) Name() string     { return "actions" }
func (*actionsCmd) Synopsis() string { return "list the corporate action audit log" }
func (*actionsCmd) Usage() string {
	return `actions

  Lists every corporate action ever applied, including reversed ones: the
  audit log is append-only and history survives reversal.
`
}

func (c *actionsCmd) SetFlags(f *flag.FlagSet) {}

func (c *actionsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ledger, err := DecodeLedger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	printMarkdown(renderer.ActionsMarkdown(ledger.Actions()))
	return subcommands.ExitSuccess
}
