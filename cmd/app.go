// Package cmd implements the CLI application to manage a capital gains
// ledger.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"
	"github.com/psxtools/cgt"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&buyCmd{}, "transactions")
	c.Register(&sellCmd{}, "transactions")
	c.Register(&txCmd{}, "transactions")

	c.Register(&bonusCmd{}, "corporate actions")
	c.Register(&rightsCmd{}, "corporate actions")
	c.Register(&reverseCmd{}, "corporate actions")
	c.Register(&actionsCmd{}, "corporate actions")

	c.Register(&holdingsCmd{}, "reports")
	c.Register(&gainsCmd{}, "reports")
	c.Register(&whatifCmd{}, "reports")
	c.Register(&opportunitiesCmd{}, "reports")

	c.Register(&fmtCmd{}, "ledger")
	c.Register(&importCmd{}, "ledger")
	c.Register(&exportCmd{}, "ledger")

	c.Register(&topicCmd{}, "help")
	c.Register(&assistCmd{}, "help")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var ledgerFile = flag.String("ledger-file", "ledger.jsonl", "Path to the ledger file (JSONL format)")
var currency = flag.String("currency", "PKR", "Reporting currency for a new ledger")
var nonFiler = flag.Bool("non-filer", false, "Compute taxes as a non-filer")

// DecodeLedger decodes the ledger from the app ledger file. A missing file is
// an empty ledger.
func DecodeLedger() (*cgt.Ledger, error) {
	f, err := os.Open(*ledgerFile)
	if errors.Is(err, fs.ErrNotExist) {
		log.Println("warning, ledger file does not exist, starting an empty ledger instead")
		return cgt.NewLedger(*currency), nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot open ledger file %q: %w", *ledgerFile, err)
	}
	defer f.Close()

	ledger, err := cgt.DecodeLedger(f)
	if err != nil {
		return nil, fmt.Errorf("cannot decode ledger file %q: %w", *ledgerFile, err)
	}
	return ledger, nil
}

// EncodeLedger rewrites the whole ledger to the app ledger file.
func EncodeLedger(ledger *cgt.Ledger) error {
	f, err := os.OpenFile(*ledgerFile, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("cannot open ledger file %q for writing: %w", *ledgerFile, err)
	}
	defer f.Close()

	return cgt.EncodeLedger(f, ledger)
}

// TaxEngine builds the tax engine from the default rate table and the
// app-level filer status flag.
func TaxEngine() *cgt.TaxEngine {
	filer := cgt.Filer
	if *nonFiler {
		filer = cgt.NonFiler
	}
	return cgt.NewTaxEngine(cgt.DefaultRateTable(), filer)
}

// printMarkdown renders markdown to the terminal.
func printMarkdown(markdown string) {
	out, err := glamour.Render(markdown, "auto")
	if err != nil {
		// Fall back to the raw markdown.
		fmt.Println(markdown)
		return
	}
	fmt.Print(out)
}
