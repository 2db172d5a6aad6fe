package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"
	"github.com/psxtools/cgt"
)

// --- Import Command ---

type importCmd struct {
	file string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import a legacy backup document" }
func (*importCmd) Usage() string {
	return `import -f <backup.json>

  Imports a legacy backup document (the full-state JSON export of the old
  app) and writes it as a fresh ledger file. The rebuilt history is
  validated by replay before anything is written.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "", "Backup document to import")
}

func (c *importCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.file == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}

	r, err := os.Open(c.file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening backup %q: %v\n", c.file, err)
		return subcommands.ExitFailure
	}
	defer r.Close()

	ledger, err := cgt.ImportBackup(r)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error importing backup: %v\n", err)
		return subcommands.ExitFailure
	}

	if err := EncodeLedger(ledger); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing ledger file: %v\n", err)
		return subcommands.ExitFailure
	}

	fmt.Printf("Imported %q into %q\n", c.file, *ledgerFile)
	return subcommands.ExitSuccess
}

// --- Export Command ---

type exportCmd struct {
	file string
}

func (*exportCmd) Name() string     { return "export" }
func (*exportCmd) Synopsis() string { return "export the full ledger state as one document" }
func (*exportCmd) Usage() string {
	return `export [-f <backup.json>]

  Exports the full ledger state, transactions, derived holdings, realized
  gains and the corporate action log, as one JSON document. Defaults to
  stdout.
`
}

func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.file, "f", "", "Destination file, stdout when omitted")
}

func (c *exportCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ledger, err := DecodeLedger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	w := os.Stdout
	if c.file != "" {
		w, err = os.Create(c.file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating %q: %v\n", c.file, err)
			return subcommands.ExitFailure
		}
		defer w.Close()
	}

	if err := cgt.ExportBackup(w, ledger); err != nil {
		fmt.Fprintf(os.Stderr, "Error exporting ledger: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
