package cmd

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/declara"
	"github.com/google/subcommands"
)

// reviewCmd holds the flags for the 'review' subcommand.
type reviewCmd struct {
	runCmd
	format string
}

func (*reviewCmd) Name() string     { return "review" }
func (*reviewCmd) Synopsis() string { return "export the assembled year for auditing" }
func (*reviewCmd) Usage() string {
	return `dcl review -year <year> [-rates <file>] [-format xlsx|json] [-o review.xlsx] <report files>

  Parse the reports, assemble the fiscal year and export every position,
  movement and warning, as a spreadsheet or as a JSON document.
`
}

func (c *reviewCmd) SetFlags(f *flag.FlagSet) {
	c.setFlags(f)
	f.StringVar(&c.format, "format", "xlsx", "Review format: xlsx or json.")
}

func (c *reviewCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ledger, err := c.assemble(f.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer c.printWarnings()

	var buf bytes.Buffer
	defaultName := "review." + c.format
	switch c.format {
	case "xlsx":
		err = declara.WriteReviewXLSX(ledger, &buf)
	case "json":
		err = declara.WriteReviewJSON(ledger, c.pipeline.Warnings(), &buf)
	default:
		err = fmt.Errorf("unknown review format %q", c.format)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := c.writeOutput(buf.Bytes(), defaultName); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
