package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/declara"
	"github.com/google/subcommands"
)

// aeat720Cmd holds the flags for the 'aeat720' subcommand.
type aeat720Cmd struct {
	declareCmd
}

func (*aeat720Cmd) Name() string     { return "aeat720" }
func (*aeat720Cmd) Synopsis() string { return "generate the Modelo 720 register file" }
func (*aeat720Cmd) Usage() string {
	return `dcl aeat720 -year <year> -name <name> -surname <surname> -nif <nif> [-rates <file>] [-o aeat720.txt] <report files>

  Parse the reports and generate the AEAT Modelo 720 fixed-width register
  file for securities held abroad. When the year-end total does not exceed
  the filing threshold, no file is written.
`
}

func (c *aeat720Cmd) SetFlags(f *flag.FlagSet) { c.setFlags(f) }

func (c *aeat720Cmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	declarant, err := c.declarant()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	ledger, err := c.assemble(f.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer c.printWarnings()

	content, err := c.pipeline.Declare(ledger, declara.Form720, declarant)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if content == nil {
		fmt.Println("Year-end total does not exceed the Modelo 720 threshold: nothing to declare.")
		return subcommands.ExitSuccess
	}
	if err := c.writeOutput(content, "aeat720.txt"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
