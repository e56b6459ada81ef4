package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/declara"
	"github.com/google/subcommands"
)

// d6Cmd holds the flags for the 'd6' subcommand.
type d6Cmd struct {
	declareCmd
}

func (*d6Cmd) Name() string     { return "d6" }
func (*d6Cmd) Synopsis() string { return "generate the D-6 declaration as an Aforix XML file" }
func (*d6Cmd) Usage() string {
	return `dcl d6 -year <year> -name <name> -surname <surname> -nif <nif> [-rates <file>] [-o d6.xml] <report files>

  Parse the reports and generate the D-6 declaration of securities
  deposited abroad, ready to import into Aforix.
`
}

func (c *d6Cmd) SetFlags(f *flag.FlagSet) { c.setFlags(f) }

func (c *d6Cmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	content, err := c.pipeline.Declare(ledger, declara.FormD6, declarant)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := c.writeOutput(content, "d6.xml"); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
