// Package cmd implements the CLI application to build Spanish tax
// declarations from broker reports.
package cmd

import (
	"flag"
	"fmt"
	"os"

	"github.com/etnz/declara"
	"github.com/etnz/declara/pipeline"
	"github.com/google/subcommands"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&reviewCmd{}, "reports")

	c.Register(&d6Cmd{}, "declarations")
	c.Register(&aeat720Cmd{}, "declarations")

	c.Register(&topicCmd{}, "documentation")
}

// runCmd holds the flags every report-reading subcommand shares, and the
// pipeline built from them.
type runCmd struct {
	year      int
	ratesFile string
	source    string
	output    string

	pipeline *pipeline.Pipeline
}

func (c *runCmd) setFlags(f *flag.FlagSet) {
	f.IntVar(&c.year, "year", 0, "Fiscal year to declare (required).")
	f.StringVar(&c.ratesFile, "rates", "", "Exchange-rate JSON file. Optional when every report is in EUR.")
	f.StringVar(&c.source, "source", string(pipeline.Auto), "Report format: auto, degiro-statement, degiro-portfolio, degiro-account, ibkr-html, ibkr-csv.")
	f.StringVar(&c.output, "o", "", "Output file. Defaults per command.")
}

// assemble reads every report file and builds the year's ledger.
func (c *runCmd) assemble(files []string) (*declara.Ledger, error) {
	if c.year == 0 {
		return nil, fmt.Errorf("missing -year")
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no report files given")
	}

	rates := declara.NewRateTable("EUR")
	if c.ratesFile != "" {
		f, err := os.Open(c.ratesFile)
		if err != nil {
			return nil, fmt.Errorf("opening rates file: %w", err)
		}
		defer f.Close()
		rates, err = declara.LoadRates(f)
		if err != nil {
			return nil, fmt.Errorf("reading rates file %q: %w", c.ratesFile, err)
		}
	}

	c.pipeline = pipeline.New(c.year, rates)

	docs := make([]pipeline.Document, 0, len(files))
	for _, name := range files {
		content, err := os.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("reading report: %w", err)
		}
		docs = append(docs, pipeline.Document{
			Name:    name,
			Source:  pipeline.SourceType(c.source),
			Content: content,
		})
	}

	outcomes := c.pipeline.IngestAll(docs)
	return c.pipeline.Assemble(outcomes)
}

// printWarnings reports everything the run flagged, on stderr so that the
// declaration output stays clean.
func (c *runCmd) printWarnings() {
	for _, w := range c.pipeline.Warnings() {
		fmt.Fprintf(os.Stderr, "warning [%s]: %s\n", w.Code, w.Message)
	}
}

// writeOutput writes the generated file, defaulting to the given name.
func (c *runCmd) writeOutput(content []byte, defaultName string) error {
	name := c.output
	if name == "" {
		name = defaultName
	}
	if err := os.WriteFile(name, content, 0644); err != nil {
		return err
	}
	fmt.Printf("Successfully wrote %s\n", name)
	return nil
}
