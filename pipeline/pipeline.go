// Package pipeline orchestrates a declaration run: documents in, assembled
// ledger, declarations out. It owns the cross-component state (the
// instrument resolver, the exchange-rate table, the accumulated warnings)
// that the parsers, the ledger and the rule engines must share.
package pipeline

import (
	"bytes"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/etnz/declara"
	"github.com/etnz/declara/aforix"
	"github.com/etnz/declara/degiro"
	"github.com/etnz/declara/ibkr"
	"github.com/etnz/declara/modelo720"
)

// SourceType names a supported document format.
type SourceType string

const (
	// Auto tries every known format and keeps the first that recognizes
	// the document.
	Auto             SourceType = "auto"
	DegiroStatement  SourceType = "degiro-statement"
	DegiroPortfolio  SourceType = "degiro-portfolio"
	DegiroAccount    SourceType = "degiro-account"
	IBKRHTML         SourceType = "ibkr-html"
	IBKRCSV          SourceType = "ibkr-csv"
)

// Document is one broker report to ingest.
type Document struct {
	Name    string // for error attribution, usually the file name
	Source  SourceType
	Content []byte
}

// parser is the capability every broker parser provides.
type parser interface {
	Parse(content []byte) (*declara.ParseOutcome, error)
}

// Pipeline runs one declarant's fiscal year. Create it with New, feed it
// documents, then assemble and declare.
type Pipeline struct {
	year     int
	rates    *declara.RateTable
	resolver *declara.Resolver
	warns    declara.Warnings
}

// New creates a pipeline for one fiscal year with the given exchange rates.
func New(year int, rates *declara.RateTable) *Pipeline {
	p := &Pipeline{year: year, rates: rates}
	p.resolver = declara.NewResolver(&p.warns)
	return p
}

// Resolver exposes the run's instrument table.
func (p *Pipeline) Resolver() *declara.Resolver { return p.resolver }

// Warnings returns everything accumulated so far.
func (p *Pipeline) Warnings() []declara.Warning { return p.warns.All() }

// parsers returns the candidates for a source type, in detection order.
func (p *Pipeline) parsers(source SourceType) []parser {
	switch source {
	case DegiroStatement:
		return []parser{&degiro.StatementParser{Resolver: p.resolver, Year: p.year}}
	case DegiroPortfolio:
		return []parser{&degiro.PortfolioParser{Resolver: p.resolver, Year: p.year}}
	case DegiroAccount:
		return []parser{&degiro.AccountParser{Resolver: p.resolver}}
	case IBKRHTML:
		return []parser{&ibkr.HTMLParser{Resolver: p.resolver, Year: p.year}}
	case IBKRCSV:
		return []parser{&ibkr.CSVParser{Resolver: p.resolver, Year: p.year}}
	default:
		return []parser{
			&ibkr.HTMLParser{Resolver: p.resolver, Year: p.year},
			&ibkr.CSVParser{Resolver: p.resolver, Year: p.year},
			&degiro.PortfolioParser{Resolver: p.resolver, Year: p.year},
			&degiro.AccountParser{Resolver: p.resolver},
			&degiro.StatementParser{Resolver: p.resolver, Year: p.year},
		}
	}
}

// Ingest parses one document. A zip envelope is unwrapped and its entries
// ingested individually.
func (p *Pipeline) Ingest(doc Document) (*declara.ParseOutcome, error) {
	if isZip(doc.Content) {
		docs, err := unzip(doc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", doc.Name, err)
		}
		merged := &declara.ParseOutcome{}
		parsed := 0
		for _, inner := range docs {
			out, err := p.Ingest(inner)
			if err != nil {
				// One bad entry never spoils the envelope.
				log.Printf("skipping zip entry: %v", err)
				merged.Warnings.Addf(declara.WarnSkippedDocument, "%v", err)
				continue
			}
			parsed++
			merged.Movements = append(merged.Movements, out.Movements...)
			merged.Positions = append(merged.Positions, out.Positions...)
			merged.Warnings.Merge(&out.Warnings)
		}
		if parsed == 0 {
			return nil, fmt.Errorf("%s: %w", doc.Name, declara.ErrNoDataExtracted)
		}
		return merged, nil
	}

	var lastErr error
	for _, prs := range p.parsers(doc.Source) {
		out, err := prs.Parse(doc.Content)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !errors.Is(err, declara.ErrFormatNotRecognized) {
			break
		}
	}
	return nil, fmt.Errorf("%s: %w", doc.Name, lastErr)
}

// IngestAll parses every document, one goroutine each. Results are joined in
// document order so that ingestion is deterministic regardless of
// scheduling. A failed document is excluded with a warning; it never aborts
// the run.
func (p *Pipeline) IngestAll(docs []Document) []*declara.ParseOutcome {
	outcomes := make([]*declara.ParseOutcome, len(docs))
	errs := make([]error, len(docs))

	var wg sync.WaitGroup
	for i, doc := range docs {
		wg.Add(1)
		go func(i int, doc Document) {
			defer wg.Done()
			outcomes[i], errs[i] = p.Ingest(doc)
		}(i, doc)
	}
	wg.Wait()

	kept := outcomes[:0]
	for i, out := range outcomes {
		if errs[i] != nil {
			log.Printf("skipping document: %v", errs[i])
			p.warns.Addf(declara.WarnSkippedDocument, "%v", errs[i])
			continue
		}
		kept = append(kept, out)
	}
	return kept
}

// Assemble merges outcomes into the run's ledger.
func (p *Pipeline) Assemble(outcomes []*declara.ParseOutcome) (*declara.Ledger, error) {
	return declara.Assemble(p.year, outcomes, p.rates, &p.warns)
}

// Declare runs one form's rule set over the ledger and serializes it.
// Failure of one form leaves the other unaffected; the caller decides which
// forms to attempt. A nil content with a nil error means the form has
// nothing to declare (the Modelo 720 below its threshold).
func (p *Pipeline) Declare(ledger *declara.Ledger, form declara.FormKind, declarant declara.Declarant) ([]byte, error) {
	switch form {
	case declara.FormD6:
		decl, err := declara.DeclareD6(ledger, declarant, &p.warns)
		if err != nil {
			return nil, err
		}
		return aforix.Generate(decl)
	case declara.Form720:
		decl, err := declara.Declare720(ledger, declarant, &p.warns)
		if err != nil {
			return nil, err
		}
		if len(decl.Lines) == 0 {
			return nil, nil
		}
		return modelo720.Generate(decl)
	default:
		return nil, fmt.Errorf("unknown form %q", form)
	}
}

func isZip(content []byte) bool {
	return bytes.HasPrefix(content, []byte("PK\x03\x04"))
}
