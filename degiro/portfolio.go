package degiro

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/etnz/declara"
	"github.com/etnz/declara/extract"
)

// PortfolioParser parses the Degiro portfolio CSV export, a positions-only
// snapshot with Spanish locale numbers. The "Valor local" column carries the
// currency as a prefix ("USD 2.541,00"); rows without an ISIN are cash and
// are skipped.
type PortfolioParser struct {
	Resolver *declara.Resolver
	Year     int
}

// Parse recovers the period-end positions from the CSV.
func (p *PortfolioParser) Parse(content []byte) (*declara.ParseOutcome, error) {
	rdr := csv.NewReader(bytes.NewReader(content))
	rdr.FieldsPerRecord = -1

	header, err := rdr.Read()
	if err != nil {
		return nil, fmt.Errorf("degiro portfolio: %w", declara.ErrFormatNotRecognized)
	}
	if len(header) < 6 || header[0] != "Producto" || header[1] != "Symbol/ISIN" {
		return nil, fmt.Errorf("degiro portfolio: %w", declara.ErrFormatNotRecognized)
	}

	out := &declara.ParseOutcome{}
	asOf := declara.NewDate(p.Year, time.December, 31)
	line := 1
	for {
		record, err := rdr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			out.Warnings.Addf(declara.WarnSkippedRow, "degiro portfolio: line %d: %v", line, err)
			continue
		}
		if len(record) < 6 || record[1] == "" {
			continue // cash row
		}

		currency := record[4]
		if i := strings.IndexByte(currency, ' '); i >= 0 {
			currency = currency[:i]
		}
		quantity, err := declara.ParseQuantity(extract.SpanishDecimal(record[2]))
		if err != nil {
			out.Warnings.Addf(declara.WarnSkippedRow, "degiro portfolio: line %d: bad quantity %q", line, record[2])
			continue
		}
		price, err := declara.ParseMoney(extract.SpanishDecimal(record[3]), currency)
		if err != nil {
			out.Warnings.Addf(declara.WarnSkippedRow, "degiro portfolio: line %d: bad price %q", line, record[3])
			continue
		}
		valueEUR, err := declara.ParseMoney(extract.SpanishDecimal(record[5]), "EUR")
		if err != nil {
			out.Warnings.Addf(declara.WarnSkippedRow, "degiro portfolio: line %d: bad value %q", line, record[5])
			continue
		}

		ins := p.Resolver.Resolve(declara.Candidate{
			ISIN:     record[1],
			Name:     record[0],
			Currency: currency,
		})
		out.Positions = append(out.Positions, declara.PositionSnapshot{
			Instrument: ins,
			Quantity:   quantity,
			Value:      price.Mul(quantity),
			ValueEUR:   valueEUR,
			AsOf:       asOf,
			Broker:     declara.Degiro,
		})
	}

	if len(out.Positions) == 0 {
		return nil, fmt.Errorf("degiro portfolio: %w", declara.ErrNoDataExtracted)
	}
	return out, nil
}
