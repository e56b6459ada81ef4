package degiro

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/etnz/declara"
	"github.com/etnz/declara/extract"
)

// AccountParser parses the Degiro account CSV export, the cash-movement
// journal where dividends, withholdings, fees and interest live. Trades also
// appear here but the annual statement is their authoritative source, so
// this parser only recovers cash events.
type AccountParser struct {
	Resolver *declara.Resolver
}

// accountRow is one CSV record, named by column.
type accountRow struct {
	date        string // 02-01-2006
	name        string
	isin        string
	description string
	currency    string
	amount      string
}

// Parse recovers dividend, fee, interest and transfer movements.
//
// A dividend and its withholding arrive as two rows sharing ISIN and date;
// they are folded into one movement with the withholding carried as its fee.
func (p *AccountParser) Parse(content []byte) (*declara.ParseOutcome, error) {
	rdr := csv.NewReader(bytes.NewReader(content))
	rdr.FieldsPerRecord = -1

	header, err := rdr.Read()
	if err != nil || len(header) < 9 || header[0] != "Fecha" || header[4] != "ISIN" {
		return nil, fmt.Errorf("degiro account: %w", declara.ErrFormatNotRecognized)
	}

	out := &declara.ParseOutcome{}
	// dividend rows waiting for their withholding row, by ISIN+date
	pending := make(map[string]int) // index into out.Movements
	line := 1
	for {
		record, err := rdr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			out.Warnings.Addf(declara.WarnSkippedRow, "degiro account: line %d: %v", line, err)
			continue
		}
		if len(record) < 9 {
			continue
		}
		row := accountRow{
			date:        record[0],
			name:        record[3],
			isin:        strings.TrimSpace(record[4]),
			description: record[5],
			currency:    record[7],
			amount:      record[8],
		}
		if row.amount == "" {
			continue
		}

		kind, withholding := classify(row.description)
		if kind == "" {
			continue
		}
		date, err := declara.ParseDateLayout("02-01-2006", row.date)
		if err != nil {
			out.Warnings.Addf(declara.WarnSkippedRow, "degiro account: line %d: bad date %q", line, row.date)
			continue
		}
		amount, err := declara.ParseMoney(extract.SpanishDecimal(row.amount), row.currency)
		if err != nil {
			out.Warnings.Addf(declara.WarnSkippedRow, "degiro account: line %d: bad amount %q", line, row.amount)
			continue
		}

		var ins *declara.Instrument
		if row.isin != "" {
			ins = p.Resolver.Resolve(declara.Candidate{ISIN: row.isin, Name: row.name})
		}

		if withholding {
			// Withholding is negative in the journal; it becomes the fee of
			// the dividend it belongs to.
			if i, ok := pending[row.isin+row.date]; ok {
				out.Movements[i].Fees = out.Movements[i].Fees.Add(amount.Abs())
				continue
			}
			out.Warnings.Addf(declara.WarnSkippedRow, "degiro account: line %d: withholding without dividend for %s", line, row.isin)
			continue
		}

		mov := declara.Movement{
			Kind:       kind,
			Instrument: ins,
			TradeDate:  date,
			Gross:      amount,
			Broker:     declara.Degiro,
		}
		out.Movements = append(out.Movements, mov)
		if kind == declara.Dividend {
			pending[row.isin+row.date] = len(out.Movements) - 1
		}
	}

	if len(out.Movements) == 0 {
		return nil, fmt.Errorf("degiro account: %w", declara.ErrNoDataExtracted)
	}
	return out, nil
}

// classify maps a journal description to a movement kind. Unrecognized
// descriptions (cash sweeps, product changes, the trade echoes) are not cash
// events this parser reports; they are skipped without a warning.
func classify(description string) (kind declara.MovementKind, withholding bool) {
	desc := strings.ToLower(description)
	switch {
	case strings.Contains(desc, "retención del dividendo"),
		strings.Contains(desc, "imposto sobre dividendo"):
		return declara.Dividend, true
	case strings.Contains(desc, "dividendo"):
		return declara.Dividend, false
	case strings.Contains(desc, "comisión"), strings.Contains(desc, "costes de conectividad"):
		return declara.Fee, false
	case strings.Contains(desc, "interés"):
		return declara.Interest, false
	case strings.Contains(desc, "cambio de divisa"):
		return declara.Exchange, false
	case strings.Contains(desc, "depósito"), strings.Contains(desc, "retirada"),
		strings.Contains(desc, "flatex deposit"):
		return declara.Transfer, false
	default:
		return "", false
	}
}
