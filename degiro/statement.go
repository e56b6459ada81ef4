package degiro

import (
	"fmt"
	"strings"
	"time"

	"github.com/etnz/declara"
	"github.com/etnz/declara/extract"
)

// Markers delimiting the two sections of the printable annual statement. The
// transaction header repeats at every page break, one wrapped label per line.
const (
	balanceBegin = "\nCASH & CASH FUND (EUR)\n"
	balanceEnd   = "Amsterdam, "

	notesEnd   = "Informe anual de flatex"
	notesBegin = `
Fecha
Producto
Symbol/ISIN
Tipo de
orden
Cantidad
Precio
Valor local
Valor en EUR
Comisión
Tipo de
cambio
Beneficios y
pérdidas`
)

// StatementParser parses the text of a Degiro printable annual statement.
// The text renders one table cell per line, Spanish locale throughout.
type StatementParser struct {
	Resolver *declara.Resolver
	Year     int // fiscal year; period-end positions are dated December 31
}

// Parse recovers the period-end positions and the year's trades.
//
// It returns ErrFormatNotRecognized when neither section marker is present,
// and ErrNoDataExtracted when the markers are there but no record could be
// read. Individually malformed records are skipped with a warning.
func (p *StatementParser) Parse(content []byte) (*declara.ParseOutcome, error) {
	text := string(content)
	if !strings.Contains(text, balanceBegin) && !strings.Contains(text, notesBegin) {
		return nil, fmt.Errorf("degiro statement: %w", declara.ErrFormatNotRecognized)
	}

	out := &declara.ParseOutcome{}
	asOf := declara.NewDate(p.Year, time.December, 31)

	for _, block := range extract.Sections(text, balanceBegin, balanceEnd) {
		p.parsePositions(block, asOf, out)
	}
	for _, block := range extract.Sections(text, notesBegin, notesEnd) {
		p.parseTrades(block, out)
	}

	if len(out.Positions) == 0 && len(out.Movements) == 0 {
		return nil, fmt.Errorf("degiro statement: %w", declara.ErrNoDataExtracted)
	}
	return out, nil
}

// parsePositions reads balance records from one section block. Each record
// is: value in EUR, price, currency, quantity, market, product type, one or
// more product name lines, ISIN.
func (p *StatementParser) parsePositions(block string, asOf declara.Date, out *declara.ParseOutcome) {
	lines := splitLines(block)
	i := 0
	for i < len(lines) {
		rec, next, err := readPosition(lines, i)
		if err != nil {
			// Not a record start: the section ran out.
			break
		}
		i = next

		ins := p.Resolver.Resolve(declara.Candidate{
			ISIN:     rec.isin,
			Name:     rec.name,
			Market:   rec.market,
			Class:    assetClass(rec.productType),
			Currency: rec.currency,
		})
		quantity, err := declara.ParseQuantity(extract.SpanishDecimal(rec.quantity))
		if err != nil {
			out.Warnings.Addf(declara.WarnSkippedRow, "degiro statement: position %s: bad quantity %q", rec.name, rec.quantity)
			continue
		}
		price, err := declara.ParseMoney(extract.SpanishDecimal(rec.price), rec.currency)
		if err != nil {
			out.Warnings.Addf(declara.WarnSkippedRow, "degiro statement: position %s: bad price %q", rec.name, rec.price)
			continue
		}
		valueEUR, err := declara.ParseMoney(extract.SpanishDecimal(rec.valueEUR), "EUR")
		if err != nil {
			out.Warnings.Addf(declara.WarnSkippedRow, "degiro statement: position %s: bad value %q", rec.name, rec.valueEUR)
			continue
		}
		out.Positions = append(out.Positions, declara.PositionSnapshot{
			Instrument: ins,
			Quantity:   quantity,
			Value:      price.Mul(quantity),
			ValueEUR:   valueEUR,
			AsOf:       asOf,
			Broker:     declara.Degiro,
		})
	}
}

type positionRecord struct {
	valueEUR    string
	price       string
	currency    string
	quantity    string
	market      string
	productType string
	name        string
	isin        string
}

// readPosition reads one balance record starting at lines[i]. It returns the
// index of the first unread line.
func readPosition(lines []string, i int) (rec positionRecord, next int, err error) {
	need := func(what string) (string, error) {
		if i >= len(lines) {
			return "", fmt.Errorf("truncated record, missing %s", what)
		}
		s := lines[i]
		i++
		return s, nil
	}

	if rec.valueEUR, err = need("value"); err != nil || !isSpanishNumber(rec.valueEUR) {
		return rec, i, fmt.Errorf("not a balance record")
	}
	if rec.price, err = need("price"); err != nil {
		return rec, i, err
	}
	if rec.currency, err = need("currency"); err != nil {
		return rec, i, err
	}
	if rec.quantity, err = need("quantity"); err != nil {
		return rec, i, err
	}
	if rec.market, err = need("market"); err != nil {
		return rec, i, err
	}
	if rec.productType, err = need("product type"); err != nil {
		return rec, i, err
	}
	// Product name runs until the ISIN line.
	var name []string
	for {
		line, err := need("ISIN")
		if err != nil {
			return rec, i, err
		}
		if isinLine.MatchString(line) {
			rec.isin = line
			break
		}
		name = append(name, line)
		if len(name) > 4 {
			return rec, i, fmt.Errorf("no ISIN after product name")
		}
	}
	rec.name = strings.Join(name, " ")
	return rec, i, nil
}

// parseTrades reads transaction records from one section block. Each record
// is: date, product name lines, ISIN, operation (C/V), quantity, price,
// local value, value in EUR, commission, exchange rate, and an optional
// signed profit figure.
func (p *StatementParser) parseTrades(block string, out *declara.ParseOutcome) {
	lines := splitLines(block)
	i := 0
	for i < len(lines) {
		if !isStatementDate(lines[i]) {
			i++
			continue
		}
		mov, next, err := p.readTrade(lines, i)
		if err != nil {
			out.Warnings.Addf(declara.WarnSkippedRow, "degiro statement: line %d: %v", i+1, err)
			i++ // resync on the next date line
			continue
		}
		i = next
		out.Movements = append(out.Movements, mov)
	}
}

func (p *StatementParser) readTrade(lines []string, i int) (declara.Movement, int, error) {
	var zero declara.Movement
	need := func(what string) (string, error) {
		if i >= len(lines) {
			return "", fmt.Errorf("truncated trade, missing %s", what)
		}
		s := lines[i]
		i++
		return s, nil
	}

	dateLine, _ := need("date")
	date, err := declara.ParseDateLayout("2/1/2006", dateLine)
	if err != nil {
		return zero, i, err
	}

	var name []string
	var isin string
	for {
		line, err := need("ISIN")
		if err != nil {
			return zero, i, err
		}
		if isinLine.MatchString(line) {
			isin = line
			break
		}
		name = append(name, line)
		if len(name) > 4 {
			return zero, i, fmt.Errorf("no ISIN after product name")
		}
	}

	op, err := need("operation")
	if err != nil {
		return zero, i, err
	}
	kind := declara.Buy
	switch strings.ToUpper(op) {
	case "C":
	case "V":
		kind = declara.Sell
	default:
		return zero, i, fmt.Errorf("unknown operation %q", op)
	}

	var fields [6]string // quantity, price, local value, value EUR, commission, fx rate
	labels := [6]string{"quantity", "price", "value", "value in EUR", "commission", "exchange rate"}
	for j := range fields {
		if fields[j], err = need(labels[j]); err != nil {
			return zero, i, err
		}
	}
	// Optional signed profit, only on sells.
	if i < len(lines) && isSignedSpanishNumber(lines[i]) {
		i++
	}

	quantity, err := declara.ParseQuantity(extract.SpanishDecimal(fields[0]))
	if err != nil {
		return zero, i, fmt.Errorf("bad quantity %q", fields[0])
	}
	if kind == declara.Sell {
		quantity = quantity.Neg()
	}
	gross, err := declara.ParseMoney(extract.SpanishDecimal(fields[3]), "EUR")
	if err != nil {
		return zero, i, fmt.Errorf("bad value %q", fields[3])
	}
	fees, err := declara.ParseMoney(extract.SpanishDecimal(fields[4]), "EUR")
	if err != nil {
		return zero, i, fmt.Errorf("bad commission %q", fields[4])
	}

	ins := p.Resolver.Resolve(declara.Candidate{ISIN: isin, Name: strings.Join(name, " ")})
	return declara.Movement{
		Kind:       kind,
		Instrument: ins,
		TradeDate:  date,
		Quantity:   quantity,
		Gross:      gross,
		Fees:       fees,
		Broker:     declara.Degiro,
	}, i, nil
}

func splitLines(block string) []string {
	var lines []string
	for _, l := range strings.Split(block, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func isSpanishNumber(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' && r != ',' {
			return false
		}
	}
	return s[0] >= '0' && s[0] <= '9'
}

func isSignedSpanishNumber(s string) bool {
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		s = s[1:]
	}
	return strings.Contains(s, ",") && isSpanishNumber(s)
}

func isStatementDate(s string) bool {
	_, err := declara.ParseDateLayout("2/1/2006", s)
	return err == nil
}
