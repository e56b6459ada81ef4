package ibkr

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/etnz/declara"
	"github.com/etnz/declara/extract"
)

const csvDateLayout = "2006-01-02 15:04:05"

// The activity CSV interleaves many sections; rows are located by their
// leading constant columns, which depend on the report locale.
type csvLocale struct {
	contractsBegin    string
	contractsBeginOld string
	contractsRow      string
	positionsBegin    string
	positionsEnd      string
	positionsRow      string
	positionsTotal    string
	tradesBegin       string
	tradesBeginNoAcct string
	tradesEnd         string
	tradesRow         string
}

var enLocale = csvLocale{
	contractsBegin:    "Financial Instrument Information,Header,Asset Category,Symbol,Description,Conid,Security ID,Underlying,Listing Exch,Multiplier,Type,Code",
	contractsBeginOld: "Financial Instrument Information,Header,Asset Category,Symbol,Description,Conid,Security ID,Listing Exch,Multiplier,Type,Code",
	contractsRow:      "Financial Instrument Information,Data,Stocks,",
	positionsBegin:    "Open Positions,Header,DataDiscriminator,Asset Category,Currency,Symbol,Quantity,Mult,Cost Price,Cost Basis,Close Price,Value,Unrealized P/L,Code",
	positionsEnd:      "Open Positions,Total,,Stocks,EUR,",
	positionsRow:      "Open Positions,Data,Summary,Stocks,",
	positionsTotal:    "Open Positions,Total,,Stocks,",
	tradesBegin:       "Trades,Header,DataDiscriminator,Asset Category,Currency,Account,Symbol,Date/Time,Quantity,T. Price,C. Price,Proceeds,Comm/Fee,Basis,Realized P/L,MTM P/L,Code",
	tradesBeginNoAcct: "Trades,Header,DataDiscriminator,Asset Category,Currency,Symbol,Date/Time,Quantity,T. Price,C. Price,Proceeds,Comm/Fee,Basis,Realized P/L,MTM P/L,Code",
	tradesEnd:         "Trades,Total,",
	tradesRow:         "Trades,Data,Order,Stocks,",
}

var esLocale = csvLocale{
	contractsBegin:    "Información de instrumento financiero,Header,Categoría de activo,Símbolo,Descripción,Conid,Id. de seguridad,Underlying,Merc. de cotización,Multiplicador,Tipo,Código",
	contractsBeginOld: "Información de instrumento financiero,Header,Categoría de activo,Símbolo,Descripción,Conid,Id. de seguridad,Merc. de cotización,Multiplicador,Tipo,Código",
	contractsRow:      "Información de instrumento financiero,Data,Acciones,",
	positionsBegin:    "Posiciones abiertas,Header,DataDiscriminator,Categoría de activo,Divisa,Símbolo,Cantidad,Mult.,Precio de coste,Base de coste,Precio de cierre,Valor,PyG no realizadas,Código",
	positionsEnd:      "Posiciones abiertas,Total,,Acciones,EUR,",
	positionsRow:      "Posiciones abiertas,Data,Summary,Acciones,",
	positionsTotal:    "Posiciones abiertas,Total,,Acciones,",
	tradesBegin:       "Operaciones,Header,DataDiscriminator,Categoría de activo,Divisa,Cuenta,Símbolo,Fecha/Hora,Cantidad,Precio trans.,Precio de cier.,Productos,Tarifa/com.,Básico,PyG realizadas,MTM P/G,Código",
	tradesBeginNoAcct: "Operaciones,Header,DataDiscriminator,Categoría de activo,Divisa,Símbolo,Fecha/Hora,Cantidad,Precio trans.,Precio de cier.,Productos,Tarifa/com.,Básico,PyG realizadas,MTM P/G,Código",
	tradesEnd:         "Operaciones,Total,",
	tradesRow:         "Operaciones,Data,Order,Acciones,",
}

// esMarker, present in every Spanish-locale export, selects the locale.
const esMarker = "Statement,Header,Nombre del campo,Valor del campo"

// CSVParser parses the Interactive Brokers activity CSV export.
type CSVParser struct {
	Resolver *declara.Resolver
	Year     int
}

// Parse recovers trades and period-end positions from the export.
func (p *CSVParser) Parse(content []byte) (*declara.ParseOutcome, error) {
	text := string(content)
	locale := enLocale
	if strings.Contains(text, esMarker) {
		locale = esLocale
	}
	if !strings.Contains(text, locale.positionsBegin) && !strings.Contains(text, locale.tradesBegin) &&
		!strings.Contains(text, locale.tradesBeginNoAcct) {
		return nil, fmt.Errorf("ibkr csv: %w", declara.ErrFormatNotRecognized)
	}

	out := &declara.ParseOutcome{}
	info := parseCSVContracts(text, locale)
	p.parseCSVPositions(text, locale, info, out)
	p.parseCSVTrades(text, locale, info, out)

	if len(out.Positions) == 0 && len(out.Movements) == 0 {
		return nil, fmt.Errorf("ibkr csv: %w", declara.ErrNoDataExtracted)
	}
	return out, nil
}

// section cuts the lines between the first occurrence of begin (either
// variant) and the last occurrence of end.
func section(text, begin, beginAlt, end string) []string {
	start := strings.Index(text, begin)
	if start < 0 && beginAlt != "" {
		start = strings.Index(text, beginAlt)
	}
	if start < 0 {
		return nil
	}
	stop := strings.LastIndex(text, end)
	if stop < 0 || stop < start {
		stop = len(text)
	}
	return strings.Split(text[start:stop], "\n")
}

// fields splits a CSV line after folding quoted fields: commas inside quotes
// are dropped so that positional constants keep lining up.
func fields(line string) []string {
	var b strings.Builder
	quoted := false
	for _, r := range line {
		switch {
		case quoted && r == '"':
			quoted = false
		case quoted && r == ',':
		case r == '"':
			quoted = true
		default:
			b.WriteRune(r)
		}
	}
	return strings.Split(strings.TrimRight(b.String(), "\r"), ",")
}

// parseCSVContracts reads the instrument information section: asset
// category, symbol, description, conid, security id (ISIN).
func parseCSVContracts(text string, locale csvLocale) contracts {
	info := make(contracts)
	for _, line := range strings.Split(text, "\n") {
		if !strings.HasPrefix(line, locale.contractsRow) {
			continue
		}
		f := fields(line)
		if len(f) < 7 {
			continue
		}
		info[f[3]] = declara.Candidate{ISIN: f[6], Name: f[4], Ticker: f[3]}
	}
	return info
}

func (p *CSVParser) parseCSVPositions(text string, locale csvLocale, info contracts, out *declara.ParseOutcome) {
	asOf := declara.NewDate(p.Year, time.December, 31)
	lines := section(text, locale.positionsBegin, "", locale.positionsEnd)

	currency := ""
	var block []declara.PositionSnapshot
	flushEUR := func() {
		out.Positions = append(out.Positions, block...)
		block = nil
	}
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, locale.positionsRow):
			f := fields(line)
			if len(f) < 12 {
				out.Warnings.Addf(declara.WarnSkippedRow, "ibkr csv: short position row")
				continue
			}
			currency = f[4]
			snap, err := p.csvPosition(f, asOf, info)
			if err != nil {
				out.Warnings.Addf(declara.WarnSkippedRow, "ibkr csv: %v", err)
				continue
			}
			block = append(block, snap)
		case strings.HasPrefix(line, locale.positionsTotal):
			if currency == "EUR" {
				flushEUR()
				continue
			}
			f := fields(line)
			if len(f) > 11 {
				if totalEUR, err := decimal.NewFromString(extract.EnglishDecimal(f[11])); err == nil {
					revalue(block, totalEUR)
				} else {
					out.Warnings.Addf(declara.WarnSkippedRow, "ibkr csv: bad EUR total %q", f[11])
				}
			}
			out.Positions = append(out.Positions, block...)
			block = nil
		}
	}
	flushEUR()
}

// csvPosition builds one snapshot from a data row: currency f[4], symbol
// f[5], quantity f[6], multiplier f[7], close price f[10], value f[11].
func (p *CSVParser) csvPosition(f []string, asOf declara.Date, info contracts) (declara.PositionSnapshot, error) {
	var zero declara.PositionSnapshot
	currency := f[4]
	quantity, err := declara.ParseQuantity(extract.EnglishDecimal(f[6]))
	if err != nil {
		return zero, fmt.Errorf("bad quantity %q", f[6])
	}
	mult, err := declara.ParseQuantity(extract.EnglishDecimal(f[7]))
	if err != nil {
		return zero, fmt.Errorf("bad multiplier %q", f[7])
	}
	quantity = quantity.Mul(mult)
	price, err := declara.ParseMoney(extract.EnglishDecimal(f[10]), currency)
	if err != nil {
		return zero, fmt.Errorf("bad price %q", f[10])
	}
	value, err := declara.ParseMoney(extract.EnglishDecimal(f[11]), currency)
	if err != nil {
		return zero, fmt.Errorf("bad value %q", f[11])
	}
	var valueEUR declara.Money
	if currency == "EUR" {
		valueEUR = declara.M(value.Amount(), "EUR")
	}

	ins := p.Resolver.Resolve(info.candidate(f[5], currency))
	return declara.PositionSnapshot{
		Instrument: ins,
		Quantity:   quantity,
		Value:      price.Mul(quantity),
		ValueEUR:   valueEUR,
		AsOf:       asOf,
		Broker:     declara.InteractiveBrokers,
	}, nil
}

func (p *CSVParser) parseCSVTrades(text string, locale csvLocale, info contracts, out *declara.ParseOutcome) {
	lines := section(text, locale.tradesBegin, locale.tradesBeginNoAcct, locale.tradesEnd)
	for _, line := range lines {
		if !strings.HasPrefix(line, locale.tradesRow) {
			continue
		}
		f := fields(line)
		mov, err := p.csvTrade(f, info)
		if err != nil {
			out.Warnings.Addf(declara.WarnSkippedRow, "ibkr csv: %v", err)
			continue
		}
		out.Movements = append(out.Movements, mov)
	}
}

// csvTrade builds one movement from an order row. Rows without an account
// column have 16 fields, with it 17; the symbol is at 5 plus that offset.
func (p *CSVParser) csvTrade(f []string, info contracts) (declara.Movement, error) {
	var zero declara.Movement
	if len(f) < 16 {
		return zero, fmt.Errorf("short trade row, %d fields", len(f))
	}
	offset := 0
	if len(f) != 16 {
		offset = 1
	}
	currency := f[4]
	date, err := declara.ParseDateLayout(csvDateLayout, f[6+offset])
	if err != nil {
		return zero, fmt.Errorf("bad date %q", f[6+offset])
	}
	quantity, err := declara.ParseQuantity(extract.EnglishDecimal(f[7+offset]))
	if err != nil {
		return zero, fmt.Errorf("bad quantity %q", f[7+offset])
	}
	kind := declara.Buy
	if quantity.IsNegative() {
		kind = declara.Sell
	}
	gross, err := declara.ParseMoney(extract.EnglishDecimal(f[10+offset]), currency)
	if err != nil {
		return zero, fmt.Errorf("bad proceeds %q", f[10+offset])
	}
	fees, err := declara.ParseMoney(extract.EnglishDecimal(f[11+offset]), currency)
	if err != nil {
		return zero, fmt.Errorf("bad commission %q", f[11+offset])
	}

	ins := p.Resolver.Resolve(info.candidate(f[5+offset], currency))
	return declara.Movement{
		Kind:       kind,
		Instrument: ins,
		TradeDate:  date,
		Quantity:   quantity,
		Gross:      gross.Abs(),
		Fees:       fees.Abs(),
		Broker:     declara.InteractiveBrokers,
	}, nil
}
