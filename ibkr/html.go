package ibkr

import (
	"bytes"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/etnz/declara"
	"github.com/etnz/declara/extract"
)

// goquery selectors for the three report sections. The trailing underscore
// in the ids separates the section tables from their navigation anchors.
const (
	openPositionsSelector = `div[id^="tblOpenPositions_"] div table`
	contractInfoSelector  = `div[id^="tblContractInfo"] div table`
	transactionsSelector  = `div[id^="tblTransactions_"] div table`
)

const htmlDateLayout = "2006-01-02, 15:04:05"

// rowState drives the walk over a section's rows: currency blocks open with
// a header row and close with a total or subtotal row.
type rowState int

const (
	stateInvalid rowState = iota
	stateStocks
	stateNote
	stateTotal
)

// HTMLParser parses the rendered HTML activity statement.
type HTMLParser struct {
	Resolver *declara.Resolver
	Year     int
}

// Parse recovers trades and period-end positions from the statement.
func (p *HTMLParser) Parse(content []byte) (*declara.ParseOutcome, error) {
	out := &declara.ParseOutcome{}

	info := p.parseContracts(content)

	positions, err := extract.HTMLTables(bytes.NewReader(content), openPositionsSelector)
	if err != nil {
		return nil, fmt.Errorf("ibkr html: %w", err)
	}
	p.parsePositions(positions[0], info, out)

	if transactions, err := extract.HTMLTables(bytes.NewReader(content), transactionsSelector); err == nil {
		p.parseTrades(transactions[0], info, out)
	}

	if len(out.Positions) == 0 && len(out.Movements) == 0 {
		return nil, fmt.Errorf("ibkr html: %w", declara.ErrNoDataExtracted)
	}
	return out, nil
}

// parseContracts reads the financial instrument information tables: rows of
// ticker, name, exchange, ISIN under a stocks header.
func (p *HTMLParser) parseContracts(content []byte) contracts {
	info := make(contracts)
	tables, err := extract.HTMLTables(bytes.NewReader(content), contractInfoSelector)
	if err != nil {
		return info
	}
	for _, t := range tables {
		inStocks := false
		for _, row := range t.Rows {
			if len(row.Cells) == 0 {
				continue
			}
			if hasClass(row.LeadClass, "header-asset") {
				inStocks = stocksLabels[row.Cells[0]]
				continue
			}
			if !inStocks || len(row.Cells) < 4 {
				continue
			}
			info[row.Cells[0]] = declara.Candidate{
				ISIN:   row.Cells[3],
				Name:   row.Cells[1],
				Ticker: row.Cells[0],
			}
		}
	}
	return info
}

// parsePositions walks the open positions table. Rows arrive grouped by
// currency; a non-EUR block's EUR values are recomputed proportionally from
// the EUR total closing the block.
func (p *HTMLParser) parsePositions(t extract.Table, info contracts, out *declara.ParseOutcome) {
	asOf := declara.NewDate(p.Year, time.December, 31)
	state := stateInvalid
	currency := ""
	var block []declara.PositionSnapshot

	for _, row := range t.Rows {
		if len(row.Cells) == 0 {
			continue
		}
		switch state {
		case stateInvalid:
			if stocksLabels[row.Cells[0]] {
				state = stateStocks
			}
		case stateStocks:
			if hasClass(row.LeadClass, "header-currency") {
				currency = row.Cells[0]
				state = stateNote
			} else {
				state = stateInvalid
			}
		case stateNote:
			if hasClass(row.Class, "total") || hasClass(row.Class, "subtotal") {
				if currency == "EUR" {
					state = stateStocks
					out.Positions = append(out.Positions, block...)
					block = nil
				} else {
					state = stateTotal
				}
				continue
			}
			snap, err := p.position(row.Cells, currency, asOf, info)
			if err != nil {
				out.Warnings.Addf(declara.WarnSkippedRow, "ibkr html: position row %d: %v", row.Line, err)
				continue
			}
			block = append(block, snap)
		case stateTotal:
			if hasClass(row.Class, "total") && len(row.Cells) > 5 {
				totalEUR, err := decimal.NewFromString(extract.EnglishDecimal(row.Cells[5]))
				if err == nil {
					revalue(block, totalEUR)
				} else {
					out.Warnings.Addf(declara.WarnSkippedRow, "ibkr html: bad EUR total %q", row.Cells[5])
				}
				state = stateStocks
			} else {
				state = stateInvalid
			}
			out.Positions = append(out.Positions, block...)
			block = nil
		}
	}
}

// position builds one snapshot from a data row: ticker, quantity,
// multiplier, cost price, cost basis, close price, value.
func (p *HTMLParser) position(cells []string, currency string, asOf declara.Date, info contracts) (declara.PositionSnapshot, error) {
	var zero declara.PositionSnapshot
	if len(cells) < 7 {
		return zero, fmt.Errorf("short row, %d cells", len(cells))
	}
	quantity, err := declara.ParseQuantity(extract.EnglishDecimal(cells[1]))
	if err != nil {
		return zero, fmt.Errorf("bad quantity %q", cells[1])
	}
	mult, err := declara.ParseQuantity(extract.EnglishDecimal(cells[2]))
	if err != nil {
		return zero, fmt.Errorf("bad multiplier %q", cells[2])
	}
	quantity = quantity.Mul(mult)
	price, err := declara.ParseMoney(extract.EnglishDecimal(cells[5]), currency)
	if err != nil {
		return zero, fmt.Errorf("bad price %q", cells[5])
	}
	value, err := declara.ParseMoney(extract.EnglishDecimal(cells[6]), currency)
	if err != nil {
		return zero, fmt.Errorf("bad value %q", cells[6])
	}
	var valueEUR declara.Money
	if currency == "EUR" {
		valueEUR = declara.M(value.Amount(), "EUR")
	}

	ins := p.Resolver.Resolve(info.candidate(cells[0], currency))
	return declara.PositionSnapshot{
		Instrument: ins,
		Quantity:   quantity,
		Value:      price.Mul(quantity),
		ValueEUR:   valueEUR,
		AsOf:       asOf,
		Broker:     declara.InteractiveBrokers,
	}, nil
}

// parseTrades walks the transactions table; only order summary rows carry a
// trade, one per row.
func (p *HTMLParser) parseTrades(t extract.Table, info contracts, out *declara.ParseOutcome) {
	// Older reports prepend an account column to every row.
	offset := 0
	for _, h := range t.Header {
		if h == "Account" {
			offset = 1
			break
		}
	}

	state := stateInvalid
	currency := ""
	for _, row := range t.Rows {
		if len(row.Cells) == 0 {
			continue
		}
		switch state {
		case stateInvalid:
			if stocksLabels[row.Cells[0]] {
				state = stateStocks
			}
		case stateStocks:
			if hasClass(row.LeadClass, "header-currency") {
				currency = row.Cells[0]
				state = stateNote
			} else {
				state = stateInvalid
			}
		case stateNote:
			if hasClass(row.Class, "row-summary") {
				mov, err := p.trade(row.Cells, offset, currency, info)
				if err != nil {
					out.Warnings.Addf(declara.WarnSkippedRow, "ibkr html: trade row %d: %v", row.Line, err)
					continue
				}
				out.Movements = append(out.Movements, mov)
			} else if hasClass(row.LeadClass, "header-asset") {
				state = stateInvalid
			} else if hasClass(row.LeadClass, "header-currency") {
				currency = row.Cells[0]
			}
		}
	}
}

// trade builds one movement from an order summary row: ticker, date/time,
// quantity, transaction price, close price, proceeds, commission.
func (p *HTMLParser) trade(cells []string, offset int, currency string, info contracts) (declara.Movement, error) {
	var zero declara.Movement
	if len(cells) < 7+offset {
		return zero, fmt.Errorf("short row, %d cells", len(cells))
	}
	date, err := declara.ParseDateLayout(htmlDateLayout, cells[1+offset])
	if err != nil {
		return zero, fmt.Errorf("bad date %q", cells[1+offset])
	}
	quantity, err := declara.ParseQuantity(extract.EnglishDecimal(cells[2+offset]))
	if err != nil {
		return zero, fmt.Errorf("bad quantity %q", cells[2+offset])
	}
	kind := declara.Buy
	if quantity.IsNegative() {
		kind = declara.Sell
	}
	gross, err := declara.ParseMoney(extract.EnglishDecimal(cells[5+offset]), currency)
	if err != nil {
		return zero, fmt.Errorf("bad proceeds %q", cells[5+offset])
	}
	fees, err := declara.ParseMoney(extract.EnglishDecimal(cells[6+offset]), currency)
	if err != nil {
		return zero, fmt.Errorf("bad commission %q", cells[6+offset])
	}

	ins := p.Resolver.Resolve(info.candidate(cells[offset], currency))
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
