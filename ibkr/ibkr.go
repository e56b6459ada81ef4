// Package ibkr parses Interactive Brokers activity reports, both the
// rendered HTML statement and the activity CSV export (English or Spanish
// locale). Securities are keyed by ticker in the report body; the financial
// instrument information section maps tickers back to names and ISINs.
package ibkr

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/etnz/declara"
)

// stocksLabels are the asset-category labels opening a stocks block, per
// report locale.
var stocksLabels = map[string]bool{"Stocks": true, "Acciones": true}

// revalue rescales a non-EUR currency block against the EUR total the report
// prints for it. Each position's EUR value is its share of the block total,
// rounded to cents.
func revalue(block []declara.PositionSnapshot, totalEUR decimal.Decimal) {
	sum := decimal.Zero
	for _, p := range block {
		sum = sum.Add(p.Value.Amount())
	}
	if sum.IsZero() {
		return
	}
	for i := range block {
		eur := block[i].Value.Amount().Mul(totalEUR).Div(sum).Round(2)
		block[i].ValueEUR = declara.M(eur, "EUR")
	}
}

// contracts maps tickers to the identity candidates found in the instrument
// information section.
type contracts map[string]declara.Candidate

// candidate returns the identity for a ticker, falling back to the bare
// ticker when the instrument section does not list it.
func (c contracts) candidate(ticker, currency string) declara.Candidate {
	if cand, ok := c[ticker]; ok {
		cand.Currency = currency
		return cand
	}
	return declara.Candidate{Name: ticker, Ticker: ticker, Currency: currency}
}

// hasClass reports whether a space-separated class attribute contains name.
func hasClass(attr, name string) bool {
	for _, c := range strings.Fields(attr) {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}
