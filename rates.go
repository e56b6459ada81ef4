package declara

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
)

// DefaultMaxRateGap is how many days a quoted exchange rate may predate the
// valuation date before it is considered unusable.
const DefaultMaxRateGap = 5

type ratePoint struct {
	on   Date
	rate decimal.Decimal
}

// RateTable holds exchange rates keyed by (currency, date), quoted as units
// of foreign currency per one unit of the reporting currency.
//
// When no rate exists for the exact date, the nearest earlier rate within
// MaxRateGap days is used and a stale-rate warning is attached. Beyond the
// gap the lookup fails with a MissingRateError.
type RateTable struct {
	base   string // reporting currency
	points map[string][]ratePoint
	sorted map[string]bool

	// MaxRateGap is the maximum age, in days, of a substituted rate.
	MaxRateGap int
}

// NewRateTable creates an empty table reporting in the given currency.
func NewRateTable(base string) *RateTable {
	return &RateTable{
		base:       base,
		points:     make(map[string][]ratePoint),
		sorted:     make(map[string]bool),
		MaxRateGap: DefaultMaxRateGap,
	}
}

// Base returns the reporting currency of the table.
func (t *RateTable) Base() string { return t.base }

// Add records the rate of one currency on one date. Adding the same
// (currency, date) twice keeps the last value.
func (t *RateTable) Add(currency string, on Date, rate decimal.Decimal) {
	list := t.points[currency]
	for i := range list {
		if list[i].on == on {
			list[i].rate = rate
			return
		}
	}
	t.points[currency] = append(list, ratePoint{on: on, rate: rate})
	t.sorted[currency] = false
}

// Rate returns the rate for the currency on the given date, substituting the
// nearest earlier rate within MaxRateGap days. It also returns the date the
// rate was actually quoted on.
func (t *RateTable) Rate(currency string, on Date) (decimal.Decimal, Date, error) {
	if currency == t.base {
		return decimal.NewFromInt(1), on, nil
	}
	list := t.points[currency]
	if !t.sorted[currency] {
		slices.SortFunc(list, func(a, b ratePoint) int { return a.on.Compare(b.on) })
		t.sorted[currency] = true
	}
	// latest point not after 'on'
	var best *ratePoint
	for i := range list {
		if list[i].on.After(on) {
			break
		}
		best = &list[i]
	}
	if best == nil || best.on.Before(on.AddDays(-t.MaxRateGap)) {
		return decimal.Decimal{}, Date{}, &MissingRateError{Currency: currency, Date: on}
	}
	return best.rate, best.on, nil
}

// Convert converts m to the reporting currency using the rate applicable on
// the given date. A substituted rate raises a stale-rate warning on warns.
func (t *RateTable) Convert(m Money, on Date, warns *Warnings) (Money, error) {
	if m.Currency() == t.base || m.Currency() == "" {
		return M(m.Amount(), t.base), nil
	}
	rate, quoted, err := t.Rate(m.Currency(), on)
	if err != nil {
		return Money{}, err
	}
	if quoted != on && warns != nil {
		warns.Addf(WarnStaleExchangeRate, "%s rate for %s substituted from %s", m.Currency(), on, quoted)
	}
	return M(m.Amount().Div(rate), t.base), nil
}

// LoadRates reads a table from a JSON rates document of the form
//
//	{
//	  "base": "EUR",
//	  "rates": {
//	    "USD": {"2021-12-30": 1.1326, "2021-12-31": 1.1372},
//	    "GBP": {"2021-12-31": 0.8403}
//	  }
//	}
func LoadRates(r io.Reader) (*RateTable, error) {
	var jobj any
	if err := json.NewDecoder(r).Decode(&jobj); err != nil {
		return nil, fmt.Errorf("invalid rates document: %w", err)
	}

	base := "EUR"
	if jval, err := jsonpath.Get("$.base", jobj); err == nil {
		if s, ok := jval.(string); ok && s != "" {
			base = s
		}
	}

	jval, err := jsonpath.Get("$.rates", jobj)
	if err != nil {
		return nil, fmt.Errorf("invalid rates document: %w", err)
	}
	byCurrency, ok := jval.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid rates document: rates is not an object")
	}

	t := NewRateTable(base)
	for currency, jdays := range byCurrency {
		days, ok := jdays.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("invalid rates for %q: not an object", currency)
		}
		for day, jrate := range days {
			on, err := ParseDate(day)
			if err != nil {
				return nil, fmt.Errorf("invalid rates for %q: %w", currency, err)
			}
			rate, ok := jrate.(float64)
			if !ok {
				return nil, fmt.Errorf("invalid rates for %q on %s: not a number", currency, day)
			}
			t.Add(currency, on, decimal.NewFromFloat(rate))
		}
	}
	return t, nil
}
