// Package degiro parses the documents a Degiro customer can download: the
// printable annual statement (as text, one cell per line), the portfolio CSV
// export, and the account CSV export carrying cash events such as dividends.
package degiro

import (
	"regexp"
	"strings"

	"github.com/etnz/declara"
)

// isinLine matches a text line holding exactly an ISIN, which is how product
// name groups are terminated in statement text.
var isinLine = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{9}[0-9]$`)

// assetClass infers the coarse asset class from the product-type label the
// statement prints.
func assetClass(productType string) declara.AssetClass {
	switch {
	case strings.Contains(strings.ToLower(productType), "etf"),
		strings.Contains(strings.ToLower(productType), "fond"),
		strings.Contains(strings.ToLower(productType), "fund"):
		return declara.Fund
	case strings.Contains(strings.ToLower(productType), "bono"),
		strings.Contains(strings.ToLower(productType), "bond"):
		return declara.Bond
	default:
		return declara.Equity
	}
}
