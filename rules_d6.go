package declara

import (
	"slices"
	"strings"
)

// D-6 category codes: where the issuer sits relative to Spain.
const (
	d6CategoryForeign = "400" // foreign issuer
	d6CategorySpanish = "800" // Spanish issuer deposited abroad
)

// DeclareD6 maps a ledger onto the D-6 form: one line per period-end
// position held with a foreign custodian, valued at market in its native
// currency. There is no reporting threshold.
//
// Unverified instruments are excluded, with a warning: the form identifies
// each security by ISIN and a line without one would be rejected on filing.
// The function is pure: same ledger, same lines, byte for byte.
func DeclareD6(l *Ledger, d Declarant, warns *Warnings) (*Declaration, error) {
	decl := &Declaration{Form: FormD6, Declarant: d}
	for p := range l.Positions() {
		if p.AsOf != l.PeriodEnd() {
			continue
		}
		if p.Broker.Country == "ES" {
			continue
		}
		if !p.Instrument.Verified() {
			warns.Addf(WarnExcludedInstrument, "d6: %s has no verified ISIN, excluded", p.Instrument)
			continue
		}
		category := d6CategoryForeign
		if p.Instrument.Country() == "ES" {
			category = d6CategorySpanish
		}
		decl.Lines = append(decl.Lines, DeclarationLine{
			Category:         category,
			Instrument:       p.Instrument,
			Custody:          p.Broker,
			Quantity:         p.Quantity,
			Value:            foldGBX(p.Value),
			ValueEUR:         p.ValueEUR,
			FirstAcquisition: l.FirstAcquisition(p.Instrument),
			Ownership:        100,
		})
	}
	sortLines(decl.Lines)
	return decl, nil
}

// foldGBX converts a value quoted in penny sterling to pounds. The D-6 form
// has no GBX currency code.
func foldGBX(v Money) Money {
	if v.Currency() != "GBX" {
		return v
	}
	return M(v.Amount().Div(newDecimal(100)), "GBP")
}

// sortLines orders declaration lines by category, then ISIN, then custody
// broker. Both forms feed automated validation, so repeated runs over the
// same ledger must serialize identically.
func sortLines(lines []DeclarationLine) {
	slices.SortFunc(lines, func(a, b DeclarationLine) int {
		if a.Category != b.Category {
			return strings.Compare(a.Category, b.Category)
		}
		if c := strings.Compare(a.Instrument.Key(), b.Instrument.Key()); c != 0 {
			return c
		}
		return strings.Compare(a.Custody.Name, b.Custody.Name)
	})
}
