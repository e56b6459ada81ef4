package declara

// Threshold720 is the aggregate value of foreign securities below which the
// modelo 720 owes no declaration at all.
var Threshold720 = M(50_000, "EUR")

// Aeat720Category is the legal category for listed securities: key 'V'
// (valores), subtype 1 (shares in legal entities).
const Aeat720Category = "V1"

// Declare720 maps a ledger onto the AEAT modelo 720: period-end positions
// with a foreign custodian, valued in euro, one line each, only when their
// aggregate value reaches the legal threshold. Below it the declaration is
// legitimately empty and carries no warning.
//
// The first acquisition date is the earliest buy of the instrument in the
// period; positions that predate it keep January 1st of the fiscal year.
// Ownership is declared in full. Like DeclareD6, the function is pure.
func Declare720(l *Ledger, d Declarant, warns *Warnings) (*Declaration, error) {
	decl := &Declaration{Form: Form720, Declarant: d}
	total := M(0, "EUR")
	for p := range l.Positions() {
		if p.AsOf != l.PeriodEnd() {
			continue
		}
		if p.Broker.Country == "ES" {
			continue
		}
		if !p.Instrument.Verified() {
			warns.Addf(WarnExcludedInstrument, "modelo 720: %s has no verified ISIN, excluded", p.Instrument)
			continue
		}
		total = total.Add(p.ValueEUR)
		decl.Lines = append(decl.Lines, DeclarationLine{
			Category:         Aeat720Category,
			Instrument:       p.Instrument,
			Custody:          p.Broker,
			Quantity:         p.Quantity,
			Value:            foldGBX(p.Value),
			ValueEUR:         p.ValueEUR,
			FirstAcquisition: l.FirstAcquisition(p.Instrument),
			Ownership:        100,
		})
	}
	// The obligation only exists when the total strictly exceeds the
	// threshold; exactly 50 000 EUR owes nothing.
	if !total.GreaterThan(Threshold720) {
		decl.Lines = nil
		return decl, nil
	}
	sortLines(decl.Lines)
	return decl, nil
}
