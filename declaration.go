package declara

import "strings"

// FormKind names a target declaration form.
type FormKind string

const (
	// FormD6 is the D-6 form: securities deposited abroad, filed with the
	// ministry of economy, one line per position in native currency.
	FormD6 FormKind = "d6"
	// Form720 is the AEAT modelo 720: foreign assets above the reporting
	// threshold, fixed-width registers valued in euro.
	Form720 FormKind = "aeat720"
)

// Declarant is the person filing, as both forms print it.
type Declarant struct {
	Name    string
	Surname string
	NIF     string // Spanish tax identification number
	Phone   string
	Year    int // fiscal year declared
}

// FullName returns the declarant's name as the forms expect it, surname
// first, uppercased.
func (d Declarant) FullName() string {
	return strings.ToUpper(strings.TrimSpace(strings.TrimSpace(d.Surname) + " " + strings.TrimSpace(d.Name)))
}

// DeclarationLine is one row of a generated form. It is produced by a rule
// set, consumed by the matching generator, and never persisted.
type DeclarationLine struct {
	Category         string // legal category code of the target form
	Instrument       *Instrument
	Custody          Broker
	Quantity         Quantity
	Value            Money // native currency, D-6 valuation
	ValueEUR         Money // reporting currency, modelo 720 valuation
	FirstAcquisition Date
	Ownership        int // percent
}

// Declaration is the outcome of one rule set over one ledger, ready for its
// form generator.
type Declaration struct {
	Form      FormKind
	Declarant Declarant
	Lines     []DeclarationLine
}
