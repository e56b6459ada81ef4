package declara

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// declLedger assembles a one-outcome ledger for rule tests.
func declLedger(t *testing.T, year int, outcome *ParseOutcome, warns *Warnings) *Ledger {
	t.Helper()
	rates := NewRateTable("EUR")
	dec31 := NewDate(year, time.December, 31)
	rates.Add("USD", dec31, decimal.NewFromFloat(1.1372))
	rates.Add("GBP", dec31, decimal.NewFromFloat(0.8403))
	l, err := Assemble(year, []*ParseOutcome{outcome}, rates, warns)
	if err != nil {
		t.Fatal(err)
	}
	return l
}

var testDeclarant = Declarant{Name: "Niles", Surname: "Smith Doncic", NIF: "123456789A", Year: 2021}

func TestDeclarantFullName(t *testing.T) {
	if got, want := testDeclarant.FullName(), "SMITH DONCIC NILES"; got != want {
		t.Errorf("FullName() = %q, want %q", got, want)
	}
}

func TestDeclareD6(t *testing.T) {
	apple := testInstrument(t, "US0378331005", "APPLE")
	santander, err := NewInstrument("ES0113900J37", "BANCO SANTANDER", "SAN", "BME", Equity, "EUR")
	if err != nil {
		t.Fatal(err)
	}
	dec31 := NewDate(2021, time.December, 31)

	outcome := &ParseOutcome{Positions: []PositionSnapshot{
		{Instrument: apple, Quantity: Q(10), Value: M(1700, "USD"), AsOf: dec31, Broker: Degiro},
		// A Spanish security at a foreign custodian is category 800.
		{Instrument: santander, Quantity: Q(100), Value: M(294, "EUR"), AsOf: dec31, Broker: Degiro},
		// A mid-year snapshot is not a year-end position.
		{Instrument: apple, Quantity: Q(4), Value: M(600, "USD"), AsOf: NewDate(2021, time.June, 30), Broker: Degiro},
	}}

	var warns Warnings
	l := declLedger(t, 2021, outcome, &warns)
	decl, err := DeclareD6(l, testDeclarant, &warns)
	if err != nil {
		t.Fatal(err)
	}
	if decl.Form != FormD6 {
		t.Errorf("Form = %q", decl.Form)
	}
	if len(decl.Lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(decl.Lines))
	}
	// Lines are sorted by category: 400 before 800.
	if decl.Lines[0].Category != "400" || decl.Lines[0].Instrument != apple {
		t.Errorf("line 0 = %s %s", decl.Lines[0].Category, decl.Lines[0].Instrument)
	}
	if decl.Lines[1].Category != "800" || decl.Lines[1].Instrument != santander {
		t.Errorf("line 1 = %s %s", decl.Lines[1].Category, decl.Lines[1].Instrument)
	}
}

func TestDeclareD6ExcludesUnverified(t *testing.T) {
	apple := testInstrument(t, "US0378331005", "APPLE")
	mystery := NewPlaceholder("Mystery Corp", "", "XET", Equity, "EUR")
	dec31 := NewDate(2021, time.December, 31)

	outcome := &ParseOutcome{Positions: []PositionSnapshot{
		{Instrument: apple, Quantity: Q(10), Value: M(1700, "USD"), AsOf: dec31, Broker: Degiro},
		{Instrument: mystery, Quantity: Q(3), Value: M(100, "EUR"), AsOf: dec31, Broker: Degiro},
	}}

	var warns Warnings
	l := declLedger(t, 2021, outcome, &warns)
	decl, err := DeclareD6(l, testDeclarant, &warns)
	if err != nil {
		t.Fatal(err)
	}
	if len(decl.Lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(decl.Lines))
	}
	if !warns.Has(WarnExcludedInstrument) {
		t.Error("excluding an unverified instrument must warn")
	}
}

func TestDeclareD6SkipsSpanishCustody(t *testing.T) {
	apple := testInstrument(t, "US0378331005", "APPLE")
	dec31 := NewDate(2021, time.December, 31)
	spanishBroker := Broker{Name: "BME Broker", Country: "ES"}

	outcome := &ParseOutcome{Positions: []PositionSnapshot{
		{Instrument: apple, Quantity: Q(10), Value: M(1700, "USD"), AsOf: dec31, Broker: spanishBroker},
	}}

	var warns Warnings
	l := declLedger(t, 2021, outcome, &warns)
	decl, err := DeclareD6(l, testDeclarant, &warns)
	if err != nil {
		t.Fatal(err)
	}
	if len(decl.Lines) != 0 {
		t.Errorf("a position at a Spanish custodian is not deposited abroad, got %d lines", len(decl.Lines))
	}
}

func TestFoldGBX(t *testing.T) {
	burford := testInstrument(t, "GG00B4L84979", "BURFORD CAPITAL")
	dec31 := NewDate(2021, time.December, 31)

	outcome := &ParseOutcome{Positions: []PositionSnapshot{
		{Instrument: burford, Quantity: Q(122), Value: M(165600, "GBX"), ValueEUR: M(2020.32, "EUR"), AsOf: dec31, Broker: Degiro},
	}}

	var warns Warnings
	l := declLedger(t, 2021, outcome, &warns)
	decl, err := DeclareD6(l, testDeclarant, &warns)
	if err != nil {
		t.Fatal(err)
	}
	if len(decl.Lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(decl.Lines))
	}
	if got, want := decl.Lines[0].Value, M(1656, "GBP"); !got.Equal(want) {
		t.Errorf("Value = %v, want %v (GBX folded to GBP)", got, want)
	}
}

func TestDeclare720Threshold(t *testing.T) {
	apple := testInstrument(t, "US0378331005", "APPLE")
	dec31 := NewDate(2021, time.December, 31)

	below := &ParseOutcome{Positions: []PositionSnapshot{
		{Instrument: apple, Quantity: Q(10), Value: M(1700, "USD"), ValueEUR: M(1495, "EUR"), AsOf: dec31, Broker: Degiro},
	}}
	var warns Warnings
	l := declLedger(t, 2021, below, &warns)
	decl, err := Declare720(l, testDeclarant, &warns)
	if err != nil {
		t.Fatal(err)
	}
	if len(decl.Lines) != 0 {
		t.Errorf("below the threshold there is nothing to declare, got %d lines", len(decl.Lines))
	}
	if warns.Has(WarnExcludedInstrument) {
		t.Error("an empty 720 below the threshold is not a warning")
	}

	above := &ParseOutcome{Positions: []PositionSnapshot{
		{Instrument: apple, Quantity: Q(400), Value: M(68000, "USD"), ValueEUR: M(59796, "EUR"), AsOf: dec31, Broker: Degiro},
	}}
	l = declLedger(t, 2021, above, &warns)
	decl, err = Declare720(l, testDeclarant, &warns)
	if err != nil {
		t.Fatal(err)
	}
	if len(decl.Lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(decl.Lines))
	}
	if decl.Lines[0].Category != Aeat720Category {
		t.Errorf("Category = %q, want %q", decl.Lines[0].Category, Aeat720Category)
	}
	if got, want := decl.Lines[0].ValueEUR, M(59796, "EUR"); !got.Equal(want) {
		t.Errorf("ValueEUR = %v, want %v", got, want)
	}
}

func TestDeclare720ExactThreshold(t *testing.T) {
	apple := testInstrument(t, "US0378331005", "APPLE")
	dec31 := NewDate(2021, time.December, 31)

	// Exactly 50 000 EUR does not exceed the threshold.
	exact := &ParseOutcome{Positions: []PositionSnapshot{
		{Instrument: apple, Quantity: Q(100), Value: M(56860, "USD"), ValueEUR: M(50000, "EUR"), AsOf: dec31, Broker: Degiro},
	}}
	var warns Warnings
	l := declLedger(t, 2021, exact, &warns)
	decl, err := Declare720(l, testDeclarant, &warns)
	if err != nil {
		t.Fatal(err)
	}
	if len(decl.Lines) != 0 {
		t.Errorf("exactly at the threshold there is nothing to declare, got %d lines", len(decl.Lines))
	}
}
