package aforix

import (
	"strings"
	"testing"
	"time"

	"github.com/etnz/declara"
)

var testDeclarant = declara.Declarant{
	Name:    "Niles",
	Surname: "Smith Doncic",
	NIF:     "123456789A",
	Year:    2019,
}

func line(t *testing.T, isin, name, category string, qty float64, value declara.Money) declara.DeclarationLine {
	t.Helper()
	ins, err := declara.NewInstrument(isin, name, "", "", declara.Equity, value.Currency())
	if err != nil {
		t.Fatal(err)
	}
	return declara.DeclarationLine{
		Category:         category,
		Instrument:       ins,
		Custody:          declara.Degiro,
		Quantity:         declara.Q(qty),
		Value:            value,
		FirstAcquisition: declara.NewDate(2019, time.March, 1),
		Ownership:        100,
	}
}

// campo renders the four lines of one field at Campos depth.
func campo(id, datos string) []string {
	return []string{
		"      <Campo>",
		"        <Codigo>" + id + "</Codigo>",
		"        <Datos>" + datos + "</Datos>",
		"      </Campo>",
	}
}

func TestGenerateGolden(t *testing.T) {
	decl := &declara.Declaration{
		Form:      declara.FormD6,
		Declarant: testDeclarant,
		Lines: []declara.DeclarationLine{
			line(t, "GG00B4L84979", "BURFORD CAPITAL", "400", 122, declara.M(1656, "GBP")),
		},
	}

	got, err := Generate(decl)
	if err != nil {
		t.Fatal(err)
	}

	var want []string
	want = append(want,
		`<?xml version="1.0" encoding="utf-8"?>`,
		"<Formulario>",
		"  <Tipo>D-6</Tipo>",
		"  <Version>R10</Version>",
		"  <Pagina>",
		"    <Tipo>D61</Tipo>",
		"    <Campos>",
	)
	// Declarant block: two unused ids before the name, seven before the
	// first record.
	want = append(want, campo("2DB", "D")...)
	want = append(want, campo("2DC", "2019")...)
	want = append(want, campo("2DF", "SMITH DONCIC NILES")...)
	want = append(want, campo("2E0", "123456789A")...)
	// The record: one unused id before the valuation.
	want = append(want, campo("2E8", "N")...)
	want = append(want, campo("2E9", "GG00B4L84979")...)
	want = append(want, campo("2EA", "BURFORD CAPITAL")...)
	want = append(want, campo("2EB", "400")...)
	want = append(want, campo("2EC", "01")...)
	want = append(want, campo("2ED", "NL")...)
	want = append(want, campo("2EE", "GBP")...)
	want = append(want, campo("2EF", "122")...)
	want = append(want, campo("2F1", "1656,00")...)
	want = append(want,
		"    </Campos>",
		"  </Pagina>",
		"</Formulario>",
	)

	if string(got) != strings.Join(want, "\r\n") {
		t.Errorf("Generate() mismatch:\ngot:\n%s\nwant:\n%s", got, strings.Join(want, "\r\n"))
	}
}

func TestGeneratePagination(t *testing.T) {
	decl := &declara.Declaration{
		Form:      declara.FormD6,
		Declarant: testDeclarant,
		Lines: []declara.DeclarationLine{
			line(t, "GG00B4L84979", "BURFORD CAPITAL", "400", 122, declara.M(1656, "GBP")),
			line(t, "US30303M1027", "FACEBOOK INC", "400", 21, declara.M(2752.89, "USD")),
			line(t, "US47215P1066", "JD.COM INC", "400", 140, declara.M(2930.2, "USD")),
			line(t, "IT0001447785", "MONDO TV", "400", 1105, declara.M(1319.37, "EUR")),
		},
	}

	got, err := Generate(decl)
	if err != nil {
		t.Fatal(err)
	}
	out := string(got)

	if n := strings.Count(out, "<Pagina>"); n != 2 {
		t.Fatalf("got %d pages, want 2 (3 records on the first page)", n)
	}
	if !strings.Contains(out, "<Tipo>D61</Tipo>") || !strings.Contains(out, "<Tipo>D62</Tipo>") {
		t.Error("first page must be D61, later pages D62")
	}

	// Record start ids: three on page one, the fourth on page two.
	anchors := []struct{ id, datos string }{
		{"2E8", "N"},
		{"2F4", "N"},
		{"300", "N"},
		{"320", "D"},  // page two restarts the declarant block
		{"323", "123456789A"},
		{"326", "N"},
		{"32F", "1319,37"}, // fourth record valuation
	}
	for _, a := range anchors {
		snippet := strings.Join(campo(a.id, a.datos), "\r\n")
		if !strings.Contains(out, snippet) {
			t.Errorf("output misses field %s = %q", a.id, a.datos)
		}
	}

	// Valuations keep two decimals with the Spanish separator.
	for _, v := range []string{"2752,89", "2930,20", "1319,37"} {
		if !strings.Contains(out, "<Datos>"+v+"</Datos>") {
			t.Errorf("output misses valuation %q", v)
		}
	}
}

func TestGenerateRejects(t *testing.T) {
	// Wrong form kind.
	decl := &declara.Declaration{Form: declara.Form720, Declarant: testDeclarant}
	if _, err := Generate(decl); err == nil {
		t.Error("Generate must reject a non-D6 declaration")
	}

	// Unverified instrument.
	decl = &declara.Declaration{
		Form:      declara.FormD6,
		Declarant: testDeclarant,
		Lines: []declara.DeclarationLine{{
			Category:   "400",
			Instrument: declara.NewPlaceholder("Mystery", "", "", declara.Equity, "EUR"),
			Custody:    declara.Degiro,
			Quantity:   declara.Q(1),
			Value:      declara.M(1, "EUR"),
		}},
	}
	if _, err := Generate(decl); err == nil {
		t.Error("Generate must reject a line without a verified ISIN")
	}
}
