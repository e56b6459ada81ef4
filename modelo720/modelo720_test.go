package modelo720

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/etnz/declara"
)

var testDeclarant = declara.Declarant{
	Name:    "Niles",
	Surname: "Smith Doncic",
	NIF:     "12345678A",
	Year:    2021,
}

func testDeclaration(t *testing.T, lines ...declara.DeclarationLine) *declara.Declaration {
	t.Helper()
	return &declara.Declaration{
		Form:      declara.Form720,
		Declarant: testDeclarant,
		Lines:     lines,
	}
}

func testLine(t *testing.T, isin, name string, qty float64, valueEUR float64) declara.DeclarationLine {
	t.Helper()
	ins, err := declara.NewInstrument(isin, name, "", "", declara.Equity, "USD")
	if err != nil {
		t.Fatal(err)
	}
	return declara.DeclarationLine{
		Category:         declara.Aeat720Category,
		Instrument:       ins,
		Custody:          declara.InteractiveBrokers,
		Quantity:         declara.Q(qty),
		ValueEUR:         declara.M(valueEUR, "EUR"),
		FirstAcquisition: declara.NewDate(2021, time.March, 4),
		Ownership:        100,
	}
}

// field cuts a 1-based inclusive range out of a register line.
func field(register string, begin, end int) string {
	return register[begin-1 : end]
}

func TestGenerateLayout(t *testing.T) {
	decl := testDeclaration(t, testLine(t, "US0378331005", "Apple Inc", 122.75, 59796.5))

	out, err := Generate(decl)
	if err != nil {
		t.Fatal(err)
	}

	registers := strings.Split(strings.TrimSuffix(string(out), "\n"), "\n")
	if len(registers) != 2 {
		t.Fatalf("got %d registers, want summary plus one detail", len(registers))
	}
	for i, reg := range registers {
		if len(reg) != 500 {
			t.Fatalf("register %d is %d bytes, want 500", i, len(reg))
		}
	}

	summary := registers[0]
	tests := []struct {
		name       string
		begin, end int
		want       string
	}{
		{"register type", 1, 1, "1"},
		{"model", 2, 4, "720"},
		{"year", 5, 8, "2021"},
		{"nif", 9, 17, "12345678A"},
		{"declarant", 18, 57, "SMITH DONCIC NILES" + strings.Repeat(" ", 22)},
		{"transmission", 58, 58, "T"},
		{"phone", 59, 67, "000000000"},
		{"record count", 136, 144, "000000001"},
		{"total sign", 145, 145, " "},
		{"total int", 146, 160, "000000000059796"},
		{"total frac", 161, 162, "50"},
	}
	for _, tt := range tests {
		t.Run("summary "+tt.name, func(t *testing.T) {
			if got := field(summary, tt.begin, tt.end); got != tt.want {
				t.Errorf("positions %d-%d = %q, want %q", tt.begin, tt.end, got, tt.want)
			}
		})
	}

	detail := registers[1]
	tests = []struct {
		name       string
		begin, end int
		want       string
	}{
		{"register type", 1, 1, "2"},
		{"model", 2, 4, "720"},
		{"year", 5, 8, "2021"},
		{"declarant nif", 9, 17, "12345678A"},
		{"asset key", 102, 102, "V"},
		{"asset subtype", 103, 103, "1"},
		{"custody country", 129, 130, "IE"},
		{"isin flag", 131, 131, "1"},
		{"isin", 132, 143, "US0378331005"},
		{"name", 190, 230, "APPLE INC" + strings.Repeat(" ", 32)},
		{"issuer country", 413, 414, "US"},
		{"acquisition date", 415, 422, "20210304"},
		{"origin", 423, 423, "A"},
		{"value sign", 432, 432, " "},
		{"value int", 433, 444, "000000059796"},
		{"value frac", 445, 446, "50"},
		{"representation", 462, 462, "A"},
		{"quantity int", 463, 472, "0000000122"},
		{"quantity frac", 473, 474, "75"},
		{"ownership", 476, 478, "100"},
	}
	for _, tt := range tests {
		t.Run("detail "+tt.name, func(t *testing.T) {
			if got := field(detail, tt.begin, tt.end); got != tt.want {
				t.Errorf("positions %d-%d = %q, want %q", tt.begin, tt.end, got, tt.want)
			}
		})
	}
}

func TestGenerateNegativeAmount(t *testing.T) {
	decl := testDeclaration(t, testLine(t, "US0378331005", "Apple Inc", 10, -10.5))
	out, err := Generate(decl)
	if err != nil {
		t.Fatal(err)
	}
	summary := strings.Split(string(out), "\n")[0]
	if got := field(summary, 145, 145); got != string(negativeSign) {
		t.Errorf("negative total sign = %q, want %q", got, string(negativeSign))
	}
	if got := field(summary, 146, 160); got != "000000000000010" {
		t.Errorf("negative total int = %q", got)
	}
	if got := field(summary, 161, 162); got != "50" {
		t.Errorf("negative total frac = %q", got)
	}
}

func TestGenerateOverflow(t *testing.T) {
	// An ownership share wider than its field must abort, not truncate.
	line := testLine(t, "US0378331005", "Apple Inc", 10, 1000)
	line.Ownership = 1000
	_, err := Generate(testDeclaration(t, line))
	var overflow *declara.FieldOverflowError
	if !errors.As(err, &overflow) {
		t.Fatalf("Generate() error = %v, want FieldOverflowError", err)
	}

	// A NIF longer than nine characters must abort too.
	decl := testDeclaration(t, testLine(t, "US0378331005", "Apple Inc", 10, 1000))
	decl.Declarant.NIF = "123456789A"
	if _, err := Generate(decl); !errors.As(err, &overflow) {
		t.Fatalf("Generate() error = %v, want FieldOverflowError", err)
	}
}

func TestGenerateRejects(t *testing.T) {
	decl := testDeclaration(t)
	decl.Form = declara.FormD6
	if _, err := Generate(decl); err == nil {
		t.Error("Generate must reject a non-720 declaration")
	}

	decl = testDeclaration(t, declara.DeclarationLine{
		Category:   declara.Aeat720Category,
		Instrument: declara.NewPlaceholder("Mystery", "", "", declara.Equity, "EUR"),
	})
	if _, err := Generate(decl); err == nil {
		t.Error("Generate must reject a line without a verified ISIN")
	}
}
