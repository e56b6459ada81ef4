package degiro

import (
	"errors"
	"testing"
	"time"

	"github.com/etnz/declara"
)

const portfolioCSV = `Producto,Symbol/ISIN,Cantidad,Precio de,Valor local,Valor en EUR
ANGI HOMESERVICES INC- A,US00183L1026,300,"8,47","USD 2.541,00","2266,32"
CASH & CASH FUND (EUR),,,,EUR 21.15,"21,15"
MONDO TV,IT0001447785,1105,"1,194","EUR 1.319,37","1319,37"
`

func TestPortfolioParse(t *testing.T) {
	var warns declara.Warnings
	p := &PortfolioParser{Resolver: declara.NewResolver(&warns), Year: 2019}

	out, err := p.Parse([]byte(portfolioCSV))
	if err != nil {
		t.Fatal(err)
	}

	// The cash row has no ISIN and is not a position.
	if len(out.Positions) != 2 {
		t.Fatalf("got %d positions, want 2", len(out.Positions))
	}

	angi := out.Positions[0]
	if angi.Instrument.ISIN() != "US00183L1026" {
		t.Errorf("ISIN = %q", angi.Instrument.ISIN())
	}
	if !angi.Quantity.Equal(declara.Q(300)) {
		t.Errorf("quantity = %v", angi.Quantity)
	}
	// The currency comes from the "Valor local" prefix.
	if want := declara.M(2541, "USD"); !angi.Value.Equal(want) {
		t.Errorf("value = %v, want %v", angi.Value, want)
	}
	if want := declara.M(2266.32, "EUR"); !angi.ValueEUR.Equal(want) {
		t.Errorf("euro value = %v, want %v", angi.ValueEUR, want)
	}
	if angi.AsOf != declara.NewDate(2019, time.December, 31) {
		t.Errorf("AsOf = %v", angi.AsOf)
	}
	if angi.Broker != declara.Degiro {
		t.Errorf("broker = %v", angi.Broker)
	}

	mondo := out.Positions[1]
	if want := declara.M(1319.37, "EUR"); !mondo.Value.Equal(want) {
		t.Errorf("value = %v, want %v", mondo.Value, want)
	}
}

func TestPortfolioParseRejects(t *testing.T) {
	p := &PortfolioParser{Resolver: declara.NewResolver(nil), Year: 2019}

	_, err := p.Parse([]byte("Date,Qty,Price\n2019-01-01,1,2\n"))
	if !errors.Is(err, declara.ErrFormatNotRecognized) {
		t.Errorf("Parse() error = %v, want ErrFormatNotRecognized", err)
	}

	onlyCash := "Producto,Symbol/ISIN,Cantidad,Precio de,Valor local,Valor en EUR\n" +
		"CASH & CASH FUND (EUR),,,,\"EUR 21,15\",\"21,15\"\n"
	_, err = p.Parse([]byte(onlyCash))
	if !errors.Is(err, declara.ErrNoDataExtracted) {
		t.Errorf("Parse(cash only) error = %v, want ErrNoDataExtracted", err)
	}
}
