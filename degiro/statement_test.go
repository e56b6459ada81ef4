package degiro

import (
	"errors"
	"testing"
	"time"

	"github.com/etnz/declara"
)

// statementText mimics the text extracted from a printable annual
// statement: one table cell per line, Spanish locale, the transaction
// header repeated verbatim.
const statementText = `Informe Anual
Degiro B.V.

CASH & CASH FUND (EUR)
2020,32
13,574
GBX
122
LSE
Acciones
BURFORD CAPITAL LD
GG00B4L84979
2930,20
20,93
USD
140
NDQ
Acciones
JD.COM INC. - AMERICAN
DEPOSITARY
US47215P1066
Amsterdam, 20 de enero de 2020

Fecha
Producto
Symbol/ISIN
Tipo de
orden
Cantidad
Precio
Valor local
Valor en EUR
Comisión
Tipo de
cambio
Beneficios y
pérdidas
4/3/2019
JD.COM INC. - AMERICAN
DEPOSITARY
US47215P1066
C
140
21,50
3.010,00
2.667,14
0,54
1,1286
2/12/2019
BURFORD CAPITAL LD
GG00B4L84979
V
50
6,80
340,00
397,12
0,50
0,8561
+25,30
Informe anual de flatex
`

func TestStatementParse(t *testing.T) {
	var warns declara.Warnings
	p := &StatementParser{Resolver: declara.NewResolver(&warns), Year: 2019}

	out, err := p.Parse([]byte(statementText))
	if err != nil {
		t.Fatal(err)
	}

	if len(out.Positions) != 2 {
		t.Fatalf("got %d positions, want 2", len(out.Positions))
	}
	burford := out.Positions[0]
	if burford.Instrument.ISIN() != "GG00B4L84979" {
		t.Errorf("position 0 ISIN = %q", burford.Instrument.ISIN())
	}
	if burford.Instrument.Name() != "BURFORD CAPITAL LD" {
		t.Errorf("position 0 name = %q", burford.Instrument.Name())
	}
	if !burford.Quantity.Equal(declara.Q(122)) {
		t.Errorf("position 0 quantity = %v", burford.Quantity)
	}
	if want := declara.M(1656.028, "GBX"); !burford.Value.Equal(want) {
		t.Errorf("position 0 value = %v, want %v (price times quantity)", burford.Value, want)
	}
	if want := declara.M(2020.32, "EUR"); !burford.ValueEUR.Equal(want) {
		t.Errorf("position 0 euro value = %v, want %v", burford.ValueEUR, want)
	}
	if burford.AsOf != declara.NewDate(2019, time.December, 31) {
		t.Errorf("position 0 AsOf = %v", burford.AsOf)
	}

	jd := out.Positions[1]
	// The product name wraps over two lines.
	if jd.Instrument.Name() != "JD.COM INC. - AMERICAN DEPOSITARY" {
		t.Errorf("position 1 name = %q", jd.Instrument.Name())
	}
	if want := declara.M(2930.2, "USD"); !jd.Value.Equal(want) {
		t.Errorf("position 1 value = %v, want %v", jd.Value, want)
	}

	if len(out.Movements) != 2 {
		t.Fatalf("got %d movements, want 2", len(out.Movements))
	}
	buy := out.Movements[0]
	if buy.Kind != declara.Buy {
		t.Errorf("movement 0 kind = %q", buy.Kind)
	}
	if buy.TradeDate != declara.NewDate(2019, time.March, 4) {
		t.Errorf("movement 0 date = %v", buy.TradeDate)
	}
	if !buy.Quantity.Equal(declara.Q(140)) {
		t.Errorf("movement 0 quantity = %v", buy.Quantity)
	}
	if want := declara.M(2667.14, "EUR"); !buy.Gross.Equal(want) {
		t.Errorf("movement 0 gross = %v, want %v (the euro value column)", buy.Gross, want)
	}
	if want := declara.M(0.54, "EUR"); !buy.Fees.Equal(want) {
		t.Errorf("movement 0 fees = %v, want %v", buy.Fees, want)
	}

	sell := out.Movements[1]
	if sell.Kind != declara.Sell {
		t.Errorf("movement 1 kind = %q", sell.Kind)
	}
	// Sell quantities are negative so that replaying movements is a sum.
	if !sell.Quantity.Equal(declara.Q(-50)) {
		t.Errorf("movement 1 quantity = %v, want -50", sell.Quantity)
	}
	// The trade's instrument is the same *Instrument as the position's.
	if sell.Instrument != burford.Instrument {
		t.Error("trades and positions must share resolved instruments")
	}
}

func TestStatementParseRejects(t *testing.T) {
	p := &StatementParser{Resolver: declara.NewResolver(nil), Year: 2019}

	_, err := p.Parse([]byte("some,csv,file\n1,2,3\n"))
	if !errors.Is(err, declara.ErrFormatNotRecognized) {
		t.Errorf("Parse(csv) error = %v, want ErrFormatNotRecognized", err)
	}

	// Markers present but no readable record.
	empty := "x\n" + "\nCASH & CASH FUND (EUR)\n" + "Amsterdam, 20 de enero de 2020\n"
	_, err = p.Parse([]byte(empty))
	if !errors.Is(err, declara.ErrNoDataExtracted) {
		t.Errorf("Parse(empty) error = %v, want ErrNoDataExtracted", err)
	}
}
