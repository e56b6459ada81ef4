package ibkr

import (
	"errors"
	"testing"
	"time"

	"github.com/etnz/declara"
)

// statementHTML is the skeleton of a rendered activity statement: the open
// positions grouped by currency, the transactions, and the instrument
// information mapping tickers to ISINs.
const statementHTML = `<html><body>
<div id="tblOpenPositions_1234"><div><table>
<thead><tr><th>Symbol</th><th>Quantity</th><th>Mult</th><th>Cost Price</th><th>Cost Basis</th><th>Close Price</th><th>Value</th></tr></thead>
<tbody>
<tr><td>Stocks</td></tr>
<tr><td class="header-currency">USD</td></tr>
<tr><td>AAPL</td><td>10</td><td>1</td><td>150.00</td><td>1,500.00</td><td>170.00</td><td>1,700.00</td></tr>
<tr><td>JD</td><td>20</td><td>1</td><td>30.00</td><td>600.00</td><td>35.00</td><td>700.00</td></tr>
<tr class="subtotal"><td>Total in USD</td><td></td><td></td><td></td><td>2,100.00</td><td></td><td>2,400.00</td></tr>
<tr class="total"><td>Total Stocks in EUR</td><td></td><td></td><td></td><td></td><td>2,134.56</td><td></td></tr>
<tr><td class="header-currency">EUR</td></tr>
<tr><td>SAN</td><td>100</td><td>1</td><td>3.50</td><td>350.00</td><td>2.94</td><td>294.00</td></tr>
<tr class="total"><td>Total in EUR</td><td></td><td></td><td></td><td>350.00</td><td></td><td>294.00</td></tr>
</tbody></table></div></div>
<div id="tblTransactions_1234"><div><table>
<thead><tr><th>Symbol</th><th>Date/Time</th><th>Quantity</th><th>T. Price</th><th>C. Price</th><th>Proceeds</th><th>Comm/Fee</th></tr></thead>
<tbody>
<tr><td>Stocks</td></tr>
<tr><td class="header-currency">USD</td></tr>
<tr class="row-summary"><td>AAPL</td><td>2019-12-05, 10:37:07</td><td>10</td><td>150.00</td><td>150.50</td><td>-1,500.00</td><td>-1.00</td></tr>
<tr class="row-summary"><td>AAPL</td><td>2019-12-20, 11:00:00</td><td>-5</td><td>160.00</td><td>161.00</td><td>800.00</td><td>-1.00</td></tr>
</tbody></table></div></div>
<div id="tblContractInfo1234"><div><table>
<tr><td class="header-asset">Stocks</td></tr>
<tr><td>AAPL</td><td>APPLE INC</td><td>NASDAQ</td><td>US0378331005</td></tr>
<tr><td>JD</td><td>JD.COM INC</td><td>NASDAQ</td><td>US47215P1066</td></tr>
<tr><td>SAN</td><td>BANCO SANTANDER</td><td>BME</td><td>ES0113900J37</td></tr>
</table></div></div>
</body></html>`

func TestHTMLParse(t *testing.T) {
	var warns declara.Warnings
	p := &HTMLParser{Resolver: declara.NewResolver(&warns), Year: 2019}

	out, err := p.Parse([]byte(statementHTML))
	if err != nil {
		t.Fatal(err)
	}

	if len(out.Positions) != 3 {
		t.Fatalf("got %d positions, want 3", len(out.Positions))
	}

	aapl := out.Positions[0]
	if aapl.Instrument.ISIN() != "US0378331005" {
		t.Errorf("AAPL resolved to %q, want the instrument information ISIN", aapl.Instrument.ISIN())
	}
	if !aapl.Quantity.Equal(declara.Q(10)) {
		t.Errorf("AAPL quantity = %v", aapl.Quantity)
	}
	if want := declara.M(1700, "USD"); !aapl.Value.Equal(want) {
		t.Errorf("AAPL value = %v, want %v", aapl.Value, want)
	}
	// The USD block's euro values are its share of the printed EUR total.
	if want := declara.M(1511.98, "EUR"); !aapl.ValueEUR.Equal(want) {
		t.Errorf("AAPL euro value = %v, want %v", aapl.ValueEUR, want)
	}
	jd := out.Positions[1]
	if want := declara.M(622.58, "EUR"); !jd.ValueEUR.Equal(want) {
		t.Errorf("JD euro value = %v, want %v", jd.ValueEUR, want)
	}

	san := out.Positions[2]
	if want := declara.M(294, "EUR"); !san.ValueEUR.Equal(want) {
		t.Errorf("SAN euro value = %v, want %v (EUR rows keep their value)", san.ValueEUR, want)
	}
	if san.AsOf != declara.NewDate(2019, time.December, 31) {
		t.Errorf("AsOf = %v", san.AsOf)
	}

	if len(out.Movements) != 2 {
		t.Fatalf("got %d movements, want 2", len(out.Movements))
	}
	buy, sell := out.Movements[0], out.Movements[1]
	if buy.Kind != declara.Buy || !buy.Quantity.Equal(declara.Q(10)) {
		t.Errorf("movement 0 = %s %v", buy.Kind, buy.Quantity)
	}
	if buy.TradeDate != declara.NewDate(2019, time.December, 5) {
		t.Errorf("movement 0 date = %v", buy.TradeDate)
	}
	if want := declara.M(1500, "USD"); !buy.Gross.Equal(want) {
		t.Errorf("movement 0 gross = %v, want proceeds %v", buy.Gross, want)
	}
	if sell.Kind != declara.Sell || !sell.Quantity.Equal(declara.Q(-5)) {
		t.Errorf("movement 1 = %s %v", sell.Kind, sell.Quantity)
	}
	if buy.Instrument != aapl.Instrument {
		t.Error("trades and positions must share resolved instruments")
	}
}

func TestHTMLParseRejects(t *testing.T) {
	p := &HTMLParser{Resolver: declara.NewResolver(nil), Year: 2019}
	_, err := p.Parse([]byte("<html><body><p>a perfectly fine web page</p></body></html>"))
	if !errors.Is(err, declara.ErrFormatNotRecognized) {
		t.Errorf("Parse() error = %v, want ErrFormatNotRecognized", err)
	}
}
