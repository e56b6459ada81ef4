package declara

// MovementKind is the economic nature of a movement.
type MovementKind string

const (
	Buy      MovementKind = "buy"
	Sell     MovementKind = "sell"
	Dividend MovementKind = "dividend"
	Fee      MovementKind = "fee"
	Interest MovementKind = "interest"
	Exchange MovementKind = "exchange" // currency exchange
	Transfer MovementKind = "transfer" // cash or security transfer
)

// Broker identifies the institution a document came from. The country code
// matters: both declarations report the custody jurisdiction.
type Broker struct {
	Name    string
	Country string // ISO 3166-1 alpha-2
}

// Well-known brokers with their custody jurisdictions.
var (
	Degiro             = Broker{Name: "Degiro", Country: "NL"}
	InteractiveBrokers = Broker{Name: "Interactive Brokers", Country: "IE"}
)

func (b Broker) String() string { return b.Name }

// Movement is one economic event recovered from a broker report. A movement
// is created by a parser and never mutated afterwards; the ledger owns it.
//
// Instrument is nil for pure cash events (interest, account fees, currency
// exchanges). Quantity is signed: sells are negative, so a position replays
// by plain summation.
type Movement struct {
	Kind       MovementKind
	Instrument *Instrument
	TradeDate  Date
	SettleDate Date
	Quantity   Quantity
	Gross      Money
	Fees       Money
	Broker     Broker
}

// MarshalJSON implements the json.Marshaler interface.
func (m Movement) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("kind", string(m.Kind))
	if m.Instrument != nil {
		w.Append("instrument", m.Instrument)
	}
	w.Append("tradeDate", m.TradeDate)
	if !m.SettleDate.IsZero() {
		w.Append("settleDate", m.SettleDate)
	}
	if !m.Quantity.IsZero() {
		w.Append("quantity", m.Quantity)
	}
	w.Append("gross", m.Gross)
	if !m.Fees.IsZero() {
		w.Append("fees", m.Fees)
	}
	w.Append("broker", m.Broker.Name)
	return w.MarshalJSON()
}

// compare orders movements canonically: trade date, broker, instrument key,
// kind, then quantity, gross and fees as final tie-breaks. The ledger sorts
// on it so that assembly order never leaks into the output, even for two
// same-day trades of the same instrument at the same broker.
func (m Movement) compare(o Movement) int {
	if c := m.TradeDate.Compare(o.TradeDate); c != 0 {
		return c
	}
	if m.Broker.Name != o.Broker.Name {
		if m.Broker.Name < o.Broker.Name {
			return -1
		}
		return 1
	}
	mk, ok := "", ""
	if m.Instrument != nil {
		mk = m.Instrument.Key()
	}
	if o.Instrument != nil {
		ok = o.Instrument.Key()
	}
	if mk != ok {
		if mk < ok {
			return -1
		}
		return 1
	}
	if m.Kind != o.Kind {
		if m.Kind < o.Kind {
			return -1
		}
		return 1
	}
	if c := m.Quantity.Cmp(o.Quantity); c != 0 {
		return c
	}
	if c := m.Gross.Cmp(o.Gross); c != 0 {
		return c
	}
	if c := m.Fees.Cmp(o.Fees); c != 0 {
		return c
	}
	return m.SettleDate.Compare(o.SettleDate)
}
