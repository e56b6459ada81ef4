package declara

// PositionSnapshot is a point-in-time holding reported by a broker, or
// derived by replaying movements. Snapshots from different brokers for the
// same instrument and date stay distinct: custody is legally significant.
type PositionSnapshot struct {
	Instrument *Instrument
	Quantity   Quantity
	Value      Money // fair value in the snapshot's own currency
	ValueEUR   Money // fair value in the reporting currency, filled at assembly
	AsOf       Date
	Broker     Broker
}

// MarshalJSON implements the json.Marshaler interface.
func (p PositionSnapshot) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("instrument", p.Instrument)
	w.Append("quantity", p.Quantity)
	w.Append("value", p.Value)
	if !p.ValueEUR.IsZero() {
		w.Append("valueEUR", p.ValueEUR)
	}
	w.Append("asOf", p.AsOf)
	w.Append("broker", p.Broker.Name)
	return w.MarshalJSON()
}

// compare orders snapshots canonically: as-of date, broker, instrument key.
func (p PositionSnapshot) compare(o PositionSnapshot) int {
	if c := p.AsOf.Compare(o.AsOf); c != 0 {
		return c
	}
	if p.Broker.Name != o.Broker.Name {
		if p.Broker.Name < o.Broker.Name {
			return -1
		}
		return 1
	}
	pk, ok := p.Instrument.Key(), o.Instrument.Key()
	if pk != ok {
		if pk < ok {
			return -1
		}
		return 1
	}
	if c := p.Quantity.Cmp(o.Quantity); c != 0 {
		return c
	}
	return p.Value.Cmp(o.Value)
}
