package declara

import (
	"iter"
	"slices"
	"time"
)

// ParseOutcome is what a broker parser returns for one document: the typed
// movements and period-end positions it recovered plus the rows it had to
// skip.
type ParseOutcome struct {
	Movements []Movement
	Positions []PositionSnapshot
	Warnings  Warnings
}

// reconcileTolerance is the quantity drift allowed between a replayed
// position and the directly reported one before a mismatch is raised.
var reconcileTolerance = Q(0.01)

// Ledger aggregates every movement and position snapshot across brokers for
// one declarant and one fiscal year.
//
// A ledger is always canonically ordered (date, broker, instrument, kind,
// then amounts as tie-breaks) so that two assemblies of the same outcomes,
// in any order, are identical.
type Ledger struct {
	year      int
	rates     *RateTable
	movements []Movement
	positions []PositionSnapshot
}

// Assemble merges parser outcomes into one ledger for the given fiscal year.
//
// Every position snapshot gets its value converted to the reporting currency
// through rates; a snapshot whose parser already supplied a reporting-currency
// value keeps it. A rate missing beyond the table's gap is fatal. Snapshots
// from different brokers are kept distinct, and movements are never
// deduplicated across brokers: activity reports from distinct brokers
// describe distinct holdings.
func Assemble(year int, outcomes []*ParseOutcome, rates *RateTable, warns *Warnings) (*Ledger, error) {
	l := &Ledger{year: year, rates: rates}
	for _, o := range outcomes {
		if o == nil {
			continue
		}
		warns.Merge(&o.Warnings)
		l.movements = append(l.movements, o.Movements...)
		l.positions = append(l.positions, o.Positions...)
	}

	for i := range l.positions {
		p := &l.positions[i]
		if !p.ValueEUR.IsZero() {
			continue
		}
		eur, err := rates.Convert(p.Value, p.AsOf, warns)
		if err != nil {
			return nil, err
		}
		p.ValueEUR = eur
	}

	slices.SortFunc(l.movements, Movement.compare)
	slices.SortFunc(l.positions, PositionSnapshot.compare)

	l.reconcile(warns)
	return l, nil
}

// reconcile replays buy and sell movements per instrument and broker and
// compares the replayed quantity against the directly reported period-end
// snapshot. Instruments without any trade in the period are left alone: the
// report does not say what the position was when the period opened. At most
// one mismatch warning per instrument and broker is raised.
func (l *Ledger) reconcile(warns *Warnings) {
	type key struct {
		instrument string
		broker     string
	}
	replayed := make(map[key]Quantity)
	for _, m := range l.movements {
		if m.Instrument == nil || (m.Kind != Buy && m.Kind != Sell) {
			continue
		}
		k := key{m.Instrument.Key(), m.Broker.Name}
		replayed[k] = replayed[k].Add(m.Quantity)
	}
	for _, p := range l.positions {
		k := key{p.Instrument.Key(), p.Broker.Name}
		delta, traded := replayed[k]
		if !traded {
			continue
		}
		if p.Quantity.Sub(delta).Abs().GreaterThan(reconcileTolerance) {
			warns.Addf(WarnReconciliationMismatch,
				"%s at %s: replayed movements give %s units, report says %s",
				p.Instrument, p.Broker, delta, p.Quantity)
			delete(replayed, k) // one warning per instrument and broker
		}
	}
}

// Year returns the fiscal year the ledger covers.
func (l *Ledger) Year() int { return l.year }

// PeriodEnd returns the last day of the fiscal year.
func (l *Ledger) PeriodEnd() Date { return NewDate(l.year, time.December, 31) }

// Rates returns the exchange-rate table the ledger was assembled with.
func (l *Ledger) Rates() *RateTable { return l.rates }

// Movements iterates over all movements in canonical order, keeping only
// those accepted by at least one filter (or all of them when no filter is
// given).
func (l *Ledger) Movements(filters ...func(Movement) bool) iter.Seq[Movement] {
	return func(yield func(Movement) bool) {
		for _, m := range l.movements {
			accept := len(filters) == 0
			for _, filter := range filters {
				if filter(m) {
					accept = true
					break
				}
			}
			if !accept {
				continue
			}
			if !yield(m) {
				return
			}
		}
	}
}

// Positions iterates over all position snapshots in canonical order.
func (l *Ledger) Positions() iter.Seq[PositionSnapshot] {
	return func(yield func(PositionSnapshot) bool) {
		for _, p := range l.positions {
			if !yield(p) {
				return
			}
		}
	}
}

// ByInstrument keeps movements that reference the given instrument.
func ByInstrument(ins *Instrument) func(Movement) bool {
	return func(m Movement) bool { return m.Instrument != nil && m.Instrument.Equal(ins) }
}

// ByKind keeps movements of the given kind.
func ByKind(kind MovementKind) func(Movement) bool {
	return func(m Movement) bool { return m.Kind == kind }
}

// FirstAcquisition returns the trade date of the earliest buy movement for
// the instrument, across brokers. When the period shows no buy (the position
// predates it), it falls back to the first day of the fiscal year.
func (l *Ledger) FirstAcquisition(ins *Instrument) Date {
	for m := range l.Movements(ByInstrument(ins)) {
		if m.Kind == Buy {
			return m.TradeDate // movements are date-sorted
		}
	}
	return NewDate(l.year, time.January, 1)
}

// ValueEUR converts an amount to the reporting currency at the given date.
func (l *Ledger) ValueEUR(m Money, on Date, warns *Warnings) (Money, error) {
	return l.rates.Convert(m, on, warns)
}

// Empty reports whether the ledger holds neither movements nor positions.
func (l *Ledger) Empty() bool { return len(l.movements) == 0 && len(l.positions) == 0 }
