package declara

import (
	"slices"
	"strings"
	"sync"
)

// Candidate carries whatever identifying information a broker record has for
// a security. Any field may be empty; the resolver works with what it gets.
type Candidate struct {
	ISIN     string
	Name     string
	Ticker   string
	Market   string
	Class    AssetClass
	Currency string
}

// Resolver deduplicates instrument identity within a single run. It owns an
// explicit keyed table of resolved instruments so that the same security
// reported by two brokers resolves to one shared *Instrument, never two.
//
// A resolver is safe for concurrent use: documents are parsed in parallel
// and all feed the same table.
//
// The zero value is not usable, call NewResolver.
type Resolver struct {
	mu     sync.Mutex
	byISIN map[string]*Instrument
	byName map[string]*Instrument
	warns  *Warnings
}

// NewResolver creates an empty resolver that reports unverified instruments
// to the given warning sink.
func NewResolver(warns *Warnings) *Resolver {
	return &Resolver{
		byISIN: make(map[string]*Instrument),
		byName: make(map[string]*Instrument),
		warns:  warns,
	}
}

// Resolve maps a candidate to its canonical instrument.
//
// When the candidate carries a checksum-valid ISIN it is canonical and cached
// under it. Otherwise the resolver reuses a previously resolved instrument
// with the same name and market, and as a last resort creates an unverified
// placeholder and emits a warning. Resolve never fails: a missing machine
// identifier must not abort the run, since approximate identity is still
// useful for valuation aggregation.
func (r *Resolver) Resolve(c Candidate) *Instrument {
	r.mu.Lock()
	defer r.mu.Unlock()

	if ValidateISIN(c.ISIN) == nil {
		if ins, ok := r.byISIN[c.ISIN]; ok {
			return ins
		}
		ins, _ := NewInstrument(c.ISIN, c.Name, c.Ticker, c.Market, c.Class, c.Currency)
		r.byISIN[c.ISIN] = ins
		// The name key too, so a later ISIN-less record for the same
		// security lands on the verified instrument.
		if c.Name != "" {
			r.byName[nameMarketKey(c.Name, c.Market)] = ins
		}
		return ins
	}

	if c.Name != "" {
		if ins, ok := r.byName[nameMarketKey(c.Name, c.Market)]; ok {
			return ins
		}
	}

	ins := NewPlaceholder(c.Name, c.Ticker, c.Market, c.Class, c.Currency)
	if c.Name != "" {
		r.byName[nameMarketKey(c.Name, c.Market)] = ins
	}
	if r.warns != nil {
		if c.ISIN != "" {
			r.warns.Addf(WarnUnresolvedInstrument, "instrument %q: identifier %q is not a valid ISIN", c.Name, c.ISIN)
		} else {
			r.warns.Addf(WarnUnresolvedInstrument, "instrument %q has no ISIN", c.Name)
		}
	}
	return ins
}

// Resolved returns every instrument resolved so far, verified first, each
// group sorted by key. The order is stable across runs.
func (r *Resolver) Resolved() []*Instrument {
	r.mu.Lock()
	defer r.mu.Unlock()
	verified := make([]*Instrument, 0, len(r.byISIN))
	for _, ins := range r.byISIN {
		verified = append(verified, ins)
	}
	unverified := make([]*Instrument, 0)
	for _, ins := range r.byName {
		if !ins.verified {
			unverified = append(unverified, ins)
		}
	}
	byKey := func(a, b *Instrument) int { return strings.Compare(a.Key(), b.Key()) }
	slices.SortFunc(verified, byKey)
	slices.SortFunc(unverified, byKey)
	return append(verified, unverified...)
}
