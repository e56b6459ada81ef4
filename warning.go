package declara

import "fmt"

// WarningCode classifies a non-fatal issue met while building a declaration.
type WarningCode string

const (
	WarnSkippedRow             WarningCode = "skipped-row"
	WarnSkippedDocument        WarningCode = "skipped-document"
	WarnUnresolvedInstrument   WarningCode = "unresolved-instrument"
	WarnStaleExchangeRate      WarningCode = "stale-exchange-rate"
	WarnReconciliationMismatch WarningCode = "reconciliation-mismatch"
	WarnExcludedInstrument     WarningCode = "excluded-instrument"
)

// Warning is one non-fatal issue. The declarant must be able to inspect
// exactly what was approximated or skipped before filing, so warnings are
// accumulated and returned alongside successful output, never dropped.
type Warning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
}

func (w Warning) String() string { return fmt.Sprintf("%s: %s", w.Code, w.Message) }

// Warnings accumulates warnings in the order they were raised.
type Warnings struct {
	list []Warning
}

// Addf records a warning with a formatted message.
func (ws *Warnings) Addf(code WarningCode, format string, args ...any) {
	ws.list = append(ws.list, Warning{Code: code, Message: fmt.Sprintf(format, args...)})
}

// Add records an already built warning.
func (ws *Warnings) Add(w Warning) { ws.list = append(ws.list, w) }

// Merge appends every warning from o.
func (ws *Warnings) Merge(o *Warnings) {
	if o == nil {
		return
	}
	ws.list = append(ws.list, o.list...)
}

// All returns the accumulated warnings in raise order.
func (ws *Warnings) All() []Warning {
	if ws == nil {
		return nil
	}
	return ws.list
}

// Len returns the number of accumulated warnings.
func (ws *Warnings) Len() int {
	if ws == nil {
		return 0
	}
	return len(ws.list)
}

// Has reports whether at least one warning with the given code was raised.
func (ws *Warnings) Has(code WarningCode) bool {
	if ws == nil {
		return false
	}
	for _, w := range ws.list {
		if w.Code == code {
			return true
		}
	}
	return false
}
