package declara

import (
	"errors"
	"fmt"
)

// ErrFormatNotRecognized is returned by a parser that cannot locate the
// structure it expects in a document. It is fatal for that document only:
// the orchestrator tries the next parser, then moves on.
var ErrFormatNotRecognized = errors.New("document format not recognized")

// ErrNoDataExtracted is returned by a parser that recognized a document but
// found zero valid records in it.
var ErrNoDataExtracted = errors.New("no data extracted from document")

// MissingRateError reports that no exchange rate could be found for a
// currency within the allowed gap before the requested date. Converting with
// a rate older than the gap is a greater risk for a legal filing than
// aborting, so this error is fatal for the declaration being generated.
type MissingRateError struct {
	Currency string
	Date     Date
}

func (e *MissingRateError) Error() string {
	return fmt.Sprintf("no usable %s exchange rate on or near %s", e.Currency, e.Date)
}

// FieldOverflowError reports a value that does not fit the target form's
// schema. A truncated field would silently invalidate a legal filing, so the
// generator refuses to emit the form instead.
type FieldOverflowError struct {
	Form  string // form name, e.g. "modelo 720"
	Field string
	Value string
	Limit int
}

func (e *FieldOverflowError) Error() string {
	return fmt.Sprintf("%s: field %s: value %q exceeds %d characters", e.Form, e.Field, e.Value, e.Limit)
}
