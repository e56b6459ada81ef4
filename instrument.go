package declara

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// isinRegex validates the format of an ISIN: 2 letters, 9 alphanumeric, 1 digit.
var isinRegex = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{9}[0-9]$`)

// AssetClass is the coarse classification of an instrument, used by the rule
// engines to assign legal category codes.
type AssetClass string

const (
	Equity AssetClass = "equity"
	Fund   AssetClass = "fund"
	Bond   AssetClass = "bond"
	Other  AssetClass = "other"
)

// Instrument is the canonical identity of a security. Instruments are
// deduplicated by ISIN and shared by reference across every Movement and
// PositionSnapshot that mentions them. They are never mutated once created.
type Instrument struct {
	isin     string
	name     string
	ticker   string
	market   string
	class    AssetClass
	currency string
	verified bool
}

// NewInstrument creates a verified instrument. It returns an error if the
// ISIN does not pass checksum validation.
func NewInstrument(isin, name, ticker, market string, class AssetClass, currency string) (*Instrument, error) {
	if err := ValidateISIN(isin); err != nil {
		return nil, fmt.Errorf("invalid ISIN %q: %w", isin, err)
	}
	if class == "" {
		class = Equity
	}
	return &Instrument{
		isin:     isin,
		name:     name,
		ticker:   ticker,
		market:   market,
		class:    class,
		currency: currency,
		verified: true,
	}, nil
}

// NewPlaceholder creates an unverified instrument for records that carry no
// usable ISIN. Placeholders participate in valuation aggregation but must be
// surfaced as warnings before they reach a declaration.
func NewPlaceholder(name, ticker, market string, class AssetClass, currency string) *Instrument {
	if class == "" {
		class = Equity
	}
	return &Instrument{
		name:     name,
		ticker:   ticker,
		market:   market,
		class:    class,
		currency: currency,
	}
}

func (s *Instrument) ISIN() string      { return s.isin }
func (s *Instrument) Name() string      { return s.name }
func (s *Instrument) Ticker() string    { return s.ticker }
func (s *Instrument) Market() string    { return s.market }
func (s *Instrument) Class() AssetClass { return s.class }
func (s *Instrument) Currency() string  { return s.currency }
func (s *Instrument) Verified() bool    { return s.verified }

// Country returns the ISO 3166-1 alpha-2 country code encoded in the ISIN
// prefix, or "" for an unverified instrument.
func (s *Instrument) Country() string {
	if len(s.isin) < 2 {
		return ""
	}
	return s.isin[:2]
}

// Key returns the identity key of the instrument: its ISIN when verified,
// otherwise the name+market fallback key.
func (s *Instrument) Key() string {
	if s.isin != "" {
		return s.isin
	}
	return nameMarketKey(s.name, s.market)
}

// Equal reports whether two instruments are the same security. Identity is
// the ISIN; absent an ISIN it falls back to exact name and market match.
func (s *Instrument) Equal(o *Instrument) bool {
	if s == nil || o == nil {
		return s == o
	}
	if s.isin != "" || o.isin != "" {
		return s.isin == o.isin
	}
	return s.name == o.name && s.market == o.market
}

func (s *Instrument) String() string {
	if s.isin != "" {
		return fmt.Sprintf("%s (%s)", s.name, s.isin)
	}
	return fmt.Sprintf("%s (unverified)", s.name)
}

// MarshalJSON implements the json.Marshaler interface.
func (s *Instrument) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Optional("isin", s.isin)
	w.Append("name", s.name)
	w.Optional("ticker", s.ticker)
	w.Optional("market", s.market)
	w.Append("class", string(s.class))
	w.Optional("currency", s.currency)
	if !s.verified {
		w.Append("unverified", true)
	}
	return w.MarshalJSON()
}

func nameMarketKey(name, market string) string {
	return strings.ToUpper(strings.TrimSpace(name)) + "@" + strings.ToUpper(strings.TrimSpace(market))
}

// ValidateISIN checks if a given string is a valid ISIN code.
// It validates the length, format, and the check digit using the Luhn algorithm.
func ValidateISIN(isin string) error {
	// 1. Length validation
	if len(isin) != 12 {
		return fmt.Errorf("invalid length: must be 12 characters, got %d", len(isin))
	}

	// 2. Format validation
	if !isinRegex.MatchString(isin) {
		return fmt.Errorf("invalid format: must be 2 uppercase letters, 9 alphanumeric chars, and 1 digit")
	}

	// 3. Convert letters to numbers for check digit calculation
	var numericStr strings.Builder
	for _, char := range isin[:11] {
		if char >= 'A' && char <= 'Z' {
			numericStr.WriteString(strconv.Itoa(int(char - 'A' + 10)))
		} else {
			numericStr.WriteRune(char)
		}
	}

	// 4. Apply a variation of the Luhn algorithm
	sum := 0
	isSecond := true
	digits := numericStr.String()
	for i := len(digits) - 1; i >= 0; i-- {
		digit, _ := strconv.Atoi(string(digits[i]))

		if isSecond {
			digit *= 2
		}

		sum += (digit / 10) + (digit % 10)
		isSecond = !isSecond
	}

	// 5. Validate the check digit
	expectedCheckDigit := (10 - (sum % 10)) % 10
	actualCheckDigit, _ := strconv.Atoi(string(isin[11]))

	if expectedCheckDigit != actualCheckDigit {
		return fmt.Errorf("invalid check digit: expected %d, got %d", expectedCheckDigit, actualCheckDigit)
	}

	return nil
}
