// Package modelo720 serializes an AEAT modelo 720 declaration into the
// fixed-width register file the tax agency ingests: one 500-byte summary
// register followed by one 500-byte detail register per declared asset, each
// terminated by a newline, encoded in ISO-8859-15.
//
// Values that do not fit their field are rejected with a FieldOverflowError,
// never truncated: a shortened NIF or amount silently invalidates the
// filing.
//
// Register layout per the agency's published record design:
// https://www.agenciatributaria.es/static_files/AEAT/Contenidos_Comunes/La_Agencia_Tributaria/Ayuda/Disenyos_de_registro/Ayudas/DR_Resto_Modelos/Ficheros/modelo_720.pdf
package modelo720

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"

	"github.com/etnz/declara"
)

const (
	registerSize = 500
	documentID   = 720
	negativeSign = 'N'
)

// Generate serializes the declaration. Output is deterministic.
func Generate(decl *declara.Declaration) ([]byte, error) {
	if decl.Form != declara.Form720 {
		return nil, fmt.Errorf("modelo720: cannot generate %q form", decl.Form)
	}
	for _, line := range decl.Lines {
		if line.Instrument == nil || !line.Instrument.Verified() {
			return nil, fmt.Errorf("modelo720: line without a verified ISIN")
		}
	}

	var out bytes.Buffer
	out.Grow((registerSize + 1) * (len(decl.Lines) + 1))

	summary, err := summaryRegister(decl)
	if err != nil {
		return nil, err
	}
	out.Write(summary.data[:])
	out.WriteByte('\n')

	for _, line := range decl.Lines {
		detail, err := detailRegister(decl, line)
		if err != nil {
			return nil, err
		}
		out.Write(detail.data[:])
		out.WriteByte('\n')
	}
	return out.Bytes(), nil
}

// summaryRegister builds the type-1 register: declarant identity plus totals
// over the detail registers.
func summaryRegister(decl *declara.Declaration) (*register, error) {
	r := newRegister()
	d := decl.Declarant

	r.numeric(1, 1, 1) // summary register type
	r.numeric(2, 4, documentID)
	r.numeric(5, 8, int64(d.Year))
	r.alpha(9, 17, d.NIF)
	r.alpha(18, 57, d.FullName())
	r.alpha(58, 58, "T") // transmission
	if d.Phone != "" {
		r.alpha(59, 67, d.Phone)
	} else {
		r.numeric(59, 67, 0)
	}
	r.alpha(68, 107, d.FullName()) // contact
	r.numeric(108, 110, documentID)
	r.numeric(111, 120, 1)  // declaration id
	r.numeric(123, 135, 0)  // previous declaration id
	r.numeric(136, 144, int64(len(decl.Lines)))

	total := decimal.Zero
	for _, line := range decl.Lines {
		total = total.Add(line.ValueEUR.Amount())
	}
	r.amount(145, 146, 160, 161, 162, total)
	r.amount(163, 164, 178, 179, 180, decimal.Zero)

	return r.finish("summary")
}

// detailRegister builds one type-2 register for a declared security.
func detailRegister(decl *declara.Declaration, line declara.DeclarationLine) (*register, error) {
	r := newRegister()
	d := decl.Declarant

	r.numeric(1, 1, 2) // detail register type
	r.numeric(2, 4, documentID)
	r.numeric(5, 8, int64(d.Year))
	r.alpha(9, 17, d.NIF)
	r.alpha(18, 26, d.NIF) // declared party
	r.alpha(36, 75, d.FullName())
	r.numeric(76, 76, 1)                     // declaration type: owner
	r.alpha(102, 102, line.Category[:1])     // asset key, 'V' for securities
	r.numeric(103, 103, subtype(line))       // asset subtype
	r.alpha(129, 130, line.Custody.Country)  // custody jurisdiction
	r.numeric(131, 131, 1)                   // security identified by ISIN
	r.alpha(132, 143, line.Instrument.ISIN())
	r.alpha(190, 230, upper(line.Instrument.Name()))
	r.alpha(413, 414, line.Instrument.Country())
	r.numeric(415, 422, dateNumber(line.FirstAcquisition))
	r.alpha(423, 423, "A") // acquired in the period opening the obligation
	r.numeric(424, 431, 0) // no extinction
	r.amount(432, 433, 444, 445, 446, line.ValueEUR.Amount())
	r.amount(447, 448, 459, 460, 461, decimal.Zero)
	r.alpha(462, 462, "A") // securities represented by book entries
	r.quantity(463, 472, 473, 474, line.Quantity.Decimal())
	r.numeric(476, 478, int64(line.Ownership))
	r.numeric(479, 480, 0)

	return r.finish(line.Instrument.ISIN())
}

// subtype reads the numeric subtype out of the category code, "V1" -> 1.
func subtype(line declara.DeclarationLine) int64 {
	if len(line.Category) < 2 {
		return 1
	}
	n, err := strconv.ParseInt(line.Category[1:], 10, 64)
	if err != nil {
		return 1
	}
	return n
}

func upper(s string) string {
	b := []rune(s)
	for i, r := range b {
		if r >= 'a' && r <= 'z' {
			b[i] = r - 'a' + 'A'
		}
	}
	return string(b)
}

func dateNumber(d declara.Date) int64 {
	return int64(d.Year())*10000 + int64(d.Month())*100 + int64(d.Day())
}

// register is one fixed-width record under construction. Field positions are
// 1-based and inclusive, as the record design documents them. The first
// error met sticks; finish reports it.
type register struct {
	data [registerSize]byte
	err  error
}

func newRegister() *register {
	r := &register{}
	for i := range r.data {
		r.data[i] = ' '
	}
	return r
}

// numeric writes a zero-padded number. A value wider than the field is an
// overflow.
func (r *register) numeric(begin, end int, value int64) {
	if r.err != nil {
		return
	}
	size := end - begin + 1
	s := strconv.FormatInt(value, 10)
	if len(s) > size {
		r.err = &declara.FieldOverflowError{Form: "modelo 720", Field: pos(begin, end), Value: s, Limit: size}
		return
	}
	for i := begin - 1; i < end-len(s); i++ {
		r.data[i] = '0'
	}
	copy(r.data[end-len(s):end], s)
}

// alpha writes a space-padded ISO-8859-15 string. A value that does not fit
// or cannot be encoded is an overflow.
func (r *register) alpha(begin, end int, value string) {
	if r.err != nil {
		return
	}
	size := end - begin + 1
	encoded, err := charmap.ISO8859_15.NewEncoder().Bytes([]byte(value))
	if err != nil {
		r.err = fmt.Errorf("modelo 720: field %s: %q is not representable in ISO-8859-15", pos(begin, end), value)
		return
	}
	if len(encoded) > size {
		r.err = &declara.FieldOverflowError{Form: "modelo 720", Field: pos(begin, end), Value: value, Limit: size}
		return
	}
	copy(r.data[begin-1:end], encoded)
}

// amount writes a monetary value split into sign, integer part and a
// two-digit fraction.
func (r *register) amount(sign, intBegin, intEnd, fracBegin, fracEnd int, v decimal.Decimal) {
	v = v.Round(2)
	if v.IsNegative() {
		r.data[sign-1] = negativeSign
		v = v.Abs()
	}
	whole := v.Truncate(0)
	r.numeric(intBegin, intEnd, whole.IntPart())
	r.numeric(fracBegin, fracEnd, v.Sub(whole).Shift(2).IntPart())
}

// quantity writes a unit count split into integer part and a two-digit
// truncated fraction.
func (r *register) quantity(intBegin, intEnd, fracBegin, fracEnd int, v decimal.Decimal) {
	v = v.Abs()
	whole := v.Truncate(0)
	r.numeric(intBegin, intEnd, whole.IntPart())
	r.numeric(fracBegin, fracEnd, v.Sub(whole).Shift(2).Truncate(0).IntPart())
}

func (r *register) finish(what string) (*register, error) {
	if r.err != nil {
		return nil, fmt.Errorf("%s: %w", what, r.err)
	}
	return r, nil
}

func pos(begin, end int) string { return fmt.Sprintf("%d-%d", begin, end) }
