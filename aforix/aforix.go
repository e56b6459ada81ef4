// Package aforix serializes a D-6 declaration into the XML form the Aforix
// filing tool imports. The format is positional despite being XML: every
// value is a Campo element whose Codigo is a running hexadecimal field id,
// and the ids of unused fields are skipped, not emitted. Layout is fixed by
// the tool: CRLF line ends, two-space indent, no self-closing elements.
package aforix

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/etnz/declara"
)

const (
	formType    = "D-6"
	formVersion = "R10"

	recordsFirstPage = 3
	recordsPerPage   = 6

	firstPageFieldID = 0x2DB
	pageFieldID      = 0x320
)

// Generate serializes the declaration. Output is deterministic: identical
// declarations produce identical bytes.
func Generate(decl *declara.Declaration) ([]byte, error) {
	if decl.Form != declara.FormD6 {
		return nil, fmt.Errorf("aforix: cannot generate %q form", decl.Form)
	}
	for _, line := range decl.Lines {
		if line.Instrument == nil || !line.Instrument.Verified() {
			return nil, fmt.Errorf("aforix: line without a verified ISIN")
		}
	}

	w := newFormWriter()
	w.open("Formulario")
	w.elem("Tipo", formType)
	w.elem("Version", formVersion)

	ctx := &context{pageID: 1, fieldID: firstPageFieldID}
	for ctx.index < len(decl.Lines) {
		writePage(w, ctx, decl)
	}

	w.close("Formulario")
	return w.bytes(), nil
}

// context carries the positional state: which page, which field id, which
// line comes next.
type context struct {
	pageID  int
	fieldID int
	index   int
}

func writePage(w *formWriter, ctx *context, decl *declara.Declaration) {
	pageType := "D61"
	perPage := recordsFirstPage
	if ctx.pageID > 1 {
		pageType = "D62"
		perPage = recordsPerPage
		ctx.fieldID = pageFieldID
	}

	w.open("Pagina")
	w.elem("Tipo", pageType)
	w.open("Campos")

	w.field(ctx, "D")
	w.field(ctx, fmt.Sprintf("%d", decl.Declarant.Year))
	// The declarant block leaves two ids unused, before the name on the
	// first page and after the NIF on the others; the first page then skips
	// seven header ids before its records.
	if ctx.pageID == 1 {
		ctx.fieldID += 2
		w.field(ctx, decl.Declarant.FullName())
		w.field(ctx, decl.Declarant.NIF)
		ctx.fieldID += 7
	} else {
		w.field(ctx, decl.Declarant.FullName())
		w.field(ctx, decl.Declarant.NIF)
		ctx.fieldID += 2
	}

	stop := ctx.index + perPage
	for ctx.index < len(decl.Lines) && ctx.index < stop {
		writeRecord(w, ctx, decl.Lines[ctx.index])
		ctx.index++
	}

	w.close("Campos")
	w.close("Pagina")
	ctx.pageID++
}

// writeRecord emits one security: flag, ISIN, name, category, operation
// "01", custody country, currency, quantity, valuation. Two record ids stay
// unused around the valuation.
func writeRecord(w *formWriter, ctx *context, line declara.DeclarationLine) {
	w.field(ctx, "N")
	w.field(ctx, line.Instrument.ISIN())
	w.field(ctx, line.Instrument.Name())
	w.field(ctx, line.Category)
	w.field(ctx, "01")
	w.field(ctx, line.Custody.Country)
	w.field(ctx, line.Value.Currency())
	w.field(ctx, comma(line.Quantity.String()))
	ctx.fieldID++
	w.field(ctx, comma(line.Value.Amount().StringFixed(2)))
	ctx.fieldID += 2
}

// comma renders a decimal with the Spanish separator.
func comma(s string) string { return strings.Replace(s, ".", ",", 1) }

// formWriter emits the exact document layout Aforix expects.
type formWriter struct {
	buf   bytes.Buffer
	depth int
}

func newFormWriter() *formWriter {
	w := &formWriter{}
	w.buf.WriteString("<?xml version=\"1.0\" encoding=\"utf-8\"?>")
	return w
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func (w *formWriter) line(s string) {
	w.buf.WriteString("\r\n")
	w.buf.WriteString(strings.Repeat("  ", w.depth))
	w.buf.WriteString(s)
}

func (w *formWriter) open(tag string) {
	w.line("<" + tag + ">")
	w.depth++
}

func (w *formWriter) close(tag string) {
	w.depth--
	w.line("</" + tag + ">")
}

func (w *formWriter) elem(tag, text string) {
	w.line("<" + tag + ">" + escaper.Replace(text) + "</" + tag + ">")
}

// field emits one Campo with the running hexadecimal id and advances it.
func (w *formWriter) field(ctx *context, data string) {
	w.open("Campo")
	w.elem("Codigo", fmt.Sprintf("%X", ctx.fieldID))
	w.elem("Datos", data)
	w.close("Campo")
	ctx.fieldID++
}

func (w *formWriter) bytes() []byte { return w.buf.Bytes() }
