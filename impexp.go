package declara

import (
	"fmt"
	"io"
	"slices"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// WriteReviewJSON exports the ledger and the run's warnings as one JSON
// document with a fixed field order, so two runs over the same reports
// produce identical bytes. It is the machine-readable counterpart of the
// review workbook.
func WriteReviewJSON(l *Ledger, warns []Warning, w io.Writer) error {
	if warns == nil {
		warns = []Warning{}
	}
	var obj jsonObjectWriter
	obj.Append("year", l.Year())
	obj.Append("positions", slices.Collect(l.Positions()))
	obj.Append("movements", slices.Collect(l.Movements()))
	obj.Append("warnings", warns)
	content, err := obj.MarshalJSON()
	if err != nil {
		return fmt.Errorf("cannot build review document: %w", err)
	}
	if _, err := w.Write(content); err != nil {
		return fmt.Errorf("cannot write review document: %w", err)
	}
	return nil
}

// WriteReviewXLSX exports the ledger as a two-sheet workbook, positions and
// movements, so the declarant can inspect what the declarations will be built
// from before filing.
func WriteReviewXLSX(l *Ledger, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	positions := [][]interface{}{
		{"ISIN", "Name", "Broker", "Quantity", "Currency", "Value", "Value EUR", "As Of"},
	}
	for p := range l.Positions() {
		positions = append(positions, []interface{}{
			p.Instrument.ISIN(),
			p.Instrument.Name(),
			p.Broker.Name,
			p.Quantity.String(),
			p.Value.Currency(),
			p.Value.Amount().InexactFloat64(),
			p.ValueEUR.Amount().InexactFloat64(),
			p.AsOf.String(),
		})
	}
	if err := writeSheet(f, "Positions", positions); err != nil {
		return err
	}

	movements := [][]interface{}{
		{"Date", "Kind", "ISIN", "Name", "Broker", "Quantity", "Currency", "Gross", "Fees"},
	}
	for m := range l.Movements() {
		isin, name := "", ""
		if m.Instrument != nil {
			isin, name = m.Instrument.ISIN(), m.Instrument.Name()
		}
		movements = append(movements, []interface{}{
			m.TradeDate.String(),
			string(m.Kind),
			isin,
			name,
			m.Broker.Name,
			m.Quantity.String(),
			m.Gross.Currency(),
			m.Gross.Amount().InexactFloat64(),
			m.Fees.Amount().InexactFloat64(),
		})
	}
	if err := writeSheet(f, "Movements", movements); err != nil {
		return err
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("cannot write review workbook: %w", err)
	}
	return nil
}

// writeSheet fills one sheet, header row included, and formats it as a table.
func writeSheet(f *excelize.File, sheet string, rows [][]interface{}) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	for i := range rows {
		if err := f.SetSheetRow(sheet, "A"+strconv.Itoa(i+1), &rows[i]); err != nil {
			return err
		}
	}
	lastCol, err := excelize.ColumnNumberToName(len(rows[0]))
	if err != nil {
		return err
	}
	return f.AddTable(sheet, &excelize.Table{
		Range:     "A1:" + lastCol + strconv.Itoa(len(rows)),
		Name:      sheet,
		StyleName: "TableStyleMedium9",
	})
}
