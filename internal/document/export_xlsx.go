package document

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Documents"

var exportHeaders = []string{
	"Number", "Kind", "Status", "Client", "Issue date", "Currency",
	"Subtotal", "Discount", "Total excl. VAT", "VAT", "Total incl. VAT",
}

// WriteXLSX writes one row per document with its totals.
func WriteXLSX(w io.Writer, docs []Document) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return fmt.Errorf("set sheet name: %w", err)
	}
	widths := []float64{16, 10, 12, 32, 12, 10, 14, 14, 16, 14, 16}
	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(exportSheet, col, col, width); err != nil {
			return fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("create amount style: %w", err)
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return err
		}
	}
	lastCol, _ := excelize.ColumnNumberToName(len(exportHeaders))
	if err := f.SetCellStyle(exportSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}

	for i, doc := range docs {
		row := i + 2
		values := []any{
			sanitizeExcelCell(doc.Number),
			string(doc.Kind),
			string(doc.Status),
			sanitizeExcelCell(doc.ClientName),
			doc.IssueDate.Format(dateLayout),
			doc.Currency,
			doc.Totals.Subtotal.Round(2).InexactFloat64(),
			doc.Totals.TotalDiscount.Round(2).InexactFloat64(),
			doc.Totals.TotalWithoutVAT.Round(2).InexactFloat64(),
			doc.Totals.TotalVAT.Round(2).InexactFloat64(),
			doc.Totals.TotalWithVAT.Round(2).InexactFloat64(),
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, row)
			if err := f.SetCellValue(exportSheet, cell, v); err != nil {
				return err
			}
		}
		first, _ := excelize.CoordinatesToCellName(7, row)
		last, _ := excelize.CoordinatesToCellName(len(values), row)
		if err := f.SetCellStyle(exportSheet, first, last, amountStyle); err != nil {
			return err
		}
	}

	if err := f.SetPanes(exportSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// sanitizeExcelCell stops user text from being interpreted as a formula.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}
