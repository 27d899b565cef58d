// Package report renders calculation results as spreadsheet workbooks.
package report

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"normcalc/internal/domain"

	"github.com/xuri/excelize/v2"
)

const (
	bomSheet      = "BOM"
	warningsSheet = "Warnings"
)

// BOM is the data a workbook is rendered from
type BOM struct {
	Title         string
	CalculationID string
	RunID         string
	ExecutedAt    time.Time
	Items         []domain.BOMLine
	Warnings      []domain.Warning
}

// WriteExcel renders the bill of materials to w as an .xlsx workbook. The
// first sheet lists materials; a second sheet lists warnings when any exist.
func WriteExcel(bom BOM, w io.Writer) error {
	data, err := GenerateExcel(bom)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// GenerateExcel renders the bill of materials and returns the file contents
func GenerateExcel(bom BOM) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), bomSheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	columns := []string{"A", "B", "C", "D", "E", "F"}
	lastCol := columns[len(columns)-1]

	widths := []float64{6, 26, 44, 22, 8, 14}
	for i, col := range columns {
		if err := f.SetColWidth(bomSheet, col, col, widths[i]); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	if err != nil {
		return nil, fmt.Errorf("create title style: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	decimals := 2
	rowStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Size: 10},
		Border: thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create row style: %w", err)
	}
	qtyStyle, err := f.NewStyle(&excelize.Style{
		Font:          &excelize.Font{Size: 10},
		Border:        thinBorders(),
		DecimalPlaces: &decimals,
		NumFmt:        2,
	})
	if err != nil {
		return nil, fmt.Errorf("create quantity style: %w", err)
	}

	title := bom.Title
	if title == "" {
		title = "Bill of materials"
	}
	if err := f.MergeCell(bomSheet, "A1", lastCol+"1"); err != nil {
		return nil, fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(bomSheet, "A1", sanitizeExcelCell(title))
	f.SetCellStyle(bomSheet, "A1", lastCol+"1", titleStyle)

	subtitle := "Calculation: " + bom.CalculationID
	if bom.RunID != "" {
		subtitle += "  Run: " + bom.RunID
	}
	if !bom.ExecutedAt.IsZero() {
		subtitle += "  Date: " + bom.ExecutedAt.UTC().Format(time.RFC3339)
	}
	if err := f.MergeCell(bomSheet, "A2", lastCol+"2"); err != nil {
		return nil, fmt.Errorf("merge subtitle: %w", err)
	}
	f.SetCellValue(bomSheet, "A2", sanitizeExcelCell(subtitle))

	headers := []string{"#", "Code", "Name", "Category", "Unit", "Quantity"}
	for i, h := range headers {
		f.SetCellValue(bomSheet, columns[i]+"4", h)
	}
	f.SetCellStyle(bomSheet, "A4", lastCol+"4", headerStyle)

	row := 5
	for i, item := range bom.Items {
		r := fmt.Sprintf("%d", row)
		f.SetCellValue(bomSheet, "A"+r, i+1)
		f.SetCellValue(bomSheet, "B"+r, sanitizeExcelCell(item.Code))
		f.SetCellValue(bomSheet, "C"+r, sanitizeExcelCell(item.Name))
		f.SetCellValue(bomSheet, "D"+r, sanitizeExcelCell(item.Category))
		f.SetCellValue(bomSheet, "E"+r, sanitizeExcelCell(item.Unit))
		f.SetCellValue(bomSheet, "F"+r, item.Quantity)
		f.SetCellStyle(bomSheet, "A"+r, "E"+r, rowStyle)
		f.SetCellStyle(bomSheet, "F"+r, "F"+r, qtyStyle)
		row++
	}

	if len(bom.Items) > 0 {
		if err := f.AutoFilter(bomSheet, fmt.Sprintf("A4:%s%d", lastCol, row-1), nil); err != nil {
			return nil, fmt.Errorf("auto filter: %w", err)
		}
	}

	if len(bom.Warnings) > 0 {
		if err := writeWarnings(f, bom.Warnings, headerStyle, rowStyle); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}

	return buf.Bytes(), nil
}

func writeWarnings(f *excelize.File, warnings []domain.Warning, headerStyle, rowStyle int) error {
	if _, err := f.NewSheet(warningsSheet); err != nil {
		return fmt.Errorf("create warnings sheet: %w", err)
	}

	columns := []string{"A", "B", "C", "D"}
	widths := []float64{12, 20, 32, 60}
	for i, col := range columns {
		if err := f.SetColWidth(warningsSheet, col, col, widths[i]); err != nil {
			return fmt.Errorf("set col width %s: %w", col, err)
		}
	}

	headers := []string{"Entity", "ID", "Context", "Message"}
	for i, h := range headers {
		f.SetCellValue(warningsSheet, columns[i]+"1", h)
	}
	f.SetCellStyle(warningsSheet, "A1", "D1", headerStyle)

	for i, w := range warnings {
		r := fmt.Sprintf("%d", i+2)
		f.SetCellValue(warningsSheet, "A"+r, string(w.Entity.Kind))
		f.SetCellValue(warningsSheet, "B"+r, sanitizeExcelCell(w.Entity.ID))
		f.SetCellValue(warningsSheet, "C"+r, sanitizeExcelCell(w.ContextType))
		f.SetCellValue(warningsSheet, "D"+r, sanitizeExcelCell(w.Message))
		f.SetCellStyle(warningsSheet, "A"+r, "D"+r, rowStyle)
	}

	return nil
}

// thinBorders returns a thin border on all four sides
func thinBorders() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: "#000000", Style: 1},
		{Type: "top", Color: "#000000", Style: 1},
		{Type: "bottom", Color: "#000000", Style: 1},
		{Type: "right", Color: "#000000", Style: 1},
	}
}

// sanitizeExcelCell prefixes a leading formula character with a quote so
// spreadsheet apps treat user-supplied text as text
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}
