// Package xlsxexport renders run manifests as Excel workbooks.
package xlsxexport

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"smartsplit/internal/csvexport"
	"smartsplit/internal/domain"
)

const (
	SectionsSheet = "Sections"
	SummarySheet  = "Summary"
)

// Build returns an XLSX manifest for run: one row per section on the
// Sections sheet and per-method totals on the Summary sheet.
func Build(run *domain.SplitRun) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SectionsSheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}
	idx, _ := f.GetSheetIndex(SectionsSheet)
	f.SetActiveSheet(idx)

	for i, h := range csvexport.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SectionsSheet, cell, h)
	}

	for i, s := range run.Sections {
		row := i + 2
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(SectionsSheet, cell, v)
		}
		write(1, run.ID.String())
		write(2, run.SourceName)
		write(3, i+1)
		write(4, s.StartPage+1)
		write(5, s.EndPage+1)
		write(6, s.PageCount())
		write(7, string(s.DocumentType))
		write(8, s.Confidence)
		write(9, string(s.Method))
		write(10, s.Filename)
		write(11, csvexport.FormatFields(s.ExtractedFields))
		write(12, run.CreatedAt.Format(time.RFC3339))
	}

	_ = f.SetColWidth(SectionsSheet, "A", "A", 38) // run id
	_ = f.SetColWidth(SectionsSheet, "B", "B", 28) // source
	_ = f.SetColWidth(SectionsSheet, "C", "F", 10) // pages
	_ = f.SetColWidth(SectionsSheet, "G", "I", 22) // type, confidence, method
	_ = f.SetColWidth(SectionsSheet, "J", "K", 48) // filename, fields
	_ = f.SetColWidth(SectionsSheet, "L", "L", 22) // created

	summary := [][]any{
		{"Source", run.SourceName},
		{"Pages", run.PageCount},
		{"Sections", len(run.Sections)},
		{string(domain.MethodRuleBased), run.Methods.RuleBased},
		{string(domain.MethodAPI), run.Methods.API},
		{string(domain.MethodFallback), run.Methods.Fallback},
	}
	for i, kv := range summary {
		for j, v := range kv {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+1)
			_ = f.SetCellValue(SummarySheet, cell, v)
		}
	}
	_ = f.SetColWidth(SummarySheet, "A", "A", 16)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	return buf.Bytes(), nil
}
