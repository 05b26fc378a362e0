package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/spigell/job-agent/internal/jobs"
)

const SheetName = "Jobs"

// WriteXLSX stores the same table as WriteCSV in a workbook. Similarity is
// written as a number so the sheet can be sorted.
func WriteXLSX(path string, postings []*jobs.Posting) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return err
	}

	header := make([]interface{}, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("set header: %w", err)
	}

	rowIdx := 2
	for _, p := range postings {
		if p == nil {
			continue
		}
		values := row(p)
		cells := make([]interface{}, len(values))
		for i, v := range values {
			cells[i] = v
		}
		if p.Similarity != nil {
			cells[4] = *p.Similarity
		}

		cell, err := excelize.CoordinatesToCellName(1, rowIdx)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
			return fmt.Errorf("set row %d: %w", rowIdx, err)
		}
		rowIdx++
	}

	if err := f.SetColWidth(SheetName, "B", "C", 32); err != nil {
		return err
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	return f.SaveAs(path)
}
