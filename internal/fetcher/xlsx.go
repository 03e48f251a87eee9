package fetcher

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// XLSXOptions configures ReadXLSX.
type XLSXOptions struct {
	// SheetName selects a sheet. Empty picks the first sheet with any
	// non-blank cell.
	SheetName string
	TrimSpace bool
	SkipBlank bool // drop rows whose cells are all empty
}

// ReadXLSX reads one sheet of a workbook. Row.Line is the 1-based sheet row.
func ReadXLSX(path string, opts XLSXOptions) ([]Row, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "xlsx: open %s", path)
	}

	if opts.SheetName != "" {
		sheet, ok := f.Sheet[opts.SheetName]
		if !ok {
			return nil, eris.Errorf("xlsx: sheet %q not found in %s", opts.SheetName, path)
		}
		return sheetRows(sheet, opts), nil
	}

	for _, sheet := range f.Sheets {
		if rows := sheetRows(sheet, opts); hasData(rows) {
			return rows, nil
		}
	}
	return nil, eris.Errorf("xlsx: no sheet with data in %s", path)
}

func sheetRows(sheet *xlsx.Sheet, opts XLSXOptions) []Row {
	var rows []Row
	for n, row := range sheet.Rows {
		if row == nil {
			continue
		}
		cells := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			cells[i] = cell.String()
			if opts.TrimSpace {
				cells[i] = strings.TrimSpace(cells[i])
			}
		}
		if opts.SkipBlank && blankRow(cells) {
			continue
		}
		rows = append(rows, Row{Line: n + 1, Cells: cells})
	}
	return rows
}

func hasData(rows []Row) bool {
	for _, r := range rows {
		if !blankRow(r.Cells) {
			return true
		}
	}
	return false
}
