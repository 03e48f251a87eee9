package fetcher

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

type testSheet struct {
	name string
	rows [][]string
}

func createTestXLSX(t *testing.T, sheets ...testSheet) string {
	t.Helper()
	f := xlsx.NewFile()
	for _, s := range sheets {
		sheet, err := f.AddSheet(s.name)
		require.NoError(t, err)
		for _, rowData := range s.rows {
			row := sheet.AddRow()
			for _, cellData := range rowData {
				row.AddCell().SetString(cellData)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "roster.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestReadXLSX_Basic(t *testing.T) {
	path := createTestXLSX(t, testSheet{"Roster", [][]string{
		{"Name", "Instagram", "Comms Status"},
		{"Jane Doe", "instagram.com/janedoe", "Contacted"},
	}})

	rows, err := ReadXLSX(path, XLSXOptions{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, [][]string{
		{"Name", "Instagram", "Comms Status"},
		{"Jane Doe", "instagram.com/janedoe", "Contacted"},
	}, cellsOf(rows))
}

func TestReadXLSX_TrimAndSkipBlank(t *testing.T) {
	path := createTestXLSX(t, testSheet{"Roster", [][]string{
		{" Name ", "Handle"},
		{"", ""},
		{" Jane ", " janedoe "},
	}})

	rows, err := ReadXLSX(path, XLSXOptions{TrimSpace: true, SkipBlank: true})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Name", "Handle"}, rows[0].Cells)
	assert.Equal(t, []string{"Jane", "janedoe"}, rows[1].Cells)
	assert.Equal(t, 1, rows[0].Line)
	assert.Equal(t, 3, rows[1].Line, "skipped rows still count toward the sheet row")
}

func TestReadXLSX_SkipsEmptyLeadingSheets(t *testing.T) {
	path := createTestXLSX(t,
		testSheet{"Cover", [][]string{{"", " "}}},
		testSheet{"Roster", [][]string{{"Name"}, {"Jane"}}},
		testSheet{"Archive", [][]string{{"Name"}, {"Old"}}},
	)

	rows, err := ReadXLSX(path, XLSXOptions{TrimSpace: true})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Jane"}, rows[1].Cells)
}

func TestReadXLSX_SheetName(t *testing.T) {
	path := createTestXLSX(t,
		testSheet{"First", [][]string{{"a", "b"}}},
		testSheet{"Second", [][]string{{"x", "y"}, {"1", "2"}}},
	)

	rows, err := ReadXLSX(path, XLSXOptions{SheetName: "Second"})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"x", "y"}, rows[0].Cells)
}

func TestReadXLSX_SheetNameNotFound(t *testing.T) {
	path := createTestXLSX(t, testSheet{"First", [][]string{{"a"}}})

	_, err := ReadXLSX(path, XLSXOptions{SheetName: "Missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `sheet "Missing" not found`)
}

func TestReadXLSX_NoData(t *testing.T) {
	path := createTestXLSX(t, testSheet{"Empty", [][]string{{""}}})

	_, err := ReadXLSX(path, XLSXOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no sheet with data")
}

func TestReadXLSX_MissingFile(t *testing.T) {
	_, err := ReadXLSX(filepath.Join(t.TempDir(), "missing.xlsx"), XLSXOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "xlsx: open")
}
