package fetcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// ReadTable reads a roster export, choosing the parser from the file
// extension: .xlsx is read as a workbook (first sheet), .tsv and .txt as
// tab-separated text, anything else as comma-separated text. Cells are
// trimmed and blank rows dropped; Row.Line keeps the source position.
func ReadTable(ctx context.Context, path string) ([]Row, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return ReadXLSX(path, XLSXOptions{TrimSpace: true, SkipBlank: true})
	case ".tsv", ".txt":
		return readDelimitedFile(ctx, path, '\t')
	default:
		return readDelimitedFile(ctx, path, ',')
	}
}

func readDelimitedFile(ctx context.Context, path string, delim rune) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	rows, err := ReadCSV(ctx, f, CSVOptions{
		Delimiter:  delim,
		LazyQuotes: true,
		TrimSpace:  true,
		SkipBlank:  true,
	})
	if err != nil {
		return nil, eris.Wrapf(err, "fetcher: read %s", path)
	}
	return rows, nil
}
