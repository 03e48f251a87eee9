package roster

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/creator-roster/internal/fetcher"
)

// LoadOptions configures LoadTable.
type LoadOptions struct {
	Kind Kind
	// Label names the source in provenance and notes. Defaults to the file
	// name.
	Label string
}

// LoadTable reads a .csv, .tsv/.txt or .xlsx export and resolves its header.
// A primary table must have a name column and a secondary table a URL
// column; anything else is optional.
func LoadTable(ctx context.Context, path string, opts LoadOptions) (*Table, error) {
	records, err := fetcher.ReadTable(ctx, path)
	if err != nil {
		return nil, eris.Wrapf(err, "roster: load %s table", opts.Kind)
	}
	if len(records) == 0 {
		return nil, eris.Errorf("roster: %s table %s is empty", opts.Kind, path)
	}

	label := opts.Label
	if label == "" {
		label = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}

	header := records[0].Cells
	t := &Table{
		Label:   label,
		Path:    path,
		Kind:    opts.Kind,
		Columns: resolveHeader(header, opts.Kind),
	}

	switch opts.Kind {
	case KindPrimary:
		if !t.Has(FieldName) {
			return nil, eris.Errorf("roster: %s has no name column (header: %s)", path, strings.Join(header, ", "))
		}
	case KindSecondary:
		if !t.Has(FieldURL) {
			return nil, eris.Errorf("roster: %s has no post URL column (header: %s)", path, strings.Join(header, ", "))
		}
	}

	t.Rows = make([]Row, 0, len(records)-1)
	for _, rec := range records[1:] {
		t.Rows = append(t.Rows, Row{Number: rec.Line, Cells: rec.Cells})
	}

	zap.L().Info("roster: loaded table",
		zap.String("kind", opts.Kind.String()),
		zap.String("path", path),
		zap.Int("rows", len(t.Rows)),
		zap.Int("mapped_columns", len(t.Columns)),
	)
	return t, nil
}
