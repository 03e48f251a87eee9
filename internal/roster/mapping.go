package roster

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/creator-roster/internal/fetcher"
	"github.com/sells-group/creator-roster/internal/normalize"
)

// MappingLabel is the provenance label for references taken from the
// handle-mapping file.
const MappingLabel = "mapping"

// Mapping is the manually curated name -> social reference side file.
type Mapping struct {
	byName map[string]string
}

// NewMapping builds a Mapping from name/reference pairs. Names are expected
// to be distinct after folding.
func NewMapping(pairs map[string]string) Mapping {
	m := Mapping{byName: make(map[string]string, len(pairs))}
	for name, ref := range pairs {
		m.add(name, ref)
	}
	return m
}

func (m Mapping) add(name, ref string) bool {
	key := normalize.Fold(name)
	if key == "" || ref == "" {
		return false
	}
	if _, ok := m.byName[key]; ok {
		return false
	}
	m.byName[key] = ref
	return true
}

// Lookup returns the reference recorded for name. Names compare after case
// folding and whitespace collapsing.
func (m Mapping) Lookup(name string) (string, bool) {
	if m.byName == nil {
		return "", false
	}
	ref, ok := m.byName[normalize.Fold(name)]
	return ref, ok
}

// Len returns the number of distinct names.
func (m Mapping) Len() int {
	return len(m.byName)
}

// LoadMapping reads a tab-separated name<TAB>reference file. A first row
// whose first cell is a name header is skipped.
func LoadMapping(ctx context.Context, path string) (Mapping, error) {
	f, err := os.Open(path)
	if err != nil {
		return Mapping{}, eris.Wrapf(err, "roster: open mapping %s", path)
	}
	defer f.Close() //nolint:errcheck

	records, err := fetcher.ReadCSV(ctx, f, fetcher.CSVOptions{
		Delimiter:  '\t',
		LazyQuotes: true,
		TrimSpace:  true,
		SkipBlank:  true,
	})
	if err != nil {
		return Mapping{}, eris.Wrapf(err, "roster: read mapping %s", path)
	}

	m := Mapping{byName: make(map[string]string, len(records))}
	for i, rec := range records {
		cells := rec.Cells
		if i == 0 && len(cells) > 0 && primaryIndex[headerKey(cells[0])] == FieldName {
			continue
		}
		if len(cells) < 2 {
			zap.L().Warn("roster: mapping row without reference", zap.String("path", path), zap.Int("line", rec.Line))
			continue
		}
		if !m.add(cells[0], cells[1]) {
			zap.L().Debug("roster: ignoring mapping row", zap.String("name", cells[0]), zap.Int("line", rec.Line))
		}
	}

	zap.L().Info("roster: loaded mapping", zap.String("path", path), zap.Int("names", m.Len()))
	return m, nil
}
