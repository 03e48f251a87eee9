// Package blob stores binary assets (creator avatars) by key and exposes
// their public URLs.
package blob

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Ref is an opaque reference to a stored object.
type Ref string

// Store uploads objects by key. Upload failures are reported to the caller,
// who decides whether they matter.
type Store interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (Ref, error)
	PublicURL(ref Ref) string
}

// LocalStore implements Store on the local filesystem. Objects are written
// under baseDir and served from baseURL by whatever fronts that directory.
type LocalStore struct {
	baseDir string
	baseURL string
}

// NewLocalStore creates the base directory if needed.
func NewLocalStore(baseDir, baseURL string) (*LocalStore, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, eris.Wrapf(err, "blob: invalid base dir %s", baseDir)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, eris.Wrapf(err, "blob: create base dir %s", abs)
	}
	zap.L().Debug("blob: local store ready", zap.String("dir", abs))
	return &LocalStore{baseDir: abs, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// resolve maps key to a path inside baseDir, rejecting keys that escape it.
func (s *LocalStore) resolve(key string) (string, error) {
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return "", eris.New("blob: empty key")
	}
	full := filepath.Join(s.baseDir, filepath.FromSlash(key))
	if !strings.HasPrefix(full, s.baseDir+string(filepath.Separator)) {
		return "", eris.Errorf("blob: key %q resolves outside base dir", key)
	}
	return full, nil
}

// Upload writes data to key, replacing any existing object. The write goes
// to a temp file first so a failed upload never leaves a partial object.
func (s *LocalStore) Upload(ctx context.Context, key string, data []byte, contentType string) (Ref, error) {
	if err := ctx.Err(); err != nil {
		return "", eris.Wrap(err, "blob: upload")
	}
	full, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", eris.Wrapf(err, "blob: create dir for %s", key)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return "", eris.Wrapf(err, "blob: temp file for %s", key)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck
		return "", eris.Wrapf(err, "blob: write %s", key)
	}
	if err := tmp.Close(); err != nil {
		return "", eris.Wrapf(err, "blob: close %s", key)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		return "", eris.Wrapf(err, "blob: commit %s", key)
	}

	zap.L().Debug("blob: uploaded",
		zap.String("key", key),
		zap.String("content_type", contentType),
		zap.Int("bytes", len(data)),
	)
	return Ref(filepath.ToSlash(strings.TrimLeft(key, "/"))), nil
}

// PublicURL joins the configured base URL and the object key.
func (s *LocalStore) PublicURL(ref Ref) string {
	if s.baseURL == "" {
		return "file://" + filepath.ToSlash(filepath.Join(s.baseDir, string(ref)))
	}
	return s.baseURL + "/" + string(ref)
}
