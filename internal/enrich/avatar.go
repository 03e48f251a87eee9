package enrich

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
	"github.com/rotisserie/eris"

	"github.com/sells-group/creator-roster/internal/blob"
)

const (
	avatarJPEGQuality = 85
	maxAvatarBytes    = 10 << 20
)

// AvatarConfig controls avatar transfer.
type AvatarConfig struct {
	Enabled bool
	// MaxPx caps the longest side; zero keeps the original dimensions.
	MaxPx   int
	Timeout time.Duration
}

type avatarTransfer struct {
	store   blob.Store
	http    *http.Client
	maxPx   int
	timeout time.Duration
	now     func() time.Time
}

func newAvatarTransfer(store blob.Store, cfg AvatarConfig) *avatarTransfer {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &avatarTransfer{
		store:   store,
		http:    defaultHTTPClient,
		maxPx:   cfg.MaxPx,
		timeout: timeout,
		now:     time.Now,
	}
}

// avatarKey is unique per handle and second so repeated runs never collide.
func avatarKey(handle string, at time.Time) string {
	return fmt.Sprintf("avatars/%s-%d.jpg", handle, at.Unix())
}

func (a *avatarTransfer) transfer(ctx context.Context, handle, sourceURL string) (blob.Ref, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	data, err := a.download(ctx, sourceURL)
	if err != nil {
		return "", err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", eris.Wrap(err, "decode avatar")
	}
	if a.maxPx > 0 {
		b := img.Bounds()
		if b.Dx() > a.maxPx || b.Dy() > a.maxPx {
			img = imaging.Fit(img, a.maxPx, a.maxPx, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(avatarJPEGQuality)); err != nil {
		return "", eris.Wrap(err, "encode avatar")
	}

	return a.store.Upload(ctx, avatarKey(handle, a.now()), buf.Bytes(), "image/jpeg")
}

func (a *avatarTransfer) download(ctx context.Context, sourceURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "create avatar request")
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "download avatar")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("download avatar: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAvatarBytes+1))
	if err != nil {
		return nil, eris.Wrap(err, "read avatar")
	}
	if len(data) > maxAvatarBytes {
		return nil, eris.Errorf("avatar exceeds %d bytes", maxAvatarBytes)
	}
	return data, nil
}
