// Package enrich fetches baseline profile data for newly created identities.
// Every outbound lookup, retries included, waits on a fixed-interval gate.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/creator-roster/internal/blob"
	"github.com/sells-group/creator-roster/internal/influencer"
	"github.com/sells-group/creator-roster/internal/resilience"
	"github.com/sells-group/creator-roster/pkg/profile"
)

// FailureKind classifies an enrichment failure.
type FailureKind int

const (
	// FailureNotFound covers missing profiles and timed-out lookups.
	FailureNotFound FailureKind = iota
	// FailureRateLimited covers 429 responses and an open breaker.
	FailureRateLimited
	// FailureTransient covers everything else, after retries ran out.
	FailureTransient
)

func (k FailureKind) String() string {
	switch k {
	case FailureNotFound:
		return "NOT_FOUND"
	case FailureRateLimited:
		return "RATE_LIMITED"
	default:
		return "TRANSIENT_ERROR"
	}
}

// Failure is the typed error returned by Enrich.
type Failure struct {
	Kind    FailureKind
	Handle  string
	Timeout bool
	Err     error
}

func (f *Failure) Error() string {
	msg := fmt.Sprintf("enrich: %s for %s", f.Kind, f.Handle)
	if f.Timeout {
		msg += " (timeout)"
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Config controls the enricher.
type Config struct {
	// Throttle is the minimum spacing between lookup requests.
	Throttle time.Duration
	// AttemptTimeout bounds each lookup request.
	AttemptTimeout time.Duration
	Retry          resilience.RetryConfig
	Breaker        resilience.CircuitBreakerConfig
	Avatar         AvatarConfig
}

// Enricher wraps a profile.Client with the gate, retries and breaker.
type Enricher struct {
	client  profile.Client
	limiter *rate.Limiter
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryConfig
	avatars *avatarTransfer
}

// New creates an Enricher. store may be nil, which disables avatar transfer.
func New(client profile.Client, store blob.Store, cfg Config) *Enricher {
	limit := rate.Inf
	if cfg.Throttle > 0 {
		limit = rate.Every(cfg.Throttle)
	}

	breakerCfg := cfg.Breaker
	breakerCfg.ShouldTrip = resilience.IsRateLimited
	breakerCfg.OnStateChange = func(from, to resilience.CircuitState) {
		zap.L().Warn("enrich: breaker state change",
			zap.String("from", from.String()),
			zap.String("to", to.String()),
		)
	}

	e := &Enricher{
		client:  client,
		limiter: rate.NewLimiter(limit, 1),
		breaker: resilience.NewCircuitBreaker(breakerCfg),
		retry:   cfg.Retry,
	}
	e.retry.AttemptTimeout = cfg.AttemptTimeout
	e.retry.Gate = e.limiter.Wait
	e.retry.ShouldRetry = shouldRetry
	if e.retry.OnRetry == nil {
		e.retry.OnRetry = resilience.RetryLogger("profile", "lookup")
	}

	if cfg.Avatar.Enabled && store != nil {
		e.avatars = newAvatarTransfer(store, cfg.Avatar)
	}
	return e
}

// shouldRetry retries transient failures except per-attempt timeouts, which
// are reported as not found.
func shouldRetry(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return resilience.IsTransient(err)
}

// Enrich looks handle up and returns its snapshot. The error, if any, is
// always a *Failure.
func (e *Enricher) Enrich(ctx context.Context, handle string) (*influencer.Snapshot, error) {
	if e.breaker.State() == resilience.CircuitOpen {
		return nil, &Failure{Kind: FailureRateLimited, Handle: handle, Err: resilience.ErrCircuitOpen}
	}

	p, err := resilience.DoVal(ctx, e.retry, func(ctx context.Context) (*profile.Profile, error) {
		return resilience.ExecuteVal(ctx, e.breaker, func(ctx context.Context) (*profile.Profile, error) {
			p, err := e.client.Lookup(ctx, handle)
			return p, classify(err)
		})
	})
	if err != nil {
		f := toFailure(ctx, handle, err)
		zap.L().Warn("enrich: lookup failed",
			zap.String("handle", handle),
			zap.String("kind", f.Kind.String()),
			zap.Bool("timeout", f.Timeout),
			zap.Error(err),
		)
		return nil, f
	}

	return &influencer.Snapshot{
		Handle:          handle,
		DisplayName:     p.FullName,
		FollowerCount:   max(p.FollowerCount, 0),
		AvatarSourceURL: p.ProfilePicURL,
	}, nil
}

// classify marks retryable API responses as resilience.TransientError.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var se *profile.StatusError
	if errors.As(err, &se) {
		switch {
		case se.RateLimited():
			return resilience.NewRateLimitedError(err, se.StatusCode, se.RetryAfter)
		case resilience.IsTransientHTTPStatus(se.StatusCode):
			return resilience.NewTransientError(err, se.StatusCode)
		}
	}
	return err
}

func toFailure(ctx context.Context, handle string, err error) *Failure {
	f := &Failure{Handle: handle, Err: err, Kind: FailureTransient}
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen), resilience.IsRateLimited(err):
		f.Kind = FailureRateLimited
	case errors.Is(err, profile.ErrNotFound):
		f.Kind = FailureNotFound
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		f.Kind = FailureNotFound
		f.Timeout = true
	}
	return f
}

// TransferAvatar copies the snapshot's avatar into the blob store and sets
// AvatarRef and AvatarURL. It is best effort: on error the snapshot is left
// without an avatar.
func (e *Enricher) TransferAvatar(ctx context.Context, snap *influencer.Snapshot) error {
	if e.avatars == nil || snap == nil || snap.AvatarSourceURL == "" {
		return nil
	}
	ref, err := e.avatars.transfer(ctx, snap.Handle, snap.AvatarSourceURL)
	if err != nil {
		return eris.Wrapf(err, "enrich: avatar for %s", snap.Handle)
	}
	snap.AvatarRef = string(ref)
	snap.AvatarURL = e.avatars.store.PublicURL(ref)
	return nil
}

// defaultHTTPClient is shared by avatar downloads; per-download deadlines
// come from the request context.
var defaultHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	},
}
