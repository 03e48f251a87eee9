package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func call(cb *CircuitBreaker, err error) error {
	_, got := ExecuteVal(context.Background(), cb, func(context.Context) (int, error) {
		return 0, err
	})
	return got
}

// breakerAt returns a breaker whose clock is controlled by the returned pointer.
func breakerAt(cfg CircuitBreakerConfig) (*CircuitBreaker, *time.Time) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(cfg)
	cb.now = func() time.Time { return now }
	return cb, &now
}

func TestCircuitState_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "closed", CircuitClosed.String())
	assert.Equal(t, "open", CircuitOpen.String())
	assert.Equal(t, "half-open", CircuitHalfOpen.String())
	assert.Equal(t, "unknown", CircuitState(42).String())
}

func TestNewCircuitBreaker_Defaults(t *testing.T) {
	t.Parallel()
	cb := NewCircuitBreaker(CircuitBreakerConfig{})
	assert.Equal(t, 5, cb.cfg.FailureThreshold)
	assert.Equal(t, 30*time.Second, cb.cfg.ResetTimeout)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_OpensAtThreshold(t *testing.T) {
	t.Parallel()
	cb, _ := breakerAt(CircuitBreakerConfig{FailureThreshold: 3, ResetTimeout: time.Minute})

	for range 2 {
		require.ErrorIs(t, call(cb, errBoom), errBoom)
	}
	assert.Equal(t, CircuitClosed, cb.State())

	require.ErrorIs(t, call(cb, errBoom), errBoom)
	assert.Equal(t, CircuitOpen, cb.State())

	ran := false
	_, err := ExecuteVal(context.Background(), cb, func(context.Context) (int, error) {
		ran = true
		return 1, nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, ran, "open breaker must not run fn")
}

func TestCircuitBreaker_SuccessResetsCount(t *testing.T) {
	t.Parallel()
	cb, _ := breakerAt(CircuitBreakerConfig{FailureThreshold: 2})

	_ = call(cb, errBoom)
	require.NoError(t, call(cb, nil))
	_ = call(cb, errBoom)
	assert.Equal(t, CircuitClosed, cb.State())
}

func TestCircuitBreaker_ShouldTripFiltersErrors(t *testing.T) {
	t.Parallel()
	rateLimited := NewRateLimitedError(errBoom, 429, 0)
	cb, _ := breakerAt(CircuitBreakerConfig{FailureThreshold: 2, ShouldTrip: IsRateLimited})

	_ = call(cb, rateLimited)
	_ = call(cb, errors.New("not found"))
	_ = call(cb, rateLimited)
	assert.Equal(t, CircuitClosed, cb.State(), "non-tripping error resets the count")

	_ = call(cb, rateLimited)
	assert.Equal(t, CircuitOpen, cb.State())
}

func TestCircuitBreaker_ProbeClosesOnSuccess(t *testing.T) {
	t.Parallel()
	var transitions []string
	cb, now := breakerAt(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Minute,
		OnStateChange: func(from, to CircuitState) {
			transitions = append(transitions, from.String()+">"+to.String())
		},
	})

	_ = call(cb, errBoom)
	require.Equal(t, CircuitOpen, cb.State())

	*now = now.Add(time.Minute)
	assert.Equal(t, CircuitHalfOpen, cb.State())

	require.NoError(t, call(cb, nil))
	assert.Equal(t, CircuitClosed, cb.State())
	assert.Equal(t, []string{"closed>open", "open>half-open", "half-open>closed"}, transitions)
}

func TestCircuitBreaker_ProbeFailureReopens(t *testing.T) {
	t.Parallel()
	cb, now := breakerAt(CircuitBreakerConfig{FailureThreshold: 3, ResetTimeout: time.Minute})

	for range 3 {
		_ = call(cb, errBoom)
	}
	*now = now.Add(2 * time.Minute)

	require.ErrorIs(t, call(cb, errBoom), errBoom)
	assert.Equal(t, CircuitOpen, cb.State(), "a failed probe reopens immediately")

	*now = now.Add(30 * time.Second)
	assert.ErrorIs(t, call(cb, nil), ErrCircuitOpen, "reset timeout restarts from the failed probe")
}

func TestCircuitBreaker_SingleProbeInFlight(t *testing.T) {
	t.Parallel()
	cb, now := breakerAt(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Minute})
	_ = call(cb, errBoom)
	*now = now.Add(time.Minute)

	_, err := ExecuteVal(context.Background(), cb, func(context.Context) (int, error) {
		assert.ErrorIs(t, call(cb, nil), ErrCircuitOpen, "second caller is rejected while probing")
		return 0, nil
	})
	require.NoError(t, err)
	assert.Equal(t, CircuitClosed, cb.State())
}
