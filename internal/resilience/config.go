package resilience

import "time"

// FromRetryConfig builds a RetryConfig from plain config values. Zero or
// negative values keep the default, except jitterFraction where zero
// disables jitter and only a negative value keeps the default.
func FromRetryConfig(maxAttempts, initialBackoffMs, maxBackoffMs int, multiplier, jitterFraction float64) RetryConfig {
	cfg := DefaultRetryConfig()
	setPositive(&cfg.MaxAttempts, maxAttempts)
	setPositive(&cfg.InitialBackoff, time.Duration(initialBackoffMs)*time.Millisecond)
	setPositive(&cfg.MaxBackoff, time.Duration(maxBackoffMs)*time.Millisecond)
	setPositive(&cfg.Multiplier, multiplier)
	if jitterFraction >= 0 {
		cfg.JitterFraction = jitterFraction
	}
	return cfg
}

// FromCircuitConfig builds a CircuitBreakerConfig from plain config values.
func FromCircuitConfig(failureThreshold, resetTimeoutSecs int) CircuitBreakerConfig {
	cfg := DefaultCircuitBreakerConfig()
	setPositive(&cfg.FailureThreshold, failureThreshold)
	setPositive(&cfg.ResetTimeout, time.Duration(resetTimeoutSecs)*time.Second)
	return cfg
}

func setPositive[T int | float64 | time.Duration](dst *T, v T) {
	if v > 0 {
		*dst = v
	}
}
