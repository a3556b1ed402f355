package gateway

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/retry"
)

type (
	retrier = retry.Retry[[]byte]
	breaker = circuitbreaker.CircuitBreaker[[]byte]
)

// newRetrier builds the retry policy for read-only calls. Only transient
// failures are retried; credential and session failures surface immediately.
func newRetrier() retrier {
	return retry.New[[]byte](retry.Config{
		MaxAttempts:   3,
		InitialDelay:  200 * time.Millisecond,
		MaxDelay:      2 * time.Second,
		Multiplier:    2.0,
		BackoffPolicy: retry.BackoffExponential,
		Jitter:        true,
		IsRetryable:   isRetryable,
	})
}

// newBreaker builds the circuit breaker guarding read-only calls
func newBreaker(logger *slog.Logger) breaker {
	return circuitbreaker.New[[]byte](circuitbreaker.Config{
		MaxRequests: 2,
		Interval:    30 * time.Second,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts circuitbreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(from, to circuitbreaker.State) {
			logger.Warn("backend circuit breaker state change",
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
}

// isRetryable reports whether an error is worth another attempt: network
// failures and throttling/server statuses. 401s are never retried — their
// handling is part of the gateway contract, not a transient fault.
func isRetryable(err error) bool {
	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return true
	}

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		return false
	}
	switch reqErr.Status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
