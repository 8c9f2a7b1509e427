package infra

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRelay = errors.New("relay down")

func failingCB(t *testing.T, cfg CircuitBreakerConfig) *CircuitBreaker {
	t.Helper()
	cb := NewCircuitBreaker(cfg)
	for i := 0; i < cfg.FailureThreshold; i++ {
		err := cb.Execute(func() error { return errRelay })
		require.ErrorIs(t, err, errRelay)
	}
	return cb
}

func TestCircuitBreakerTripsAfterThreshold(t *testing.T) {
	cb := failingCB(t, CircuitBreakerConfig{FailureThreshold: 3, SuccessThreshold: 1, OpenTimeout: time.Minute})

	assert.Equal(t, CBOpen, cb.State())
	err := cb.Execute(func() error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3, SuccessThreshold: 1, OpenTimeout: time.Minute})

	for i := 0; i < 10; i++ {
		_ = cb.Execute(func() error { return errRelay })
		_ = cb.Execute(func() error { return errRelay })
		require.NoError(t, cb.Execute(func() error { return nil }))
	}
	assert.Equal(t, CBClosed, cb.State())
}

func TestCircuitBreakerHalfOpenRecovery(t *testing.T) {
	cb := failingCB(t, CircuitBreakerConfig{FailureThreshold: 2, SuccessThreshold: 2, OpenTimeout: 10 * time.Millisecond})

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, CBHalfOpen, cb.State())

	// Two successful probes close the circuit.
	require.NoError(t, cb.Execute(func() error { return nil }))
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, CBClosed, cb.State())
}

func TestCircuitBreakerHalfOpenProbeFailureReopens(t *testing.T) {
	cb := failingCB(t, CircuitBreakerConfig{FailureThreshold: 2, SuccessThreshold: 1, OpenTimeout: 10 * time.Millisecond})

	time.Sleep(20 * time.Millisecond)
	require.Equal(t, CBHalfOpen, cb.State())

	err := cb.Execute(func() error { return errRelay })
	require.ErrorIs(t, err, errRelay)
	assert.Equal(t, CBOpen, cb.State())

	err = cb.Execute(func() error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}
