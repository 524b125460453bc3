package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream failed")

func failN(b *Breaker, n int) {
	for i := 0; i < n; i++ {
		b.Execute(func() (interface{}, error) { return nil, errUpstream })
	}
}

func TestBreakerStartsClosed(t *testing.T) {
	b := New("test", Settings{})
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerPassesThroughSuccess(t *testing.T) {
	b := New("test", Settings{})

	result, err := b.Execute(func() (interface{}, error) {
		return "ok", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerTripsAfterConsecutiveFailures(t *testing.T) {
	b := New("test", Settings{
		ReadyToTrip: func(counts Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	failN(b, 3)
	assert.Equal(t, StateOpen, b.State())

	_, err := b.Execute(func() (interface{}, error) {
		t.Fatal("request should not execute while open")
		return nil, nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestBreakerSuccessResetsConsecutiveFailures(t *testing.T) {
	b := New("test", Settings{
		ReadyToTrip: func(counts Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	failN(b, 2)
	_, err := b.Execute(func() (interface{}, error) { return nil, nil })
	require.NoError(t, err)
	failN(b, 2)

	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenAfterTimeout(t *testing.T) {
	b := New("test", Settings{
		Timeout: 20 * time.Millisecond,
		ReadyToTrip: func(counts Counts) bool {
			return counts.ConsecutiveFailures >= 1
		},
	})

	failN(b, 1)
	require.Equal(t, StateOpen, b.State())

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, b.State())

	// A successful probe closes the circuit
	_, err := b.Execute(func() (interface{}, error) { return nil, nil })
	require.NoError(t, err)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenFailureReopens(t *testing.T) {
	b := New("test", Settings{
		Timeout: 20 * time.Millisecond,
		ReadyToTrip: func(counts Counts) bool {
			return counts.ConsecutiveFailures >= 1
		},
	})

	failN(b, 1)
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, StateHalfOpen, b.State())

	failN(b, 1)
	assert.Equal(t, StateOpen, b.State())
}

func TestBreakerHalfOpenLimitsProbes(t *testing.T) {
	b := New("test", Settings{
		MaxRequests: 1,
		Timeout:     20 * time.Millisecond,
		ReadyToTrip: func(counts Counts) bool {
			return counts.ConsecutiveFailures >= 1
		},
	})

	failN(b, 1)
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, StateHalfOpen, b.State())

	release := make(chan struct{})
	go b.Execute(func() (interface{}, error) {
		<-release
		return nil, nil
	})
	time.Sleep(10 * time.Millisecond)

	_, err := b.Execute(func() (interface{}, error) { return nil, nil })
	assert.ErrorIs(t, err, ErrTooManyRequests)
	close(release)
}

func TestBreakerStateChangeCallback(t *testing.T) {
	var transitions []State
	b := New("test", Settings{
		ReadyToTrip: func(counts Counts) bool {
			return counts.ConsecutiveFailures >= 1
		},
		OnStateChange: func(name string, from, to State) {
			assert.Equal(t, "test", name)
			transitions = append(transitions, to)
		},
	})

	failN(b, 1)
	require.Equal(t, []State{StateOpen}, transitions)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "unknown", State(99).String())
}
