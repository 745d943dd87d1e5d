package resilience

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func run(b *Breaker, outcomes ...bool) {
	for _, ok := range outcomes {
		_ = b.Execute(func() error {
			if ok {
				return nil
			}
			return errBoom
		})
	}
}

func TestBreakerStateTransitions(t *testing.T) {
	tests := []struct {
		name          string
		threshold     uint32
		outcomes      []bool
		expectedState State
	}{
		{"stays closed on successes", 3, []bool{true, true, true}, StateClosed},
		{"opens after consecutive failures", 3, []bool{false, false, false}, StateOpen},
		{"success resets consecutive failures", 3, []bool{false, false, true, false, false}, StateClosed},
		{"default threshold is five", 0, []bool{false, false, false, false, false}, StateOpen},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("test", Settings{FailureThreshold: tt.threshold})
			run(b, tt.outcomes...)
			assert.Equal(t, tt.expectedState, b.State())
		})
	}
}

func TestBreakerRecovery(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1000, 0)}
	var transitions []string

	b := New("deploy", Settings{
		FailureThreshold: 2,
		OpenTimeout:      time.Minute,
		HalfOpenProbes:   1,
		Now:              clock.Now,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	run(b, false, false)
	require.Equal(t, StateOpen, b.State())

	err := b.Execute(func() error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)

	clock.Advance(time.Minute)
	assert.Equal(t, StateHalfOpen, b.State())

	t.Run("failed probe reopens", func(t *testing.T) {
		run(b, false)
		assert.Equal(t, StateOpen, b.State())
	})

	t.Run("successful probe closes", func(t *testing.T) {
		clock.Advance(time.Minute)
		run(b, true)
		assert.Equal(t, StateClosed, b.State())
	})

	assert.Equal(t, []string{
		"closed->open",
		"open->half-open",
		"half-open->open",
		"open->half-open",
		"half-open->closed",
	}, transitions)
}

func TestBreakerHalfOpenLimitsProbes(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	b := New("deploy", Settings{FailureThreshold: 1, OpenTimeout: time.Second, Now: clock.Now})

	run(b, false)
	clock.Advance(time.Second)

	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- b.Execute(func() error {
			<-release
			return nil
		})
	}()

	assert.Eventually(t, func() bool { return b.Counts().Requests == 1 }, time.Second, time.Millisecond)
	assert.ErrorIs(t, b.Execute(func() error { return nil }), ErrTooManyRequests)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerPanicCountsAsFailure(t *testing.T) {
	b := New("test", Settings{FailureThreshold: 1})

	assert.Panics(t, func() {
		_ = b.Execute(func() error { panic("bad") })
	})
	assert.Equal(t, StateOpen, b.State())
	assert.Equal(t, "test", b.Name())
}
