package resilience

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrCircuitOpen     = errors.New("circuit breaker is open")
	ErrTooManyRequests = errors.New("too many requests while half-open")
)

// State represents the circuit breaker state
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures the circuit breaker
type Settings struct {
	// FailureThreshold is the number of consecutive failures that opens the circuit
	FailureThreshold uint32
	// OpenTimeout is how long the circuit stays open before probing
	OpenTimeout time.Duration
	// HalfOpenProbes is the number of probe requests, and successes needed to close
	HalfOpenProbes uint32
	// OnStateChange is called whenever the state changes
	OnStateChange func(name string, from, to State)
	// Now overrides the clock, mainly for tests
	Now func() time.Time
}

// Counts holds the statistics of the current state
type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

// Breaker implements the circuit breaker pattern
type Breaker struct {
	name     string
	settings Settings

	mu         sync.Mutex
	state      State
	counts     Counts
	openedAt   time.Time
	generation uint64
}

// New creates a circuit breaker, filling unset settings with defaults
func New(name string, settings Settings) *Breaker {
	if settings.FailureThreshold == 0 {
		settings.FailureThreshold = 5
	}
	if settings.OpenTimeout == 0 {
		settings.OpenTimeout = 30 * time.Second
	}
	if settings.HalfOpenProbes == 0 {
		settings.HalfOpenProbes = 1
	}
	if settings.Now == nil {
		settings.Now = time.Now
	}

	return &Breaker{
		name:     name,
		settings: settings,
		state:    StateClosed,
	}
}

// Name returns the breaker name
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state, promoting an expired open circuit to half-open
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refresh()
	return b.state
}

// Counts returns a copy of the counts of the current state
func (b *Breaker) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.counts
}

// Execute runs fn if the breaker admits it and records the outcome
func (b *Breaker) Execute(fn func() error) error {
	generation, err := b.admit()
	if err != nil {
		return err
	}

	defer func() {
		if r := recover(); r != nil {
			b.record(generation, false)
			panic(r)
		}
	}()

	err = fn()
	b.record(generation, err == nil)
	return err
}

func (b *Breaker) admit() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refresh()

	switch b.state {
	case StateOpen:
		return b.generation, ErrCircuitOpen
	case StateHalfOpen:
		if b.counts.Requests >= b.settings.HalfOpenProbes {
			return b.generation, ErrTooManyRequests
		}
	}

	b.counts.Requests++
	return b.generation, nil
}

func (b *Breaker) record(generation uint64, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Outcomes of requests admitted before a state change are stale
	if generation != b.generation {
		return
	}

	if success {
		b.counts.TotalSuccesses++
		b.counts.ConsecutiveSuccesses++
		b.counts.ConsecutiveFailures = 0
		if b.state == StateHalfOpen && b.counts.ConsecutiveSuccesses >= b.settings.HalfOpenProbes {
			b.transition(StateClosed)
		}
		return
	}

	b.counts.TotalFailures++
	b.counts.ConsecutiveFailures++
	b.counts.ConsecutiveSuccesses = 0
	if b.state == StateHalfOpen || b.counts.ConsecutiveFailures >= b.settings.FailureThreshold {
		b.transition(StateOpen)
	}
}

// refresh moves an open circuit to half-open once the timeout elapsed. Caller holds mu.
func (b *Breaker) refresh() {
	if b.state == StateOpen && b.settings.Now().Sub(b.openedAt) >= b.settings.OpenTimeout {
		b.transition(StateHalfOpen)
	}
}

// transition changes state and starts a new generation. Caller holds mu.
func (b *Breaker) transition(to State) {
	from := b.state
	if from == to {
		return
	}

	b.state = to
	b.counts = Counts{}
	b.generation++
	if to == StateOpen {
		b.openedAt = b.settings.Now()
	}

	if b.settings.OnStateChange != nil {
		b.settings.OnStateChange(b.name, from, to)
	}
}
