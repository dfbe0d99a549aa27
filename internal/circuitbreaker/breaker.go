package circuitbreaker

import (
	"sync"
	"time"
)

type State int

const (
	StateClosed   State = iota // Queries pass through
	StateOpen                  // Endpoint skipped
	StateHalfOpen              // One probe query in flight
)

// TransitionFunc observes state changes of a named breaker.
type TransitionFunc func(name string, from, to State)

type CircuitBreaker struct {
	mutex            sync.Mutex
	name             string
	state            State
	failures         int
	lastFailure      time.Time
	probeInFlight    bool
	probeStarted     time.Time
	failureThreshold int
	resetTimeout     time.Duration
	onTransition     TransitionFunc
	now              func() time.Time
}

func NewCircuitBreaker(name string, threshold int, timeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		name:             name,
		state:            StateClosed,
		failureThreshold: threshold,
		resetTimeout:     timeout,
		now:              time.Now,
	}
}

// Allow reports whether the endpoint may be queried. After the reset timeout
// an open breaker lets exactly one probe through until it is recorded. A probe
// never recorded (its call was cancelled) expires after another reset timeout.
func (cb *CircuitBreaker) Allow() bool {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	now := cb.now()

	switch cb.state {
	case StateOpen:
		if now.Sub(cb.lastFailure) < cb.resetTimeout {
			return false
		}
		cb.transition(StateHalfOpen)
	case StateHalfOpen:
		if cb.probeInFlight && now.Sub(cb.probeStarted) < cb.resetTimeout {
			return false
		}
	default:
		return true
	}

	cb.probeInFlight = true
	cb.probeStarted = now
	return true
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.failures++
	cb.lastFailure = cb.now()
	cb.probeInFlight = false

	if cb.state == StateHalfOpen || cb.failures >= cb.failureThreshold {
		cb.transition(StateOpen)
	}
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()

	cb.failures = 0
	cb.probeInFlight = false
	cb.transition(StateClosed)
}

func (cb *CircuitBreaker) State() State {
	cb.mutex.Lock()
	defer cb.mutex.Unlock()
	return cb.state
}

func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// caller holds the mutex
func (cb *CircuitBreaker) transition(to State) {
	from := cb.state
	if from == to {
		return
	}
	cb.state = to
	if cb.onTransition != nil {
		cb.onTransition(cb.name, from, to)
	}
}

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF-OPEN"
	default:
		return "UNKNOWN"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
