package infra

import (
	"errors"
	"sync"
	"time"
)

// Circuit breaker guarding the external barcode lookup API. The public food
// database is best-effort by contract; when it flaps, lookups must fast-fail
// instead of holding product-form requests on a 30s timeout.

// ErrCircuitOpen is returned by Execute while the breaker is tripped.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitState is the breaker's position: closed (requests flow), open
// (fast-fail everything), or half-open (letting trial requests through).
type CircuitState uint8

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// CircuitBreaker tracks consecutive outcomes of a guarded call. A run of
// tripAfter failures opens it; after cooldown it lets trial calls through,
// and closeAfter consecutive trial successes close it again.
//
// The streak counter is state-relative: consecutive failures while closed,
// consecutive successes while half-open.
type CircuitBreaker struct {
	mu       sync.Mutex
	state    CircuitState
	streak   int
	openedAt time.Time

	tripAfter  int
	closeAfter int
	cooldown   time.Duration
}

// NewCircuitBreaker builds a closed breaker. Non-positive arguments fall
// back to the lookup defaults (trip after 5, close after 2, 60s cooldown).
func NewCircuitBreaker(tripAfter, closeAfter int, cooldown time.Duration) *CircuitBreaker {
	if tripAfter <= 0 {
		tripAfter = 5
	}
	if closeAfter <= 0 {
		closeAfter = 2
	}
	if cooldown <= 0 {
		cooldown = 60 * time.Second
	}
	return &CircuitBreaker{tripAfter: tripAfter, closeAfter: closeAfter, cooldown: cooldown}
}

// State reports the breaker position, moving open → half-open once the
// cooldown has elapsed.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.position(time.Now())
}

// Execute runs fn unless the breaker is open, in which case it returns
// ErrCircuitOpen without invoking fn.
func (cb *CircuitBreaker) Execute(fn func() error) error {
	cb.mu.Lock()
	if cb.position(time.Now()) == CircuitOpen {
		cb.mu.Unlock()
		return ErrCircuitOpen
	}
	cb.mu.Unlock()

	err := fn()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.recordFailure()
		return err
	}
	cb.recordSuccess()
	return nil
}

// position must be called under mu.
func (cb *CircuitBreaker) position(now time.Time) CircuitState {
	if cb.state == CircuitOpen && now.Sub(cb.openedAt) >= cb.cooldown {
		cb.state = CircuitHalfOpen
		cb.streak = 0
	}
	return cb.state
}

func (cb *CircuitBreaker) recordFailure() {
	switch cb.state {
	case CircuitClosed:
		cb.streak++
		if cb.streak >= cb.tripAfter {
			cb.trip()
		}
	case CircuitHalfOpen:
		cb.trip()
	}
}

func (cb *CircuitBreaker) recordSuccess() {
	switch cb.state {
	case CircuitClosed:
		cb.streak = 0
	case CircuitHalfOpen:
		cb.streak++
		if cb.streak >= cb.closeAfter {
			cb.state = CircuitClosed
			cb.streak = 0
		}
	}
}

func (cb *CircuitBreaker) trip() {
	cb.state = CircuitOpen
	cb.streak = 0
	cb.openedAt = time.Now()
}
