package circuitbreaker

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

type Registry struct {
	mutex     sync.RWMutex
	breakers  map[string]*CircuitBreaker
	threshold int
	timeout   time.Duration
	logger    *slog.Logger
}

func NewRegistry(threshold int, timeout time.Duration, logger *slog.Logger) *Registry {
	return &Registry{
		breakers:  make(map[string]*CircuitBreaker),
		threshold: threshold,
		timeout:   timeout,
		logger:    logger,
	}
}

func (r *Registry) GetBreaker(endpoint string) *CircuitBreaker {
	r.mutex.RLock()
	cb, exists := r.breakers[endpoint]
	r.mutex.RUnlock()

	if exists {
		return cb
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	// Double-check: another goroutine may have created it
	if cb, exists = r.breakers[endpoint]; exists {
		return cb
	}

	cb = NewCircuitBreaker(endpoint, r.threshold, r.timeout)
	cb.onTransition = r.logTransition
	r.breakers[endpoint] = cb
	return cb
}

func (r *Registry) Stats() map[string]State {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	stats := make(map[string]State, len(r.breakers))
	for name, cb := range r.breakers {
		stats[name] = cb.State()
	}
	return stats
}

func (r *Registry) logTransition(name string, from, to State) {
	if r.logger == nil {
		return
	}

	level := slog.LevelInfo
	if to == StateOpen {
		level = slog.LevelWarn
	}
	r.logger.Log(context.Background(), level, "Circuit breaker state changed",
		slog.String("endpoint", name),
		slog.String("from", from.String()),
		slog.String("to", to.String()))
}
