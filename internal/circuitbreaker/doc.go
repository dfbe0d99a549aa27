// Package circuitbreaker implements the circuit breaker pattern for status
// endpoints.
//
// A breaker stops an endpoint that keeps failing at the transport level from
// being queried at all: the race then counts it as failed straight away. It
// has three states:
//
//   - CLOSED: Normal operation, queries pass through
//   - OPEN: Endpoint failing, queries skipped
//   - HALF-OPEN: One probe query decides whether to close again
//
// Usage:
//
//	registry := circuitbreaker.NewRegistry(5, 30*time.Second, logger)
//	cb := registry.GetBreaker("primary")
//	if cb.Allow() {
//	    // Query the endpoint...
//	    if err != nil {
//	        cb.RecordFailure()
//	    } else {
//	        cb.RecordSuccess()
//	    }
//	}
package circuitbreaker
