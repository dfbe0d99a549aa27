package status

import "errors"

var (
	// ErrInterrupted is returned by PerformOperation when the caller's context
	// is cancelled before the call resolves. The context error is wrapped
	// alongside it.
	ErrInterrupted = errors.New("status operation interrupted")

	ErrNoEndpoints    = errors.New("at least one endpoint is required")
	ErrInvalidTimeout = errors.New("timeout must be positive")

	// ErrCircuitOpen is reported to the Observer for an endpoint skipped
	// because its breaker refused the query.
	ErrCircuitOpen = errors.New("circuit open")

	errCallResolved = errors.New("call already resolved")
)
