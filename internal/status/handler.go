package status

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
)

const (
	// DefaultTimeout bounds a call when no timeout option is given.
	DefaultTimeout = 15 * time.Second

	// DefaultMinRetryDelay is the shortest pause between two queries of the
	// same endpoint, whatever delay the endpoint asked for.
	DefaultMinRetryDelay = 10 * time.Millisecond
)

// Handler answers status queries by racing a fixed set of endpoints.
// A Handler is safe for concurrent use; calls share no state.
type Handler struct {
	endpoints  []Endpoint
	timeout    time.Duration
	maxRetries int
	minDelay   time.Duration
	breakerFor func(endpoint string) Breaker
	observer   Observer
	logger     *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithTimeout sets the overall deadline of a call.
func WithTimeout(d time.Duration) Option {
	return func(h *Handler) { h.timeout = d }
}

// WithMaxRetries caps the retries each endpoint may make per call.
// Zero means unlimited; the call deadline still applies.
func WithMaxRetries(n int) Option {
	return func(h *Handler) { h.maxRetries = n }
}

// WithMinRetryDelay raises every retry delay shorter than d to d.
// Non-positive values keep DefaultMinRetryDelay.
func WithMinRetryDelay(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.minDelay = d
		}
	}
}

// WithBreakers gates each endpoint behind the breaker returned for its name.
func WithBreakers(breakerFor func(endpoint string) Breaker) Option {
	return func(h *Handler) { h.breakerFor = breakerFor }
}

// WithObserver reports attempts, retries and resolutions to o.
func WithObserver(o Observer) Option {
	return func(h *Handler) { h.observer = o }
}

// WithLogger sets the logger used for call diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// NewHandler returns a Handler racing the given endpoints in order.
func NewHandler(endpoints []Endpoint, opts ...Option) (*Handler, error) {
	if len(endpoints) == 0 {
		return nil, ErrNoEndpoints
	}

	h := &Handler{
		endpoints: append([]Endpoint(nil), endpoints...),
		timeout:   DefaultTimeout,
		minDelay:  DefaultMinRetryDelay,
		observer:  noopObserver{},
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(h)
	}

	if h.timeout <= 0 {
		return nil, ErrInvalidTimeout
	}
	if h.maxRetries < 0 {
		h.maxRetries = 0
	}

	return h, nil
}

// Timeout returns the overall deadline applied to each call.
func (h *Handler) Timeout() time.Duration {
	return h.timeout
}

// PerformOperation queries every endpoint for the status of application id
// and returns the first success, or a failure once all endpoints have failed
// or the deadline has elapsed. A ctx deadline counts as the call deadline.
// The only error it returns wraps ErrInterrupted, when ctx is cancelled
// before the call resolves.
func (h *Handler) PerformOperation(ctx context.Context, id string) (ApplicationStatus, error) {
	start := time.Now()
	log := h.logger.With(
		slog.String("call_id", ulid.Make().String()),
		slog.String("application_id", id))

	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	retries := NewRetryCounter(len(h.endpoints))
	race := NewRace(len(h.endpoints), isSuccess, Failure())

	log.Debug("Racing endpoints",
		slog.Int("endpoints", len(h.endpoints)),
		slog.Duration("timeout", h.timeout))

	for i, ep := range h.endpoints {
		sup := h.newSupervisor(i, ep, retries, log)
		go func() {
			resp, err := sup.run(callCtx, id)
			if err != nil || callCtx.Err() != nil {
				return
			}
			race.Report(resp)
		}()
	}

	resolved, err := awaitWithDeadline(ctx, race.Done(), h.timeout)
	count := retries.Seal()
	cancel()

	elapsed := time.Since(start)

	// A caller deadline shorter than ours ends the call like our own deadline.
	if errors.Is(err, context.DeadlineExceeded) {
		_, resolved = race.Result()
		err = nil
	}

	if err != nil {
		h.observer.OnResolved(ResolutionInterrupted, elapsed, count)
		log.Warn("Operation interrupted",
			slog.Int("retries", count),
			slog.Any("err", err))
		return nil, fmt.Errorf("%w: %w", ErrInterrupted, err)
	}

	var (
		result     ApplicationStatus
		resolution Resolution
	)

	if resolved {
		resp, _ := race.Result()
		result = mapResponse(resp, count)
		resolution = resolutionOf(resp)
	} else {
		result = mapResponse(Failure(), count)
		resolution = ResolutionTimeout
	}

	h.observer.OnResolved(resolution, elapsed, count)
	log.Info("Operation resolved",
		slog.String("resolution", string(resolution)),
		slog.Int("retries", count),
		slog.Any("retries_per_endpoint", h.retriesByName(retries)),
		slog.Int("failed_endpoints", race.Failures()),
		slog.Duration("elapsed", elapsed))

	return result, nil
}

func (h *Handler) newSupervisor(index int, ep Endpoint, retries *RetryCounter, log *slog.Logger) *supervisor {
	var breaker Breaker
	if h.breakerFor != nil {
		breaker = h.breakerFor(ep.Name())
	}

	return &supervisor{
		index:      index,
		endpoint:   ep,
		retries:    retries,
		maxRetries: h.maxRetries,
		minDelay:   h.minDelay,
		breaker:    breaker,
		observer:   h.observer,
		logger:     log,
	}
}

func (h *Handler) retriesByName(retries *RetryCounter) map[string]int {
	out := make(map[string]int, len(h.endpoints))
	for i, n := range retries.PerEndpoint() {
		out[h.endpoints[i].Name()] = n
	}
	return out
}

func isSuccess(r Response) bool {
	return r.Kind == KindSuccess
}
