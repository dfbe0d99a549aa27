package status

import (
	"context"
	"log/slog"
	"time"
)

// supervisor drives the query-with-retry loop of one endpoint for one call.
type supervisor struct {
	index      int
	endpoint   Endpoint
	retries    *RetryCounter
	maxRetries int
	minDelay   time.Duration
	breaker    Breaker
	observer   Observer
	logger     *slog.Logger
}

// run queries the endpoint until it returns a terminal outcome.
// A non-nil error means the call was cancelled and no outcome must be reported.
func (s *supervisor) run(ctx context.Context, id string) (Response, error) {
	name := s.endpoint.Name()
	attempt := 0

	for {
		if err := ctx.Err(); err != nil {
			return Response{}, err
		}

		if s.breaker != nil && !s.breaker.Allow() {
			s.logger.Debug("Circuit open, skipping endpoint",
				slog.String("endpoint", name))
			s.observer.OnAttempt(name, KindFailure, 0, ErrCircuitOpen)
			return Failure(), nil
		}

		start := time.Now()
		resp, err := s.endpoint.ApplicationStatus(ctx, id)
		latency := time.Since(start)

		if ctxErr := ctx.Err(); ctxErr != nil {
			return Response{}, ctxErr
		}

		if err != nil {
			if s.breaker != nil {
				s.breaker.RecordFailure()
			}
			s.observer.OnAttempt(name, KindFailure, latency, err)
			s.logger.Warn("Endpoint query failed",
				slog.String("endpoint", name),
				slog.Int("attempt", attempt),
				slog.Any("err", err))
			return Failure(), nil
		}

		if s.breaker != nil {
			s.breaker.RecordSuccess()
		}
		s.observer.OnAttempt(name, resp.Kind, latency, nil)

		switch resp.Kind {
		case KindSuccess, KindFailure:
			s.logger.Debug("Endpoint answered",
				slog.String("endpoint", name),
				slog.String("outcome", resp.Kind.String()),
				slog.Int("attempt", attempt),
				slog.Duration("latency", latency))
			return resp, nil
		case KindRetryAfter:
		default:
			s.logger.Warn("Endpoint returned unknown outcome",
				slog.String("endpoint", name),
				slog.Int("kind", int(resp.Kind)))
			return Failure(), nil
		}

		if s.maxRetries > 0 && attempt >= s.maxRetries {
			s.logger.Info("Retry limit reached",
				slog.String("endpoint", name),
				slog.Int("max_retries", s.maxRetries))
			return Failure(), nil
		}

		delay := max(resp.Delay, s.minDelay)
		s.logger.Debug("Endpoint asked to retry",
			slog.String("endpoint", name),
			slog.Duration("requested", resp.Delay),
			slog.Duration("delay", delay))

		if err := sleep(ctx, delay); err != nil {
			return Response{}, err
		}

		if !s.retries.Increment(s.index) {
			return Response{}, errCallResolved
		}
		s.observer.OnRetry(name, delay)
		attempt++
	}
}
