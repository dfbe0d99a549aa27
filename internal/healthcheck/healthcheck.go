package healthcheck

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/loposkin/tinkoff-task1/internal/endpoint"
)

// HealthPath is probed on every endpoint.
const HealthPath = "/health"

// ChangeFunc is called whenever an endpoint's health flips.
type ChangeFunc func(name string, healthy bool)

// HealthCheck probes the endpoint's /health path every interval until ctx is
// cancelled, updating its health status. Each probe is bounded by timeout.
// onChange may be nil.
func HealthCheck(
	ctx context.Context,
	ep *endpoint.Endpoint,
	interval time.Duration,
	timeout time.Duration,
	logger *slog.Logger,
	onChange ChangeFunc,
) {
	client := &http.Client{
		Timeout: timeout,
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Health check stopped",
				slog.String("endpoint", ep.Name()))
			return

		case <-ticker.C:
			healthy := probe(ctx, client, ep)
			if !ep.SetHealthy(healthy) {
				continue
			}

			if healthy {
				logger.Info("Endpoint is back up",
					slog.String("endpoint", ep.Name()),
					slog.String("url", ep.URL().String()))
			} else {
				logger.Warn("Endpoint is down",
					slog.String("endpoint", ep.Name()),
					slog.String("url", ep.URL().String()))
			}

			if onChange != nil {
				onChange(ep.Name(), healthy)
			}
		}
	}
}

func probe(ctx context.Context, client *http.Client, ep *endpoint.Endpoint) bool {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, ep.URL().JoinPath(HealthPath).String(), nil)
	if err != nil {
		return false
	}

	res, err := client.Do(req)
	if err != nil {
		return false
	}
	defer res.Body.Close()

	return res.StatusCode == http.StatusOK
}
