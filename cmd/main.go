package main

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/loposkin/tinkoff-task1/config"
	"github.com/loposkin/tinkoff-task1/internal/circuitbreaker"
	"github.com/loposkin/tinkoff-task1/internal/endpoint"
	"github.com/loposkin/tinkoff-task1/internal/handler"
	"github.com/loposkin/tinkoff-task1/internal/healthcheck"
	"github.com/loposkin/tinkoff-task1/internal/httpserver"
	"github.com/loposkin/tinkoff-task1/internal/metrics"
	"github.com/loposkin/tinkoff-task1/internal/status"
	"github.com/loposkin/tinkoff-task1/pkg/logger"
)

const metricsBufferSize = 1000

var errNoEndpoints = errors.New("no usable endpoints configured")

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.Any("err", err))
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, true, cfg.Server.Environment)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	collector := metrics.NewCollector(metricsBufferSize, log)
	collector.Start(ctx)

	endpoints, err := initializeEndpoints(ctx, cfg, log, collector.HealthChanged)
	if err != nil {
		log.Error("Failed to initialize endpoints", slog.Any("err", err))
		os.Exit(1)
	}

	registry := createBreakers(cfg, log, endpoints)

	statusHandler, err := createStatusHandler(cfg, log, endpoints, registry, collector)
	if err != nil {
		log.Error("Failed to create status handler", slog.Any("err", err))
		os.Exit(1)
	}

	var breakers handler.BreakerStates
	if registry != nil {
		breakers = registry
	}

	router := setupRouter(log,
		handler.NewStatusHandler(log, statusHandler),
		handler.NewEndpointsHandler(endpoints, breakers),
		collector,
		cfg.Server.AllowedOrigins)

	srv, err := httpserver.New(cfg.Server.Address, router, cfg.OperationTimeout())
	if err != nil {
		log.Error("Failed to create server", slog.Any("err", err))
		os.Exit(1)
	}

	srvErrCh := make(chan error, 1)

	go func() {
		log.Info("Status service listening",
			slog.String("addr", srv.Addr()),
			slog.Int("endpoints", len(endpoints)),
			slog.Duration("operation_timeout", statusHandler.Timeout()))
		srvErrCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
		if err := srv.Shutdown(context.Background()); err != nil {
			log.Error("Error during shutdown", slog.Any("err", err))
		}
	case err := <-srvErrCh:
		if err != nil {
			log.Error("Error starting status service", slog.Any("err", err))
			os.Exit(1)
		}
	}
}

// initializeEndpoints builds one endpoint per configured backend and starts
// its health check. Entries with unparsable URLs are skipped.
func initializeEndpoints(
	ctx context.Context,
	cfg *config.Config,
	log *slog.Logger,
	onChange healthcheck.ChangeFunc,
) ([]*endpoint.Endpoint, error) {
	var endpoints []*endpoint.Endpoint

	for _, ec := range cfg.Endpoints {
		u, err := url.Parse(ec.URL)
		if err != nil || u.Host == "" {
			log.Error("Failed to parse URL",
				slog.String("endpoint", ec.Name),
				slog.String("url", ec.URL),
				slog.Any("err", err))
			continue
		}

		ep := endpoint.New(ec.Name, u, ec.Timeout())
		endpoints = append(endpoints, ep)

		go healthcheck.HealthCheck(ctx, ep,
			cfg.HealthCheckInterval(), cfg.HealthCheckTimeout(), log, onChange)
	}

	if len(endpoints) == 0 {
		return nil, errNoEndpoints
	}

	return endpoints, nil
}

// createBreakers returns nil when circuit breaking is disabled.
func createBreakers(cfg *config.Config, log *slog.Logger, endpoints []*endpoint.Endpoint) *circuitbreaker.Registry {
	if !cfg.CircuitBreaker.Enabled {
		log.Info("Circuit breaking disabled")
		return nil
	}

	registry := circuitbreaker.NewRegistry(
		cfg.CircuitBreaker.FailureThreshold, cfg.BreakerResetTimeout(), log)
	for _, ep := range endpoints {
		registry.GetBreaker(ep.Name())
	}

	return registry
}

func createStatusHandler(
	cfg *config.Config,
	log *slog.Logger,
	endpoints []*endpoint.Endpoint,
	registry *circuitbreaker.Registry,
	observer status.Observer,
) (*status.Handler, error) {
	racers := make([]status.Endpoint, 0, len(endpoints))
	for _, ep := range endpoints {
		racers = append(racers, ep)
	}

	opts := []status.Option{
		status.WithTimeout(cfg.OperationTimeout()),
		status.WithMaxRetries(cfg.Operation.MaxRetries),
		status.WithMinRetryDelay(cfg.MinRetryDelay()),
		status.WithObserver(observer),
		status.WithLogger(log),
	}

	if registry != nil {
		opts = append(opts, status.WithBreakers(func(name string) status.Breaker {
			return registry.GetBreaker(name)
		}))
	}

	return status.NewHandler(racers, opts...)
}
