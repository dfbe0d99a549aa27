package config

import (
	"log/slog"
	"net"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

type ServerConfig struct {
	Address        string   `mapstructure:"address"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type OperationConfig struct {
	Timeout       string `mapstructure:"timeout"`
	MaxRetries    int    `mapstructure:"max_retries"`
	MinRetryDelay string `mapstructure:"min_retry_delay"`
}

type HealthCheckConfig struct {
	Interval string `mapstructure:"interval"`
	Timeout  string `mapstructure:"timeout"`
}

type CircuitBreakerConfig struct {
	Enabled          bool   `mapstructure:"enabled"`
	FailureThreshold int    `mapstructure:"failure_threshold"`
	ResetTimeout     string `mapstructure:"reset_timeout"`
}

type EndpointConfig struct {
	Name           string `mapstructure:"name"`
	URL            string `mapstructure:"url"`
	RequestTimeout string `mapstructure:"request_timeout"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	Operation      OperationConfig      `mapstructure:"operation"`
	HealthCheck    HealthCheckConfig    `mapstructure:"health_check"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Endpoints      []EndpointConfig     `mapstructure:"endpoints"`
	Logging        LoggingConfig        `mapstructure:"logging"`
}

func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("server.environment", EnvDev)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("operation.timeout", "15s")
	v.SetDefault("operation.max_retries", 0)
	v.SetDefault("operation.min_retry_delay", "100ms")
	v.SetDefault("health_check.interval", "5s")
	v.SetDefault("health_check.timeout", "2s")
	v.SetDefault("circuit_breaker.enabled", true)
	v.SetDefault("circuit_breaker.failure_threshold", 5)
	v.SetDefault("circuit_breaker.reset_timeout", "30s")
	v.SetDefault("endpoints", []map[string]any{
		{"name": "primary", "url": "http://localhost:8081", "request_timeout": "5s"},
		{"name": "secondary", "url": "http://localhost:8082", "request_timeout": "5s"},
	})
	v.SetDefault("logging.level", LogLevelInfo)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", slog.String("error", err.Error()))
			return nil, err
		}
		slog.Warn("config file not found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", slog.String("file", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		slog.Error("failed to unmarshal config", slog.String("error", err.Error()))
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		return nil, err
	}

	return &cfg, nil
}

// OperationTimeout returns the overall deadline of a status call.
func (c *Config) OperationTimeout() time.Duration {
	return mustDuration(c.Operation.Timeout)
}

// MinRetryDelay returns the shortest pause between two queries of one endpoint.
// It is zero when unset.
func (c *Config) MinRetryDelay() time.Duration {
	return mustDuration(c.Operation.MinRetryDelay)
}

// HealthCheckInterval returns the delay between two endpoint probes.
func (c *Config) HealthCheckInterval() time.Duration {
	return mustDuration(c.HealthCheck.Interval)
}

// HealthCheckTimeout returns the timeout of a single endpoint probe.
func (c *Config) HealthCheckTimeout() time.Duration {
	return mustDuration(c.HealthCheck.Timeout)
}

// BreakerResetTimeout returns how long a tripped breaker stays open.
func (c *Config) BreakerResetTimeout() time.Duration {
	return mustDuration(c.CircuitBreaker.ResetTimeout)
}

// Timeout returns the per-request timeout of the endpoint, or zero if unset.
func (e EndpointConfig) Timeout() time.Duration {
	if e.RequestTimeout == "" {
		return 0
	}
	return mustDuration(e.RequestTimeout)
}

// mustDuration parses a duration that Validate has already accepted.
func mustDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(ServerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ServerConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Environment,
						validation.Required,
						validation.In(EnvDev, EnvStaging, EnvProd),
					),
					validation.Field(&sc.Address,
						validation.Required,
						validation.By(validateHostPort),
					),
				)
			}),
		),
		validation.Field(&c.Logging,
			validation.Required,
			validation.By(func(value interface{}) error {
				lc, ok := value.(LoggingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
				}
				return validation.ValidateStruct(&lc,
					validation.Field(&lc.Level,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
				)
			}),
		),
		validation.Field(&c.Operation,
			validation.Required,
			validation.By(func(value interface{}) error {
				oc, ok := value.(OperationConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be an OperationConfig")
				}
				return validation.ValidateStruct(&oc,
					validation.Field(&oc.Timeout,
						validation.Required,
						validation.By(validatePositiveDuration),
					),
					validation.Field(&oc.MaxRetries,
						validation.Min(0),
					),
					validation.Field(&oc.MinRetryDelay,
						validation.When(oc.MinRetryDelay != "", validation.By(validatePositiveDuration)),
					),
				)
			}),
		),
		validation.Field(&c.HealthCheck,
			validation.Required,
			validation.By(func(value interface{}) error {
				hc, ok := value.(HealthCheckConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a HealthCheckConfig")
				}
				return validation.ValidateStruct(&hc,
					validation.Field(&hc.Interval,
						validation.Required,
						validation.By(validatePositiveDuration),
					),
					validation.Field(&hc.Timeout,
						validation.Required,
						validation.By(validatePositiveDuration),
					),
				)
			}),
		),
		validation.Field(&c.CircuitBreaker,
			validation.By(func(value interface{}) error {
				cb, ok := value.(CircuitBreakerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a CircuitBreakerConfig")
				}
				if !cb.Enabled {
					return nil
				}
				return validation.ValidateStruct(&cb,
					validation.Field(&cb.FailureThreshold,
						validation.Required,
						validation.Min(1),
					),
					validation.Field(&cb.ResetTimeout,
						validation.Required,
						validation.By(validatePositiveDuration),
					),
				)
			}),
		),
		validation.Field(&c.Endpoints,
			validation.Required,
			validation.Length(1, 0),
			validation.Each(validation.By(validateEndpointConfig)),
			validation.By(validateUniqueNames),
		),
	)
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}

func validatePositiveDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	d, err := time.ParseDuration(durationStr)
	if err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 2s, 5m, 1h)")
	}

	if d <= 0 {
		return validation.NewError("validation_non_positive_duration", "must be greater than zero")
	}

	return nil
}

func validateEndpointConfig(value interface{}) error {
	endpoint, ok := value.(EndpointConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be an EndpointConfig")
	}

	if endpoint.Name == "" {
		return validation.NewError("validation_empty_name", "endpoint name cannot be empty")
	}

	if endpoint.URL == "" {
		return validation.NewError("validation_empty_url", "endpoint URL cannot be empty")
	}

	parsedURL, err := url.Parse(endpoint.URL)
	if err != nil {
		return validation.NewError("validation_invalid_url", "must be a valid URL")
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return validation.NewError("validation_invalid_scheme", "URL must use http or https scheme")
	}

	if parsedURL.Host == "" {
		return validation.NewError("validation_missing_host", "URL must have a host")
	}

	if endpoint.RequestTimeout != "" {
		if err := validatePositiveDuration(endpoint.RequestTimeout); err != nil {
			return err
		}
	}

	return nil
}

func validateUniqueNames(value interface{}) error {
	endpoints, ok := value.([]EndpointConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a list of EndpointConfig")
	}

	seen := make(map[string]struct{}, len(endpoints))
	for _, e := range endpoints {
		if _, dup := seen[e.Name]; dup {
			return validation.NewError("validation_duplicate_name", "endpoint names must be unique")
		}
		seen[e.Name] = struct{}{}
	}

	return nil
}
