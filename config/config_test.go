package config_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/loposkin/tinkoff-task1/config"
)

var _ = Describe("Config", func() {
	var (
		tempDir string
		origDir string
	)

	BeforeEach(func() {
		var err error
		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())

		tempDir, err = os.MkdirTemp("", "config-test-*")
		Expect(err).NotTo(HaveOccurred())

		Expect(os.Chdir(tempDir)).To(Succeed())
	})

	AfterEach(func() {
		Expect(os.Chdir(origDir)).To(Succeed())
		os.RemoveAll(tempDir)
		os.Unsetenv("OPERATION_TIMEOUT")
	})

	writeConfig := func(content string) {
		err := os.WriteFile(filepath.Join(tempDir, "config.yaml"), []byte(content), 0644)
		Expect(err).NotTo(HaveOccurred())
	}

	Describe("Load", func() {
		Context("with valid config file", func() {
			BeforeEach(func() {
				writeConfig(`
server:
  address: ":8080"
  environment: "dev"

operation:
  timeout: "10s"
  max_retries: 3
  min_retry_delay: "250ms"

health_check:
  interval: "10s"
  timeout: "1s"

circuit_breaker:
  enabled: true
  failure_threshold: 3
  reset_timeout: "20s"

endpoints:
  - name: "status-1"
    url: "http://localhost:8081"
    request_timeout: "2s"
  - name: "status-2"
    url: "http://localhost:8082"

logging:
  level: "info"
`)
			})

			It("should load configuration successfully", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg).NotTo(BeNil())
			})

			It("should parse the operation section", func() {
				cfg, _ := config.Load()
				Expect(cfg.OperationTimeout()).To(Equal(10 * time.Second))
				Expect(cfg.Operation.MaxRetries).To(Equal(3))
				Expect(cfg.MinRetryDelay()).To(Equal(250 * time.Millisecond))
			})

			It("should keep endpoints in order", func() {
				cfg, _ := config.Load()
				Expect(cfg.Endpoints).To(HaveLen(2))
				Expect(cfg.Endpoints[0].Name).To(Equal("status-1"))
				Expect(cfg.Endpoints[0].Timeout()).To(Equal(2 * time.Second))
				Expect(cfg.Endpoints[1].Timeout()).To(BeZero())
			})

			It("should parse health check and breaker durations", func() {
				cfg, _ := config.Load()
				Expect(cfg.HealthCheckInterval()).To(Equal(10 * time.Second))
				Expect(cfg.HealthCheckTimeout()).To(Equal(time.Second))
				Expect(cfg.BreakerResetTimeout()).To(Equal(20 * time.Second))
			})

			It("should let environment variables override the file", func() {
				os.Setenv("OPERATION_TIMEOUT", "3s")
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.OperationTimeout()).To(Equal(3 * time.Second))
			})
		})

		Context("without a config file", func() {
			It("should use defaults", func() {
				cfg, err := config.Load()
				Expect(err).NotTo(HaveOccurred())
				Expect(cfg.OperationTimeout()).To(Equal(15 * time.Second))
				Expect(cfg.Operation.MaxRetries).To(BeZero())
				Expect(cfg.MinRetryDelay()).To(Equal(100 * time.Millisecond))
				Expect(cfg.Endpoints).To(HaveLen(2))
				Expect(cfg.Server.AllowedOrigins).To(Equal([]string{"*"}))
			})
		})

		Context("with an invalid config file", func() {
			It("should reject a non-positive operation timeout", func() {
				writeConfig(`
operation:
  timeout: "0s"
`)
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})

			It("should reject duplicate endpoint names", func() {
				writeConfig(`
endpoints:
  - name: "dup"
    url: "http://localhost:8081"
  - name: "dup"
    url: "http://localhost:8082"
`)
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})

			It("should reject endpoints without a scheme", func() {
				writeConfig(`
endpoints:
  - name: "bad"
    url: "localhost:8081"
`)
				_, err := config.Load()
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("Validate", func() {
		var cfg *config.Config

		BeforeEach(func() {
			cfg = &config.Config{
				Server:      config.ServerConfig{Address: ":8080", Environment: config.EnvDev},
				Operation:   config.OperationConfig{Timeout: "15s"},
				HealthCheck: config.HealthCheckConfig{Interval: "5s", Timeout: "1s"},
				Endpoints: []config.EndpointConfig{
					{Name: "a", URL: "http://localhost:8081"},
				},
				Logging: config.LoggingConfig{Level: config.LogLevelInfo},
			}
		})

		It("should accept a minimal configuration", func() {
			Expect(cfg.Validate()).To(Succeed())
		})

		It("should ignore breaker settings when disabled", func() {
			cfg.CircuitBreaker = config.CircuitBreakerConfig{Enabled: false}
			Expect(cfg.Validate()).To(Succeed())
		})

		It("should require a threshold when the breaker is enabled", func() {
			cfg.CircuitBreaker = config.CircuitBreakerConfig{Enabled: true, ResetTimeout: "10s"}
			Expect(cfg.Validate()).NotTo(Succeed())
		})

		It("should reject a negative retry cap", func() {
			cfg.Operation.MaxRetries = -1
			Expect(cfg.Validate()).NotTo(Succeed())
		})

		It("should reject a zero minimum retry delay", func() {
			cfg.Operation.MinRetryDelay = "0s"
			Expect(cfg.Validate()).NotTo(Succeed())
		})

		It("should accept an unset minimum retry delay", func() {
			cfg.Operation.MinRetryDelay = ""
			Expect(cfg.Validate()).To(Succeed())
			Expect(cfg.MinRetryDelay()).To(BeZero())
		})

		It("should reject an unknown environment", func() {
			cfg.Server.Environment = "qa"
			Expect(cfg.Validate()).NotTo(Succeed())
		})

		It("should reject an empty endpoint list", func() {
			cfg.Endpoints = nil
			Expect(cfg.Validate()).NotTo(Succeed())
		})
	})
})
