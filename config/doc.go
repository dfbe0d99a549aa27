// Package config loads the service configuration from YAML files and
// environment variables. It covers the HTTP server, the status endpoints to
// race, the call deadline and retry cap, health checks, circuit breaking and
// logging.
package config
