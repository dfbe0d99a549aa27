// Package logger builds the structured slog loggers used across the service.
// Records are JSON in production and text elsewhere, and always carry the
// service name and deployment environment.
package logger
