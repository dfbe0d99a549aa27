// Package handler implements the HTTP handlers of the status service.
// StatusHandler runs a status operation per request; EndpointsHandler reports
// the state of the redundant endpoints.
package handler
