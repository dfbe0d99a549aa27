// Package healthcheck implements periodic health checking for status
// endpoints. It probes each endpoint's /health path and updates the
// endpoint's health flag, notifying a callback when it changes.
package healthcheck
