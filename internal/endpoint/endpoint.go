package endpoint

import (
	"net/http"
	"net/url"
	"sync"
	"time"
)

// DefaultRequestTimeout bounds a single status query when none is configured.
const DefaultRequestTimeout = 5 * time.Second

// Endpoint is one redundant status backend with health status and response
// time tracking.
type Endpoint struct {
	name             string
	url              *url.URL
	client           *http.Client
	mutex            sync.Mutex
	isHealthy        bool
	ewmaResponseTime time.Duration
	hasEWMA          bool
	lastRequest      time.Time
}

const ewmaAlpha = 0.2

// New creates an Endpoint named name serving under u. A non-positive
// requestTimeout falls back to DefaultRequestTimeout.
// The endpoint starts in a healthy state.
func New(name string, u *url.URL, requestTimeout time.Duration) *Endpoint {
	if requestTimeout <= 0 {
		requestTimeout = DefaultRequestTimeout
	}

	return &Endpoint{
		name:      name,
		url:       u,
		client:    &http.Client{Timeout: requestTimeout},
		isHealthy: true,
	}
}

// Name returns the configured endpoint name.
func (e *Endpoint) Name() string {
	return e.name
}

// URL returns the base URL of the backend.
func (e *Endpoint) URL() *url.URL {
	return e.url
}

// IsHealthy returns true if the last health probe succeeded.
func (e *Endpoint) IsHealthy() bool {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.isHealthy
}

// SetHealthy updates the endpoint's health status.
// Returns true if the status changed, false if it was already in that state.
func (e *Endpoint) SetHealthy(healthy bool) (changed bool) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if e.isHealthy == healthy {
		return false
	}

	e.isHealthy = healthy
	return true
}

// RecordResponse folds the latest query duration into the exponentially
// weighted moving average (EWMA) response time.
func (e *Endpoint) RecordResponse(duration time.Duration) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.lastRequest = time.Now()

	if !e.hasEWMA {
		e.ewmaResponseTime = duration
		e.hasEWMA = true
		return
	}
	//ewma = (1 - α) * ewma + α * latest
	e.ewmaResponseTime = time.Duration((1-ewmaAlpha)*float64(e.ewmaResponseTime) + ewmaAlpha*float64(duration))
}

// EWMATime returns the moving average response time, or 0 before the first
// answered query.
func (e *Endpoint) EWMATime() time.Duration {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	if !e.hasEWMA {
		return 0
	}

	return e.ewmaResponseTime
}

// LastRequest returns when the endpoint last answered a query.
// The zero time means it never has.
func (e *Endpoint) LastRequest() time.Time {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	return e.lastRequest
}
