// Package endpoint implements the HTTP status backends raced by the status
// handler. Each Endpoint queries one backend for an application's status,
// translates the HTTP answer into a status.Response and tracks the backend's
// health and response time.
package endpoint
