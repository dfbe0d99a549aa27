// Package status resolves the current status of an application by racing a
// fixed set of redundant endpoints.
//
// Every endpoint is queried concurrently by its own supervisor, which keeps
// retrying while the endpoint answers "retry after". The first success wins;
// a failure is reported only once every endpoint has failed. The whole call is
// bounded by a deadline, and all outstanding supervisors are cancelled as soon
// as the call resolves.
//
// Usage:
//
//	h, err := status.NewHandler(endpoints,
//		status.WithTimeout(15*time.Second),
//		status.WithLogger(log),
//	)
//	res, err := h.PerformOperation(ctx, "app-42")
//	switch r := res.(type) {
//	case *status.SuccessStatus:
//		// r.ID, r.Status
//	case *status.FailureStatus:
//		// r.RetriesCount
//	}
package status
