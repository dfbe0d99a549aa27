package status

import (
	"context"
	"time"
)

// Kind tags the variant carried by a Response.
type Kind int

const (
	KindSuccess Kind = iota
	KindFailure
	KindRetryAfter
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindFailure:
		return "failure"
	case KindRetryAfter:
		return "retry_after"
	default:
		return "unknown"
	}
}

// Response is the outcome of a single endpoint query.
// ApplicationID and Status are set for KindSuccess, Delay for KindRetryAfter.
type Response struct {
	Kind          Kind
	ApplicationID string
	Status        string
	Delay         time.Duration
}

// Success builds a successful response.
func Success(applicationID, status string) Response {
	return Response{Kind: KindSuccess, ApplicationID: applicationID, Status: status}
}

// Failure builds a terminal failure response.
func Failure() Response {
	return Response{Kind: KindFailure}
}

// RetryAfter builds a response asking the caller to query again after delay.
func RetryAfter(delay time.Duration) Response {
	return Response{Kind: KindRetryAfter, Delay: delay}
}

// Endpoint is one redundant backend able to report an application's status.
// ApplicationStatus must return promptly once ctx is cancelled.
type Endpoint interface {
	Name() string
	ApplicationStatus(ctx context.Context, id string) (Response, error)
}

type endpointFunc struct {
	name string
	fn   func(ctx context.Context, id string) (Response, error)
}

func (e endpointFunc) Name() string { return e.name }

func (e endpointFunc) ApplicationStatus(ctx context.Context, id string) (Response, error) {
	return e.fn(ctx, id)
}

// EndpointFunc adapts a plain query function to the Endpoint interface.
func EndpointFunc(name string, fn func(ctx context.Context, id string) (Response, error)) Endpoint {
	return endpointFunc{name: name, fn: fn}
}

// ApplicationStatus is the caller-facing result of PerformOperation.
// It is either *SuccessStatus or *FailureStatus.
type ApplicationStatus interface {
	applicationStatus()
}

// SuccessStatus reports the status returned by the winning endpoint.
type SuccessStatus struct {
	ID     string
	Status string
}

// FailureStatus reports that no endpoint produced a status in time.
// LastRequestTime is never populated by Handler.
type FailureStatus struct {
	LastRequestTime *time.Time
	RetriesCount    int
}

func (*SuccessStatus) applicationStatus() {}
func (*FailureStatus) applicationStatus() {}

// Resolution names the terminal state a call ended in.
type Resolution string

const (
	ResolutionSuccess     Resolution = "resolved_success"
	ResolutionFailure     Resolution = "resolved_failure"
	ResolutionTimeout     Resolution = "resolved_timeout"
	ResolutionInterrupted Resolution = "interrupted"
)

// Observer receives notifications about the progress of calls.
// Implementations must not block.
type Observer interface {
	OnAttempt(endpoint string, kind Kind, latency time.Duration, err error)
	OnRetry(endpoint string, delay time.Duration)
	OnResolved(resolution Resolution, duration time.Duration, retries int)
}

// Breaker gates queries to a single endpoint.
type Breaker interface {
	Allow() bool
	RecordSuccess()
	RecordFailure()
}

type noopObserver struct{}

func (noopObserver) OnAttempt(string, Kind, time.Duration, error) {}
func (noopObserver) OnRetry(string, time.Duration)                {}
func (noopObserver) OnResolved(Resolution, time.Duration, int)    {}
