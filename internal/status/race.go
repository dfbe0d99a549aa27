package status

import (
	"sync"
	"sync/atomic"
)

// Race merges the terminal values of a fixed number of sources.
//
// The first value accepted by the success predicate resolves the race. Other
// values count as failures, and the race resolves to the configured failure
// value only when every source has failed. A success always pre-empts failures
// that are still pending. The race resolves at most once.
type Race[T any] struct {
	total     int32
	isSuccess func(T) bool
	failure   T

	failures atomic.Int32
	once     sync.Once
	done     chan struct{}
	result   T
}

// NewRace returns a race over total sources.
func NewRace[T any](total int, isSuccess func(T) bool, failure T) *Race[T] {
	return &Race[T]{
		total:     int32(total),
		isSuccess: isSuccess,
		failure:   failure,
		done:      make(chan struct{}),
	}
}

// Report feeds the terminal value of one source into the race.
// It reports whether this value resolved the race.
func (r *Race[T]) Report(v T) bool {
	if r.isSuccess(v) {
		return r.resolve(v)
	}

	if r.failures.Add(1) == r.total {
		return r.resolve(r.failure)
	}

	return false
}

func (r *Race[T]) resolve(v T) bool {
	resolved := false
	r.once.Do(func() {
		r.result = v
		resolved = true
		close(r.done)
	})
	return resolved
}

// Done is closed once the race has resolved.
func (r *Race[T]) Done() <-chan struct{} {
	return r.done
}

// Result returns the resolved value. ok is false while the race is pending.
func (r *Race[T]) Result() (v T, ok bool) {
	select {
	case <-r.done:
		return r.result, true
	default:
		return v, false
	}
}

// Failures returns how many sources have reported a failure so far.
func (r *Race[T]) Failures() int {
	return int(r.failures.Load())
}
