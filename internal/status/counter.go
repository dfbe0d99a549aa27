package status

import "sync/atomic"

// sealedBit marks a per-endpoint count that no longer accepts increments.
const sealedBit = int64(1) << 62

// RetryCounter counts retries made during a single call, one slot per endpoint.
// Counts only grow. Seal freezes every slot and returns the sum; increments
// after Seal are rejected so a resolved call cannot be mutated.
type RetryCounter struct {
	counts []atomic.Int64
}

// NewRetryCounter returns a counter with one slot per endpoint.
func NewRetryCounter(endpoints int) *RetryCounter {
	return &RetryCounter{counts: make([]atomic.Int64, endpoints)}
}

// Increment records one retry for the endpoint at index.
// It reports false if the counter has been sealed.
func (c *RetryCounter) Increment(index int) bool {
	slot := &c.counts[index]
	for {
		v := slot.Load()
		if v&sealedBit != 0 {
			return false
		}
		if slot.CompareAndSwap(v, v+1) {
			return true
		}
	}
}

// Seal freezes the counter and returns the total number of retries.
// Calling Seal again returns the same total.
func (c *RetryCounter) Seal() int {
	total := 0
	for i := range c.counts {
		slot := &c.counts[i]
		for {
			v := slot.Load()
			if v&sealedBit != 0 || slot.CompareAndSwap(v, v|sealedBit) {
				total += int(v &^ sealedBit)
				break
			}
		}
	}
	return total
}

// PerEndpoint returns the retry count of every endpoint, in endpoint order.
func (c *RetryCounter) PerEndpoint() []int {
	out := make([]int, len(c.counts))
	for i := range c.counts {
		out[i] = int(c.counts[i].Load() &^ sealedBit)
	}
	return out
}
