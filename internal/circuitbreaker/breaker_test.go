package circuitbreaker_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/loposkin/tinkoff-task1/internal/circuitbreaker"
	"github.com/loposkin/tinkoff-task1/internal/status"
)

var _ = Describe("CircuitBreaker", func() {
	var cb *circuitbreaker.CircuitBreaker

	trip := func() {
		cb.RecordFailure()
		cb.RecordFailure()
		cb.RecordFailure()
		Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
	}

	BeforeEach(func() {
		cb = circuitbreaker.NewCircuitBreaker("primary", 3, 100*time.Millisecond)
	})

	Describe("NewCircuitBreaker", func() {
		It("should create a closed breaker", func() {
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
			Expect(cb.Name()).To(Equal("primary"))
		})

		It("should satisfy status.Breaker", func() {
			var _ status.Breaker = cb
		})
	})

	Describe("State transitions", func() {
		Context("when in CLOSED state", func() {
			It("should allow queries", func() {
				Expect(cb.Allow()).To(BeTrue())
			})

			It("should remain closed after failures below threshold", func() {
				cb.RecordFailure()
				cb.RecordFailure()
				Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
				Expect(cb.Allow()).To(BeTrue())
			})

			It("should open after reaching the failure threshold", func() {
				trip()
			})
		})

		Context("when in OPEN state", func() {
			BeforeEach(trip)

			It("should block queries", func() {
				Expect(cb.Allow()).To(BeFalse())
			})

			It("should let a probe through after the reset timeout", func() {
				time.Sleep(150 * time.Millisecond)
				Expect(cb.Allow()).To(BeTrue())
				Expect(cb.State()).To(Equal(circuitbreaker.StateHalfOpen))
			})

			It("should remain open before the reset timeout", func() {
				time.Sleep(50 * time.Millisecond)
				Expect(cb.Allow()).To(BeFalse())
				Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
			})
		})

		Context("when in HALF-OPEN state", func() {
			BeforeEach(func() {
				trip()
				time.Sleep(150 * time.Millisecond)
				Expect(cb.Allow()).To(BeTrue())
				Expect(cb.State()).To(Equal(circuitbreaker.StateHalfOpen))
			})

			It("should block further queries while the probe is in flight", func() {
				Expect(cb.Allow()).To(BeFalse())
			})

			It("should let a new probe through once an unrecorded probe expires", func() {
				time.Sleep(150 * time.Millisecond)
				Expect(cb.Allow()).To(BeTrue())
				Expect(cb.State()).To(Equal(circuitbreaker.StateHalfOpen))
			})

			It("should close on success", func() {
				cb.RecordSuccess()
				Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
				Expect(cb.Allow()).To(BeTrue())
			})

			It("should open again on failure", func() {
				cb.RecordFailure()
				Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
				Expect(cb.Allow()).To(BeFalse())
			})
		})
	})

	Describe("RecordSuccess", func() {
		It("should reset the failure count", func() {
			cb.RecordFailure()
			cb.RecordFailure()
			cb.RecordSuccess()
			cb.RecordFailure()
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
		})
	})

	Describe("State.String", func() {
		It("should return correct string representation", func() {
			Expect(circuitbreaker.StateClosed.String()).To(Equal("CLOSED"))
			Expect(circuitbreaker.StateOpen.String()).To(Equal("OPEN"))
			Expect(circuitbreaker.StateHalfOpen.String()).To(Equal("HALF-OPEN"))
			Expect(circuitbreaker.State(9).String()).To(Equal("UNKNOWN"))
		})

		It("should marshal as text", func() {
			text, err := circuitbreaker.StateOpen.MarshalText()
			Expect(err).NotTo(HaveOccurred())
			Expect(string(text)).To(Equal("OPEN"))
		})
	})
})
