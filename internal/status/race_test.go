package status_test

import (
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/loposkin/tinkoff-task1/internal/status"
)

var _ = Describe("Race", func() {
	var race *status.Race[status.Response]

	isSuccess := func(r status.Response) bool { return r.Kind == status.KindSuccess }

	BeforeEach(func() {
		race = status.NewRace(2, isSuccess, status.Failure())
	})

	It("should be pending before any report", func() {
		_, ok := race.Result()
		Expect(ok).To(BeFalse())
		Expect(race.Done()).NotTo(BeClosed())
	})

	It("should resolve on the first success", func() {
		Expect(race.Report(status.Success("app", "UP"))).To(BeTrue())
		Expect(race.Done()).To(BeClosed())

		res, ok := race.Result()
		Expect(ok).To(BeTrue())
		Expect(res).To(Equal(status.Success("app", "UP")))
	})

	It("should keep the first success when a second one arrives", func() {
		race.Report(status.Success("app", "UP"))
		Expect(race.Report(status.Success("app", "DOWN"))).To(BeFalse())

		res, _ := race.Result()
		Expect(res.Status).To(Equal("UP"))
	})

	It("should stay pending until every source has failed", func() {
		Expect(race.Report(status.Failure())).To(BeFalse())
		Expect(race.Done()).NotTo(BeClosed())

		Expect(race.Report(status.Failure())).To(BeTrue())
		res, ok := race.Result()
		Expect(ok).To(BeTrue())
		Expect(res.Kind).To(Equal(status.KindFailure))
		Expect(race.Failures()).To(Equal(2))
	})

	It("should let a success pre-empt an earlier failure", func() {
		race.Report(status.Failure())
		Expect(race.Report(status.Success("app", "UP"))).To(BeTrue())

		res, _ := race.Result()
		Expect(res.Kind).To(Equal(status.KindSuccess))
	})

	It("should ignore a failure after a success", func() {
		race.Report(status.Success("app", "UP"))
		Expect(race.Report(status.Failure())).To(BeFalse())
		Expect(race.Report(status.Failure())).To(BeFalse())

		res, _ := race.Result()
		Expect(res.Kind).To(Equal(status.KindSuccess))
	})

	It("should resolve to the configured failure value", func() {
		r := status.NewRace(1, func(n int) bool { return n > 0 }, -1)
		r.Report(0)

		v, ok := r.Result()
		Expect(ok).To(BeTrue())
		Expect(v).To(Equal(-1))
	})

	It("should resolve exactly once under concurrent reports", func() {
		const sources = 50
		r := status.NewRace(sources, isSuccess, status.Failure())

		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			resolved int
		)
		wg.Add(sources)
		for i := 0; i < sources; i++ {
			go func(i int) {
				defer wg.Done()
				resp := status.Failure()
				if i%7 == 0 {
					resp = status.Success("app", "UP")
				}
				if r.Report(resp) {
					mu.Lock()
					resolved++
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()

		Expect(resolved).To(Equal(1))
		res, _ := r.Result()
		Expect(res.Kind).To(Equal(status.KindSuccess))
	})
})
