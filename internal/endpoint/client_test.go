package endpoint_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/loposkin/tinkoff-task1/internal/endpoint"
	"github.com/loposkin/tinkoff-task1/internal/status"
)

var _ = Describe("ApplicationStatus", func() {
	var (
		server  *httptest.Server
		handler http.HandlerFunc
		e       *endpoint.Endpoint
		lastReq *http.Request
	)

	BeforeEach(func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"id":"app-1","status":"RUNNING"}`))
		}
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lastReq = r
			handler(w, r)
		}))
		e = endpoint.New("primary", mustParseURL(server.URL), time.Second)
	})

	AfterEach(func() {
		server.Close()
	})

	It("should query the application status path", func() {
		_, err := e.ApplicationStatus(context.Background(), "app-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(lastReq.Method).To(Equal(http.MethodGet))
		Expect(lastReq.URL.Path).To(Equal("/applications/app-1/status"))
		Expect(lastReq.Header.Get("X-Request-ID")).NotTo(BeEmpty())
	})

	It("should escape the application id", func() {
		_, err := e.ApplicationStatus(context.Background(), "team/app")
		Expect(err).NotTo(HaveOccurred())
		Expect(lastReq.URL.EscapedPath()).To(Equal("/applications/team%2Fapp/status"))
	})

	It("should map 200 to a success", func() {
		resp, err := e.ApplicationStatus(context.Background(), "app-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp).To(Equal(status.Success("app-1", "RUNNING")))
		Expect(e.EWMATime()).To(BeNumerically(">", 0))
	})

	It("should fall back to the requested id when the body omits it", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"status":"STOPPED"}`))
		}
		resp, err := e.ApplicationStatus(context.Background(), "app-9")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp).To(Equal(status.Success("app-9", "STOPPED")))
	})

	It("should return an error for an undecodable body", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}
		_, err := e.ApplicationStatus(context.Background(), "app-1")
		Expect(err).To(HaveOccurred())
	})

	It("should map 503 with Retry-After seconds to a retry", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		resp, err := e.ApplicationStatus(context.Background(), "app-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp).To(Equal(status.RetryAfter(2 * time.Second)))
	})

	It("should map 429 with a Retry-After date to a retry", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", time.Now().Add(time.Minute).UTC().Format(http.TimeFormat))
			w.WriteHeader(http.StatusTooManyRequests)
		}
		resp, err := e.ApplicationStatus(context.Background(), "app-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Kind).To(Equal(status.KindRetryAfter))
		Expect(resp.Delay).To(BeNumerically("~", time.Minute, 2*time.Second))
	})

	It("should map Retry-After: 0 to an immediate retry", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		resp, err := e.ApplicationStatus(context.Background(), "app-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp).To(Equal(status.RetryAfter(0)))
	})

	It("should map a Retry-After date in the past to an immediate retry", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", time.Now().Add(-time.Hour).UTC().Format(http.TimeFormat))
			w.WriteHeader(http.StatusTooManyRequests)
		}
		resp, err := e.ApplicationStatus(context.Background(), "app-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp).To(Equal(status.RetryAfter(0)))
	})

	It("should map 503 without Retry-After to a failure", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		resp, err := e.ApplicationStatus(context.Background(), "app-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp).To(Equal(status.Failure()))
	})

	It("should map any other status to a failure", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}
		resp, err := e.ApplicationStatus(context.Background(), "app-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp).To(Equal(status.Failure()))
	})

	It("should return an error when the backend is unreachable", func() {
		server.Close()
		_, err := e.ApplicationStatus(context.Background(), "app-1")
		Expect(err).To(HaveOccurred())
	})

	It("should abort when the context is cancelled", func() {
		handler = func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(2 * time.Second):
			}
		}
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		start := time.Now()
		_, err := e.ApplicationStatus(ctx, "app-1")
		Expect(err).To(MatchError(context.DeadlineExceeded))
		Expect(time.Since(start)).To(BeNumerically("<", time.Second))
	})

	It("should satisfy status.Endpoint", func() {
		var _ status.Endpoint = e
	})
})
