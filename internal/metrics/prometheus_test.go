package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/loposkin/tinkoff-task1/internal/metrics"
)

var _ = Describe("Prometheus", func() {
	It("should label requests with the route pattern", func() {
		r := chi.NewRouter()
		r.Use(metrics.Middleware)
		r.Get("/v1/applications/{id}/status", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})
		r.Handle("/metrics", metrics.PrometheusHandler())

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/applications/app-42/status", nil))
		Expect(rec.Code).To(Equal(http.StatusTeapot))

		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		Expect(rec.Code).To(Equal(http.StatusOK))

		body, err := io.ReadAll(rec.Body)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(body)).To(ContainSubstring(
			`status_racer_http_requests_total{method="GET",path="/v1/applications/{id}/status",status="418"}`))
		Expect(string(body)).NotTo(ContainSubstring("app-42"))
	})
})
