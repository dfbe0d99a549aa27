package handler

import (
	"net/http"
	"time"

	"github.com/loposkin/tinkoff-task1/internal/circuitbreaker"
	"github.com/loposkin/tinkoff-task1/internal/endpoint"
)

// BreakerStates reports the breaker state of every endpoint seen so far.
type BreakerStates interface {
	Stats() map[string]circuitbreaker.State
}

type EndpointsHandler struct {
	endpoints []*endpoint.Endpoint
	breakers  BreakerStates
}

type endpointBody struct {
	Name        string                `json:"name"`
	URL         string                `json:"url"`
	Healthy     bool                  `json:"healthy"`
	AvgResponse time.Duration         `json:"avg_response"`
	LastRequest *time.Time            `json:"last_request,omitempty"`
	Circuit     *circuitbreaker.State `json:"circuit,omitempty"`
}

// NewEndpointsHandler lists endpoints with their breaker state. breakers may
// be nil when circuit breaking is disabled.
func NewEndpointsHandler(endpoints []*endpoint.Endpoint, breakers BreakerStates) *EndpointsHandler {
	return &EndpointsHandler{
		endpoints: endpoints,
		breakers:  breakers,
	}
}

func (h *EndpointsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var states map[string]circuitbreaker.State
	if h.breakers != nil {
		states = h.breakers.Stats()
	}

	out := make([]endpointBody, 0, len(h.endpoints))
	for _, ep := range h.endpoints {
		body := endpointBody{
			Name:        ep.Name(),
			URL:         ep.URL().String(),
			Healthy:     ep.IsHealthy(),
			AvgResponse: ep.EWMATime(),
		}

		if last := ep.LastRequest(); !last.IsZero() {
			body.LastRequest = &last
		}

		if state, ok := states[ep.Name()]; ok {
			body.Circuit = &state
		}

		out = append(out, body)
	}

	writeJSON(w, http.StatusOK, out)
}
