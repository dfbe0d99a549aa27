package metrics

import (
	"sort"
	"sync"
	"time"

	"github.com/loposkin/tinkoff-task1/internal/status"
)

const maxSamples = 1000

type Metrics struct {
	mutex        sync.RWMutex
	attempts     map[string]int64
	outcomes     map[string]map[string]int64
	retries      map[string]int64
	latencies    map[string][]time.Duration
	healthStatus map[string]bool
	calls        map[status.Resolution]int64
	callTimes    []time.Duration
	callRetries  int64
	startTime    time.Time
}

type Snapshot struct {
	TotalCalls    int64                       `json:"total_calls"`
	Calls         map[status.Resolution]int64 `json:"calls"`
	TotalRetries  int64                       `json:"total_retries"`
	AvgCall       time.Duration               `json:"avg_call"`
	P95Call       time.Duration               `json:"p95_call"`
	Uptime        time.Duration               `json:"uptime"`
	DroppedEvents int64                       `json:"dropped_events"`
	Endpoints     map[string]EndpointMetrics  `json:"endpoints"`
}

type EndpointMetrics struct {
	Attempts   int64            `json:"attempts"`
	Retries    int64            `json:"retries"`
	Healthy    bool             `json:"healthy"`
	Outcomes   map[string]int64 `json:"outcomes"`
	AvgLatency time.Duration    `json:"avg_latency"`
	P50Latency time.Duration    `json:"p50_latency"`
	P95Latency time.Duration    `json:"p95_latency"`
	P99Latency time.Duration    `json:"p99_latency"`
}

func NewMetrics() *Metrics {
	return &Metrics{
		attempts:     make(map[string]int64),
		outcomes:     make(map[string]map[string]int64),
		retries:      make(map[string]int64),
		latencies:    make(map[string][]time.Duration),
		healthStatus: make(map[string]bool),
		calls:        make(map[status.Resolution]int64),
		startTime:    time.Now(),
	}
}

func (m *Metrics) RecordAttempt(endpoint, outcome string, latency time.Duration) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.attempts[endpoint]++

	if m.outcomes[endpoint] == nil {
		m.outcomes[endpoint] = make(map[string]int64)
	}
	m.outcomes[endpoint][outcome]++

	// Skipped queries have no latency worth sampling.
	if outcome == OutcomeCircuitOpen {
		return
	}
	m.latencies[endpoint] = appendSample(m.latencies[endpoint], latency)
}

func (m *Metrics) RecordRetry(endpoint string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.retries[endpoint]++
}

func (m *Metrics) RecordCall(resolution status.Resolution, duration time.Duration, retries int) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.calls[resolution]++
	m.callRetries += int64(retries)
	m.callTimes = appendSample(m.callTimes, duration)
}

func (m *Metrics) UpdateHealthStatus(endpoint string, healthy bool) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.healthStatus[endpoint] = healthy
}

func (m *Metrics) Snapshot() Snapshot {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	snap := Snapshot{
		Calls:        make(map[status.Resolution]int64, len(m.calls)),
		TotalRetries: m.callRetries,
		Uptime:       time.Since(m.startTime),
		Endpoints:    make(map[string]EndpointMetrics),
	}

	for resolution, n := range m.calls {
		snap.Calls[resolution] = n
		snap.TotalCalls += n
	}

	if len(m.callTimes) > 0 {
		sorted := sortedCopy(m.callTimes)
		snap.AvgCall = average(sorted)
		snap.P95Call = percentile(sorted, 0.95)
	}

	// Collect all known endpoint names
	all := make(map[string]bool)
	for name := range m.attempts {
		all[name] = true
	}
	for name := range m.retries {
		all[name] = true
	}
	for name := range m.healthStatus {
		all[name] = true
	}

	for name := range all {
		em := EndpointMetrics{
			Attempts: m.attempts[name],
			Retries:  m.retries[name],
			Healthy:  m.healthStatus[name],
			Outcomes: make(map[string]int64, len(m.outcomes[name])),
		}
		for outcome, n := range m.outcomes[name] {
			em.Outcomes[outcome] = n
		}

		if durations := m.latencies[name]; len(durations) > 0 {
			sorted := sortedCopy(durations)
			em.AvgLatency = average(sorted)
			em.P50Latency = percentile(sorted, 0.50)
			em.P95Latency = percentile(sorted, 0.95)
			em.P99Latency = percentile(sorted, 0.99)
		}

		snap.Endpoints[name] = em
	}

	return snap
}

func appendSample(samples []time.Duration, d time.Duration) []time.Duration {
	samples = append(samples, d)
	if len(samples) > maxSamples {
		samples = samples[1:]
	}
	return samples
}

func sortedCopy(durations []time.Duration) []time.Duration {
	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})
	return sorted
}

func average(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}

	var sum time.Duration
	for _, d := range durations {
		sum += d
	}

	return sum / time.Duration(len(durations))
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}

	index := int(float64(len(sorted)) * p)
	if index >= len(sorted) {
		index = len(sorted) - 1
	}

	return sorted[index]
}
