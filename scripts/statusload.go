//go:build ignore

// Statusload drives concurrent status queries against the service and reports
// throughput, latency percentiles, and the split between success and failure
// answers.
//
// Usage:
//
//	go run statusload.go -url http://localhost:8080 -concurrency 10 -requests 1000
//	go run statusload.go -apps 50 -out summary.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type result struct {
	outcome  string
	code     int
	duration time.Duration
}

type outcomeSummary struct {
	Count int     `json:"count"`
	P50   float64 `json:"p50_ms"`
	P90   float64 `json:"p90_ms"`
	P99   float64 `json:"p99_ms"`
}

func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:8080", "Service base URL")
		concurrency = flag.Int("concurrency", 10, "Number of concurrent workers")
		requests    = flag.Int("requests", 100, "Total number of requests to send")
		apps        = flag.Int("apps", 20, "Number of distinct application ids")
		timeout     = flag.Duration("timeout", 20*time.Second, "Per-request timeout")
		outJSON     = flag.String("out", "", "Write JSON summary to this file (optional)")
	)
	flag.Parse()

	ids := make([]string, *apps)
	for i := range ids {
		ids[i] = uuid.NewString()
	}

	client := &http.Client{Timeout: *timeout}
	testStart := time.Now()
	jobs := make(chan int)
	results := make(chan result, *concurrency)

	var wg sync.WaitGroup
	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results <- query(client, *baseURL, ids[idx%len(ids)])
			}
		}()
	}

	go func() {
		for i := 0; i < *requests; i++ {
			jobs <- i
		}
		close(jobs)
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	latencies := make(map[string][]time.Duration)
	codes := make(map[int]int)
	for r := range results {
		latencies[r.outcome] = append(latencies[r.outcome], r.duration)
		codes[r.code]++
	}
	totalDuration := time.Since(testStart)

	fmt.Println("--- Status Load Summary ---")
	fmt.Printf("Target: %s  Requests: %d  Concurrency: %d\n", *baseURL, *requests, *concurrency)
	fmt.Printf("Duration: %v  Throughput: %.2f req/s\n", totalDuration, float64(*requests)/totalDuration.Seconds())

	fmt.Println("\nStatus codes:")
	var keys []int
	for k := range codes {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		fmt.Printf("  %d -> %d\n", k, codes[k])
	}

	fmt.Println("\nOutcomes:")
	summary := make(map[string]outcomeSummary, len(latencies))
	for outcome, ds := range latencies {
		s := summarize(ds)
		summary[outcome] = s
		fmt.Printf("  %s -> count=%d p50=%.1fms p90=%.1fms p99=%.1fms\n", outcome, s.Count, s.P50, s.P90, s.P99)
	}

	if *outJSON != "" {
		report := map[string]any{
			"target":         *baseURL,
			"requests":       *requests,
			"concurrency":    *concurrency,
			"duration_ms":    totalDuration.Milliseconds(),
			"throughput_rps": float64(*requests) / totalDuration.Seconds(),
			"status_codes":   codes,
			"outcomes":       summary,
		}

		f, err := os.Create(*outJSON)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create json file: %v\n", err)
			os.Exit(1)
		}
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		enc.Encode(report)
		f.Close()
		fmt.Printf("\nWrote JSON summary to %s\n", *outJSON)
	}

	if len(latencies["error"]) > 0 {
		os.Exit(2)
	}
}

func query(client *http.Client, baseURL, id string) result {
	start := time.Now()
	resp, err := client.Get(fmt.Sprintf("%s/v1/applications/%s/status", baseURL, id))
	if err != nil {
		return result{outcome: "error", duration: time.Since(start)}
	}
	defer resp.Body.Close()

	var body struct {
		Type string `json:"type"`
	}
	outcome := "unreadable"
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Type != "" {
		outcome = body.Type
	} else if resp.StatusCode == http.StatusServiceUnavailable {
		outcome = "interrupted"
	}

	return result{outcome: outcome, code: resp.StatusCode, duration: time.Since(start)}
}

func summarize(ds []time.Duration) outcomeSummary {
	sort.Slice(ds, func(i, j int) bool { return ds[i] < ds[j] })
	pick := func(p float64) float64 {
		return float64(ds[int(float64(len(ds)-1)*p)].Microseconds()) / 1000.0
	}
	return outcomeSummary{Count: len(ds), P50: pick(0.50), P90: pick(0.90), P99: pick(0.99)}
}
