//go:build ignore

// Statusbackend is a fake application status backend for local testing.
// It serves GET /applications/{id}/status and /health.
//
// Usage:
//
//	go run statusbackend.go -port 8081 -mode success -latency 50ms
//	go run statusbackend.go -port 8082 -mode retry -retries 2 -retry-after 1
//
// Modes:
//   - success: answers 200 with {"id", "status"}
//   - failure: answers 500
//   - retry:   answers 503 with Retry-After for the first -retries queries of
//     each application id, then succeeds
//   - flaky:   picks one of the above at random per query
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type statusResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Backend string `json:"backend"`
}

func main() {
	port := flag.Int("port", 8081, "port to listen on")
	mode := flag.String("mode", "success", "success, failure, retry or flaky")
	latency := flag.Duration("latency", 0, "delay before answering")
	retries := flag.Int("retries", 1, "retry answers per application id in retry mode")
	retryAfter := flag.Int("retry-after", 1, "Retry-After seconds")
	appStatus := flag.String("status", "RUNNING", "status reported on success")
	flag.Parse()

	backendID := uuid.NewString()

	var mu sync.Mutex
	seen := make(map[string]int)

	success := func(w http.ResponseWriter, id string) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(statusResponse{ID: id, Status: *appStatus, Backend: backendID})
	}
	retry := func(w http.ResponseWriter) {
		w.Header().Set("Retry-After", strconv.Itoa(*retryAfter))
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	failure := func(w http.ResponseWriter) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}

	r := chi.NewRouter()
	r.Get("/applications/{id}/status", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		log.Printf("request: id=%s from=%s request_id=%s", id, r.RemoteAddr, r.Header.Get("X-Request-ID"))

		if *latency > 0 {
			select {
			case <-time.After(*latency):
			case <-r.Context().Done():
				return
			}
		}

		switch *mode {
		case "success":
			success(w, id)
		case "failure":
			failure(w)
		case "retry":
			mu.Lock()
			n := seen[id]
			seen[id] = n + 1
			mu.Unlock()

			if n < *retries {
				retry(w)
				return
			}
			success(w, id)
		case "flaky":
			switch rand.IntN(3) {
			case 0:
				success(w, id)
			case 1:
				retry(w)
			default:
				failure(w)
			}
		default:
			http.Error(w, "unknown mode", http.StatusNotImplemented)
		}
	})

	// health endpoint probed by the status service
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("starting status backend %s on %s mode=%s", backendID, addr, *mode)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
