package endpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/loposkin/tinkoff-task1/internal/status"
)

const (
	requestIDHeader  = "X-Request-ID"
	retryAfterHeader = "Retry-After"

	maxDrainBytes = 4 << 10
)

type statusPayload struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// ApplicationStatus asks the backend for the status of application id via
// GET {url}/applications/{id}/status.
//
// 200 with a JSON body is a success. 429 and 503 carrying a Retry-After
// header ask for a retry; every other answer is a failure. Transport and
// decoding problems are returned as errors.
func (e *Endpoint) ApplicationStatus(ctx context.Context, id string) (status.Response, error) {
	target := e.url.JoinPath("applications", url.PathEscape(id), "status")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return status.Response{}, fmt.Errorf("build request for %s: %w", e.name, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(requestIDHeader, uuid.NewString())

	start := time.Now()
	res, err := e.client.Do(req)
	if err != nil {
		return status.Response{}, fmt.Errorf("query %s: %w", e.name, err)
	}
	defer func() {
		io.Copy(io.Discard, io.LimitReader(res.Body, maxDrainBytes))
		res.Body.Close()
	}()

	e.RecordResponse(time.Since(start))

	switch res.StatusCode {
	case http.StatusOK:
		var payload statusPayload
		if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
			return status.Response{}, fmt.Errorf("decode %s response: %w", e.name, err)
		}
		if payload.ID == "" {
			payload.ID = id
		}
		return status.Success(payload.ID, payload.Status), nil

	case http.StatusTooManyRequests, http.StatusServiceUnavailable:
		if delay, ok := parseRetryAfter(res.Header.Get(retryAfterHeader), time.Now()); ok {
			return status.RetryAfter(delay), nil
		}
		return status.Failure(), nil

	default:
		return status.Failure(), nil
	}
}

// parseRetryAfter reads a Retry-After value given either in seconds or as an
// HTTP date. Dates in the past yield a zero delay.
func parseRetryAfter(value string, now time.Time) (time.Duration, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}

	at, err := http.ParseTime(value)
	if err != nil {
		return 0, false
	}

	if d := at.Sub(now); d > 0 {
		return d, true
	}
	return 0, true
}
