// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the resilient HTTP fetch primitive shared by
// both provider adapters.
package httputil

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"time"
)

// RetryBaseDelay controls the base duration for exponential backoff on
// retryable responses. Tests override this to avoid real sleeps.
var RetryBaseDelay = 2 * time.Second

const defaultMaxAttempts = 5

// ErrFatalStatus marks a non-retryable HTTP failure or retry exhaustion.
// A fatal status aborts the whole session; callers match it with errors.Is.
var ErrFatalStatus = errors.New("fatal HTTP status")

// retryableStatuses is the fixed whitelist of statuses recovered locally
// via backoff: rate limiting and transient server-side failures.
var retryableStatuses = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// DoWithRetry executes an HTTP request with bounded exponential-backoff
// retry plus random jitter. Status handling follows the fetch taxonomy:
//
//   - 2xx is returned to the caller.
//   - 404 is returned to the caller: not-found is a valid empty result,
//     not an error. Callers translate it to an absent record.
//   - 429/500/502/503/504 are retried with backoff; exhausting attempts
//     yields ErrFatalStatus.
//   - Any other status is immediately ErrFatalStatus.
//
// When maxAttempts is 0 the default (5) is used. On each retry the
// response body is drained and closed before sleeping. If the request
// context is cancelled during a backoff wait the context error is
// returned.
func DoWithRetry(client *http.Client, req *http.Request, maxAttempts int) (*http.Response, error) {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	var lastStatus int
	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, err := client.Do(req.Clone(req.Context()))
		if err != nil {
			return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL, err)
		}

		status := resp.StatusCode
		if status == http.StatusNotFound || (status >= 200 && status < 300) {
			return resp, nil
		}

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if !retryableStatuses[status] {
			return nil, fmt.Errorf("%s %s returned HTTP %d: %w", req.Method, req.URL, status, ErrFatalStatus)
		}
		lastStatus = status

		if attempt == maxAttempts-1 {
			break
		}

		backoff := time.Duration(math.Pow(2, float64(attempt))) * RetryBaseDelay
		// Up to 25% jitter so concurrent chunk fetches do not retry in
		// lockstep against the same rate limiter.
		backoff += time.Duration(rand.Int63n(int64(backoff)/4 + 1))

		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("%s %s: HTTP %d after %d attempts: %w",
		req.Method, req.URL, lastStatus, maxAttempts, ErrFatalStatus)
}
