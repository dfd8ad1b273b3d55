package llm

import (
	"context"
	"math/rand"
	"net"
	"net/http"
	"time"
)

func msToDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// retryHTTP wraps an HTTP operation with small exponential backoff retries.
// It retries on temporary/timeout net errors and on 429/408 responses.
// Generic 5xx are returned as-is so failures stay visible in the report.
func retryHTTP(ctx context.Context, maxAttempts int, baseDelay time.Duration, op func() (*http.Response, error)) (*http.Response, error) {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 100 * time.Millisecond
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var lastResp *http.Response
	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		resp, err := op()
		lastResp, lastErr = resp, err

		retry := false
		switch {
		case err != nil:
			retry = isRetriableError(err)
		case resp != nil && isRetriableStatus(resp.StatusCode):
			retry = true
		default:
			return resp, nil
		}

		if !retry || attempt == maxAttempts {
			return lastResp, lastErr
		}
		if resp != nil {
			// drain before retrying to avoid leaking the connection
			resp.Body.Close()
		}

		delay := baseDelay << (attempt - 1)
		if delay > time.Second {
			delay = time.Second
		}
		// +/- jitter so parallel model calls don't retry in lockstep
		delay = delay - delay/10 + time.Duration(rand.Int63n(int64(delay/5)))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return lastResp, lastErr
}

func isRetriableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
}

func isRetriableError(err error) bool {
	if ne, ok := err.(net.Error); ok {
		return ne.Timeout()
	}
	return false
}
