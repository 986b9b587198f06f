package services

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
)

// DefaultMaxRetries is how many times a 429 response is retried.
const DefaultMaxRetries = 3

// RetryTransport is an [http.RoundTripper] that paces outgoing requests with an optional
// [rate.Limiter] and retries 429 responses.
//
// Retry i (1-based) waits i² seconds plus the server's Retry-After, plus up to half of that
// again as jitter. Other statuses are returned untouched. Once retries are exhausted the last
// 429 response is returned to the caller.
type RetryTransport struct {
	Base       http.RoundTripper
	MaxRetries int
	Limiter    *rate.Limiter
	Logger     *log.Logger

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(limit time.Duration) time.Duration
}

// NewRetryTransport wraps base. requestsPerSecond <= 0 disables pacing.
func NewRetryTransport(base http.RoundTripper, maxRetries int, requestsPerSecond float64, logger *log.Logger) *RetryTransport {
	if base == nil {
		base = http.DefaultTransport
	}

	t := &RetryTransport{Base: base, MaxRetries: maxRetries, Logger: logger}
	if requestsPerSecond > 0 {
		t.Limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), max(1, int(requestsPerSecond)))
	}
	return t
}

func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	attempt := req

	for i := 0; ; i++ {
		if t.Limiter != nil {
			if err := t.Limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		resp, err := t.base().RoundTrip(attempt)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode != http.StatusTooManyRequests || i >= t.MaxRetries {
			return resp, nil
		}

		wait := backoff(i+1, resp.Header.Get("Retry-After"))
		wait += t.randomJitter(wait / 2)

		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if t.Logger != nil {
			t.Logger.Warn("rate limited, backing off", "method", req.Method, "path", req.URL.Path, "attempt", i+1, "wait", wait)
		}

		if err := t.wait(ctx, wait); err != nil {
			return nil, err
		}

		if attempt, err = rewind(req); err != nil {
			return nil, err
		}
	}
}

func (t *RetryTransport) base() http.RoundTripper {
	if t.Base == nil {
		return http.DefaultTransport
	}
	return t.Base
}

func (t *RetryTransport) wait(ctx context.Context, d time.Duration) error {
	if t.sleep != nil {
		return t.sleep(ctx, d)
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (t *RetryTransport) randomJitter(limit time.Duration) time.Duration {
	if t.jitter != nil {
		return t.jitter(limit)
	}
	if limit <= 0 {
		return 0
	}
	return rand.N(limit)
}

// backoff returns attempt² seconds plus Retry-After seconds. An unparsable header counts as 0.
func backoff(attempt int, retryAfter string) time.Duration {
	seconds, err := strconv.Atoi(retryAfter)
	if err != nil || seconds < 0 {
		seconds = 0
	}
	return time.Duration(attempt*attempt+seconds) * time.Second
}

// rewind clones req with a fresh body so it can be sent again.
func rewind(req *http.Request) (*http.Request, error) {
	clone := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return clone, nil
	}
	if req.GetBody == nil {
		return nil, fmt.Errorf("cannot retry %s %s: request body is not replayable", req.Method, req.URL.Path)
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, fmt.Errorf("failed to rewind request body: %w", err)
	}
	clone.Body = body
	return clone, nil
}
