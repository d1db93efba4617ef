package resilience

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPClient sends backend requests through a Breaker with a per-attempt
// timeout. Requests accepted by Retryable (GET and HEAD unless set) get up
// to MaxAttempts tries; everything else is sent exactly once.
type HTTPClient struct {
	Client      *http.Client
	Breaker     *Breaker
	BaseBackoff time.Duration
	MaxAttempts int
	Jitter      float64
	Timeout     time.Duration
	Retryable   func(*http.Request) bool
}

// IdempotentOnly permits retries for safe methods.
func IdempotentOnly(req *http.Request) bool {
	return req.Method == http.MethodGet || req.Method == http.MethodHead
}

// Do sends req. An open breaker yields ErrOpenCircuit. A 5xx on the last
// attempt is returned as a response so the caller can read the backend's
// message.
func (cl HTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if cl.Client == nil {
		return nil, errors.New("resilience: http client not configured")
	}
	attempts := cl.attempts(req)
	body, err := snapshotBody(req)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if cl.Breaker != nil && !cl.Breaker.Allow(ctx) {
			return nil, ErrOpenCircuit
		}
		resp, err := cl.once(ctx, req, body)
		failed := err != nil || resp.StatusCode >= http.StatusInternalServerError
		if cl.Breaker != nil {
			cl.Breaker.Report(ctx, !failed)
		}
		if !failed || (err == nil && attempt == attempts) {
			return resp, nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("resilience: upstream answered %s", resp.Status)
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
		}
		if attempt == attempts {
			break
		}
		if err := sleep(ctx, Backoff(cl.BaseBackoff, attempt, cl.Jitter)); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

func (cl HTTPClient) attempts(req *http.Request) int {
	retryable := cl.Retryable
	if retryable == nil {
		retryable = IdempotentOnly
	}
	if cl.MaxAttempts <= 1 || !retryable(req) {
		return 1
	}
	return cl.MaxAttempts
}

func (cl HTTPClient) once(ctx context.Context, req *http.Request, body []byte) (*http.Response, error) {
	timeout := cl.Timeout
	if timeout <= 0 {
		timeout = cl.Client.Timeout
	}
	var callCtx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		callCtx, cancel = context.WithCancel(ctx)
	}
	attempt := req.Clone(callCtx)
	if body != nil {
		attempt.Body = io.NopCloser(bytes.NewReader(body))
		attempt.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
	}
	resp, err := cl.Client.Do(attempt)
	if err != nil {
		cancel()
		return nil, err
	}
	// the attempt context must outlive Do so the body can still be read
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

// snapshotBody reads the request body once so each attempt can replay it.
func snapshotBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	src := req.Body
	if req.GetBody != nil {
		fresh, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		_ = src.Close()
		src = fresh
	}
	defer func() { _ = src.Close() }()
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("resilience: read request body: %w", err)
	}
	return data, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
