package ratelimit_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	limiter "github.com/ulule/limiter/v3"

	"github.com/noah-isme/pos-admin/internal/ratelimit"
)

func ok(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }

func TestHandlerMiddlewareEnforcesLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	lim, err := ratelimit.New(client, "test", "1-M")
	require.NoError(t, err)
	counted := ratelimit.Handler{
		Limiter: lim,
		Key:     func(*http.Request) string { return "static" },
	}.Middleware(http.HandlerFunc(ok))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", nil)
	rr1 := httptest.NewRecorder()
	counted.ServeHTTP(rr1, req.Clone(req.Context()))
	require.Equal(t, http.StatusOK, rr1.Code)

	rr2 := httptest.NewRecorder()
	counted.ServeHTTP(rr2, req.Clone(req.Context()))
	require.Equal(t, http.StatusTooManyRequests, rr2.Code)
	require.Equal(t, "1", rr2.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "0", rr2.Header().Get("X-RateLimit-Remaining"))
	require.Contains(t, rr2.Body.String(), "RATE_LIMITED")
}

func TestHandlerMiddlewareKeysByClient(t *testing.T) {
	lim, err := ratelimit.New(nil, "", "1-M")
	require.NoError(t, err)
	counted := ratelimit.Handler{Limiter: lim}.Middleware(http.HandlerFunc(ok))

	for _, ip := range []string{"10.0.0.1", "10.0.0.2"} {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("X-Forwarded-For", ip)
		rr := httptest.NewRecorder()
		counted.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code, ip)
	}
}

type failingLimiter struct{}

func (failingLimiter) Get(context.Context, string) (limiter.Context, error) {
	return limiter.Context{}, errors.New("store down")
}

func TestHandlerMiddlewareOnError(t *testing.T) {
	called := false
	counted := ratelimit.Handler{
		Limiter: failingLimiter{},
		OnError: func(error) { called = true },
	}.Middleware(http.HandlerFunc(ok))

	rr := httptest.NewRecorder()
	counted.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, called)
}

func TestNewRejectsBadRate(t *testing.T) {
	_, err := ratelimit.New(nil, "", "lots")
	require.Error(t, err)
}
