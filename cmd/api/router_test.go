package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pos-admin/internal/app"
	"github.com/noah-isme/pos-admin/internal/config"
)

type fakeBackend struct {
	sales int32
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/productos":
		_, _ = io.WriteString(w, `[
			{"id": 1, "nombre": "Pan", "precio": 50, "enStock": true, "activo": true, "unidadMedida": "unidad"},
			{"id": 2, "nombre": "Queso", "precio": 80, "enStock": true, "activo": true, "unidadMedida": "kg"}
		]`)
	case r.Method == http.MethodPost && r.URL.Path == "/ventas":
		atomic.AddInt32(&f.sales, 1)
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id": 9, "fechaHora": "2024-05-01T10:15:30", "total": 146, "formaPago": "Efectivo", "activo": true}`)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

func newTestRouter(t *testing.T) (http.Handler, *fakeBackend) {
	t.Helper()
	mr := miniredis.RunT(t)
	fb := &fakeBackend{}
	srv := httptest.NewServer(fb)
	t.Cleanup(srv.Close)

	cfg, err := config.LoadForTests(map[string]string{
		"BACKEND_BASE_URL": srv.URL,
		"REDIS_URL":        "redis://" + mr.Addr() + "/0",
		"RATE_LIMIT":       "1000-M",
	})
	require.NoError(t, err)

	deps, err := app.New(context.Background(), cfg, zerolog.Nop(), app.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = deps.Close() })

	handler, err := newRouter(deps, routerOptions{Metrics: true, BodyLimit: 1 << 20})
	require.NoError(t, err)
	return handler, fb
}

func call(t *testing.T, h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouterServesCatalogAndHealth(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := call(t, h, http.MethodGet, "/health/live", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, h, http.MethodGet, "/api/v1/products/available", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"Queso"`)

	rec = call(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRouterSubmitsSaleDraftOnce(t *testing.T) {
	h, fb := newTestRouter(t)

	rec := call(t, h, http.MethodPost, "/api/v1/drafts", `{"kind":"sale"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	base := "/api/v1/drafts/" + created.Data.ID

	require.Equal(t, http.StatusOK, call(t, h, http.MethodPost, base+"/lines", `{"productId":1}`).Code)
	require.Equal(t, http.StatusOK, call(t, h, http.MethodPut, base+"/payment", `{"method":"Efectivo"}`).Code)

	rec = call(t, h, http.MethodPost, base+"/submit", "", "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = call(t, h, http.MethodPost, base+"/submit", "", "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), "IDEMPOTENT_REPLAY")
	require.Equal(t, int32(1), atomic.LoadInt32(&fb.sales))
}

func TestProtectPprof(t *testing.T) {
	h := protectPprof(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}), "ops", "secret")

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	req.SetBasicAuth("ops", "secret")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
}
