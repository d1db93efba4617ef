package security

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBodyLimit(t *testing.T) {
	cases := []struct {
		name     string
		body     string
		chunked  bool
		wantCode int
	}{
		{name: "within limit", body: `{"kind":"sale"}`, wantCode: http.StatusOK},
		{name: "declared too large", body: strings.Repeat("x", 64), wantCode: http.StatusRequestEntityTooLarge},
		{name: "chunked too large", body: strings.Repeat("x", 64), chunked: true, wantCode: http.StatusRequestEntityTooLarge},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var seen string
			handler := BodyLimit{Max: 32}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				data, err := io.ReadAll(r.Body)
				require.NoError(t, err)
				seen = string(data)
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/v1/drafts", strings.NewReader(tc.body))
			if tc.chunked {
				req.ContentLength = -1
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, tc.wantCode, rec.Code)
			if tc.wantCode == http.StatusOK {
				require.Equal(t, tc.body, seen)
			} else {
				require.Contains(t, rec.Body.String(), "PAYLOAD_TOO_LARGE")
				require.Empty(t, seen)
			}
		})
	}
}

func TestBodyLimitDisabled(t *testing.T) {
	called := false
	handler := BodyLimit{}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("x", 1<<16))))
	require.True(t, called)
}
