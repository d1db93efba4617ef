package common_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pos-admin/internal/common"
)

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func TestWriteErrorUsesAppError(t *testing.T) {
	rec := httptest.NewRecorder()
	common.WriteError(rec, common.NewAppError("EMPTY_COMPOSITION", "no lines", http.StatusUnprocessableEntity, nil))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "EMPTY_COMPOSITION", body.Error.Code)
	require.Equal(t, "no lines", body.Error.Message)
}

func TestWriteErrorHidesUnknownErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	common.WriteError(rec, http.ErrHandlerTimeout)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "INTERNAL")
}

type createRequest struct {
	Name  string `json:"nombre" validate:"required"`
	Price string `json:"precio" validate:"required,numeric"`
}

func TestDecodeJSONReportsFieldsByJSONName(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"precio":"abc"}`))
	var dst createRequest
	err := common.DecodeJSON(req, &dst)
	require.Error(t, err)

	rec := httptest.NewRecorder()
	common.WriteError(rec, err)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	fields := body.Error.Details["fields"].(map[string]any)
	require.Equal(t, "required", fields["nombre"])
	require.Equal(t, "numeric", fields["precio"])
}

func TestDecodeJSONRejectsEmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	var dst createRequest
	err := common.DecodeJSON(req, &dst)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusBadRequest, appErr.HTTPStatus)
}

func TestPaginationTotals(t *testing.T) {
	p := common.NewPagination(2, 10, 21)
	require.Equal(t, 3, p.TotalPages)

	req := httptest.NewRequest(http.MethodGet, "/?page=0&limit=5", nil)
	page, perPage := common.ParsePagination(req, 10)
	require.Equal(t, 1, page)
	require.Equal(t, 5, perPage)
}

func TestIdempotencyReleasesKeyOnFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	status := http.StatusBadGateway
	calls := 0
	handler := common.Idem{R: rdb, TTL: time.Minute}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(status)
	}))

	send := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/drafts/d1/submit", nil)
		req.Header.Set("Idempotency-Key", "abc")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	require.Equal(t, http.StatusBadGateway, send())
	status = http.StatusCreated
	require.Equal(t, http.StatusCreated, send())
	require.Equal(t, http.StatusConflict, send())
	require.Equal(t, 2, calls)
}

func TestValidateStructComparesDecimals(t *testing.T) {
	type priced struct {
		Price decimal.Decimal `json:"price" validate:"gte=0"`
	}
	require.NoError(t, common.ValidateStruct(&priced{Price: decimal.RequireFromString("0")}))

	err := common.ValidateStruct(&priced{Price: decimal.RequireFromString("-0.5")})
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, map[string]any{"fields": map[string]string{"price": "gte=0"}}, appErr.Details)
}
