package draft_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pos-admin/internal/common"
	"github.com/noah-isme/pos-admin/internal/draft"
	"github.com/noah-isme/pos-admin/internal/lock"
	"github.com/noah-isme/pos-admin/internal/product"
)

type fakeCatalog map[product.ID]product.Product

func (f fakeCatalog) FindAvailable(_ context.Context, id product.ID) (product.Product, error) {
	p, ok := f[id]
	if !ok || !p.Eligible() {
		return product.Product{}, common.NewAppError("PRODUCT_UNAVAILABLE", "product is inactive or out of stock", http.StatusUnprocessableEntity, nil)
	}
	return p, nil
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var products = fakeCatalog{
	"1": {ID: "1", Name: "Pan", Price: d("50"), Unit: product.Each, Active: true, InStock: true},
	"2": {ID: "2", Name: "Queso", Price: d("80"), Unit: product.Kilogram, Active: true, InStock: true},
	"3": {ID: "3", Name: "Jamón", Price: d("120"), Unit: product.Gram, Active: true, InStock: true},
	"4": {ID: "4", Name: "Facturas", Price: d("240"), Unit: product.Dozen, Active: true, InStock: true},
	"5": {ID: "5", Name: "Agotado", Price: d("10"), Unit: product.Each, Active: true, InStock: false},
}

type recordingSubmitter struct {
	seen []draft.Draft
	err  error
}

func (r *recordingSubmitter) Submit(_ context.Context, dr *draft.Draft) (any, error) {
	r.seen = append(r.seen, *dr)
	if r.err != nil {
		return nil, r.err
	}
	return map[string]any{"id": 42}, nil
}

func newService(t *testing.T) (*draft.Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	svc, err := draft.NewService(draft.ServiceConfig{
		Store:   draft.Store{R: rdb, TTL: time.Hour},
		Locker:  lock.Locker{R: rdb, RetryBackoff: 5 * time.Millisecond, MaxWait: 50 * time.Millisecond},
		Catalog: products,
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)
	return svc, mr
}

func TestDraftEditingFlow(t *testing.T) {
	svc, mr := newService(t)
	ctx := context.Background()

	dr, err := svc.Create(ctx, draft.KindSale)
	require.NoError(t, err)
	require.Equal(t, draft.DefaultPaymentMethod, dr.PaymentMethod)
	require.True(t, mr.Exists("draft:"+dr.ID))

	_, err = svc.AddProduct(ctx, dr.ID, "1")
	require.NoError(t, err)
	_, err = svc.AddProduct(ctx, dr.ID, "2")
	require.NoError(t, err)
	dr, err = svc.AddProduct(ctx, dr.ID, "1")
	require.NoError(t, err)
	require.Equal(t, 2, dr.Lines.Len())

	dr, err = svc.AdjustQuantity(ctx, dr.ID, "2", d("1.2"))
	require.NoError(t, err)
	view := dr.View()
	require.True(t, d("146").Equal(view.Total), view.Total.String())
	require.Equal(t, "$80 / kg", view.Lines[1].ReferenceLabel)
	require.Nil(t, view.Customer)

	dr, err = svc.Step(ctx, dr.ID, "1", d("-1"))
	require.NoError(t, err)
	_, ok := dr.Lines.Line("1")
	require.False(t, ok)

	reloaded, err := svc.Get(ctx, dr.ID)
	require.NoError(t, err)
	require.Equal(t, 1, reloaded.Lines.Len())
}

func TestDraftRejections(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	dr, err := svc.Create(ctx, draft.KindSale)
	require.NoError(t, err)

	var appErr *common.AppError

	_, err = svc.Create(ctx, draft.Kind("layaway"))
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "INVALID_KIND", appErr.Code)

	_, err = svc.AddProduct(ctx, dr.ID, "5")
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "PRODUCT_UNAVAILABLE", appErr.Code)

	_, err = svc.AdjustQuantity(ctx, dr.ID, "2", d("1"))
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "LINE_NOT_FOUND", appErr.Code)

	_, err = svc.AddProduct(ctx, dr.ID, "3")
	require.NoError(t, err)
	_, err = svc.AdjustQuantity(ctx, dr.ID, "3", d("-5"))
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "INVALID_QUANTITY", appErr.Code)

	_, err = svc.SetPaymentMethod(ctx, dr.ID, "Tarjeta")
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "INVALID_PAYMENT_METHOD", appErr.Code)

	_, err = svc.SetCustomer(ctx, dr.ID, draft.Customer{Name: "Ana"})
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "NOT_AN_ORDER", appErr.Code)

	_, err = svc.Get(ctx, "missing")
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, http.StatusNotFound, appErr.HTTPStatus)
}

func TestDraftBusyWhileLocked(t *testing.T) {
	svc, mr := newService(t)
	ctx := context.Background()
	dr, err := svc.Create(ctx, draft.KindOrder)
	require.NoError(t, err)

	require.NoError(t, mr.Set("lock:draft:"+dr.ID, "someone-else"))
	_, err = svc.AddProduct(ctx, dr.ID, "1")
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "DRAFT_BUSY", appErr.Code)
	require.True(t, errors.Is(err, lock.ErrBusy))
}

func TestSubmitResetsOnlyOnSuccess(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	dr, err := svc.Create(ctx, draft.KindOrder)
	require.NoError(t, err)
	_, err = svc.AddProduct(ctx, dr.ID, "4")
	require.NoError(t, err)
	_, err = svc.SetCustomer(ctx, dr.ID, draft.Customer{Name: " Ana ", Address: "Calle 1"})
	require.NoError(t, err)
	_, err = svc.SetPaymentMethod(ctx, dr.ID, "Transferencia")
	require.NoError(t, err)

	failing := &recordingSubmitter{err: common.NewAppError("REMOTE_ERROR", "backend said no", http.StatusBadGateway, nil)}
	_, _, err = svc.Submit(ctx, dr.ID, failing)
	require.Error(t, err)
	kept, err := svc.Get(ctx, dr.ID)
	require.NoError(t, err)
	require.Equal(t, 1, kept.Lines.Len())
	require.Equal(t, "Transferencia", kept.PaymentMethod)
	require.Equal(t, "Ana", kept.Customer.Name)

	ok := &recordingSubmitter{}
	result, after, err := svc.Submit(ctx, dr.ID, ok)
	require.NoError(t, err)
	require.Equal(t, map[string]any{"id": 42}, result)
	require.Len(t, ok.seen, 1)
	require.Equal(t, 1, ok.seen[0].Lines.Len())
	require.Equal(t, 0, after.Lines.Len())
	require.Equal(t, draft.DefaultPaymentMethod, after.PaymentMethod)
	require.True(t, after.Customer.Blank())
}

func newRouter(svc *draft.Service, sub draft.Submitter) http.Handler {
	r := chi.NewRouter()
	h := draft.NewHandler(draft.HandlerConfig{
		Service:    svc,
		Submitters: map[draft.Kind]draft.Submitter{draft.KindSale: sub, draft.KindOrder: sub},
	})
	r.Route("/api/v1/drafts", func(r chi.Router) { h.Routes(r) })
	return r
}

type viewEnvelope struct {
	Data struct {
		ID    string `json:"id"`
		Total string `json:"total"`
		Lines []struct {
			ProductID int    `json:"productId"`
			Quantity  string `json:"quantity"`
			Subtotal  string `json:"subtotal"`
		} `json:"lines"`
	} `json:"data"`
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestDraftHandlers(t *testing.T) {
	svc, _ := newService(t)
	sub := &recordingSubmitter{}
	router := newRouter(svc, sub)

	rec := do(t, router, http.MethodPost, "/api/v1/drafts", `{"kind":"sale"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created viewEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	base := "/api/v1/drafts/" + created.Data.ID

	rec = do(t, router, http.MethodPost, base+"/lines", `{"productId":3}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPatch, base+"/lines/3", `{"quantity":"250"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPost, base+"/lines", `{"productId":"2"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, router, http.MethodPatch, base+"/lines/2", `{"quantity":"0,5"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var view viewEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Data.Lines, 2)
	require.Equal(t, 3, view.Data.Lines[0].ProductID)
	require.Equal(t, "300", view.Data.Lines[0].Subtotal)
	require.Equal(t, "340", view.Data.Total)

	rec = do(t, router, http.MethodPut, base+"/payment", `{"method":"QR"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodPost, base+"/submit", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, sub.seen, 1)
	require.Equal(t, "QR", sub.seen[0].PaymentMethod)

	rec = do(t, router, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Empty(t, view.Data.Lines)

	rec = do(t, router, http.MethodPost, "/api/v1/drafts", `{"kind":"layaway"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, router, http.MethodDelete, base, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, router, http.MethodGet, base, "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}
