package sale_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/pos-admin/internal/backend"
	"github.com/noah-isme/pos-admin/internal/common"
	"github.com/noah-isme/pos-admin/internal/draft"
	"github.com/noah-isme/pos-admin/internal/lineitem"
	"github.com/noah-isme/pos-admin/internal/product"
	"github.com/noah-isme/pos-admin/internal/sale"
)

type fakeBackend struct {
	requests    []backend.SaleRequest
	filters     []backend.SaleFilter
	deactivated []string
	createErr   error
	page        backend.Page[backend.Sale]
}

func (f *fakeBackend) CreateSale(_ context.Context, req backend.SaleRequest) (backend.Sale, error) {
	f.requests = append(f.requests, req)
	if f.createErr != nil {
		return backend.Sale{}, f.createErr
	}
	return backend.Sale{ID: json.Number("77"), Total: decimal.NewFromInt(146), PaymentMethod: req.PaymentMethod, Active: true}, nil
}

func (f *fakeBackend) FilterSales(_ context.Context, filter backend.SaleFilter) (backend.Page[backend.Sale], error) {
	f.filters = append(f.filters, filter)
	return f.page, nil
}

func (f *fakeBackend) DeactivateSale(_ context.Context, id string) error {
	f.deactivated = append(f.deactivated, id)
	return nil
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func saleDraft(method string) *draft.Draft {
	dr := &draft.Draft{ID: "draft-1", Kind: draft.KindSale, PaymentMethod: method}
	dr.Lines.AddProduct(product.Product{ID: "1", Name: "A", Price: d("50"), Unit: product.Each, Active: true, InStock: true})
	dr.Lines.AddProduct(product.Product{ID: "2", Name: "B", Price: d("80"), Unit: product.Kilogram, Active: true, InStock: true})
	dr.Lines.AdjustQuantity("2", d("1.2"))
	return dr
}

func newComposer(t *testing.T, fb *fakeBackend) *sale.Composer {
	t.Helper()
	c, err := sale.NewComposer(sale.ComposerConfig{Backend: fb, Logger: zerolog.Nop()})
	require.NoError(t, err)
	return c
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, code, appErr.Code)
}

func TestSubmitSendsWireQuantities(t *testing.T) {
	fb := &fakeBackend{}
	c := newComposer(t, fb)

	out, err := c.Submit(context.Background(), saleDraft("Débito"))
	require.NoError(t, err)
	require.Len(t, fb.requests, 1)

	body, err := json.Marshal(fb.requests[0])
	require.NoError(t, err)
	require.JSONEq(t, `{"formaPago":"Débito","detalles":[{"producto":{"id":1},"cantidad":1},{"producto":{"id":2},"cantidad":1.2}]}`, string(body))

	view, ok := out.(sale.View)
	require.True(t, ok)
	require.Equal(t, "77", view.ID)
}

func TestSubmitValidationNeverReachesBackend(t *testing.T) {
	fb := &fakeBackend{}
	c := newComposer(t, fb)
	ctx := context.Background()

	empty := &draft.Draft{Kind: draft.KindSale, PaymentMethod: "Efectivo"}
	_, err := c.Submit(ctx, empty)
	requireCode(t, err, "EMPTY_COMPOSITION")

	blank := saleDraft("Efectivo")
	blank.Lines.AddProduct(product.Product{ID: "3", Name: "Jamón", Price: d("120"), Unit: product.Gram, Active: true, InStock: true})
	_, err = c.Submit(ctx, blank)
	requireCode(t, err, "INVALID_QUANTITY")

	_, err = c.Submit(ctx, saleDraft(""))
	requireCode(t, err, "PAYMENT_METHOD_REQUIRED")

	_, err = c.Submit(ctx, saleDraft("Transferencia"))
	requireCode(t, err, "PAYMENT_METHOD_REQUIRED")

	require.Empty(t, fb.requests)
}

func TestSubmitRemoteFailureIsNotRetried(t *testing.T) {
	fb := &fakeBackend{createErr: &backend.Error{Status: http.StatusBadRequest, Message: "Stock insuficiente"}}
	c := newComposer(t, fb)

	dr := saleDraft("QR")
	_, err := c.Submit(context.Background(), dr)
	requireCode(t, err, "REMOTE_ERROR")
	require.Len(t, fb.requests, 1)
	require.Equal(t, 2, dr.Lines.Len())
}

func TestValidateLinesNamesBlankProducts(t *testing.T) {
	c := lineitem.New()
	c.AddProduct(product.Product{ID: "9", Name: "Queso", Price: d("80"), Unit: product.Kilogram, Active: true, InStock: true})
	err := sale.ValidateLines(c)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Contains(t, appErr.Details.(map[string]any)["reason"], "Queso")
}

func TestHistoryHandlers(t *testing.T) {
	fb := &fakeBackend{page: backend.Page[backend.Sale]{
		Content: []backend.Sale{{
			ID:      json.Number("5"),
			Total:   d("310"),
			Active:  true,
			Details: []backend.Detail{{ProductName: "Facturas", Quantity: d("0.5"), UnitPrice: d("240")}},
		}},
		TotalElements: 21,
	}}
	c := newComposer(t, fb)
	r := chi.NewRouter()
	r.Route("/api/v1/sales", func(r chi.Router) {
		sale.NewHandler(sale.HandlerConfig{Composer: c, PageSize: 10}).Routes(r)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sales?page=2&date=2024-05-01", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, backend.SaleFilter{Date: "2024-05-01", Page: 1, Size: 10}, fb.filters[0])

	var body struct {
		Data []struct {
			ID      string `json:"id"`
			Details []struct {
				Subtotal string `json:"subtotal"`
			} `json:"details"`
		} `json:"data"`
		Pagination common.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "5", body.Data[0].ID)
	require.Equal(t, "120", body.Data[0].Details[0].Subtotal)
	require.Equal(t, 3, body.Pagination.TotalPages)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sales?date=01/05/2024", nil))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/v1/sales/5/deactivate", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, []string{"5"}, fb.deactivated)
}

func TestNewViewUsesLocation(t *testing.T) {
	var ts backend.Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2024-05-01T10:15:30"`), &ts))
	loc := time.FixedZone("ART", -3*3600)
	v := sale.NewView(backend.Sale{ID: "1", Time: ts}, loc)
	require.Equal(t, 10, v.Time.Hour())
	require.Equal(t, loc, v.Time.Location())
}
