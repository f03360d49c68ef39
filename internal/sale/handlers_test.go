package sale_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/lumapos/backend-pos/internal/common"
	"github.com/lumapos/backend-pos/internal/pricing"
	"github.com/lumapos/backend-pos/internal/sale"
)

func newTestRouter(t *testing.T) (*chi.Mux, *memoryStore) {
	t.Helper()
	store := newMemoryStore()
	handler := sale.NewHandler(newTestService(t, store, newMemoryCatalog(testProducts()...), nil))

	router := chi.NewRouter()
	router.Use(common.TerminalMiddleware)
	router.Route("/v1", handler.Routes)
	return router, store
}

func TestSaleHandlers(t *testing.T) {
	router, store := newTestRouter(t)

	var saleID string
	var lineID string

	t.Run("complete", func(t *testing.T) {
		payload := `{"lines":[{"sku":"CAFE-001","qty":2}],"global_discount":{"kind":"percent","value":1000}}`
		req := httptest.NewRequest(http.MethodPost, "/v1/sales", strings.NewReader(payload))
		req.Header.Set(common.TerminalHeader, "caja-3")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		var body struct {
			Data struct {
				Transaction sale.Transaction `json:"transaction"`
				Totals      pricing.Totals   `json:"totals"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, int64(1800), body.Data.Totals.FinalTotal)
		require.Equal(t, "caja-3", body.Data.Transaction.TerminalID)

		saleID = body.Data.Transaction.ID.String()
		lineID = body.Data.Transaction.Lines[0].ID
		require.Len(t, store.transactions, 1)
	})

	t.Run("get", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/sales/"+saleID, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("refund", func(t *testing.T) {
		payload := `{"lines":[{"line_id":"` + lineID + `","qty":1}]}`
		req := httptest.NewRequest(http.MethodPost, "/v1/sales/"+saleID+"/refunds", strings.NewReader(payload))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		var body struct {
			Data sale.Transaction `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, int64(900), body.Data.Total)
	})

	t.Run("refund exhausted", func(t *testing.T) {
		payload := `{"lines":[{"line_id":"` + lineID + `","qty":5}]}`
		req := httptest.NewRequest(http.MethodPost, "/v1/sales/"+saleID+"/refunds", strings.NewReader(payload))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code)

		req = httptest.NewRequest(http.MethodPost, "/v1/sales/"+saleID+"/refunds", strings.NewReader(payload))
		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestSaleHandlerRejectsCombinedAdjustments(t *testing.T) {
	router, _ := newTestRouter(t)

	payload := `{"lines":[{"sku":"CAFE-001","qty":1}],"global_discount":{"kind":"percent","value":500},"promotion":"PROMO_BEBIDAS"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/sales", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "EXCLUSIVE_ADJUSTMENT", body.Error.Code)
}

func TestSaleHandlerValidation(t *testing.T) {
	router, _ := newTestRouter(t)

	t.Run("empty lines", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/sales", strings.NewReader(`{"lines":[]}`))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("bad transaction id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/sales/not-a-uuid", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown promotion", func(t *testing.T) {
		payload := `{"lines":[{"sku":"CAFE-001","qty":1}],"promotion":"NO_SUCH_PROMO"}`
		req := httptest.NewRequest(http.MethodPost, "/v1/sales/quote", strings.NewReader(payload))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}
