package common_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/lumapos/backend-pos/internal/common"
)

func TestIdemMiddlewareBlocksReplay(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	hits := 0
	handler := common.Idem{R: rdb, TTL: time.Minute}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusCreated)
	}))

	first := httptest.NewRequest(http.MethodPost, "/sales", nil)
	first.Header.Set("Idempotency-Key", "reg-3-000451")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, first)
	require.Equal(t, http.StatusCreated, rr.Code)

	replay := httptest.NewRequest(http.MethodPost, "/sales", nil)
	replay.Header.Set("Idempotency-Key", "reg-3-000451")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, replay)
	require.Equal(t, http.StatusConflict, rr.Code)
	require.Contains(t, rr.Body.String(), "IDEMPOTENT_REPLAY")
	require.Equal(t, 1, hits)
}

func TestIdemMiddlewarePassesWithoutKey(t *testing.T) {
	hits := 0
	handler := common.Idem{}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	for i := 0; i < 2; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/sales", nil))
	}
	require.Equal(t, 2, hits)
}

func TestTerminalMiddleware(t *testing.T) {
	var got string
	var ok bool
	handler := common.TerminalMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, ok = common.TerminalID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(common.TerminalHeader, "  caja-7  ")
	handler.ServeHTTP(httptest.NewRecorder(), req)
	require.True(t, ok)
	require.Equal(t, "caja-7", got)

	ok = false
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.False(t, ok)
}

func TestDecodeJSONValidation(t *testing.T) {
	type payload struct {
		Name string `json:"name" validate:"required"`
		Qty  int    `json:"qty" validate:"gt=0"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"","qty":0}`))
	var p payload
	err := common.DecodeJSON(req, &p)
	require.Error(t, err)
	var appErr *common.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, "VALIDATION_ERROR", appErr.Code)
	details, ok := appErr.Details.(map[string]string)
	require.True(t, ok)
	require.Contains(t, details, "name")
	require.Contains(t, details, "qty")

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Cafe","qty":2,"extra":true}`))
	require.Error(t, common.DecodeJSON(req, &p))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Cafe","qty":2}`))
	require.NoError(t, common.DecodeJSON(req, &p))
	require.Equal(t, "Cafe", p.Name)
}
