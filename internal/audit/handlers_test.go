package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

type listStore struct {
	stubStore
	receivedLimit  int
	receivedOffset int
}

func (l *listStore) List(_ context.Context, limit, offset int) ([]Entry, int, error) {
	l.receivedLimit = limit
	l.receivedOffset = offset
	return []Entry{{Action: "POST /v1/sales", Method: "POST"}}, 1, nil
}

func TestHandlerList(t *testing.T) {
	store := &listStore{}
	h := Handler{Store: store}
	req := httptest.NewRequest(http.MethodGet, "/audit-logs?limit=25&page=2", nil)
	rr := httptest.NewRecorder()
	h.List(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if store.receivedLimit != 25 || store.receivedOffset != 25 {
		t.Fatalf("unexpected pagination params: %d/%d", store.receivedLimit, store.receivedOffset)
	}
	if got := rr.Header().Get("X-Total-Count"); got != "1" {
		t.Fatalf("unexpected total header: %q", got)
	}
	var payload struct {
		Items []Entry `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Items) != 1 {
		t.Fatalf("expected one entry, got %d", len(payload.Items))
	}
}

func TestMiddlewareRecordsAfterHandler(t *testing.T) {
	store := &stubStore{}
	svc := Service{Store: store, Enabled: true}
	recorder := HTTPRecorder{Service: &svc}

	handler := recorder.Middleware(HTTPConfig{
		Action:       "refund.create",
		ResourceType: "refunds",
		MetadataFunc: func(r *http.Request, status int) map[string]any {
			return map[string]any{"status": status}
		},
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/sales/abc/refunds", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if !store.called {
		t.Fatal("expected entry to be recorded")
	}
	if store.last.Action != "refund.create" {
		t.Fatalf("unexpected action: %s", store.last.Action)
	}
	if store.last.Status != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected status: %d", store.last.Status)
	}
}

func TestMiddlewareSkipsWhenDisabled(t *testing.T) {
	store := &stubStore{}
	svc := Service{Store: store, Enabled: false}
	recorder := HTTPRecorder{Service: &svc}

	handler := recorder.Middleware(HTTPConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodDelete, "/v1/carts/held/x", nil))

	if store.called {
		t.Fatal("expected no entry when disabled")
	}
	if rr.Code != http.StatusNoContent {
		t.Fatalf("handler response altered: %d", rr.Code)
	}
}
