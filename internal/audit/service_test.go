package audit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/lumapos/backend-pos/internal/common"
	"github.com/lumapos/backend-pos/internal/obs"
)

type stubStore struct {
	last   Entry
	called bool
}

func (s *stubStore) Insert(ctx context.Context, e Entry) error {
	s.called = true
	s.last = e
	return nil
}

func (s *stubStore) List(ctx context.Context, limit, offset int) ([]Entry, int, error) {
	return nil, 0, nil
}

func TestServiceRecord(t *testing.T) {
	store := &stubStore{}
	svc := Service{Store: store, Enabled: true, SamplingRate: 1}

	req := httptest.NewRequest(http.MethodPost, "https://api.test/v1/sales?source=register", nil)
	req.Header.Set("X-Request-ID", "req-123")
	ctx := common.WithTerminalID(req.Context(), "caja-3")
	ctx = obs.WithRoutePattern(ctx, "/v1/sales")
	req = req.WithContext(ctx)

	if err := svc.Record(req.Context(), "caja-3", "", "", "", req, http.StatusCreated, nil); err != nil {
		t.Fatalf("record: %v", err)
	}
	if !store.called {
		t.Fatal("expected store to be called")
	}
	if store.last.TerminalID != "caja-3" {
		t.Fatalf("unexpected terminal id: %s", store.last.TerminalID)
	}
	if store.last.Action != "POST /v1/sales" {
		t.Fatalf("unexpected action: %s", store.last.Action)
	}
	if store.last.ResourceType != "sales" {
		t.Fatalf("unexpected resource type: %s", store.last.ResourceType)
	}
	if store.last.Status != http.StatusCreated {
		t.Fatalf("unexpected status: %d", store.last.Status)
	}
	if store.last.RequestID != "req-123" {
		t.Fatalf("expected request id, got %q", store.last.RequestID)
	}
	if len(store.last.Metadata) == 0 {
		t.Fatal("expected metadata to be set")
	}
	var meta map[string]string
	if err := json.Unmarshal(store.last.Metadata, &meta); err != nil {
		t.Fatalf("metadata json: %v", err)
	}
	if meta["query"] != "source=register" {
		t.Fatalf("unexpected metadata query: %s", meta["query"])
	}
}

func TestServiceRecordDisabled(t *testing.T) {
	store := &stubStore{}
	svc := Service{Store: store, Enabled: false}
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if err := svc.Record(req.Context(), "", "", "", "", req, http.StatusOK, nil); err != nil {
		t.Fatalf("record: %v", err)
	}
	if store.called {
		t.Fatal("expected no insert when disabled")
	}
}

func TestBuildResource(t *testing.T) {
	cases := map[string]string{
		"/v1/sales":          "sales",
		"/v1/products/{sku}": "products.{sku}",
		"/healthz":           "healthz",
		"":                   "unknown",
	}
	for route, want := range cases {
		if got := buildResource("", route); got != want {
			t.Fatalf("buildResource(%q) = %q, want %q", route, got, want)
		}
	}
}
