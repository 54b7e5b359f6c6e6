package blocksource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/statichive/statichive-core/internal/core/domain"
)

func TestClient_FetchTree(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/documents/doc-1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected authorization header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"root_id": "doc-1",
			"blocks": {
				"doc-1": {"id": "doc-1", "type": "page", "children": ["b1"]},
				"b1": {"id": "b1", "type": "text", "properties": {"title": [{"text": "hi"}]}}
			}
		}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "secret"})
	tree, err := client.FetchTree(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.RootID != "doc-1" {
		t.Errorf("unexpected root %s", tree.RootID)
	}
	if len(tree.Blocks) != 2 {
		t.Errorf("expected 2 blocks, got %d", len(tree.Blocks))
	}
	if tree.Blocks["b1"].Type != domain.BlockTypeText {
		t.Errorf("unexpected type %s", tree.Blocks["b1"].Type)
	}
}

func TestClient_FetchTree_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	_, err := client.FetchTree(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_FetchTree_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"root_id": "doc-1", "blocks": {"doc-1": {"id": "doc-1", "type": "page"}}}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	tree, err := client.FetchTree(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tree.RootID != "doc-1" {
		t.Errorf("unexpected root %s", tree.RootID)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestClient_FetchTree_MalformedTree(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"blocks": null}`))
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL})
	if _, err := client.FetchTree(context.Background(), "doc-1"); err == nil {
		t.Error("expected error for malformed tree")
	}
}
