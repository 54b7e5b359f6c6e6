package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestImageFetcher_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("png-bytes"))
	}))
	defer server.Close()

	body, err := NewImageFetcher(0).Fetch(context.Background(), server.URL+"/pic.png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "png-bytes" {
		t.Errorf("unexpected body %q", body)
	}
}

func TestImageFetcher_FollowsRedirects(t *testing.T) {
	var target *httptest.Server
	target = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/redirect" {
			http.Redirect(w, r, target.URL+"/final", http.StatusFound)
			return
		}
		_, _ = w.Write([]byte("final-bytes"))
	}))
	defer target.Close()

	body, err := NewImageFetcher(0).Fetch(context.Background(), target.URL+"/redirect")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(body) != "final-bytes" {
		t.Errorf("unexpected body %q", body)
	}
}

func TestImageFetcher_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	if _, err := NewImageFetcher(0).Fetch(context.Background(), server.URL); err == nil {
		t.Error("expected error for non-200 status")
	}
}
