package draftgen

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient(ClientConfig{}); err == nil {
		t.Fatalf("expected an error for a missing base url")
	}
}

func TestFetchDraftReturnsGeneratedText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/cases/case-1/draft" {
			t.Errorf("expected GET /cases/case-1/draft, got %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"draft_text":"원고는 위자료를 청구합니다."}`))
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected client error: %v", err)
	}

	text, err := client.FetchDraft(context.Background(), "case-1")
	if err != nil {
		t.Fatalf("unexpected fetch error: %v", err)
	}
	if text != "원고는 위자료를 청구합니다." {
		t.Fatalf("expected generated draft text, got %q", text)
	}
}

func TestFetchDraftSurfacesUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewClient(ClientConfig{BaseURL: server.URL})
	if err != nil {
		t.Fatalf("unexpected client error: %v", err)
	}

	if _, err := client.FetchDraft(context.Background(), "case-1"); err == nil {
		t.Fatalf("expected an error for a failing upstream")
	}
}
