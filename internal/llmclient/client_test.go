package llmclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSend_ExtractsTextViaResponsePath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"hello from the model"}}]}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", ".choices[0].message.content", 2*time.Second)

	got, err := c.Send(context.Background(), []byte(`{"prompt":"hi"}`))
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got != "hello from the model" {
		t.Errorf("Send() = %q, want %q", got, "hello from the model")
	}
}

func TestSend_SendsBearerToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"response":"ok"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret-key", ".response", 2*time.Second)
	if _, err := c.Send(context.Background(), []byte(`{}`)); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if gotAuth != "Bearer secret-key" {
		t.Errorf("Authorization header = %q, want %q", gotAuth, "Bearer secret-key")
	}
}

func TestSend_NonJSONBodyIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := New(srv.URL, "", ".response", 2*time.Second)
	_, err := c.Send(context.Background(), []byte(`{}`))
	if err == nil {
		t.Fatal("expected error for non-JSON body")
	}
}

func TestSend_PathNotFoundIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"other":"field"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", ".response", 2*time.Second)
	_, err := c.Send(context.Background(), []byte(`{}`))
	if err == nil {
		t.Fatal("expected error for missing response path")
	}
}

func TestSend_PermanentErrorDoesNotRetry(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"unauthorized"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", ".response", 2*time.Second)
	_, err := c.Send(context.Background(), []byte(`{}`))
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry on permanent error)", calls)
	}
}

func TestSend_TransientErrorRetriesThenSucceeds(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"error":"unavailable"}`))
			return
		}
		w.Write([]byte(`{"response":"recovered"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", ".response", 2*time.Second)
	got, err := c.Send(context.Background(), []byte(`{}`))
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got != "recovered" {
		t.Errorf("Send() = %q, want %q", got, "recovered")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestSend_ResultIsCached(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(`{"response":"cached-value"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "", ".response", 2*time.Second)
	body := []byte(`{"prompt":"same"}`)

	if _, err := c.Send(context.Background(), body); err != nil {
		t.Fatalf("first Send() error = %v", err)
	}
	if _, err := c.Send(context.Background(), body); err != nil {
		t.Fatalf("second Send() error = %v", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1 (second call should hit cache)", calls)
	}
}

func TestExtractString_NestedPathAndIndex(t *testing.T) {
	doc := map[string]any{
		"a": map[string]any{
			"b": []any{
				map[string]any{"c": "value-at-index-0"},
				map[string]any{"c": "value-at-index-1"},
			},
		},
	}
	got, err := ExtractString(doc, ".a.b[1].c")
	if err != nil {
		t.Fatalf("ExtractString() error = %v", err)
	}
	if got != "value-at-index-1" {
		t.Errorf("ExtractString() = %q, want %q", got, "value-at-index-1")
	}
}

func TestExtractString_IndexOutOfRange(t *testing.T) {
	doc := map[string]any{"a": []any{"only-one"}}
	_, err := ExtractString(doc, ".a[5]")
	if err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Fatalf("expected out-of-range error, got %v", err)
	}
}
