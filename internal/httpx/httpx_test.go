package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestHTTPError(t *testing.T) {
	err := &HTTPError{
		Method:     "GET",
		URL:        "https://example.com",
		StatusCode: 404,
		Body:       []byte("Not Found"),
	}

	expected := "http error: GET https://example.com status=404 body=Not Found"
	if err.Error() != expected {
		t.Errorf("HTTPError.Error() = %q, want %q", err.Error(), expected)
	}
}

func TestDefaultRetryConfig(t *testing.T) {
	cfg := DefaultRetryConfig()

	if cfg.MaxAttempts != 3 {
		t.Errorf("Expected MaxAttempts to be 3, got %d", cfg.MaxAttempts)
	}
	if !cfg.Retry5xx {
		t.Error("Expected Retry5xx to be true")
	}
	if !cfg.RetryStatuses[http.StatusTooManyRequests] {
		t.Error("Expected 429 to be retryable")
	}
}

func TestGetRetriesOn500(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	cfg := DefaultRetryConfig()
	cfg.BaseDelay = time.Millisecond
	body, err := Get(context.Background(), server.Client(), server.URL, nil, cfg)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("Expected body 'ok', got %q", body)
	}
	if calls != 2 {
		t.Errorf("Expected 2 calls (one retry), got %d", calls)
	}
}

func TestGetDoesNotRetryOn404(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := Get(context.Background(), server.Client(), server.URL, nil, DefaultRetryConfig())
	if err == nil {
		t.Fatal("Expected error for 404")
	}
	herr, ok := err.(*HTTPError)
	if !ok {
		t.Fatalf("Expected *HTTPError, got %T", err)
	}
	if herr.StatusCode != 404 {
		t.Errorf("Expected status 404, got %d", herr.StatusCode)
	}
	if calls != 1 {
		t.Errorf("Expected a single call for a non-retryable status, got %d", calls)
	}
}

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"slug":"16455-giant-growth"}`))
	}))
	defer server.Close()

	var out struct {
		Slug string `json:"slug"`
	}
	if err := GetJSON(context.Background(), server.Client(), server.URL, nil, &out, DefaultRetryConfig()); err != nil {
		t.Fatalf("GetJSON returned error: %v", err)
	}
	if out.Slug != "16455-giant-growth" {
		t.Errorf("Expected slug '16455-giant-growth', got %q", out.Slug)
	}
}

func TestGetJSONParseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	var out map[string]any
	if err := GetJSON(context.Background(), server.Client(), server.URL, nil, &out, DefaultRetryConfig()); err == nil {
		t.Fatal("Expected parse error for HTML body")
	}
}

func TestGetDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><div class="pagination"><a>1</a><a>2</a></div></body></html>`))
	}))
	defer server.Close()

	doc, err := GetDocument(context.Background(), server.Client(), server.URL, DefaultRetryConfig())
	if err != nil {
		t.Fatalf("GetDocument returned error: %v", err)
	}
	if got := doc.Find("div.pagination a").Length(); got != 2 {
		t.Errorf("Expected 2 anchors, got %d", got)
	}
}

func TestParseRetryAfter(t *testing.T) {
	resp := &http.Response{Header: http.Header{}}

	if d := ParseRetryAfter(resp); d != 0 {
		t.Errorf("Expected 0 for missing header, got %v", d)
	}

	resp.Header.Set("Retry-After", "2")
	if d := ParseRetryAfter(resp); d != 2*time.Second {
		t.Errorf("Expected 2s, got %v", d)
	}

	resp.Header.Set("Retry-After", "garbage")
	if d := ParseRetryAfter(resp); d != 0 {
		t.Errorf("Expected 0 for invalid header, got %v", d)
	}
}

func TestSnippet(t *testing.T) {
	testCases := []struct {
		input    string
		max      int
		expected string
	}{
		{"short text", 100, "short text"},
		{"", 100, ""},
		{"  trimmed  ", 100, "trimmed"},
	}

	for _, tc := range testCases {
		result := snippet([]byte(tc.input), tc.max)
		if result != tc.expected {
			t.Errorf("snippet(%q, %d) = %q, want %q", tc.input, tc.max, result, tc.expected)
		}
	}
}
