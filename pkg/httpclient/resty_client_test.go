package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestRestyClientSendsHeadersAndCapsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "test-agent" {
			t.Errorf("User-Agent = %q", got)
		}
		if got := r.Header.Get("Accept"); got != "text/html" {
			t.Errorf("Accept = %q", got)
		}
		_, _ = w.Write([]byte(strings.Repeat("a", 64)))
	}))
	defer srv.Close()

	client := NewRestyClientWithOptions(Options{Timeout: time.Second, UserAgent: "test-agent", MaxBodyBytes: 10})
	resp, err := client.Get(context.Background(), srv.URL, map[string]string{"Accept": "text/html"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode() != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode())
	}
	if len(resp.Body()) != 10 {
		t.Fatalf("expected body capped at 10 bytes, got %d", len(resp.Body()))
	}
}

func TestRestyClientStopsReadingAtCap(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", 32)))
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewRestyClientWithOptions(Options{Timeout: 5 * time.Second, MaxBodyBytes: 16})
	start := time.Now()
	resp, err := client.Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(resp.Body()) != 16 {
		t.Fatalf("expected 16 bytes, got %d", len(resp.Body()))
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Fatalf("read should stop at the cap, took %s", elapsed)
	}
}

func TestRestyClientWithoutCapKeepsWholeBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("b", 64)))
	}))
	defer srv.Close()

	resp, err := NewRestyClient(time.Second).Get(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(resp.Body()) != 64 {
		t.Fatalf("expected full body, got %d bytes", len(resp.Body()))
	}
}

func TestRestyClientTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewRestyClient(50 * time.Millisecond)
	if _, err := client.Get(context.Background(), srv.URL, nil); err == nil {
		t.Fatalf("expected timeout error")
	}
}

type fixedResponse struct {
	code int
	body []byte
}

func (f fixedResponse) Body() []byte    { return f.body }
func (f fixedResponse) StatusCode() int { return f.code }

func TestCheckStatus(t *testing.T) {
	if err := CheckStatus("u", fixedResponse{code: 204}); err != nil {
		t.Fatalf("expected nil for 204, got %v", err)
	}

	err := CheckStatus("u", fixedResponse{code: 404, body: []byte(" missing ")})
	var se *StatusError
	if !errors.As(err, &se) || se.Code != 404 || se.Snippet != "missing" {
		t.Fatalf("unexpected error %#v", err)
	}
}
