package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestServer_StartAndShutdown tests serving until the context is cancelled.
func TestServer_StartAndShutdown(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	})

	srv := NewServer(Config{ListenAddress: "127.0.0.1:0"}, mux)
	addr, err := srv.Listen()
	if err != nil {
		t.Fatalf("Listen() failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	var resp *http.Response
	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err = http.Get("http://" + addr.String() + "/health")
		if err == nil || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK || string(body) != "ok" {
		t.Errorf("Expected 200 ok, got %d %q", resp.StatusCode, body)
	}
	if !srv.IsRunning() {
		t.Error("Expected server to be running")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Start() returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Expected server to stop after cancel")
	}
	if srv.IsRunning() {
		t.Error("Expected server to be stopped")
	}
}

// TestServer_ListenError tests that a bad address fails fast.
func TestServer_ListenError(t *testing.T) {
	srv := NewServer(Config{ListenAddress: "256.0.0.1:bad"}, http.NewServeMux())
	if err := srv.Start(context.Background()); err == nil {
		t.Error("Expected error for invalid listen address")
	}
}

// TestRecoveryMiddleware tests that panics become 500 responses.
func TestRecoveryMiddleware(t *testing.T) {
	handler := RecoveryMiddleware(slog.Default(), http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected status 500, got %d", rec.Code)
	}
}

// TestLoggingMiddleware_CapturesStatus tests status capture on the wrapper.
func TestLoggingMiddleware_CapturesStatus(t *testing.T) {
	handler := LoggingMiddleware(slog.Default(), http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", rec.Code)
	}
}
