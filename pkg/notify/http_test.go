package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestHTTPNotifier_Notify(t *testing.T) {
	var received Notification
	var auth, path string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("failed to decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier, err := NewHTTPNotifier(HTTPConfig{
		RootURL:     server.URL + "/",
		ClientID:    "project/perf",
		AccessToken: "secret",
	})
	if err != nil {
		t.Fatalf("NewHTTPNotifier() failed: %v", err)
	}

	n := Notification{Address: "perftest-alerts@mozilla.com", Subject: "Summary", Content: "| a |"}
	if err := notifier.Notify(context.Background(), n); err != nil {
		t.Fatalf("Notify() failed: %v", err)
	}

	if path != EmailPath {
		t.Errorf("Expected path %q, got %q", EmailPath, path)
	}
	if auth != "Bearer secret" {
		t.Errorf("Expected bearer token, got %q", auth)
	}
	if received != n {
		t.Errorf("Expected %+v, got %+v", n, received)
	}
}

func TestHTTPNotifier_RetryOn5xx(t *testing.T) {
	attempts := int32(0)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&attempts, 1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier, err := NewHTTPNotifier(HTTPConfig{
		RootURL:      server.URL,
		MaxRetries:   3,
		RetryBackoff: time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewHTTPNotifier() failed: %v", err)
	}

	if err := notifier.Notify(context.Background(), Notification{Subject: "s"}); err != nil {
		t.Errorf("expected success after retries, got %v", err)
	}
	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestHTTPNotifier_NoRetryOn4xx(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
	}{
		{"400 bad request", http.StatusBadRequest},
		{"401 unauthorized", http.StatusUnauthorized},
		{"403 forbidden", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attempts := int32(0)
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&attempts, 1)
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte("rejected"))
			}))
			defer server.Close()

			notifier, err := NewHTTPNotifier(HTTPConfig{
				RootURL:      server.URL,
				MaxRetries:   3,
				RetryBackoff: time.Millisecond,
			})
			if err != nil {
				t.Fatalf("NewHTTPNotifier() failed: %v", err)
			}

			err = notifier.Notify(context.Background(), Notification{Subject: "s"})
			var notifyErr *NotifyError
			if !errors.As(err, &notifyErr) {
				t.Fatalf("expected *NotifyError, got %v", err)
			}
			if notifyErr.StatusCode != tt.statusCode {
				t.Errorf("expected status %d, got %d", tt.statusCode, notifyErr.StatusCode)
			}
			if got := atomic.LoadInt32(&attempts); got != 1 {
				t.Errorf("expected 1 attempt, got %d", got)
			}
		})
	}
}

func TestNewHTTPNotifier_RequiresRootURL(t *testing.T) {
	if _, err := NewHTTPNotifier(HTTPConfig{}); err == nil {
		t.Error("expected error for empty root url")
	}
}

func TestLogNotifier_NeverFails(t *testing.T) {
	if err := NewLogNotifier().Notify(context.Background(), Notification{Subject: "s"}); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}
