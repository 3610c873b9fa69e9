package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"mercator-hq/datacycle/pkg/telemetry/tracing"
)

// EmailPath is the email endpoint relative to the service root URL.
const EmailPath = "/api/notify/v1/email"

// HTTPConfig configures an HTTPNotifier.
type HTTPConfig struct {
	// RootURL is the notification service root, e.g. https://firefox-ci-tc.services.mozilla.com
	RootURL string

	ClientID    string
	AccessToken string

	// Timeout bounds a single request.
	// Default: 10 seconds
	Timeout time.Duration

	// MaxRetries is the number of retries after a failed attempt.
	MaxRetries int

	// RetryBackoff is the first retry delay, doubled on each retry.
	// Default: 1 second
	RetryBackoff time.Duration
}

// HTTPNotifier posts notifications as JSON to the email endpoint.
type HTTPNotifier struct {
	config HTTPConfig
	client *http.Client
	logger *slog.Logger
}

// NewHTTPNotifier creates an HTTP notifier.
func NewHTTPNotifier(config HTTPConfig) (*HTTPNotifier, error) {
	if config.RootURL == "" {
		return nil, errors.New("notify root url cannot be empty")
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}
	if config.RetryBackoff <= 0 {
		config.RetryBackoff = time.Second
	}
	config.RootURL = strings.TrimRight(config.RootURL, "/")

	return &HTTPNotifier{
		config: config,
		client: &http.Client{Timeout: config.Timeout},
		logger: slog.Default().With("component", "notify"),
	}, nil
}

// Notify sends n, retrying transport failures and 5xx responses.
func (h *HTTPNotifier) Notify(ctx context.Context, n Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	url := h.config.RootURL + EmailPath

	var lastErr error
	for attempt := 0; attempt <= h.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * h.config.RetryBackoff
			h.logger.Debug("retrying notification",
				"attempt", attempt,
				"max_retries", h.config.MaxRetries,
				"backoff", backoff,
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}

		err := h.send(ctx, url, body)
		if err == nil {
			h.logger.Debug("notification sent", "address", n.Address, "subject", n.Subject)
			return nil
		}
		lastErr = err

		var notifyErr *NotifyError
		if ctx.Err() != nil || (errors.As(err, &notifyErr) && !notifyErr.Retryable()) {
			return err
		}
		h.logger.Warn("notification failed, will retry",
			"attempt", attempt+1,
			"error", err,
		)
	}
	return lastErr
}

func (h *HTTPNotifier) send(ctx context.Context, url string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if h.config.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+h.config.AccessToken)
	}
	if h.config.ClientID != "" {
		req.Header.Set("X-Client-Id", h.config.ClientID)
	}
	tracing.Inject(ctx, req.Header)

	resp, err := h.client.Do(req)
	if err != nil {
		return &NotifyError{Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	errorBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &NotifyError{StatusCode: resp.StatusCode, Message: string(errorBody)}
}
