// Package notify sends best-effort email notifications about removed
// performance signatures.
//
// Two backends exist: HTTPNotifier posts to the notification service's email
// endpoint, LogNotifier only logs. Callers treat every error as advisory.
package notify

import (
	"context"
	"log/slog"
)

// Notification is one email to send.
type Notification struct {
	Address string `json:"address"`
	Subject string `json:"subject"`
	Content string `json:"content"`
}

// Notifier delivers notifications.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier logs notifications instead of sending them.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier that writes to the default logger.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: slog.Default().With("component", "notify")}
}

// Notify logs the notification and never fails.
func (l *LogNotifier) Notify(_ context.Context, n Notification) error {
	l.logger.Info("notification",
		"address", n.Address,
		"subject", n.Subject,
		"content_length", len(n.Content),
	)
	l.logger.Debug("notification content", "content", n.Content)
	return nil
}
