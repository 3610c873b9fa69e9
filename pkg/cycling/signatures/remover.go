// Package signatures removes expired performance signatures that no longer
// have data and announces each removed batch.
package signatures

import (
	"context"
	"log/slog"

	"mercator-hq/datacycle/pkg/notify"
	"mercator-hq/datacycle/pkg/store"
)

// Defaults for Config.
const (
	DefaultMaxRowsPerNotification = 50
	DefaultMaxNotifications       = 10
	DefaultAddress                = "perftest-alerts@mozilla.com"
)

// Store is the subset of the store used by the remover.
type Store interface {
	HasPerformanceData(ctx context.Context, signatureID int64) (bool, error)
	HasAlerts(ctx context.Context, signatureID int64) (bool, error)
	DeleteSignatures(ctx context.Context, ids []int64) (int64, error)
}

// Guard is checked before each signature is examined.
type Guard interface {
	Check() error
}

// Config controls batching and notification addressing.
type Config struct {
	// MaxRowsPerNotification is the batch size; each batch is deleted and
	// announced in one notification.
	MaxRowsPerNotification int

	// MaxNotifications caps batches per run. Once reached, the remaining
	// signatures are left for the next run.
	MaxNotifications int

	Address string
	Subject string
}

// Result summarizes one removal run.
type Result struct {
	Examined             int
	Removed              int64
	Notifications        int
	NotificationFailures int
}

// Remover deletes signatures in batches and notifies about each batch.
type Remover struct {
	store    Store
	notifier notify.Notifier
	guard    Guard
	config   Config
	logger   *slog.Logger
}

// NewRemover creates a remover. guard may be nil.
func NewRemover(s Store, notifier notify.Notifier, guard Guard, config Config) *Remover {
	if config.MaxRowsPerNotification <= 0 {
		config.MaxRowsPerNotification = DefaultMaxRowsPerNotification
	}
	if config.MaxNotifications <= 0 {
		config.MaxNotifications = DefaultMaxNotifications
	}
	if config.Address == "" {
		config.Address = DefaultAddress
	}
	if config.Subject == "" {
		config.Subject = DefaultSubject
	}
	return &Remover{
		store:    s,
		notifier: notifier,
		guard:    guard,
		config:   config,
		logger:   slog.Default().With("component", "signature_remover"),
	}
}

// RemoveInChunks removes the signatures of sigs that have neither data nor
// alerts. A guard failure or store error ends the run and is returned along
// with the partial result; notification failures are only logged.
//
// A signature may receive new data between the check and the delete. That
// race with ingestion is accepted.
func (r *Remover) RemoveInChunks(ctx context.Context, sigs []store.Signature) (Result, error) {
	var (
		result Result
		batch  []store.Signature
	)

	for _, sig := range sigs {
		if result.Notifications >= r.config.MaxNotifications {
			break
		}
		if r.guard != nil {
			if err := r.guard.Check(); err != nil {
				return result, err
			}
		}
		result.Examined++

		removable, err := r.removable(ctx, sig.ID)
		if err != nil {
			return result, err
		}
		if !removable {
			continue
		}

		batch = append(batch, sig)
		if len(batch) == r.config.MaxRowsPerNotification {
			if err := r.deleteAndNotify(ctx, batch, &result); err != nil {
				return result, err
			}
			batch = nil
		}
	}

	if len(batch) > 0 && result.Notifications < r.config.MaxNotifications {
		if err := r.deleteAndNotify(ctx, batch, &result); err != nil {
			return result, err
		}
	}
	return result, nil
}

func (r *Remover) removable(ctx context.Context, id int64) (bool, error) {
	hasData, err := r.store.HasPerformanceData(ctx, id)
	if err != nil || hasData {
		return false, err
	}
	hasAlerts, err := r.store.HasAlerts(ctx, id)
	if err != nil || hasAlerts {
		return false, err
	}
	return true, nil
}

func (r *Remover) deleteAndNotify(ctx context.Context, batch []store.Signature, result *Result) error {
	ids := make([]int64, len(batch))
	for i, sig := range batch {
		ids[i] = sig.ID
	}

	deleted, err := r.store.DeleteSignatures(ctx, ids)
	if err != nil {
		return err
	}
	if deleted > 0 {
		result.Removed += deleted
	}
	result.Notifications++
	r.logger.Info("removed signatures", "count", len(ids))

	n := notify.Notification{
		Address: r.config.Address,
		Subject: r.config.Subject,
		Content: Content(batch),
	}
	if err := r.notifier.Notify(ctx, n); err != nil {
		result.NotificationFailures++
		r.logger.Warn("failed to notify about removed signatures",
			"count", len(ids),
			"error", err,
		)
	}
	return nil
}
