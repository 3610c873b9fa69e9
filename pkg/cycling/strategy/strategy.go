package strategy

import (
	"context"
	"log/slog"
	"time"

	"mercator-hq/datacycle/pkg/store"
)

// DefaultOverrideHostname is the only site allowed to shorten retention
// windows with an explicit day count.
const DefaultOverrideHostname = "treeherder-prototype2.herokuapp.com"

// Retention windows in days. Shortening any of these deletes data that
// sheriffs may still be investigating.
const (
	MainDays       = 365
	TryDays        = 42
	IrrelevantDays = 180
	StalledDays    = 120
)

// Strategy deletes one chunk of expired performance data per Remove call.
//
// Remove returns the number of rows deleted, store.UnknownRowCount when the
// driver cannot tell, or an error wrapping ErrNoDataCyclingAtAll once the
// strategy has no candidates left.
type Strategy interface {
	Name() string
	MaxTimestamp() time.Time
	Remove(ctx context.Context, exec store.Executor) (int64, error)
}

// Guard is consulted before each delete attempt inside a candidate loop.
type Guard interface {
	Check() error
}

// Registry resolves repositories and signatures. *store.Store implements it.
type Registry interface {
	RepositoryID(ctx context.Context, name string) (int64, error)
	RepositoryIDs(ctx context.Context, names []string) ([]int64, error)
	SignatureIDs(ctx context.Context, repositoryID int64) ([]int64, error)
	StaleSignatures(ctx context.Context, cutoff time.Time) ([]store.SignatureRef, error)
}

// Environment identifies the site a strategy runs on.
type Environment struct {
	SiteHostname     string
	OverrideHostname string
}

// Options configures strategy construction.
type Options struct {
	// ChunkSize caps the rows removed by a single delete.
	ChunkSize int

	// Days overrides every retention window when non-zero.
	Days int

	Environment Environment
	Registry    Registry
	Guard       Guard

	// Now defaults to time.Now.
	Now func() time.Time

	Logger *slog.Logger
}

// ValidateDays rejects a non-zero day override outside the override site.
func ValidateDays(days int, env Environment) error {
	if days == 0 {
		return nil
	}
	if days < 0 {
		return &ConfigError{Field: "days", Value: days, Message: "must be positive"}
	}
	allowed := env.OverrideHostname
	if allowed == "" {
		allowed = DefaultOverrideHostname
	}
	if env.SiteHostname != allowed {
		return &ConfigError{
			Field:   "days",
			Value:   days,
			Message: "cannot override perf data retention parameters on sites other than " + allowed,
		}
	}
	return nil
}

// All builds every strategy in execution order.
func All(opts Options) ([]Strategy, error) {
	if err := ValidateDays(opts.Days, opts.Environment); err != nil {
		return nil, err
	}
	mainData, err := NewMain(opts)
	if err != nil {
		return nil, err
	}
	tryData, err := NewTryData(opts)
	if err != nil {
		return nil, err
	}
	irrelevantData, err := NewIrrelevantData(opts)
	if err != nil {
		return nil, err
	}
	stalledData, err := NewStalledData(opts)
	if err != nil {
		return nil, err
	}
	return []Strategy{mainData, tryData, irrelevantData, stalledData}, nil
}

// base holds the state shared by every strategy.
type base struct {
	name      string
	chunkSize int
	cutoff    time.Time
	guard     Guard
	logger    *slog.Logger
}

func newBase(name string, defaultDays int, opts Options) (base, error) {
	if err := ValidateDays(opts.Days, opts.Environment); err != nil {
		return base{}, err
	}
	if opts.ChunkSize <= 0 {
		return base{}, &ConfigError{Field: "chunk_size", Value: opts.ChunkSize, Message: "must be positive"}
	}

	days := defaultDays
	if opts.Days != 0 {
		days = opts.Days
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return base{
		name:      name,
		chunkSize: opts.ChunkSize,
		cutoff:    now().AddDate(0, 0, -days),
		guard:     opts.Guard,
		logger:    logger.With("component", "strategy", "strategy", name),
	}, nil
}

// Name returns the strategy name used in logs and metrics.
func (b *base) Name() string {
	return b.name
}

// MaxTimestamp returns the cutoff. Rows at or before it are eligible.
func (b *base) MaxTimestamp() time.Time {
	return b.cutoff
}

func (b *base) checkGuard() error {
	if b.guard == nil {
		return nil
	}
	return b.guard.Check()
}

// expired matches data at or before the cutoff.
func (b *base) expired() *store.Where {
	return store.NewWhere().And("push_timestamp <= ?", b.cutoff.Unix())
}

// idealChunkSize bounds the next delete by the number of expired rows whose
// id is not above the newest non-expired row of the same scope. It falls back
// to the configured chunk size when that count is zero or when the scope has
// no non-expired row.
func (b *base) idealChunkSize(ctx context.Context, exec store.Executor, scope func() *store.Where) (int, error) {
	live := scope().And("push_timestamp > ?", b.cutoff.Unix())
	maxID, found, err := store.MaxID(ctx, exec, store.TableDatum, live)
	if err != nil {
		return 0, err
	}
	if !found {
		return b.chunkSize, nil
	}

	older := scope().
		And("push_timestamp <= ?", b.cutoff.Unix()).
		And("id <= ?", maxID)
	count, err := store.CountUpTo(ctx, exec, store.TableDatum, older, b.chunkSize)
	if err != nil {
		return 0, err
	}
	if count == 0 {
		return b.chunkSize, nil
	}
	return int(count), nil
}
