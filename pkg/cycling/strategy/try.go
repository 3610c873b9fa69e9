package strategy

import (
	"context"
	"errors"

	"mercator-hq/datacycle/pkg/store"
)

const (
	// TryRepository names the repository TryData is restricted to.
	TryRepository = "try"

	// SignatureBatchSize is how many try signatures one delete targets.
	SignatureBatchSize = 10
)

// TryData removes data older than six weeks from the try repository, a batch
// of signatures at a time.
type TryData struct {
	base
	registry Registry

	loaded    bool
	repoID    int64
	remaining []int64 // newest first, never re-read
	targets   []int64
}

// NewTryData creates the try data removal strategy.
func NewTryData(opts Options) (*TryData, error) {
	b, err := newBase("try data removal strategy", TryDays, opts)
	if err != nil {
		return nil, err
	}
	if opts.Registry == nil {
		return nil, &ConfigError{Field: "registry", Value: nil, Message: "required"}
	}
	return &TryData{base: b, registry: opts.Registry}, nil
}

// Remove deletes one chunk of expired try data. Batches that yield no rows
// are dropped and the next batch is tried until one yields rows or none are
// left.
func (s *TryData) Remove(ctx context.Context, exec store.Executor) (int64, error) {
	if err := s.load(ctx); err != nil {
		return 0, err
	}

	for {
		if len(s.targets) == 0 {
			if len(s.remaining) == 0 {
				s.logger.Debug("could not target any new try signature")
				return 0, exhausted("exhausted all signatures originating from %s repository", TryRepository)
			}
			n := min(SignatureBatchSize, len(s.remaining))
			s.targets = s.remaining[:n]
			s.remaining = s.remaining[n:]
		}

		if err := s.checkGuard(); err != nil {
			return 0, err
		}

		where := store.NewWhere().
			And("repository_id = ?", s.repoID).
			And("push_timestamp <= ?", s.cutoff.Unix()).
			In("signature_id", s.targets)
		deleted, err := store.DeleteChunk(ctx, exec, store.TableDatum, where, s.chunkSize)
		if err != nil {
			return 0, err
		}
		if deleted != 0 {
			return deleted, nil
		}
		s.targets = nil
	}
}

// Candidates returns how many signatures are still queued or targeted.
func (s *TryData) Candidates() int {
	return len(s.remaining) + len(s.targets)
}

func (s *TryData) load(ctx context.Context) error {
	if s.loaded {
		return nil
	}

	repoID, err := s.registry.RepositoryID(ctx, TryRepository)
	if errors.Is(err, store.ErrNotFound) {
		s.loaded = true
		s.logger.Warn("no try repository found")
		return nil
	}
	if err != nil {
		return err
	}

	ids, err := s.registry.SignatureIDs(ctx, repoID)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		s.logger.Warn("no try signatures found")
	}

	s.repoID = repoID
	s.remaining = ids
	s.loaded = true
	return nil
}
