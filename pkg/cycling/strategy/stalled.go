package strategy

import (
	"context"

	"mercator-hq/datacycle/pkg/store"
)

// StalledData removes old data of signatures that stopped receiving data,
// one signature at a time.
type StalledData struct {
	base
	registry Registry

	loaded    bool
	remaining []store.SignatureRef // oldest first
	target    *store.SignatureRef
}

// NewStalledData creates the stalled data removal strategy.
func NewStalledData(opts Options) (*StalledData, error) {
	b, err := newBase("stalled data removal strategy", StalledDays, opts)
	if err != nil {
		return nil, err
	}
	if opts.Registry == nil {
		return nil, &ConfigError{Field: "registry", Value: nil, Message: "required"}
	}
	return &StalledData{base: b, registry: opts.Registry}, nil
}

// Remove deletes one chunk of expired data of the current stalled signature,
// moving on to the next signature while deletes come back empty.
func (s *StalledData) Remove(ctx context.Context, exec store.Executor) (int64, error) {
	if err := s.load(ctx); err != nil {
		return 0, err
	}

	for {
		if s.target == nil {
			if len(s.remaining) == 0 {
				s.logger.Debug("could not target any new stalled signature")
				return 0, exhausted("exhausted all stalled signatures")
			}
			next := s.remaining[0]
			s.remaining = s.remaining[1:]
			s.target = &next
		}

		if err := s.checkGuard(); err != nil {
			return 0, err
		}

		where := store.NewWhere().
			And("repository_id = ?", s.target.RepositoryID).
			And("signature_id = ?", s.target.ID).
			And("push_timestamp <= ?", s.cutoff.Unix())
		deleted, err := store.DeleteChunk(ctx, exec, store.TableDatum, where, s.chunkSize)
		if err != nil {
			return 0, err
		}
		if deleted != 0 {
			return deleted, nil
		}
		s.target = nil
	}
}

// Candidates returns how many signatures are still queued or targeted.
func (s *StalledData) Candidates() int {
	n := len(s.remaining)
	if s.target != nil {
		n++
	}
	return n
}

func (s *StalledData) load(ctx context.Context) error {
	if s.loaded {
		return nil
	}
	refs, err := s.registry.StaleSignatures(ctx, s.cutoff)
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		s.logger.Warn("no stalled signature found")
	}
	s.remaining = refs
	s.loaded = true
	return nil
}
