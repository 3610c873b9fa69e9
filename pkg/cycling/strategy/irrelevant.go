package strategy

import (
	"context"

	"mercator-hq/datacycle/pkg/store"
)

// RelevantRepositories are kept for the full main retention window.
var RelevantRepositories = []string{
	"autoland",
	"mozilla-central",
	"mozilla-beta",
	"fenix",
	"reference-browser",
}

// IrrelevantData removes data older than six months from repositories that
// are not in RelevantRepositories.
type IrrelevantData struct {
	base
	registry Registry

	relevant []int64
	resolved bool
}

// NewIrrelevantData creates the irrelevant data removal strategy.
func NewIrrelevantData(opts Options) (*IrrelevantData, error) {
	b, err := newBase("irrelevant data removal strategy", IrrelevantDays, opts)
	if err != nil {
		return nil, err
	}
	if opts.Registry == nil {
		return nil, &ConfigError{Field: "registry", Value: nil, Message: "required"}
	}
	return &IrrelevantData{base: b, registry: opts.Registry}, nil
}

// Remove deletes one adaptively sized chunk of expired data outside the
// relevant repositories.
func (s *IrrelevantData) Remove(ctx context.Context, exec store.Executor) (int64, error) {
	if err := s.resolve(ctx); err != nil {
		return 0, err
	}

	scope := func() *store.Where {
		return store.NewWhere().NotIn("repository_id", s.relevant)
	}
	chunk, err := s.idealChunkSize(ctx, exec, scope)
	if err != nil {
		return 0, err
	}

	where := scope().And("push_timestamp <= ?", s.cutoff.Unix())
	return store.DeleteChunk(ctx, exec, store.TableDatum, where, chunk)
}

func (s *IrrelevantData) resolve(ctx context.Context) error {
	if s.resolved {
		return nil
	}
	ids, err := s.registry.RepositoryIDs(ctx, RelevantRepositories)
	if err != nil {
		return err
	}
	if len(ids) != len(RelevantRepositories) {
		s.logger.Warn("failed to find all relevant repositories",
			"expected", len(RelevantRepositories),
			"found", len(ids),
		)
	}
	s.relevant = ids
	s.resolved = true
	return nil
}
