package strategy

import (
	"context"

	"mercator-hq/datacycle/pkg/store"
)

// Main removes data older than a year across all repositories.
type Main struct {
	base
}

// NewMain creates the main removal strategy.
func NewMain(opts Options) (*Main, error) {
	b, err := newBase("main removal strategy", MainDays, opts)
	if err != nil {
		return nil, err
	}
	return &Main{base: b}, nil
}

// Remove deletes one adaptively sized chunk of expired data.
func (m *Main) Remove(ctx context.Context, exec store.Executor) (int64, error) {
	chunk, err := m.idealChunkSize(ctx, exec, store.NewWhere)
	if err != nil {
		return 0, err
	}
	return store.DeleteChunk(ctx, exec, store.TableDatum, m.expired(), chunk)
}
