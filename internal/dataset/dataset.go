// Package dataset loads a configured literature-review project into a
// snapshot: parse the query exports, resolve the curated lists, compute
// the groups.
package dataset

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/matsen/litmap/internal/catalog"
	"github.com/matsen/litmap/internal/config"
	"github.com/matsen/litmap/internal/overlap"
	"github.com/matsen/litmap/internal/ranking"
	"github.com/matsen/litmap/internal/snapshot"
)

// Build loads everything cfg describes. Engine errors (duplicate ids,
// unknown references) keep their overlap types through wrapping, so callers
// can classify them with overlap.IsDataError.
func Build(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*snapshot.Snapshot, error) {
	cat, err := catalog.Load(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("loading catalog: %w", err)
	}

	rankings, err := ranking.Load(cfg, cat, logger)
	if err != nil {
		return nil, fmt.Errorf("loading manual groupings: %w", err)
	}

	res, err := overlap.Compute(overlap.Input{
		Queries:    cat.QueryIDs(),
		Papers:     cat.AllPapers(),
		Aggregates: rankings.Aggregates(cat),
	}, EngineOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("computing groups: %w", err)
	}

	for _, w := range res.Warnings {
		logger.Warn().Str("code", w.Code).Str("query", w.Query).Msg(w.Message)
	}
	logger.Debug().
		Int("papers", cat.Len()).
		Int("queries", len(res.Queries)).
		Int("cross_groups", len(res.CrossQueryGroups)).
		Int("aggregates", len(res.AggregateGroups)).
		Msg("computed groups")

	return &snapshot.Snapshot{Catalog: cat, Result: res, Rankings: rankings}, nil
}

// EngineOptions maps project settings to overlap options.
func EngineOptions(cfg *config.Config) []overlap.Option {
	if cfg.CrossQueryIdentity == config.IdentityWork {
		return []overlap.Option{overlap.WithWorkIdentity()}
	}
	return nil
}

// Loader adapts Build to a snapshot.LoadFunc.
func Loader(cfg *config.Config, logger zerolog.Logger) snapshot.LoadFunc {
	return func(ctx context.Context) (*snapshot.Snapshot, error) {
		return Build(ctx, cfg, logger)
	}
}
