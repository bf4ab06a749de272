package catalog

import (
	"context"
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/matsen/litmap/internal/config"
	"github.com/matsen/litmap/internal/logging"
	"github.com/matsen/litmap/internal/paper"
	"github.com/matsen/litmap/internal/ris"
)

// Load parses the RIS export of every configured query and builds the catalog.
// Exports are parsed concurrently; papers keep config order.
//
// A query whose export cannot be found is kept (with no papers) and logged;
// an export that exists but cannot be read is an error. Records without a
// title are skipped with a warning.
func Load(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Catalog, error) {
	queries := make([]Query, len(cfg.Queries))
	parsed := make([][]paper.Paper, len(cfg.Queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, qc := range cfg.Queries {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			q, papers, err := loadQuery(cfg, qc, logging.WithQuery(logger, qc.Name))
			if err != nil {
				return err
			}
			queries[i], parsed[i] = q, papers
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var papers []paper.Paper
	for _, ps := range parsed {
		papers = append(papers, ps...)
	}
	CanonicalizeTerms(papers)
	return New(queries, papers), nil
}

func loadQuery(cfg *config.Config, qc config.QueryConfig, log zerolog.Logger) (Query, []paper.Paper, error) {
	path, err := cfg.ResolveRISFile(qc)
	if err != nil {
		return Query{}, nil, fmt.Errorf("resolving RIS file for query %s: %w", qc.Name, err)
	}

	q := Query{ID: qc.Name, Search: qc.Query, Source: path}
	if path == "" {
		q.Database = ris.DatabaseFromFilename(qc.Prefix)
		log.Warn().Str("prefix", qc.Prefix).Str("dir", cfg.RISSourcePath()).Msg("no RIS file found for query")
		return q, nil, nil
	}
	q.Database = ris.DatabaseFromFilename(path)

	papers, recordErrs, err := ris.ParseFile(path, ris.Options{
		Database:         q.Database,
		FallbackIDPrefix: qc.Name + "_paper_",
	})
	if err != nil {
		return Query{}, nil, fmt.Errorf("parsing RIS file for query %s: %w", qc.Name, err)
	}
	for _, rerr := range recordErrs {
		log.Warn().Err(rerr).Str("file", path).Msg("skipping RIS record")
	}

	for i := range papers {
		papers[i].SourceQuery = qc.Name
	}
	log.Info().Str("file", path).Int("papers", len(papers)).Msg("parsed RIS file")
	return q, papers, nil
}
