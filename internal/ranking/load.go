package ranking

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/matsen/litmap/internal/catalog"
	"github.com/matsen/litmap/internal/config"
	"github.com/matsen/litmap/internal/ris"
)

// Load reads the newest most_cited and most_relevant exports from the
// project's manual groupings folder and resolves them against c.
// A missing file leaves that list nil.
func Load(cfg *config.Config, c *catalog.Catalog, logger zerolog.Logger) (*Set, error) {
	dir := cfg.ManualGroupingsPath()
	set := &Set{}

	for _, kind := range []Kind{MostCited, MostRelevant} {
		path, err := config.FindNewest(dir, kind.Pattern())
		if err != nil {
			return nil, fmt.Errorf("finding %s file: %w", kind, err)
		}
		if path == "" {
			logger.Info().Str("kind", string(kind)).Str("dir", dir).Msg("no manual grouping file found")
			continue
		}

		r, err := LoadFile(c, kind, path, logger)
		if err != nil {
			return nil, err
		}
		switch kind {
		case MostCited:
			set.MostCited = r
		case MostRelevant:
			set.MostRelevant = r
		}
	}
	return set, nil
}

// LoadFile parses one curated RIS export and assigns its records.
func LoadFile(c *catalog.Catalog, kind Kind, path string, logger zerolog.Logger) (*Ranking, error) {
	records, recordErrs, err := ris.ParseFile(path, ris.Options{FallbackIDPrefix: string(kind) + "_"})
	if err != nil {
		return nil, fmt.Errorf("parsing %s file: %w", kind, err)
	}
	for _, rerr := range recordErrs {
		logger.Debug().Err(rerr).Str("file", path).Msg("skipping curated record")
	}

	r := Assign(c, kind, records)
	r.Source = path
	logger.Info().
		Str("kind", string(kind)).
		Int("records", r.Records).
		Int("matched", len(r.Matched)).
		Int("assigned", len(r.Assignments)).
		Msg("loaded manual grouping")
	return r, nil
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
