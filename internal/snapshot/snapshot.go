// Package snapshot owns the current dataset: the loaded catalog and its
// computed groups, replaced as a whole on reload.
package snapshot

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/matsen/litmap/internal/catalog"
	"github.com/matsen/litmap/internal/overlap"
	"github.com/matsen/litmap/internal/ranking"
)

// Snapshot is one immutable loaded dataset. Nothing in a snapshot is
// modified after it is published.
type Snapshot struct {
	Catalog    *catalog.Catalog
	Result     *overlap.Result
	Rankings   *ranking.Set
	Generation uint64
	LoadedAt   time.Time
}

// LoadFunc builds a fresh snapshot. Generation and LoadedAt are assigned by
// the store.
type LoadFunc func(ctx context.Context) (*Snapshot, error)

// ErrNilSnapshot is returned when a LoadFunc yields neither a snapshot nor an error.
var ErrNilSnapshot = errors.New("load returned no snapshot")

// Store publishes snapshots to concurrent readers.
type Store struct {
	current    atomic.Pointer[Snapshot]
	generation atomic.Uint64
	group      singleflight.Group
	logger     zerolog.Logger
	now        func() time.Time
}

// New creates an empty store.
func New(logger zerolog.Logger) *Store {
	return &Store{logger: logger, now: time.Now}
}

// Current returns the latest published snapshot, or nil before the first
// successful Reload. It never blocks.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Reload runs load and publishes its snapshot. On failure the previous
// snapshot stays current. Concurrent calls share a single in-flight load and
// all receive its outcome.
func (s *Store) Reload(ctx context.Context, load LoadFunc) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	v, err, shared := s.group.Do("reload", func() (interface{}, error) {
		start := s.now()
		snap, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if snap == nil {
			return nil, ErrNilSnapshot
		}

		next := *snap
		next.Generation = s.generation.Add(1)
		next.LoadedAt = s.now()
		s.current.Store(&next)

		s.logger.Info().
			Uint64("generation", next.Generation).
			Dur("took", next.LoadedAt.Sub(start)).
			Msg("snapshot published")
		return &next, nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Bool("shared", shared).Msg("reload failed, keeping previous snapshot")
		return nil, err
	}
	return v.(*Snapshot), nil
}
