package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/knowledge-engine/bookrec/internal/catalog"
	"github.com/knowledge-engine/bookrec/internal/config"
	"github.com/knowledge-engine/bookrec/internal/fetcher"
	"github.com/knowledge-engine/bookrec/internal/metrics"
	"github.com/knowledge-engine/bookrec/internal/recommend"
	"github.com/knowledge-engine/bookrec/internal/search"
	"github.com/knowledge-engine/bookrec/internal/storage"
)

// Engine owns the loaded catalog and the index built from it. Both are
// computed on first use and replaced together on reload.
type Engine struct {
	Config *config.Config
	Logger *logrus.Entry
	Source catalog.Source

	// Rand, when set before the first load, drives random picks.
	Rand *rand.Rand

	mirror storage.Mirror

	loadMu sync.Mutex // serialises loads
	mu     sync.RWMutex
	snap   *Snapshot
	stats  Stats
}

// Snapshot is one immutable generation of catalog and index.
type Snapshot struct {
	Catalog     *catalog.Catalog
	Index       *search.Index
	Recommender *recommend.Recommender
	LoadedAt    time.Time

	// Err is the load error that left the catalog empty, if any.
	Err error
}

// Notice describes a degraded snapshot for display; empty when healthy.
func (s *Snapshot) Notice() string {
	if s.Err != nil {
		return recommend.DataUnavailable.Notice()
	}
	return ""
}

// Outcome returns DataUnavailable when the catalog failed to load and o
// otherwise. An empty catalog that loaded fine keeps the recommender's
// outcome.
func (s *Snapshot) Outcome(o recommend.Outcome) recommend.Outcome {
	if s.Err != nil {
		return recommend.DataUnavailable
	}
	return o
}

// Stats describes the engine state
type Stats struct {
	Source     string    `json:"source" yaml:"source"`
	Books      int       `json:"books" yaml:"books"`
	Vocabulary int       `json:"vocabulary" yaml:"vocabulary"`
	Similarity bool      `json:"similarity_available" yaml:"similarity_available"`
	Loads      int64     `json:"loads" yaml:"loads"`
	Failures   int64     `json:"failures" yaml:"failures"`
	LastError  string    `json:"last_error,omitempty" yaml:"last_error,omitempty"`
	LoadedAt   time.Time `json:"loaded_at" yaml:"loaded_at"`
	StartTime  time.Time `json:"start_time" yaml:"start_time"`
}

// NewEngine wires the catalog source described by cfg. A catalog URL takes
// precedence over the local path.
func NewEngine(cfg *config.Config, logger *logrus.Entry) (*Engine, error) {
	if cfg.Catalog.URL == "" {
		return New(cfg, logger, catalog.NewFileSource(cfg.Catalog.Path)), nil
	}

	var mirror storage.Mirror
	if cfg.Catalog.MirrorDir != "" {
		fs, err := storage.NewFileStorage(cfg.Catalog.MirrorDir)
		if err != nil {
			return nil, err
		}
		mirror = fs
	}

	f := fetcher.NewFetcher(cfg.Fetch, logger)
	e := New(cfg, logger, fetcher.NewRemoteSource(cfg.Catalog.URL, f, mirror, logger))
	e.mirror = mirror
	return e, nil
}

// New returns an engine reading from src.
func New(cfg *config.Config, logger *logrus.Entry, src catalog.Source) *Engine {
	return &Engine{
		Config: cfg,
		Logger: logger.WithField("component", "engine"),
		Source: src,
		stats: Stats{
			Source:    src.Name(),
			StartTime: time.Now(),
		},
	}
}

// Snapshot returns the current generation, loading it on first call. It
// never fails: a catalog that cannot be loaded yields an empty snapshot
// whose Err is set.
func (e *Engine) Snapshot(ctx context.Context) *Snapshot {
	e.mu.RLock()
	s := e.snap
	e.mu.RUnlock()
	if s != nil {
		return s
	}

	e.loadMu.Lock()
	defer e.loadMu.Unlock()

	e.mu.RLock()
	s = e.snap
	e.mu.RUnlock()
	if s != nil {
		return s
	}

	s, _ = e.load(ctx)
	return s
}

// Reload rebuilds catalog and index. On failure the previous good snapshot
// stays in place and the error is returned.
func (e *Engine) Reload(ctx context.Context) (*Snapshot, error) {
	e.loadMu.Lock()
	defer e.loadMu.Unlock()
	return e.load(ctx)
}

// load must be called with loadMu held.
func (e *Engine) load(ctx context.Context) (*Snapshot, error) {
	start := time.Now()
	next, err := e.build(ctx)
	terms := len(next.Index.Vocabulary())
	metrics.RecordCatalogLoad(next.Catalog.Len(), terms, time.Since(start), err)

	e.mu.Lock()
	defer e.mu.Unlock()

	e.stats.Loads++
	if err != nil {
		e.stats.Failures++
		e.stats.LastError = err.Error()
		e.Logger.WithError(err).WithField("source", e.Source.Name()).Error("Failed to load catalog")

		if e.snap != nil && e.snap.Err == nil {
			return e.snap, err
		}
	} else {
		e.stats.LastError = ""
		e.Logger.WithFields(logrus.Fields{
			"books":      next.Catalog.Len(),
			"vocabulary": terms,
			"took":       time.Since(start),
		}).Info("Catalog loaded")
	}

	e.snap = next
	e.stats.Books = next.Catalog.Len()
	e.stats.Vocabulary = terms
	e.stats.Similarity = next.Index != nil
	e.stats.LoadedAt = next.LoadedAt
	return next, err
}

func (e *Engine) build(ctx context.Context) (*Snapshot, error) {
	s := &Snapshot{LoadedAt: time.Now()}

	c, err := e.Source.Load(ctx)
	if err != nil {
		s.Catalog = catalog.Empty()
		s.Err = err
		s.Recommender = recommend.New(s.Catalog, nil, e.Rand)
		return s, fmt.Errorf("load %s: %w", e.Source.Name(), err)
	}
	s.Catalog = c

	idx, err := search.BuildIndex(c)
	if errors.Is(err, search.ErrFeatureUnavailable) {
		e.Logger.Warn("Catalog has no description column, similarity disabled")
	}
	s.Index = idx
	s.Recommender = recommend.New(c, idx, e.Rand)
	return s, nil
}

// Stats returns a copy of the engine statistics.
func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stats
}

// Close releases the mirror, if any.
func (e *Engine) Close() error {
	if e.mirror != nil {
		return e.mirror.Close()
	}
	return nil
}
