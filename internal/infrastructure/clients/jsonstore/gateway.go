package jsonstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spoileralert/backend/internal/infrastructure/observability"
	"github.com/spoileralert/backend/pkg/config"
	apperrors "github.com/spoileralert/backend/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
)

// Collection names
const (
	Users        = "users"
	Reviews      = "reviews"
	Movies       = "movies"
	Replies      = "replies"
	LikedReviews = "likedReviews"
	Favorites    = "favorites"
)

// AllCollections lists every collection the API reads at runtime
var AllCollections = []string{Users, Reviews, Movies, Replies, LikedReviews, Favorites}

// SequencesFile holds the last id handed out per collection as a JSON object
const SequencesFile = "sequences.json"

// Gateway loads and saves whole collections as JSON array files.
//
// Each collection has its own lock. Update holds it across a fresh load, the
// caller's mutation and the save, so read-modify-write cycles within one
// process never interleave. A second process writing the same files is not
// coordinated with.
type Gateway struct {
	dir          string
	cacheEnabled bool
	metrics      *observability.Metrics

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	cache map[string][]json.RawMessage

	seqMu sync.Mutex
}

// Option configures a Gateway
type Option func(*Gateway)

// WithMetrics records load and save durations
func WithMetrics(m *observability.Metrics) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

// NewGateway creates a gateway rooted at cfg.DataDir
func NewGateway(cfg *config.StorageConfig, opts ...Option) *Gateway {
	g := &Gateway{
		dir:          cfg.DataDir,
		cacheEnabled: cfg.CacheEnabled,
		locks:        make(map[string]*sync.Mutex),
		cache:        make(map[string][]json.RawMessage),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Path returns the file backing a collection
func (g *Gateway) Path(name string) string {
	return filepath.Join(g.dir, name+".json")
}

// Check verifies that every named collection exists and parses
func (g *Gateway) Check(ctx context.Context, names ...string) error {
	for _, name := range names {
		if _, err := g.Reload(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// LoadAll returns every record in a collection, from cache when enabled
func (g *Gateway) LoadAll(ctx context.Context, name string) ([]json.RawMessage, error) {
	if records, ok := g.cached(name); ok {
		return records, nil
	}

	lock := g.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	// A save may have filled the cache while we waited for the lock.
	if records, ok := g.cached(name); ok {
		return records, nil
	}
	return g.reload(ctx, name)
}

// Reload reads a collection from disk, bypassing and refreshing the cache
func (g *Gateway) Reload(ctx context.Context, name string) ([]json.RawMessage, error) {
	lock := g.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	return g.reload(ctx, name)
}

func (g *Gateway) cached(name string) ([]json.RawMessage, bool) {
	if !g.cacheEnabled {
		return nil, false
	}
	g.mu.Lock()
	defer g.mu.Unlock()

	records, ok := g.cache[name]
	if !ok {
		return nil, false
	}
	return cloneRecords(records), true
}

// reload must be called with the collection lock held so a slower read never
// replaces a snapshot stored by a concurrent save.
func (g *Gateway) reload(ctx context.Context, name string) ([]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	records, err := g.read(name)
	observability.RecordStorageMetric(ctx, g.metrics, "load", name, time.Since(start))
	if err != nil {
		return nil, err
	}

	if g.cacheEnabled {
		g.mu.Lock()
		g.cache[name] = records
		g.mu.Unlock()
	}
	return cloneRecords(records), nil
}

// SaveAll replaces a collection's contents
func (g *Gateway) SaveAll(ctx context.Context, name string, records []json.RawMessage) error {
	lock := g.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	return g.save(ctx, name, records)
}

// Update runs fn against a fresh copy of the collection while holding its lock
// and saves the result. When fn reports no change nothing is written.
func (g *Gateway) Update(ctx context.Context, name string, fn func([]json.RawMessage) ([]json.RawMessage, bool, error)) error {
	lock := g.lockFor(name)
	lock.Lock()
	defer lock.Unlock()

	records, err := g.reload(ctx, name)
	if err != nil {
		return err
	}

	updated, changed, err := fn(records)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return g.save(ctx, name, updated)
}

// NextID hands out the next id for a collection. Ids come from a counter in
// SequencesFile that only moves forward, so an id freed by a delete is never
// assigned again. floor is the highest id already present in the collection
// and covers data written before the counter existed.
func (g *Gateway) NextID(ctx context.Context, name string, floor int) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	g.seqMu.Lock()
	defer g.seqMu.Unlock()

	path := filepath.Join(g.dir, SequencesFile)
	seqs := map[string]int{}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return 0, apperrors.NewInternalError("failed to read id sequences", err)
	case len(bytes.TrimSpace(data)) > 0:
		if err := json.Unmarshal(data, &seqs); err != nil {
			return 0, apperrors.NewInternalError("id sequences file is not a JSON object", err)
		}
	}

	next := max(seqs[name], floor) + 1
	seqs[name] = next

	out, err := json.MarshalIndent(seqs, "", "  ")
	if err != nil {
		return 0, apperrors.NewInternalError("failed to encode id sequences", err)
	}
	if err := writeFileAtomic(path, out); err != nil {
		log.Error().Err(err).Str("collection", name).Msg("failed to save id sequence")
		return 0, apperrors.NewInternalError("failed to write id sequences", err)
	}
	return next, nil
}

func (g *Gateway) lockFor(name string) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()

	lock, ok := g.locks[name]
	if !ok {
		lock = &sync.Mutex{}
		g.locks[name] = lock
	}
	return lock
}

func (g *Gateway) read(name string) ([]json.RawMessage, error) {
	path := g.Path(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.NewMissingCollectionError(name, path, err)
		}
		return nil, apperrors.NewInternalError(fmt.Sprintf("failed to read collection %s", name), err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return []json.RawMessage{}, nil
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, apperrors.NewInternalError(fmt.Sprintf("collection %s is not a JSON array", name), err)
	}
	if records == nil {
		records = []json.RawMessage{}
	}
	return records, nil
}

// save must be called with the collection lock held.
func (g *Gateway) save(ctx context.Context, name string, records []json.RawMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ctx, span := observability.StartSpan(ctx, "jsonstore.save")
	defer span.End()
	observability.SetSpanAttributes(span,
		attribute.String("storage.collection", name),
		attribute.Int("storage.records", len(records)),
	)

	if records == nil {
		records = []json.RawMessage{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		observability.RecordError(span, err)
		return apperrors.NewInternalError(fmt.Sprintf("failed to encode collection %s", name), err)
	}

	start := time.Now()
	path := g.Path(name)
	if err := writeFileAtomic(path, data); err != nil {
		observability.RecordError(span, err)
		log.Error().Err(err).Str("collection", name).Msg("failed to save collection")
		return apperrors.NewInternalError(fmt.Sprintf("failed to write collection %s", name), err)
	}
	observability.RecordStorageMetric(ctx, g.metrics, "save", name, time.Since(start))

	if g.cacheEnabled {
		g.mu.Lock()
		g.cache[name] = cloneRecords(records)
		g.mu.Unlock()
	}

	log.Debug().Str("collection", name).Int("records", len(records)).Msg("saved collection")
	return nil
}

// writeFileAtomic writes data to <path>.tmp and renames it over path so readers
// see either the old or the new contents.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open temp file: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace collection file: %w", err)
	}
	return nil
}

func cloneRecords(records []json.RawMessage) []json.RawMessage {
	out := make([]json.RawMessage, len(records))
	copy(out, records)
	return out
}
