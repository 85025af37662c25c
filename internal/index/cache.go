// Package index builds and caches the vector index for the active document set.
package index

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/kiku/internal/chunker"
	"github.com/hyperjump/kiku/internal/embedding"
	"github.com/hyperjump/kiku/internal/extract"
	"github.com/hyperjump/kiku/internal/models"
	"github.com/hyperjump/kiku/internal/vector"
)

// Cache builds the vector index for a document set at most once per
// fingerprint for its own lifetime. It is an explicit object owned by the
// caller, never process-wide state, so independent contexts can hold
// independent caches. A fresh process has no memory of earlier fingerprints
// and rebuilds on first use; reconciling with the persisted slot is the
// caller's decision via LoadPersisted.
type Cache struct {
	extractor *extract.Extractor
	chunker   *chunker.Chunker
	embedder  embedding.Embedder
	path      string
	logger    *zap.Logger

	mu          sync.Mutex
	fingerprint string
	index       *vector.Index
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets a logger for build events.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) { c.logger = l }
}

// NewCache creates an index cache. path is the single persisted slot the
// built index is written to; empty disables persistence.
func NewCache(extractor *extract.Extractor, ch *chunker.Chunker, embedder embedding.Embedder, path string, opts ...Option) *Cache {
	c := &Cache{
		extractor: extractor,
		chunker:   ch,
		embedder:  embedder,
		path:      path,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EnsureIndex returns the index for set, building one only when the set's
// fingerprint differs from the cached one. An unchanged fingerprint returns
// the cached index with no re-extraction, re-embedding, or re-persist.
// Builds replace the cached index and the persisted slot atomically; any
// failure leaves the previously cached index untouched. Concurrent calls
// serialize; the last build wins.
func (c *Cache) EnsureIndex(ctx context.Context, set models.DocumentSet) (*vector.Index, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fp := set.Fingerprint()
	if fp == c.fingerprint && c.index != nil {
		c.logger.Debug("index cache hit", zap.String("fingerprint", fp))
		return c.index, nil
	}

	text, err := c.extractor.ExtractAll(set)
	if err != nil {
		return nil, err
	}
	chunks := c.chunker.Chunk(text)
	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}

	vectors, err := c.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		if models.KindOf(err) != 0 {
			return nil, err
		}
		return nil, models.Errorf(models.KindIngestionFailed, "embed chunks: %w", err)
	}

	ix, err := vector.NewIndex(c.embedder.Dimensions())
	if err != nil {
		return nil, models.Errorf(models.KindIngestionFailed, "build index: %w", err)
	}
	if err := ix.Add(texts, vectors); err != nil {
		return nil, models.Errorf(models.KindIngestionFailed, "build index: %w", err)
	}
	if err := ix.Save(c.path); err != nil {
		return nil, models.Errorf(models.KindPersistenceFailure, "persist index: %w", err)
	}

	c.fingerprint = fp
	c.index = ix
	c.logger.Info("index built",
		zap.String("fingerprint", fp),
		zap.Int("documents", len(set)),
		zap.Int("chunks", ix.Size()))
	return ix, nil
}

// Current returns the cached index and its fingerprint, or ("", nil) when
// nothing has been built yet.
func (c *Cache) Current() (string, *vector.Index) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fingerprint, c.index
}

// LoadPersisted replaces the cached index with the persisted slot's content
// and adopts fingerprint as its identity. Intended for callers that know
// the slot matches the document set they are about to serve.
func (c *Cache) LoadPersisted(fingerprint string) error {
	if c.path == "" {
		return fmt.Errorf("no persistence path configured")
	}
	ix, err := vector.Load(c.path)
	if err != nil {
		return models.Errorf(models.KindPersistenceFailure, "load persisted index: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fingerprint = fingerprint
	c.index = ix
	return nil
}
