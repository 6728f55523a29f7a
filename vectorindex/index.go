package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/hupe1980/imagevault/blobstore"
	"github.com/hupe1980/imagevault/codec"
	"github.com/hupe1980/imagevault/distance"
	"github.com/hupe1980/imagevault/model"
)

// Options contains configuration options for the vector index.
type Options struct {
	// BlobName is the name of the index blob.
	BlobName string

	// Codec encodes the persisted entries. Nil means codec.Default.
	Codec codec.Codec

	// Logger receives degraded-read warnings and operation debug logs.
	// Nil means slog.Default().
	Logger *slog.Logger

	// Now injects a clock for tests. Nil means time.Now.
	Now func() time.Time
}

// DefaultOptions contains the default configuration options.
var DefaultOptions = Options{
	BlobName: "vectors.json",
}

// Index is a handle to one similarity index.
//
// Entries persist as a single JSON array rewritten whole on every Add.
// Like the record store, nothing is cached between calls and the handle
// serializes its own read-modify-write cycles.
type Index struct {
	blobs  blobstore.BlobStore
	name   string
	codec  codec.Codec
	logger *slog.Logger
	now    func() time.Time
	mu     sync.Mutex
}

// New creates a vector index handle on top of the given blob store.
func New(blobs blobstore.BlobStore, optFns ...func(o *Options)) *Index {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Index{
		blobs:  blobs,
		name:   opts.BlobName,
		codec:  opts.Codec,
		logger: opts.Logger,
		now:    opts.Now,
	}
}

// Add appends an entry to the index. A missing timestamp is stamped with
// the current time. No deduplication and no dimensionality validation
// happen here: entries of different lengths are legal and are compared
// over their shared prefix at query time (see distance.Cosine).
func (ix *Index) Add(ctx context.Context, entry model.VectorEntry) (model.VectorEntry, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	entries, err := ix.load(ctx)
	if err != nil {
		return model.VectorEntry{}, err
	}

	entry.ApplyDefaults(ix.now())
	entries = append(entries, entry)

	if err := ix.persist(ctx, entries); err != nil {
		return model.VectorEntry{}, err
	}

	ix.logger.DebugContext(ctx, "vector added",
		"id", entry.ID,
		"dimension", len(entry.Embedding),
		"count", len(entries),
	)
	return entry, nil
}

// Query returns the topK stored entries ranked by cosine similarity to
// vector, highest first. Ties keep stored order. An empty index or
// topK <= 0 yields an empty result, never an error.
func (ix *Index) Query(ctx context.Context, vector []float64, topK int) ([]model.SimilarityResult, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if topK <= 0 {
		return []model.SimilarityResult{}, nil
	}

	entries, err := ix.load(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]model.SimilarityResult, 0, len(entries))
	for _, entry := range entries {
		results = append(results, model.SimilarityResult{
			ID:      entry.ID,
			Summary: entry.Summary,
			Score:   distance.Cosine(vector, entry.Embedding),
			TS:      entry.TS,
		})
	}

	slices.SortStableFunc(results, func(a, b model.SimilarityResult) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})

	if len(results) > topK {
		results = results[:topK]
	}

	ix.logger.DebugContext(ctx, "similarity query completed",
		"k", topK,
		"results", len(results),
	)
	return results, nil
}

// Count returns the number of stored entries.
func (ix *Index) Count(ctx context.Context) (int, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	entries, err := ix.load(ctx)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Delete removes every entry with the given ID and reports whether
// anything was removed. Lets callers keep the index aligned with the
// record store when an analysis is deleted.
func (ix *Index) Delete(ctx context.Context, id string) (bool, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	entries, err := ix.load(ctx)
	if err != nil {
		return false, err
	}

	kept := entries[:0:0]
	for _, entry := range entries {
		if entry.ID == id {
			continue
		}
		kept = append(kept, entry)
	}
	if len(kept) == len(entries) {
		return false, nil
	}

	if err := ix.persist(ctx, kept); err != nil {
		return false, err
	}

	ix.logger.DebugContext(ctx, "vectors deleted",
		"id", id,
		"count", len(kept),
	)
	return true, nil
}

// load reads the backing blob. A missing blob is initialized empty; an
// unreadable or corrupt blob degrades to an empty view with a logged
// warning.
func (ix *Index) load(ctx context.Context) ([]model.VectorEntry, error) {
	data, err := blobstore.ReadAll(ctx, ix.blobs, ix.name)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			empty := []model.VectorEntry{}
			if err := ix.persist(ctx, empty); err != nil {
				return nil, err
			}
			return empty, nil
		}
		ix.logger.WarnContext(ctx, "index blob unreadable, treating as empty",
			"name", ix.name,
			"error", err,
		)
		return []model.VectorEntry{}, nil
	}

	var entries []model.VectorEntry
	if err := ix.codec.Unmarshal(data, &entries); err != nil {
		ix.logger.WarnContext(ctx, "index blob corrupt, treating as empty",
			"name", ix.name,
			"codec", ix.codec.Name(),
			"error", err,
		)
		return []model.VectorEntry{}, nil
	}
	return entries, nil
}

func (ix *Index) persist(ctx context.Context, entries []model.VectorEntry) error {
	data, err := ix.codec.Marshal(entries)
	if err != nil {
		return fmt.Errorf("vectorindex: encode index: %w", err)
	}
	if err := ix.blobs.Put(ctx, ix.name, data); err != nil {
		return fmt.Errorf("vectorindex: write index: %w", err)
	}
	return nil
}
