package imagevault

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/imagevault/blobstore"
	"github.com/hupe1980/imagevault/model"
	"github.com/hupe1980/imagevault/recordstore"
	"github.com/hupe1980/imagevault/vectorindex"
)

// Vault composes a record store and a similarity index on top of one blob
// store, the way the surrounding application uses them: saving an analysis
// persists the record, indexes its embedding, and attaches related prior
// analyses in a single call.
//
// The two underlying stores remain usable on their own via Records and
// Vectors for callers that need finer control.
type Vault struct {
	records     *recordstore.Store
	vectors     *vectorindex.Index
	relatedTopK int
	metrics     MetricsCollector
	logger      *Logger
	now         func() time.Time
}

// New creates a Vault on top of the given blob store.
//
// Defaults: goccy/go-json codec, blobs "analyses.json" and "vectors.json",
// three related analyses per save, no logging, no metrics.
func New(blobs blobstore.BlobStore, optFns ...Option) *Vault {
	opts := applyOptions(optFns)

	mc := opts.metricsCollector
	if mc == nil {
		mc = NoopMetricsCollector{}
	}

	logger := opts.logger
	if logger == nil {
		logger = NoopLogger()
	}

	records := recordstore.New(blobs, func(o *recordstore.Options) {
		if opts.recordBlob != "" {
			o.BlobName = opts.recordBlob
		}
		o.Codec = opts.codec
		o.Logger = logger.Logger
		o.Now = opts.now
	})

	vectors := vectorindex.New(blobs, func(o *vectorindex.Options) {
		if opts.vectorBlob != "" {
			o.BlobName = opts.vectorBlob
		}
		o.Codec = opts.codec
		o.Logger = logger.Logger
		o.Now = opts.now
	})

	return &Vault{
		records:     records,
		vectors:     vectors,
		relatedTopK: opts.relatedTopK,
		metrics:     mc,
		logger:      logger,
		now:         opts.now,
	}
}

// Records returns the underlying record store.
func (v *Vault) Records() *recordstore.Store { return v.records }

// Vectors returns the underlying similarity index.
func (v *Vault) Vectors() *vectorindex.Index { return v.vectors }

// SaveAnalysis persists an analysis record and, when it carries an
// embedding, indexes the embedding and attaches the nearest prior analyses
// to the record's Related field.
//
// Records with the same ImageHash merge field-wise, last write wins per
// field. Index entries are keyed by ImageHash and a re-save replaces the
// image's previous entry, keeping the two stores aligned: one record and
// at most one index entry per image. Related lookup runs after that
// replacement, so a record never lists its own image.
func (v *Vault) SaveAnalysis(ctx context.Context, rec model.AnalysisRecord) (model.AnalysisRecord, error) {
	start := v.now()

	stored, err := v.saveAnalysis(ctx, rec)

	v.metrics.RecordSave(time.Since(start), err)
	v.logger.LogSave(ctx, stored.ID, rec.ImageHash, err)

	return stored, err
}

func (v *Vault) saveAnalysis(ctx context.Context, rec model.AnalysisRecord) (model.AnalysisRecord, error) {
	if rec.ImageHash == "" {
		return model.AnalysisRecord{}, ErrMissingImageHash
	}

	hasEmbedding := len(rec.Embedding) > 0

	if hasEmbedding {
		// Drop the image's previous entry so a re-save replaces it rather
		// than accumulating duplicates, and so the related lookup below
		// cannot match the image itself.
		if _, err := v.vectors.Delete(ctx, rec.ImageHash); err != nil {
			return model.AnalysisRecord{}, translateError("save", err)
		}

		if v.relatedTopK > 0 {
			related, err := v.vectors.Query(ctx, rec.Embedding, v.relatedTopK)
			if err != nil {
				return model.AnalysisRecord{}, translateError("related lookup", err)
			}
			rec.Related = related
		}
	}

	var stored model.AnalysisRecord

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		stored, err = v.records.Save(gctx, rec)
		return err
	})

	if hasEmbedding {
		g.Go(func() error {
			_, err := v.vectors.Add(gctx, model.VectorEntry{
				ID:        rec.ImageHash,
				Summary:   rec.ImageSummary,
				Embedding: rec.Embedding,
			})
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return model.AnalysisRecord{}, translateError("save", err)
	}

	return stored, nil
}

// GetAnalysis retrieves a record by ID; an image content hash works too,
// mirroring the record store's lookup.
func (v *Vault) GetAnalysis(ctx context.Context, id string) (model.AnalysisRecord, error) {
	rec, err := v.records.GetByID(ctx, id)
	return rec, translateError("get", err)
}

// GetAnalysisByHash retrieves a record by image content hash.
func (v *Vault) GetAnalysisByHash(ctx context.Context, hash string) (model.AnalysisRecord, error) {
	rec, err := v.records.GetByHash(ctx, hash)
	return rec, translateError("get", err)
}

// ListAnalyses returns records sorted newest first. limit <= 0 means all.
func (v *Vault) ListAnalyses(ctx context.Context, limit, offset int) ([]model.AnalysisRecord, error) {
	recs, err := v.records.List(ctx, limit, offset)
	return recs, translateError("list", err)
}

// SearchAnalyses returns records whose text fields contain the query,
// case-insensitive.
func (v *Vault) SearchAnalyses(ctx context.Context, query string) ([]model.AnalysisRecord, error) {
	start := v.now()

	recs, err := v.records.Search(ctx, query)

	v.metrics.RecordSearch(len(recs), time.Since(start), err)
	v.logger.LogSearch(ctx, query, len(recs), err)

	return recs, translateError("search", err)
}

// QuerySimilar returns the topK nearest index entries by cosine similarity.
func (v *Vault) QuerySimilar(ctx context.Context, vector []float64, topK int) ([]model.SimilarityResult, error) {
	start := v.now()

	results, err := v.vectors.Query(ctx, vector, topK)

	v.metrics.RecordQuery(topK, time.Since(start), err)
	v.logger.LogQuery(ctx, topK, len(results), err)

	return results, translateError("query", err)
}

// DeleteAnalysis removes a record and its index entries. It reports whether
// a record was removed; deleting an unknown ID is not an error.
func (v *Vault) DeleteAnalysis(ctx context.Context, id string) (bool, error) {
	start := v.now()

	removed, err := v.deleteAnalysis(ctx, id)

	v.metrics.RecordDelete(time.Since(start), err)
	v.logger.LogDelete(ctx, id, removed, err)

	return removed, err
}

func (v *Vault) deleteAnalysis(ctx context.Context, id string) (bool, error) {
	// Resolve the record first: the caller may pass either the record ID
	// or the image hash, while index entries are keyed by the hash.
	rec, err := v.records.GetByID(ctx, id)
	if err != nil && !errors.Is(err, recordstore.ErrNotFound) {
		return false, translateError("delete", err)
	}

	removed, err := v.records.Delete(ctx, id)
	if err != nil {
		return false, translateError("delete", err)
	}

	if rec.ImageHash != "" {
		if _, err := v.vectors.Delete(ctx, rec.ImageHash); err != nil {
			return removed, translateError("delete", err)
		}
	}

	return removed, nil
}

// StatsSummary returns aggregate statistics over all stored analyses.
func (v *Vault) StatsSummary(ctx context.Context) (model.Stats, error) {
	stats, err := v.records.Stats(ctx)
	return stats, translateError("stats", err)
}
