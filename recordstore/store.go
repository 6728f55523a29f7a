package recordstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/hupe1980/imagevault/blobstore"
	"github.com/hupe1980/imagevault/codec"
	"github.com/hupe1980/imagevault/model"
)

// ErrNotFound is returned when no record matches a lookup. It is a normal,
// representable outcome, not an exceptional condition.
var ErrNotFound = errors.New("analysis record not found")

// recentLimit is the number of reduced records included in Stats.
const recentLimit = 10

// summaryTruncateLen is the rune length Stats truncates summaries to.
const summaryTruncateLen = 100

// Options contains configuration options for the record store.
type Options struct {
	// BlobName is the name of the store blob.
	BlobName string

	// Codec encodes the persisted document. Nil means codec.Default.
	Codec codec.Codec

	// Logger receives degraded-read warnings and operation debug logs.
	// Nil means slog.Default().
	Logger *slog.Logger

	// Now injects a clock for tests. Nil means time.Now.
	Now func() time.Time
}

// DefaultOptions contains the default configuration options.
var DefaultOptions = Options{
	BlobName: "analyses.json",
}

// Store is a handle to one analysis record store.
//
// All operations read or rewrite the backing blob within the call; nothing
// is cached between calls, so external writers are picked up on the next
// operation. The handle serializes its own read-modify-write cycles, which
// closes the in-process lost-update race of concurrent saves.
type Store struct {
	blobs  blobstore.BlobStore
	name   string
	codec  codec.Codec
	logger *slog.Logger
	now    func() time.Time
	mu     sync.Mutex
}

// New creates a record store handle on top of the given blob store.
func New(blobs blobstore.BlobStore, optFns ...func(o *Options)) *Store {
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

	return &Store{
		blobs:  blobs,
		name:   opts.BlobName,
		codec:  opts.Codec,
		logger: opts.Logger,
		now:    opts.Now,
	}
}

// document is the persisted layout: one JSON object holding every record
// plus store metadata. Kept compatible with existing deployments.
type document struct {
	Analyses []model.AnalysisRecord `json:"analyses"`
	Metadata documentMetadata       `json:"metadata"`
}

type documentMetadata struct {
	CreatedAt     string `json:"createdAt"`
	TotalAnalyses int    `json:"totalAnalyses"`
}

// Save inserts or updates a record keyed by its ImageHash.
//
// Missing fields are defaulted first: fresh timestamp, generated ID,
// fallback strings. If a record with the same hash exists, the incoming
// non-zero fields are merged over it in place (position preserved, the
// existing ID kept unless the caller supplied one); otherwise the record
// is appended. Returns the stored record as persisted.
func (s *Store) Save(ctx context.Context, rec model.AnalysisRecord) (model.AnalysisRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return model.AnalysisRecord{}, err
	}

	suppliedID := rec.ID
	rec.ApplyDefaults(s.now())

	var stored model.AnalysisRecord
	if i := indexByHash(doc.Analyses, rec.ImageHash); i >= 0 {
		stored = merge(doc.Analyses[i], rec)
		if suppliedID != "" {
			stored.ID = suppliedID
		}
		doc.Analyses[i] = stored
	} else {
		doc.Analyses = append(doc.Analyses, rec)
		stored = rec
	}
	doc.Metadata.TotalAnalyses = len(doc.Analyses)

	if err := s.persist(ctx, doc); err != nil {
		return model.AnalysisRecord{}, err
	}

	s.logger.DebugContext(ctx, "analysis saved",
		"id", stored.ID,
		"imageHash", stored.ImageHash,
		"total", doc.Metadata.TotalAnalyses,
	)
	return stored, nil
}

// GetByID returns the first record whose ID or ImageHash equals id.
// Returns ErrNotFound if nothing matches.
func (s *Store) GetByID(ctx context.Context, id string) (model.AnalysisRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return model.AnalysisRecord{}, err
	}

	for _, rec := range doc.Analyses {
		if rec.ID == id || rec.ImageHash == id {
			return rec, nil
		}
	}
	return model.AnalysisRecord{}, ErrNotFound
}

// GetByHash returns the first record whose ImageHash equals hash.
// Returns ErrNotFound if nothing matches.
func (s *Store) GetByHash(ctx context.Context, hash string) (model.AnalysisRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return model.AnalysisRecord{}, err
	}

	for _, rec := range doc.Analyses {
		if rec.ImageHash == hash {
			return rec, nil
		}
	}
	return model.AnalysisRecord{}, ErrNotFound
}

// List returns records ordered by timestamp descending (most recent
// first). Ties keep stored order. limit <= 0 returns the full sequence;
// otherwise the limit-sized slice starting at offset is returned.
func (s *Store) List(ctx context.Context, limit, offset int) ([]model.AnalysisRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	ordered := sortedByTimestamp(doc.Analyses)

	if limit <= 0 {
		return ordered, nil
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(ordered) {
		return []model.AnalysisRecord{}, nil
	}
	end := min(offset+limit, len(ordered))
	return ordered[offset:end], nil
}

// Search returns all records with a case-insensitive substring match of
// query in the summary, explanation, domain, extracted text, filename, or
// any detected element. Results keep stored order.
func (s *Store) Search(ctx context.Context, query string) ([]model.AnalysisRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	matches := []model.AnalysisRecord{}
	for _, rec := range doc.Analyses {
		if recordMatches(rec, q) {
			matches = append(matches, rec)
		}
	}

	s.logger.DebugContext(ctx, "search completed",
		"query", query,
		"results", len(matches),
	)
	return matches, nil
}

// Delete removes every record whose ID or ImageHash equals id and reports
// whether anything was removed. Deleting a missing id returns false with
// no error.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return false, err
	}

	kept := doc.Analyses[:0:0]
	for _, rec := range doc.Analyses {
		if rec.ID == id || rec.ImageHash == id {
			continue
		}
		kept = append(kept, rec)
	}
	if len(kept) == len(doc.Analyses) {
		return false, nil
	}

	doc.Analyses = kept
	doc.Metadata.TotalAnalyses = len(kept)
	if err := s.persist(ctx, doc); err != nil {
		return false, err
	}

	s.logger.DebugContext(ctx, "analysis deleted",
		"id", id,
		"total", doc.Metadata.TotalAnalyses,
	)
	return true, nil
}

// Stats aggregates the store: total count, per-domain and per-confidence
// counts, and the 10 most recent records reduced to a summary view.
func (s *Store) Stats(ctx context.Context) (model.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load(ctx)
	if err != nil {
		return model.Stats{}, err
	}

	stats := model.Stats{
		TotalAnalyses:    len(doc.Analyses),
		Domains:          map[string]int{},
		ConfidenceLevels: map[string]int{},
		Recent:           []model.RecentAnalysis{},
	}
	for _, rec := range doc.Analyses {
		stats.Domains[rec.Domain]++
		stats.ConfidenceLevels[rec.ConfidenceLevel]++
	}

	ordered := sortedByTimestamp(doc.Analyses)
	for _, rec := range ordered[:min(recentLimit, len(ordered))] {
		stats.Recent = append(stats.Recent, model.RecentAnalysis{
			ID:               rec.ID,
			Timestamp:        rec.Timestamp,
			Domain:           rec.Domain,
			TruncatedSummary: truncate(rec.ImageSummary, summaryTruncateLen),
		})
	}
	return stats, nil
}

// load reads the backing blob. A missing blob is initialized with zero
// records and a creation timestamp; an unreadable or corrupt blob degrades
// to an empty view with a logged warning.
func (s *Store) load(ctx context.Context) (*document, error) {
	data, err := blobstore.ReadAll(ctx, s.blobs, s.name)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			doc := s.emptyDocument()
			if err := s.persist(ctx, doc); err != nil {
				return nil, err
			}
			return doc, nil
		}
		s.logger.WarnContext(ctx, "store blob unreadable, treating as empty",
			"name", s.name,
			"error", err,
		)
		return s.emptyDocument(), nil
	}

	var doc document
	if err := s.codec.Unmarshal(data, &doc); err != nil {
		s.logger.WarnContext(ctx, "store blob corrupt, treating as empty",
			"name", s.name,
			"codec", s.codec.Name(),
			"error", err,
		)
		return s.emptyDocument(), nil
	}
	return &doc, nil
}

func (s *Store) emptyDocument() *document {
	return &document{
		Analyses: []model.AnalysisRecord{},
		Metadata: documentMetadata{
			CreatedAt: s.now().UTC().Format(time.RFC3339),
		},
	}
}

func (s *Store) persist(ctx context.Context, doc *document) error {
	data, err := s.codec.Marshal(doc)
	if err != nil {
		return fmt.Errorf("recordstore: encode store: %w", err)
	}
	if err := s.blobs.Put(ctx, s.name, data); err != nil {
		return fmt.Errorf("recordstore: write store: %w", err)
	}
	return nil
}

func indexByHash(recs []model.AnalysisRecord, hash string) int {
	for i, rec := range recs {
		if rec.ImageHash == hash {
			return i
		}
	}
	return -1
}

// merge lays the incoming record's caller-supplied fields over the
// existing one: non-zero values win, zero values keep what is stored. The
// timestamp always moves forward since the incoming record was stamped at
// this write. The existing ID survives unless the caller supplied one
// (a generated ID never replaces a stored one, see Save).
func merge(existing, incoming model.AnalysisRecord) model.AnalysisRecord {
	out := existing
	out.Timestamp = incoming.Timestamp

	if incoming.ImageHash != "" {
		out.ImageHash = incoming.ImageHash
	}
	if incoming.Filename != model.DefaultFilename {
		out.Filename = incoming.Filename
	}
	if incoming.Domain != model.DefaultDomain {
		out.Domain = incoming.Domain
	}
	if incoming.ConfidenceLevel != model.DefaultConfidenceLevel {
		out.ConfidenceLevel = incoming.ConfidenceLevel
	}
	if len(incoming.DetectedElements) > 0 {
		out.DetectedElements = incoming.DetectedElements
	}
	if incoming.ImageSummary != "" {
		out.ImageSummary = incoming.ImageSummary
	}
	if incoming.DetailedExplanation != "" {
		out.DetailedExplanation = incoming.DetailedExplanation
	}
	if incoming.RealWorldApplications != "" {
		out.RealWorldApplications = incoming.RealWorldApplications
	}
	if incoming.EducationalInsight != "" {
		out.EducationalInsight = incoming.EducationalInsight
	}
	if incoming.ExtractedText != "" {
		out.ExtractedText = incoming.ExtractedText
	}
	if incoming.Caption != "" {
		out.Caption = incoming.Caption
	}
	if incoming.RawVision != "" {
		out.RawVision = incoming.RawVision
	}
	if len(incoming.Related) > 0 {
		out.Related = incoming.Related
	}
	if incoming.Embedding != nil {
		out.Embedding = incoming.Embedding
	}
	if len(incoming.Metadata) > 0 {
		out.Metadata = incoming.Metadata
	}
	return out
}

func recordMatches(rec model.AnalysisRecord, q string) bool {
	for _, field := range []string{
		rec.ImageSummary,
		rec.DetailedExplanation,
		rec.Domain,
		rec.ExtractedText,
		rec.Filename,
	} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	for _, el := range rec.DetectedElements {
		if strings.Contains(strings.ToLower(el), q) {
			return true
		}
	}
	return false
}

// sortedByTimestamp returns a copy ordered most recent first; equal
// timestamps keep stored order. RFC3339 strings compare correctly
// lexicographically.
func sortedByTimestamp(recs []model.AnalysisRecord) []model.AnalysisRecord {
	ordered := slices.Clone(recs)
	slices.SortStableFunc(ordered, func(a, b model.AnalysisRecord) int {
		return strings.Compare(b.Timestamp, a.Timestamp)
	})
	return ordered
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
