package model

import (
	"math/rand"
	"strconv"
	"time"
)

// Fallback values applied by AnalysisRecord.ApplyDefaults when the
// corresponding field is empty.
const (
	DefaultFilename        = "unknown"
	DefaultDomain          = "General"
	DefaultConfidenceLevel = "Medium"
)

// AnalysisRecord is one stored analysis of an uploaded image.
//
// ImageHash is the natural dedup key: a record store holds at most one
// record per distinct hash, and a second save with the same hash merges
// into the existing record instead of appending a duplicate.
type AnalysisRecord struct {
	ID              string `json:"id"`
	ImageHash       string `json:"imageHash"`
	Timestamp       string `json:"timestamp"`
	Filename        string `json:"filename"`
	Domain          string `json:"domain"`
	ConfidenceLevel string `json:"confidenceLevel"`

	// DetectedElements preserves detection order.
	DetectedElements []string `json:"detectedElements"`

	ImageSummary          string `json:"imageSummary"`
	DetailedExplanation   string `json:"detailedExplanation"`
	RealWorldApplications string `json:"realWorldApplications"`
	EducationalInsight    string `json:"educationalInsight"`
	ExtractedText         string `json:"extractedText"`
	Caption               string `json:"caption"`
	RawVision             string `json:"rawVision"`

	Related   []SimilarityResult `json:"related"`
	Embedding []float64          `json:"embedding,omitempty"`
	Metadata  map[string]any     `json:"metadata"`
}

// ApplyDefaults fills empty fields in place: short strings get their
// fallback values, the timestamp is stamped with now, slices and maps are
// materialized so the persisted JSON carries [] / {} instead of null, and a
// missing ID is generated.
func (r *AnalysisRecord) ApplyDefaults(now time.Time) {
	if r.ID == "" {
		r.ID = NewRecordID(now)
	}
	if r.Timestamp == "" {
		r.Timestamp = now.UTC().Format(time.RFC3339)
	}
	if r.Filename == "" {
		r.Filename = DefaultFilename
	}
	if r.Domain == "" {
		r.Domain = DefaultDomain
	}
	if r.ConfidenceLevel == "" {
		r.ConfidenceLevel = DefaultConfidenceLevel
	}
	if r.DetectedElements == nil {
		r.DetectedElements = []string{}
	}
	if r.Related == nil {
		r.Related = []SimilarityResult{}
	}
	if r.Metadata == nil {
		r.Metadata = map[string]any{}
	}
}

// NewRecordID generates a record identifier from the given time plus a
// random suffix. IDs are not required to be sortable, only unique enough
// for a single-user dataset.
func NewRecordID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 36) + "-" + strconv.FormatUint(rand.Uint64()&0xffffff, 36) //nolint:gosec
}

// VectorEntry is one stored embedding. Entries are append-only; multiple
// entries may share the same ID.
type VectorEntry struct {
	ID        string         `json:"id"`
	Summary   string         `json:"summary"`
	Embedding []float64      `json:"embedding"`
	TS        int64          `json:"ts"`
	Meta      map[string]any `json:"meta"`
}

// ApplyDefaults stamps a missing timestamp (milliseconds since epoch) and
// materializes the meta map.
func (e *VectorEntry) ApplyDefaults(now time.Time) {
	if e.TS == 0 {
		e.TS = now.UnixMilli()
	}
	if e.Meta == nil {
		e.Meta = map[string]any{}
	}
}

// SimilarityResult is a scored match from a similarity query. It is derived
// on the fly and never persisted by the index itself, though callers may
// embed results in an AnalysisRecord's Related field.
type SimilarityResult struct {
	ID      string  `json:"id"`
	Summary string  `json:"summary"`
	Score   float64 `json:"score"`
	TS      int64   `json:"ts"`
}

// RecentAnalysis is a reduced record view used in Stats.
type RecentAnalysis struct {
	ID               string `json:"id"`
	Timestamp        string `json:"timestamp"`
	Domain           string `json:"domain"`
	TruncatedSummary string `json:"truncatedSummary"`
}

// Stats aggregates a record store.
type Stats struct {
	TotalAnalyses    int              `json:"totalAnalyses"`
	Domains          map[string]int   `json:"domains"`
	ConfidenceLevels map[string]int   `json:"confidenceLevels"`
	Recent           []RecentAnalysis `json:"recent"`
}
