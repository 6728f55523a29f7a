// Package model defines the core types shared by the imagevault stores.
//
// # Data Types
//
//   - AnalysisRecord: one vision/LLM analysis of an uploaded image, keyed by
//     the image's content hash
//   - VectorEntry: one stored embedding with a human-readable summary
//   - SimilarityResult: a scored match produced by a similarity query
//   - Stats: aggregate counters over a record store
//
// AnalysisRecord fields map 1:1 onto the persisted JSON layout, so data
// written by an existing deployment can be read back unchanged.
package model
