// Package imagevault is the storage core of an image-analysis application:
// a flat-file record store for vision/LLM analysis results plus a cosine
// similarity index over their embeddings.
//
// # Components
//
//   - recordstore.Store: analysis records keyed by image content hash,
//     with merge-on-save, substring search, pagination and stats
//   - vectorindex.Index: append-only embeddings with top-K cosine queries
//   - Vault: composes the two the way the surrounding application uses
//     them — save an analysis, persist its embedding, attach related
//     prior analyses
//
// # Quick Start
//
//	vault := imagevault.New(blobstore.NewLocalStore("./data"))
//
//	rec, err := vault.SaveAnalysis(ctx, model.AnalysisRecord{
//	    ImageHash:    hash,
//	    ImageSummary: "a red apple on a wooden table",
//	    Embedding:    embedding,
//	})
//	// rec.Related now holds the nearest prior analyses.
//
// Storage is pluggable through the blobstore package: local filesystem
// with atomic rename writes, in-memory for tests, MinIO, S3, or S3 with
// DynamoDB commits for safe concurrent writers.
//
// # Scale
//
// Every operation reads or rewrites one blob and scans linearly. That is
// deliberate: the target deployment is a single user's local dataset,
// where flat JSON files beat the operational cost of a database. The
// design does not target production-scale concurrent services.
package imagevault
