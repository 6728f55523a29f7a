// Package vectorindex persists embedding vectors and answers
// nearest-neighbor queries by cosine similarity.
//
// The index is append-only: entries are never merged and multiple entries
// may share an ID. Queries are an exact linear scan, O(n·d) per call,
// which is the right trade for the small local datasets imagevault
// targets; there is no approximate index and none is planned.
package vectorindex
