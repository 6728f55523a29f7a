// Package distance provides the vector similarity primitives used by the
// similarity index.
//
// All functions are plain float64 scalar code. The datasets imagevault
// targets are small enough that a linear scan dominated by JSON decoding,
// not arithmetic, so there is no SIMD fast path.
package distance
