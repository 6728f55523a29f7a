// Package testutil provides testing utilities for imagevault.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating deterministic random embeddings and
// analysis record fixtures.
package testutil

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/hupe1980/imagevault/model"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns, as a float64, a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// FillUniform fills dst with random values in range [0, 1).
// Locks only once per call (preferred over calling Float64 in a loop).
func (r *RNG) FillUniform(dst []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.Float64()
	}
}

// FillGaussian fills dst with values drawn from the standard normal
// distribution. Gaussian components give direction-uniform embeddings,
// which uniform components do not.
func (r *RNG) FillGaussian(dst []float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range dst {
		dst[i] = r.rand.NormFloat64()
	}
}

// Embedding generates one Gaussian embedding of the given dimension.
func (r *RNG) Embedding(dimensions int) []float64 {
	vec := make([]float64, dimensions)
	r.FillGaussian(vec)
	return vec
}

// Embeddings generates num Gaussian embeddings of the given dimension.
// Uses a single backing array for efficiency.
func (r *RNG) Embeddings(num, dimensions int) [][]float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	data := make([]float64, num*dimensions)
	vectors := make([][]float64, num)

	for i := range num {
		vec := data[i*dimensions : (i+1)*dimensions]
		for j := range vec {
			vec[j] = r.rand.NormFloat64()
		}
		vectors[i] = vec
	}

	return vectors
}

// Record generates an analysis record fixture with a deterministic hash
// and a Gaussian embedding. n distinguishes fixtures from the same RNG.
func (r *RNG) Record(n, dimensions int) model.AnalysisRecord {
	return model.AnalysisRecord{
		ImageHash:    fmt.Sprintf("hash-%04d", n),
		Filename:     fmt.Sprintf("image-%04d.jpg", n),
		ImageSummary: fmt.Sprintf("generated fixture %d", n),
		Embedding:    r.Embedding(dimensions),
	}
}

// Records generates num record fixtures with distinct hashes.
func (r *RNG) Records(num, dimensions int) []model.AnalysisRecord {
	records := make([]model.AnalysisRecord, num)
	for i := range num {
		records[i] = r.Record(i, dimensions)
	}
	return records
}
