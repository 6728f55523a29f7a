package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRNG(t *testing.T) {
	t.Run("Deterministic", func(t *testing.T) {
		a := NewRNG(42).Embedding(8)
		b := NewRNG(42).Embedding(8)
		assert.Equal(t, a, b)
	})

	t.Run("Reset", func(t *testing.T) {
		rng := NewRNG(42)
		first := rng.Embedding(8)
		rng.Reset()
		assert.Equal(t, first, rng.Embedding(8))
	})

	t.Run("Embeddings", func(t *testing.T) {
		vecs := NewRNG(1).Embeddings(5, 16)
		require.Len(t, vecs, 5)
		for _, v := range vecs {
			assert.Len(t, v, 16)
		}
		assert.NotEqual(t, vecs[0], vecs[1])
	})
}

func TestRecords(t *testing.T) {
	recs := NewRNG(7).Records(3, 4)
	require.Len(t, recs, 3)

	assert.Equal(t, "hash-0000", recs[0].ImageHash)
	assert.Equal(t, "image-0002.jpg", recs[2].Filename)
	assert.NotEqual(t, recs[0].ImageHash, recs[1].ImageHash)
	assert.Len(t, recs[0].Embedding, 4)
}
