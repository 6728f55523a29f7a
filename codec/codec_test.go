package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	ID        string    `json:"id"`
	Embedding []float64 `json:"embedding"`
}

func roundTrip(t *testing.T, c Codec) {
	t.Helper()

	in := payload{ID: "abc", Embedding: []float64{0.1, -0.5, 3}}

	b, err := c.Marshal(in)
	require.NoError(t, err)

	var out payload
	require.NoError(t, c.Unmarshal(b, &out))
	assert.Equal(t, in, out)
}

func TestRoundTrip(t *testing.T) {
	for _, c := range []Codec{
		JSON{},
		GoJSON{},
		Zstd{},
		Zstd{Inner: JSON{}},
		LZ4{},
		LZ4{Inner: JSON{}},
	} {
		t.Run(c.Name(), func(t *testing.T) {
			roundTrip(t, c)
		})
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"json", "go-json", "zstd+go-json", "lz4+json", "zstd+lz4+json"} {
		c, ok := ByName(name)
		require.True(t, ok, name)
		assert.Equal(t, name, c.Name())
	}

	_, ok := ByName("msgpack")
	assert.False(t, ok)

	_, ok = ByName("zstd+bogus")
	assert.False(t, ok)
}

func TestZstd_CorruptInput(t *testing.T) {
	var out payload
	err := Zstd{}.Unmarshal([]byte("not zstd"), &out)
	assert.Error(t, err)
}

func TestMustMarshal_NilCodec(t *testing.T) {
	b := MustMarshal(nil, payload{ID: "x"})
	assert.NotEmpty(t, b)
}
