package codec

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// LZ4 wraps another codec with lz4 frame compression.
//
// Compared to Zstd it trades some ratio for cheaper decompression; the
// frame format is self-contained so no length prefix is needed.
type LZ4 struct {
	// Inner is the wrapped codec. Nil means Default.
	Inner Codec
}

func (c LZ4) inner() Codec {
	if c.Inner == nil {
		return Default
	}
	return c.Inner
}

// Marshal encodes the value with the inner codec, then compresses it.
func (c LZ4) Marshal(v any) ([]byte, error) {
	b, err := c.inner().Marshal(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if _, err := w.Write(b); err != nil {
		return nil, fmt.Errorf("codec: lz4 compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("codec: lz4 compress: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal decompresses the data, then decodes it with the inner codec.
func (c LZ4) Unmarshal(data []byte, v any) error {
	b, err := io.ReadAll(lz4.NewReader(bytes.NewReader(data)))
	if err != nil {
		return fmt.Errorf("codec: lz4 decompress: %w", err)
	}
	return c.inner().Unmarshal(b, v)
}

// Name returns the composed codec name, e.g. "lz4+go-json".
func (c LZ4) Name() string { return "lz4+" + c.inner().Name() }
