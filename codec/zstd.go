package codec

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Shared one-shot encoder/decoder. EncodeAll/DecodeAll are safe for
// concurrent use on a single instance.
var (
	zstdOnce sync.Once
	zstdEnc  *zstd.Encoder
	zstdDec  *zstd.Decoder
	zstdErr  error
)

func zstdInit() {
	zstdOnce.Do(func() {
		zstdEnc, zstdErr = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if zstdErr != nil {
			return
		}
		zstdDec, zstdErr = zstd.NewReader(nil)
	})
}

// Zstd wraps another codec with zstd compression.
//
// Worth it once a store outgrows the "inspect it in an editor" stage:
// embedding-heavy JSON compresses to a fraction of its raw size.
type Zstd struct {
	// Inner is the wrapped codec. Nil means Default.
	Inner Codec
}

func (c Zstd) inner() Codec {
	if c.Inner == nil {
		return Default
	}
	return c.Inner
}

// Marshal encodes the value with the inner codec, then compresses it.
func (c Zstd) Marshal(v any) ([]byte, error) {
	zstdInit()
	if zstdErr != nil {
		return nil, fmt.Errorf("codec: zstd init: %w", zstdErr)
	}
	b, err := c.inner().Marshal(v)
	if err != nil {
		return nil, err
	}
	return zstdEnc.EncodeAll(b, nil), nil
}

// Unmarshal decompresses the data, then decodes it with the inner codec.
func (c Zstd) Unmarshal(data []byte, v any) error {
	zstdInit()
	if zstdErr != nil {
		return fmt.Errorf("codec: zstd init: %w", zstdErr)
	}
	b, err := zstdDec.DecodeAll(data, nil)
	if err != nil {
		return fmt.Errorf("codec: zstd decompress: %w", err)
	}
	return c.inner().Unmarshal(b, v)
}

// Name returns the composed codec name, e.g. "zstd+go-json".
func (c Zstd) Name() string { return "zstd+" + c.inner().Name() }
