// Package codec centralizes store payload encoding.
//
// Codec selection is a compatibility boundary: a store file written with one
// codec must be opened with the same codec. Codec names are stable so callers
// can record them in configuration.
package codec

import (
	"fmt"
	"strings"
)

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Default is the codec used when none is configured.
//
// Plain go-json keeps store files human-readable, which matters for a local
// flat-file deployment where users inspect or hand-edit their data.
var Default Codec = GoJSON{}

// ByName returns a built-in codec by its stable name.
//
// Compressing codecs are addressed as "<compression>+<inner>",
// e.g. "zstd+go-json" or "lz4+json".
func ByName(name string) (Codec, bool) {
	if rest, ok := strings.CutPrefix(name, "zstd+"); ok {
		inner, ok := ByName(rest)
		if !ok {
			return nil, false
		}
		return Zstd{Inner: inner}, true
	}
	if rest, ok := strings.CutPrefix(name, "lz4+"); ok {
		inner, ok := ByName(rest)
		if !ok {
			return nil, false
		}
		return LZ4{Inner: inner}, true
	}

	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// MustMarshal is a helper for internal tests/benchmarks.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
