package imagevault

import (
	"log/slog"
	"time"

	"github.com/hupe1980/imagevault/codec"
)

// defaultRelatedTopK is the number of related analyses attached on save.
const defaultRelatedTopK = 3

type options struct {
	codec            codec.Codec
	recordBlob       string
	vectorBlob       string
	relatedTopK      int
	metricsCollector MetricsCollector
	logger           *Logger
	now              func() time.Time
}

// Option configures Vault constructor behavior.
//
// Options primarily exist to avoid exploding the API surface
// (e.g. codec-specific constructor variants).
type Option func(*options)

// WithCodec configures the codec used for the persisted blobs.
//
// If nil is passed, codec.Default is used. The compressing codecs
// (codec.Zstd, codec.LZ4) pay off once stores hold raw vision payloads.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithRecordBlob overrides the name of the analysis record blob.
// The default is "analyses.json".
func WithRecordBlob(name string) Option {
	return func(o *options) {
		if name != "" {
			o.recordBlob = name
		}
	}
}

// WithVectorBlob overrides the name of the similarity index blob.
// The default is "vectors.json".
func WithVectorBlob(name string) Option {
	return func(o *options) {
		if name != "" {
			o.vectorBlob = name
		}
	}
}

// WithRelatedTopK configures how many related prior analyses SaveAnalysis
// attaches to a saved record. Zero or negative disables related lookup.
func WithRelatedTopK(topK int) Option {
	return func(o *options) {
		o.relatedTopK = topK
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &imagevault.BasicMetricsCollector{}
//	vault := imagevault.New(blobs, imagevault.WithMetricsCollector(metrics))
//	// ... use vault ...
//	stats := metrics.GetStats()
//	fmt.Printf("Saves: %d, Avg latency: %dns\n", stats.SaveCount, stats.SaveAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := imagevault.NewJSONLogger(slog.LevelInfo)
//	vault := imagevault.New(blobs, imagevault.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithNow injects a clock. Used by tests to make timestamps deterministic.
func WithNow(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            nil,
		relatedTopK:      defaultRelatedTopK,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		now:              time.Now,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
