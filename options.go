package dataview

import (
	"log/slog"

	"github.com/dataview-go/dataview/codec"
	"github.com/dataview-go/dataview/resource"
	"github.com/dataview-go/dataview/sorter"
)

type options struct {
	codec            codec.Codec
	metricsCollector MetricsCollector
	logger           *Logger
	sorter           sorter.Sorter
	snapshotPath     string // Path for auto-checkpoint snapshots
	resources        *resource.Controller
}

// Option configures Container constructor/load behavior.
//
// Options primarily exist to avoid exploding the API surface
// (e.g. codec-specific constructor variants). Journal wiring needs the
// identifier type and therefore lives on the Indexed builder instead.
type Option func(*options)

// WithCodec configures the codec used for snapshot and journal payloads.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithSorter configures the sorter used by Sort. Pass nil to build a
// container that does not support sorting; Sort then fails with
// ErrSortingUnsupported.
func WithSorter(s sorter.Sorter) Option {
	return func(o *options) {
		o.sorter = s
	}
}

// WithSnapshotPath configures the path for automatic snapshots.
// When set along with a journal auto-checkpoint threshold, the container
// automatically saves a snapshot and truncates the journal when the
// threshold is exceeded.
func WithSnapshotPath(path string) Option {
	return func(o *options) {
		o.snapshotPath = path
	}
}

// WithResourceController configures throttling for snapshot transfers to
// and from blob stores. Pass nil to disable throttling.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resources = rc
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
//
// Example with BasicMetricsCollector:
//
//	metrics := &dataview.BasicMetricsCollector{}
//	c := dataview.New[string](dataview.WithMetricsCollector(metrics))
//	// ... use c ...
//	stats := metrics.GetStats()
//	fmt.Printf("Adds: %d, Avg latency: %dns\n", stats.AddCount, stats.AddAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
//
// Example with JSON logging:
//
//	logger := dataview.NewJSONLogger(slog.LevelInfo)
//	c := dataview.New[string](dataview.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
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

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		sorter:           sorter.NewDefault(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
