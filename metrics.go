package dataview

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    addCounter      prometheus.Counter
//	    filterHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordAdd(duration time.Duration, err error) {
//	    p.addCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordAdd is called after each insertion.
	// duration is the total time taken, err is nil if successful.
	RecordAdd(duration time.Duration, err error)

	// RecordRemove is called after each removal attempt.
	// removed reports whether an item was actually removed.
	RecordRemove(duration time.Duration, removed bool)

	// RecordUpdate is called after each update.
	RecordUpdate(duration time.Duration, err error)

	// RecordFilter is called after each refilter pass.
	// changed reports whether the visible sequence changed.
	RecordFilter(duration time.Duration, changed bool)

	// RecordSort is called after each sort.
	RecordSort(duration time.Duration, err error)

	// RecordSnapshot is called after each snapshot save.
	RecordSnapshot(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAdd(time.Duration, error)      {}
func (NoopMetricsCollector) RecordRemove(time.Duration, bool)    {}
func (NoopMetricsCollector) RecordUpdate(time.Duration, error)   {}
func (NoopMetricsCollector) RecordFilter(time.Duration, bool)    {}
func (NoopMetricsCollector) RecordSort(time.Duration, error)     {}
func (NoopMetricsCollector) RecordSnapshot(time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AddCount         atomic.Int64
	AddErrors        atomic.Int64
	AddTotalNanos    atomic.Int64
	RemoveCount      atomic.Int64
	RemovedItems     atomic.Int64
	UpdateCount      atomic.Int64
	UpdateErrors     atomic.Int64
	FilterCount      atomic.Int64
	FilterChanged    atomic.Int64
	FilterTotalNanos atomic.Int64
	SortCount        atomic.Int64
	SortErrors       atomic.Int64
	SnapshotCount    atomic.Int64
	SnapshotErrors   atomic.Int64
}

// RecordAdd implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAdd(duration time.Duration, err error) {
	b.AddCount.Add(1)
	b.AddTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.AddErrors.Add(1)
	}
}

// RecordRemove implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRemove(duration time.Duration, removed bool) {
	b.RemoveCount.Add(1)
	if removed {
		b.RemovedItems.Add(1)
	}
}

// RecordUpdate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordUpdate(duration time.Duration, err error) {
	b.UpdateCount.Add(1)
	if err != nil {
		b.UpdateErrors.Add(1)
	}
}

// RecordFilter implements MetricsCollector.
func (b *BasicMetricsCollector) RecordFilter(duration time.Duration, changed bool) {
	b.FilterCount.Add(1)
	b.FilterTotalNanos.Add(duration.Nanoseconds())
	if changed {
		b.FilterChanged.Add(1)
	}
}

// RecordSort implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSort(duration time.Duration, err error) {
	b.SortCount.Add(1)
	if err != nil {
		b.SortErrors.Add(1)
	}
}

// RecordSnapshot implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSnapshot(duration time.Duration, err error) {
	b.SnapshotCount.Add(1)
	if err != nil {
		b.SnapshotErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AddCount:       b.AddCount.Load(),
		AddErrors:      b.AddErrors.Load(),
		AddAvgNanos:    b.getAvgAddNanos(),
		RemoveCount:    b.RemoveCount.Load(),
		RemovedItems:   b.RemovedItems.Load(),
		UpdateCount:    b.UpdateCount.Load(),
		UpdateErrors:   b.UpdateErrors.Load(),
		FilterCount:    b.FilterCount.Load(),
		FilterChanged:  b.FilterChanged.Load(),
		FilterAvgNanos: b.getAvgFilterNanos(),
		SortCount:      b.SortCount.Load(),
		SortErrors:     b.SortErrors.Load(),
		SnapshotCount:  b.SnapshotCount.Load(),
		SnapshotErrors: b.SnapshotErrors.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgAddNanos() int64 {
	count := b.AddCount.Load()
	if count == 0 {
		return 0
	}
	return b.AddTotalNanos.Load() / count
}

func (b *BasicMetricsCollector) getAvgFilterNanos() int64 {
	count := b.FilterCount.Load()
	if count == 0 {
		return 0
	}
	return b.FilterTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AddCount       int64
	AddErrors      int64
	AddAvgNanos    int64
	RemoveCount    int64
	RemovedItems   int64
	UpdateCount    int64
	UpdateErrors   int64
	FilterCount    int64
	FilterChanged  int64
	FilterAvgNanos int64
	SortCount      int64
	SortErrors     int64
	SnapshotCount  int64
	SnapshotErrors int64
}
