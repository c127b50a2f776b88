package dataview

import (
	"context"
	"fmt"
	"os"

	"github.com/dataview-go/dataview/codec"
	"github.com/dataview-go/dataview/journal"
	"github.com/dataview-go/dataview/resource"
	"github.com/dataview-go/dataview/snapshot"
	"github.com/dataview-go/dataview/sorter"
)

// Indexed creates a new container builder for identifiers of type ID.
// The builder wires optional persistence: a snapshot path to load on
// build and save on checkpoint, and a journal for write-ahead durability.
//
// The builder is immutable - each method returns a new builder with the updated configuration.
//
// Example:
//
//	c, err := dataview.Indexed[string]().
//	    Journal("./orders.dvj").
//	    SnapshotPath("./orders.dvw").
//	    Build()
func Indexed[ID comparable]() Builder[ID] {
	return Builder[ID]{}
}

// Builder is an immutable fluent builder for creating containers.
// Each method returns a new builder with the updated configuration.
type Builder[ID comparable] struct {
	codec          codec.Codec
	logger         *Logger
	metrics        MetricsCollector
	sorter         sorter.Sorter
	sorterSet      bool
	journalPath    string
	journalOptions []func(*journal.Options)
	snapshotPath   string
	resources      *resource.Controller
}

// Codec sets the codec for snapshot and journal serialization.
func (b Builder[ID]) Codec(c codec.Codec) Builder[ID] {
	b.codec = c
	return b
}

// Logger sets the structured logger for operation tracing.
func (b Builder[ID]) Logger(l *Logger) Builder[ID] {
	b.logger = l
	return b
}

// Metrics sets the metrics collector for monitoring.
func (b Builder[ID]) Metrics(mc MetricsCollector) Builder[ID] {
	b.metrics = mc
	return b
}

// Sorter sets the sorter used by Sort. Passing nil builds an unsortable
// container.
func (b Builder[ID]) Sorter(s sorter.Sorter) Builder[ID] {
	b.sorter = s
	b.sorterSet = true
	return b
}

// Journal enables write-ahead journaling for durability. Entries already
// in the journal are replayed on build.
func (b Builder[ID]) Journal(path string, optFns ...func(*journal.Options)) Builder[ID] {
	b.journalPath = path
	b.journalOptions = optFns
	return b
}

// SnapshotPath sets the path for automatic snapshots during journal
// auto-checkpoint. An existing snapshot at the path is loaded on build,
// before journal replay.
func (b Builder[ID]) SnapshotPath(path string) Builder[ID] {
	b.snapshotPath = path
	return b
}

// Resources sets the resource controller that rate limits snapshot I/O.
func (b Builder[ID]) Resources(rc *resource.Controller) Builder[ID] {
	b.resources = rc
	return b
}

// Build creates the container, loading the snapshot and replaying the
// journal when configured.
func (b Builder[ID]) Build() (*Container[ID], error) {
	var opts []Option
	if b.codec != nil {
		opts = append(opts, WithCodec(b.codec))
	}
	if b.logger != nil {
		opts = append(opts, WithLogger(b.logger))
	}
	if b.metrics != nil {
		opts = append(opts, WithMetricsCollector(b.metrics))
	}
	if b.sorterSet {
		opts = append(opts, WithSorter(b.sorter))
	}
	if b.snapshotPath != "" {
		opts = append(opts, WithSnapshotPath(b.snapshotPath))
	}
	if b.resources != nil {
		opts = append(opts, WithResourceController(b.resources))
	}

	c := New[ID](opts...)

	if b.snapshotPath != "" {
		snap, err := snapshot.ReadFile[ID](b.snapshotPath)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("dataview: load snapshot %s: %w", b.snapshotPath, err)
		}
		if err == nil {
			c.restore(snap)
		}
	}

	if b.journalPath != "" {
		// Journal frames must decode with the container's codec.
		journalOptFns := b.journalOptions
		if b.codec != nil {
			journalOptFns = append([]func(*journal.Options){
				func(o *journal.Options) {
					o.Codec = b.codec
				},
			}, b.journalOptions...)
		}

		j, err := journal.Open[ID](b.journalPath, journalOptFns...)
		if err != nil {
			return nil, fmt.Errorf("dataview: open journal: %w", err)
		}

		entries := 0
		replayErr := j.Replay(func(e journal.Entry[ID]) error {
			entries++
			return c.apply(e)
		})
		c.logger.LogRecovery(context.Background(), entries, replayErr)
		if replayErr != nil {
			j.Close()
			return nil, fmt.Errorf("dataview: replay journal: %w", replayErr)
		}

		c.attachJournal(j)
	}

	return c, nil
}

// MustBuild creates the container, panicking on error.
func (b Builder[ID]) MustBuild() *Container[ID] {
	c, err := b.Build()
	if err != nil {
		panic(err)
	}
	return c
}
