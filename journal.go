package dataview

import (
	"context"
	"fmt"

	"github.com/dataview-go/dataview/journal"
)

// apply replays a single journal entry against the container state.
//
// Replay must tolerate entries that predate the snapshot it runs
// against: a crash between writing a snapshot and marking the journal
// checkpoint leaves both the snapshot and the entries it already covers
// on disk. Already-satisfied entries are therefore skipped instead of
// failing, which makes replay idempotent.
func (c *Container[ID]) apply(e journal.Entry[ID]) error {
	switch e.Kind {
	case journal.KindAddAt:
		if c.seq.InFull(e.ID) {
			return nil
		}
		if !c.seq.InsertAt(e.Pos, e.ID) {
			return fmt.Errorf("dataview: replay add %v at %d: %w", e.ID, e.Pos, ErrInvalidPosition)
		}
		c.store.Set(e.ID, e.Item)
	case journal.KindUpdate:
		if !c.seq.InFull(e.ID) {
			return nil
		}
		c.store.Set(e.ID, e.Item)
	case journal.KindRemove:
		if c.seq.Remove(e.ID) {
			c.store.Delete(e.ID)
		}
	case journal.KindClear:
		c.seq.Clear()
		c.store.Clear()
	case journal.KindReorder:
		// A reorder over a different membership predates the snapshot.
		c.seq.Reorder(e.Order)
	default:
		return fmt.Errorf("dataview: replay: unknown entry kind %d", e.Kind)
	}
	return nil
}

// attachJournal binds a journal to the container and registers the
// auto-checkpoint hook. Every mutation from here on is appended before
// it is applied.
func (c *Container[ID]) attachJournal(j *journal.Journal[ID]) {
	c.journal = j
	j.SetCheckpointCallback(c.autoCheckpoint)
}

// maybeCheckpoint runs after a journaled mutation has been applied. The
// mutation itself already succeeded, so a failed checkpoint is logged
// and not surfaced to the caller.
func (c *Container[ID]) maybeCheckpoint() {
	if c.journal == nil {
		return
	}
	if err := c.journal.MaybeCheckpoint(); err != nil {
		c.logger.Error("auto-checkpoint failed", "error", err)
	}
}

// autoCheckpoint runs when the journal crosses its auto-checkpoint
// threshold. Without a snapshot path the journal just keeps growing.
func (c *Container[ID]) autoCheckpoint() error {
	if c.snapshotPath == "" {
		return nil
	}
	if err := c.SaveToFile(c.snapshotPath); err != nil {
		return fmt.Errorf("auto-checkpoint: %w", err)
	}
	return c.journal.Checkpoint()
}

// Checkpoint marks all journaled entries as covered by durable state and
// truncates the journal. Call it after a successful SaveTo variant;
// containers built with a snapshot path checkpoint automatically.
func (c *Container[ID]) Checkpoint() error {
	if c.journal == nil {
		return nil
	}
	return c.journal.Checkpoint()
}

// Recover rebuilds a container from a journal by replaying every entry
// after the last checkpoint, then binds the journal for further writes.
// The journal stays open regardless of outcome; the caller owns it until
// Recover succeeds, afterwards Close on the container closes it.
func Recover[ID comparable](ctx context.Context, j *journal.Journal[ID], optFns ...Option) (*Container[ID], error) {
	c := New[ID](optFns...)

	entries := 0
	err := j.Replay(func(e journal.Entry[ID]) error {
		entries++
		return c.apply(e)
	})
	c.logger.LogRecovery(ctx, entries, err)
	if err != nil {
		return nil, fmt.Errorf("dataview: recover: %w", err)
	}

	c.attachJournal(j)
	return c, nil
}
