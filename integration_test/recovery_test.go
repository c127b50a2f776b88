package integration_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/dataview-go/dataview"
	"github.com/dataview-go/dataview/item"
	"github.com/dataview-go/dataview/journal"
	"github.com/dataview-go/dataview/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCrashWithoutClose simulates a process crash: the container is
// abandoned without Close. With SyncAlways every acknowledged operation
// must survive into the next build.
func TestCrashWithoutClose(t *testing.T) {
	journalPath := filepath.Join(t.TempDir(), "view.dvj")

	c, err := dataview.Indexed[int]().Journal(journalPath).Build()
	require.NoError(t, err)

	rng := testutil.NewRNG(7)
	items := rng.Items(20)
	for i, it := range items {
		require.NoError(t, c.Add(i, it))
	}
	require.NoError(t, c.Update(3, item.Item{"status": item.String("paid")}))
	require.True(t, c.Remove(7))
	// No Close: the open handle is simply dropped.

	rebuilt, err := dataview.Indexed[int]().Journal(journalPath).Build()
	require.NoError(t, err)
	defer rebuilt.Close()

	assert.Equal(t, 19, rebuilt.TotalLen())
	assert.False(t, rebuilt.ContainsID(7))

	it, ok := rebuilt.Item(3)
	require.True(t, ok)
	assert.Equal(t, "paid", it["status"].StringValue())
}

// TestCrashAfterAutoCheckpoint crashes after the auto-checkpoint has
// moved early entries into the snapshot. Rebuild must stitch snapshot
// and journal tail back into one view.
func TestCrashAfterAutoCheckpoint(t *testing.T) {
	dir := t.TempDir()
	journalPath := filepath.Join(dir, "view.dvj")
	snapshotPath := filepath.Join(dir, "view.dvw")

	build := func() *dataview.Container[int] {
		c, err := dataview.Indexed[int]().
			Journal(journalPath, func(o *journal.Options) {
				o.AutoCheckpointEntries = 4
			}).
			SnapshotPath(snapshotPath).
			Build()
		require.NoError(t, err)
		return c
	}

	c := build()
	rng := testutil.NewRNG(11)
	for i, it := range rng.Items(10) {
		require.NoError(t, c.Add(i, it))
	}

	// The threshold fired at least once, so the snapshot exists and the
	// journal holds only the tail.
	if _, err := os.Stat(snapshotPath); err != nil {
		t.Fatalf("expected auto-checkpoint snapshot: %v", err)
	}

	j, err := journal.Open[int](journalPath)
	require.NoError(t, err)
	tail := j.Stats().Entries
	require.NoError(t, j.Close())
	assert.Less(t, tail, 10)

	rebuilt := build()
	defer rebuilt.Close()

	assert.Equal(t, 10, rebuilt.TotalLen())
	for i := 0; i < 10; i++ {
		assert.True(t, rebuilt.ContainsID(i), "id %d lost in recovery", i)
	}
}

// TestGarbageTailIsRepaired appends junk bytes to the journal, as left
// behind by a crash mid-append. The junk is dropped, the good prefix
// survives.
func TestGarbageTailIsRepaired(t *testing.T) {
	journalPath := filepath.Join(t.TempDir(), "view.dvj")

	c, err := dataview.Indexed[int]().Journal(journalPath).Build()
	require.NoError(t, err)
	for i := 0; i < 8; i++ {
		require.NoError(t, c.Add(i, item.Item{"n": item.Int(int64(i))}))
	}
	require.NoError(t, c.Close())

	f, err := os.OpenFile(journalPath, os.O_APPEND|os.O_WRONLY, 0o600)
	require.NoError(t, err)
	_, err = f.Write(bytes.Repeat([]byte{0xFF}, 16))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	j, err := journal.Open[int](journalPath)
	require.NoError(t, err)
	assert.Equal(t, int64(16), j.Stats().RepairedBytes)
	assert.Equal(t, 8, j.Stats().Entries)
	require.NoError(t, j.Close())

	rebuilt, err := dataview.Indexed[int]().Journal(journalPath).Build()
	require.NoError(t, err)
	defer rebuilt.Close()
	assert.Equal(t, 8, rebuilt.TotalLen())
}

// TestCorruptBodyFailsBuild damages a frame in the middle of the journal.
// Unlike a torn tail this cannot be repaired, and the build must refuse
// rather than restore partial state silently.
func TestCorruptBodyFailsBuild(t *testing.T) {
	journalPath := filepath.Join(t.TempDir(), "view.dvj")

	c, err := dataview.Indexed[int]().Journal(journalPath).Build()
	require.NoError(t, err)
	for i := 0; i < 8; i++ {
		require.NoError(t, c.Add(i, item.Item{"marker": item.String("payload")}))
	}
	require.NoError(t, c.Close())

	// Flip a byte inside the first frame's payload. The JSON codecs
	// serialize property names literally, so the first occurrence of the
	// marker sits well before the final frame.
	data, err := os.ReadFile(journalPath)
	require.NoError(t, err)
	idx := bytes.Index(data, []byte("marker"))
	require.Greater(t, idx, 0)
	data[idx] ^= 0xFF
	require.NoError(t, os.WriteFile(journalPath, data, 0o600))

	_, err = dataview.Indexed[int]().Journal(journalPath).Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, journal.ErrCorrupt)
}

// TestCrashPointConvergence replays the same operation stream cut off at
// every possible crash point and verifies each rebuild equals a fresh
// container that ran exactly the surviving prefix.
func TestCrashPointConvergence(t *testing.T) {
	type op struct {
		kind string
		id   int
		it   item.Item
	}

	rng := testutil.NewRNG(23)
	ops := make([]op, 0, 24)
	for i := 0; i < 12; i++ {
		ops = append(ops, op{kind: "add", id: i, it: rng.Item()})
	}
	ops = append(ops,
		op{kind: "update", id: 4, it: rng.Item()},
		op{kind: "remove", id: 9},
		op{kind: "update", id: 0, it: rng.Item()},
		op{kind: "remove", id: 2},
	)

	applyOps := func(c *dataview.Container[int], n int) {
		for _, o := range ops[:n] {
			switch o.kind {
			case "add":
				require.NoError(t, c.Add(o.id, o.it))
			case "update":
				require.NoError(t, c.Update(o.id, o.it))
			case "remove":
				require.True(t, c.Remove(o.id))
			}
		}
	}

	for n := 0; n <= len(ops); n++ {
		journalPath := filepath.Join(t.TempDir(), "view.dvj")

		c, err := dataview.Indexed[int]().Journal(journalPath).Build()
		require.NoError(t, err)
		applyOps(c, n)
		// Crash here.

		rebuilt, err := dataview.Indexed[int]().Journal(journalPath).Build()
		require.NoError(t, err)

		want, err := dataview.Indexed[int]().Build()
		require.NoError(t, err)
		applyOps(want, n)

		assert.Equal(t, want.IDs(), rebuilt.IDs(), "crash after %d ops", n)
		for _, id := range want.IDs() {
			wantItem, _ := want.Item(id)
			gotItem, _ := rebuilt.Item(id)
			assert.True(t, item.EqualItems(wantItem, gotItem), "crash after %d ops: item %d differs", n, id)
		}

		require.NoError(t, rebuilt.Close())
		require.NoError(t, want.Close())
	}
}
