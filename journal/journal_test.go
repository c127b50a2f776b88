package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataview-go/dataview/item"
)

func openTestJournal(t *testing.T, optFns ...func(o *Options)) *Journal[string] {
	t.Helper()
	j, err := Open[string](filepath.Join(t.TempDir(), "view.jnl"), optFns...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func collectEntries(t *testing.T, j *Journal[string]) []Entry[string] {
	t.Helper()
	var got []Entry[string]
	require.NoError(t, j.Replay(func(e Entry[string]) error {
		got = append(got, e)
		return nil
	}))
	return got
}

func TestJournal_LogAndReplay(t *testing.T) {
	j := openTestJournal(t)

	assert.Empty(t, collectEntries(t, j))

	require.NoError(t, j.LogAddAt(0, "a", item.Item{"rank": item.Int(1)}))
	require.NoError(t, j.LogAddAt(1, "b", item.Item{"rank": item.Int(2)}))
	require.NoError(t, j.LogUpdate("a", item.Item{"rank": item.Int(9)}))
	require.NoError(t, j.LogRemove("b"))
	require.NoError(t, j.LogReorder([]string{"a"}))
	require.NoError(t, j.LogClear())

	got := collectEntries(t, j)
	require.Len(t, got, 6)

	assert.Equal(t, KindAddAt, got[0].Kind)
	assert.Equal(t, 0, got[0].Pos)
	assert.Equal(t, "a", got[0].ID)
	assert.True(t, item.EqualItems(item.Item{"rank": item.Int(1)}, got[0].Item))

	assert.Equal(t, KindAddAt, got[1].Kind)
	assert.Equal(t, 1, got[1].Pos)

	assert.Equal(t, KindUpdate, got[2].Kind)
	assert.True(t, item.EqualItems(item.Item{"rank": item.Int(9)}, got[2].Item))

	assert.Equal(t, KindRemove, got[3].Kind)
	assert.Equal(t, "b", got[3].ID)

	assert.Equal(t, KindReorder, got[4].Kind)
	assert.Equal(t, []string{"a"}, got[4].Order)

	assert.Equal(t, KindClear, got[5].Kind)

	// Sequence numbers are strictly increasing.
	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i].Seq, got[i-1].Seq)
	}
	assert.Equal(t, 6, j.Len())
}

func TestJournal_ReopenContinuesSequence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "view.jnl")

	j, err := Open[string](path)
	require.NoError(t, err)
	require.NoError(t, j.LogAddAt(0, "a", nil))
	require.NoError(t, j.LogAddAt(1, "b", nil))
	firstSeq := j.Seq()
	require.NoError(t, j.Close())

	j, err = Open[string](path)
	require.NoError(t, err)
	defer j.Close()

	assert.Equal(t, firstSeq, j.Seq())
	assert.Equal(t, 2, j.Len())

	require.NoError(t, j.LogRemove("a"))
	assert.Equal(t, firstSeq+1, j.Seq())
	assert.Len(t, collectEntries(t, j), 3)
}

func TestJournal_Checkpoint(t *testing.T) {
	j := openTestJournal(t)

	require.NoError(t, j.LogAddAt(0, "a", nil))
	require.NoError(t, j.LogAddAt(1, "b", nil))
	require.NoError(t, j.Checkpoint())

	assert.Equal(t, 0, j.Len())
	assert.Empty(t, collectEntries(t, j))

	require.NoError(t, j.LogAddAt(0, "c", nil))
	got := collectEntries(t, j)
	require.Len(t, got, 1)
	assert.Equal(t, "c", got[0].ID)
}

func TestJournal_ReplaySkipsBeforeLastMarker(t *testing.T) {
	// A crash between writing the checkpoint marker and truncating the
	// file leaves pre-marker entries on disk. Replay must not re-apply
	// them on top of the snapshot that the marker stands for.
	dir := t.TempDir()
	scratch, err := Open[string](filepath.Join(dir, "scratch.jnl"))
	require.NoError(t, err)
	defer scratch.Close()

	f1, err := scratch.encodeFrame(KindAddAt, 1, body[string]{Pos: 0, ID: "old", Item: item.Item{"v": item.Int(1)}})
	require.NoError(t, err)
	fcp, err := scratch.encodeFrame(KindCheckpoint, 2, body[string]{})
	require.NoError(t, err)
	f2, err := scratch.encodeFrame(KindAddAt, 3, body[string]{Pos: 0, ID: "new", Item: item.Item{"v": item.Int(2)}})
	require.NoError(t, err)

	path := filepath.Join(dir, "spliced.jnl")
	file, err := os.Create(path)
	require.NoError(t, err)
	_, err = writeHeader(file, headerInfo{CodecName: scratch.codec.Name()})
	require.NoError(t, err)
	for _, fr := range [][]byte{f1, fcp, f2} {
		_, err = file.Write(fr)
		require.NoError(t, err)
	}
	require.NoError(t, file.Close())

	j, err := Open[string](path)
	require.NoError(t, err)
	defer j.Close()

	got := collectEntries(t, j)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].ID)
}

func TestJournal_TornTailRepair(t *testing.T) {
	path := filepath.Join(t.TempDir(), "view.jnl")

	j, err := Open[string](path)
	require.NoError(t, err)
	require.NoError(t, j.LogAddAt(0, "a", item.Item{"v": item.Int(1)}))
	require.NoError(t, j.LogAddAt(1, "b", item.Item{"v": item.Int(2)}))
	require.NoError(t, j.LogAddAt(2, "c", item.Item{"v": item.Int(3)}))
	require.NoError(t, j.Close())

	// Simulate a crash mid-append by writing half a frame.
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o600)
	require.NoError(t, err)
	_, err = file.Write([]byte{0x21, 0x00, 0x00, 0x00, 0x7a})
	require.NoError(t, err)
	require.NoError(t, file.Close())

	j, err = Open[string](path)
	require.NoError(t, err)
	defer j.Close()

	assert.Equal(t, int64(5), j.Stats().RepairedBytes)
	got := collectEntries(t, j)
	require.Len(t, got, 3)
	assert.Equal(t, "c", got[2].ID)

	// The repaired journal accepts new appends.
	require.NoError(t, j.LogRemove("a"))
	assert.Len(t, collectEntries(t, j), 4)
}

func TestJournal_TornFinalFrameDropped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "view.jnl")

	j, err := Open[string](path)
	require.NoError(t, err)
	require.NoError(t, j.LogAddAt(0, "a", item.Item{"v": item.Int(1)}))
	require.NoError(t, j.LogAddAt(1, "b", item.Item{"v": item.Int(2)}))
	require.NoError(t, j.Close())

	// Corrupt the last byte of the final frame.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[len(data)-1] ^= 0xff
	require.NoError(t, os.WriteFile(path, data, 0o600))

	j, err = Open[string](path)
	require.NoError(t, err)
	defer j.Close()

	assert.Positive(t, j.Stats().RepairedBytes)
	got := collectEntries(t, j)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].ID)
}

func TestJournal_MidLogCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "view.jnl")

	j, err := Open[string](path)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		require.NoError(t, j.LogAddAt(i, fmt.Sprintf("id%d", i), nil))
	}
	require.NoError(t, j.Close())

	// Flip the kind byte of the first frame. The damage sits before the
	// tail, so it cannot be an interrupted append.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[int(headerFixedLen)+frameHeaderSize] ^= 0xff
	require.NoError(t, os.WriteFile(path, data, 0o600))

	_, err = Open[string](path)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestJournal_Compression(t *testing.T) {
	blob := strings.Repeat("northwind northbound ", 40)
	logAll := func(j *Journal[string]) {
		for i := 0; i < 30; i++ {
			require.NoError(t, j.LogAddAt(i, fmt.Sprintf("id%d", i), item.Item{
				"payload": item.String(blob),
				"rank":    item.Int(int64(i)),
			}))
		}
	}

	dir := t.TempDir()
	plainPath := filepath.Join(dir, "plain.jnl")
	packedPath := filepath.Join(dir, "packed.jnl")

	plain, err := Open[string](plainPath)
	require.NoError(t, err)
	logAll(plain)
	plainSize := plain.Stats().SizeBytes
	require.NoError(t, plain.Close())

	packed, err := Open[string](packedPath, func(o *Options) { o.Compress = true })
	require.NoError(t, err)
	logAll(packed)
	packedSize := packed.Stats().SizeBytes
	require.NoError(t, packed.Close())

	assert.Less(t, packedSize, plainSize)

	// Entries stay readable when the journal is reopened without the
	// compression option.
	j, err := Open[string](packedPath)
	require.NoError(t, err)
	defer j.Close()

	got := collectEntries(t, j)
	require.Len(t, got, 30)
	assert.Equal(t, blob, got[7].Item["payload"].StringValue())
}

func TestJournal_AutoCheckpoint(t *testing.T) {
	j := openTestJournal(t, func(o *Options) { o.AutoCheckpointEntries = 5 })

	var fired int
	j.SetCheckpointCallback(func() error {
		fired++
		return j.Checkpoint()
	})

	for i := 0; i < 4; i++ {
		require.NoError(t, j.LogAddAt(i, fmt.Sprintf("id%d", i), nil))
		require.NoError(t, j.MaybeCheckpoint())
	}
	assert.Equal(t, 0, fired)

	require.NoError(t, j.LogAddAt(4, "id4", nil))
	require.NoError(t, j.MaybeCheckpoint())
	assert.Equal(t, 1, fired)
	assert.Equal(t, 0, j.Len())

	// The counter restarts after a checkpoint.
	for i := 0; i < 4; i++ {
		require.NoError(t, j.LogAddAt(i, fmt.Sprintf("x%d", i), nil))
		require.NoError(t, j.MaybeCheckpoint())
	}
	assert.Equal(t, 1, fired)
}

func TestJournal_SyncModes(t *testing.T) {
	for _, mode := range []SyncMode{SyncAlways, SyncOnClose, SyncNone} {
		j, err := Open[string](filepath.Join(t.TempDir(), "view.jnl"), func(o *Options) { o.SyncMode = mode })
		require.NoError(t, err)
		require.NoError(t, j.LogAddAt(0, "a", nil))
		require.NoError(t, j.Sync())
		require.NoError(t, j.Close())
	}
}

func TestJournal_ClosedJournal(t *testing.T) {
	j := openTestJournal(t)
	require.NoError(t, j.Close())
	require.NoError(t, j.Close())

	assert.ErrorIs(t, j.LogAddAt(0, "a", nil), ErrClosed)
	assert.ErrorIs(t, j.Checkpoint(), ErrClosed)
	assert.ErrorIs(t, j.MaybeCheckpoint(), ErrClosed)
	assert.ErrorIs(t, j.Sync(), ErrClosed)
	assert.ErrorIs(t, j.Replay(func(Entry[string]) error { return nil }), ErrClosed)
}

func TestJournal_UnknownCodecHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "view.jnl")
	file, err := os.Create(path)
	require.NoError(t, err)
	_, err = writeHeader(file, headerInfo{CodecName: "msgpack"})
	require.NoError(t, err)
	require.NoError(t, file.Close())

	_, err = Open[string](path)
	assert.ErrorIs(t, err, ErrUnknownCodec)
}

func TestJournal_BadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "view.jnl")
	require.NoError(t, os.WriteFile(path, []byte("not a journal, just text"), 0o600))

	_, err := Open[string](path)
	assert.ErrorIs(t, err, ErrInvalidMagic)
}

func TestJournal_IntIdentifiers(t *testing.T) {
	j, err := Open[uint64](filepath.Join(t.TempDir(), "view.jnl"))
	require.NoError(t, err)
	defer j.Close()

	require.NoError(t, j.LogAddAt(0, 42, item.Item{"v": item.Int(1)}))
	require.NoError(t, j.LogReorder([]uint64{42}))

	var got []Entry[uint64]
	require.NoError(t, j.Replay(func(e Entry[uint64]) error {
		got = append(got, e)
		return nil
	}))
	require.Len(t, got, 2)
	assert.Equal(t, uint64(42), got[0].ID)
	assert.Equal(t, []uint64{42}, got[1].Order)
}
