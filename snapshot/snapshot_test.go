package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataview-go/dataview/codec"
	"github.com/dataview-go/dataview/internal/hash"
	"github.com/dataview-go/dataview/item"
)

func testSnapshot(n int) *Snapshot[string] {
	regions := []string{"emea", "apac", "amer"}
	snap := &Snapshot[string]{CreatedAt: time.Unix(0, 1724572800000000000)}
	for i := 0; i < n; i++ {
		snap.Order = append(snap.Order, fmt.Sprintf("id-%04d", i))
		snap.Items = append(snap.Items, item.Item{
			"name":   item.String(fmt.Sprintf("row %d", i)),
			"region": item.String(regions[i%3]),
			"score":  item.Int(int64(i * 7)),
			"active": item.Bool(i%2 == 0),
		})
	}
	return snap
}

func assertSnapshotsEqual(t *testing.T, want, got *Snapshot[string]) {
	t.Helper()
	require.Equal(t, want.Order, got.Order)
	require.Len(t, got.Items, len(want.Items))
	for i := range want.Items {
		assert.True(t, item.EqualItems(want.Items[i], got.Items[i]), "item %d differs", i)
	}
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
}

func TestWriteRead_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{name: "defaults"},
		{name: "none", opts: []Option{WithCompression(CompressionNone)}},
		{name: "zstd", opts: []Option{WithCompression(CompressionZstd)}},
		{name: "lz4", opts: []Option{WithCompression(CompressionLZ4)}},
		{name: "stdlib json", opts: []Option{WithCodec(codec.JSON{}), WithCompression(CompressionNone)}},
		{name: "small blocks", opts: []Option{WithCompression(CompressionZstd), WithBlockSize(64)}},
	}

	snap := testSnapshot(50)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Write(&buf, snap, tt.opts...))

			got, err := Read[string](&buf)
			require.NoError(t, err)
			assertSnapshotsEqual(t, snap, got)
		})
	}
}

func TestWriteRead_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, &Snapshot[string]{}))

	got, err := Read[string](&buf)
	require.NoError(t, err)
	assert.Empty(t, got.Order)
	assert.Empty(t, got.Items)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestWrite_LengthMismatch(t *testing.T) {
	snap := &Snapshot[string]{
		Order: []string{"a", "b"},
		Items: []item.Item{{"x": item.Int(1)}},
	}
	err := Write(&bytes.Buffer{}, snap)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestWrite_NilSnapshot(t *testing.T) {
	err := Write[string](&bytes.Buffer{}, nil)
	assert.Error(t, err)
}

func TestCompression_Shrinks(t *testing.T) {
	snap := testSnapshot(400)

	var plain, packed bytes.Buffer
	require.NoError(t, Write(&plain, snap, WithCompression(CompressionNone)))
	require.NoError(t, Write(&packed, snap, WithCompression(CompressionZstd)))

	assert.Less(t, packed.Len(), plain.Len())
}

func TestCompression_IncompressibleRoundTrip(t *testing.T) {
	// Random hex does not compress, so every block takes the stored path.
	rng := rand.New(rand.NewSource(7))
	snap := &Snapshot[string]{}
	for i := 0; i < 64; i++ {
		snap.Order = append(snap.Order, fmt.Sprintf("k%d", i))
		snap.Items = append(snap.Items, item.Item{
			"blob": item.String(fmt.Sprintf("%016x%016x", rng.Uint64(), rng.Uint64())),
		})
	}

	for _, comp := range []Compression{CompressionZstd, CompressionLZ4} {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, snap, WithCompression(comp), WithBlockSize(128)))
		got, err := Read[string](&buf)
		require.NoError(t, err, comp.String())
		assertSnapshotsEqual(t, snap, got)
	}
}

func TestDecode_BadMagic(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testSnapshot(3)))

	data := buf.Bytes()
	data[0] ^= 0xff
	_, err := Decode[string](data)
	assert.ErrorIs(t, err, ErrInvalidMagic)
}

func TestDecode_BadVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testSnapshot(3)))

	data := buf.Bytes()
	binary.LittleEndian.PutUint16(data[4:], 99)
	_, err := Decode[string](data)
	assert.ErrorIs(t, err, ErrInvalidVersion)
}

func TestDecode_UnknownCodec(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testSnapshot(3)))

	data := buf.Bytes()
	copy(data[8:16], []byte("msgpack\x00"))
	_, err := Decode[string](data)
	assert.ErrorIs(t, err, ErrUnknownCodec)
}

func TestDecode_CorruptPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testSnapshot(10)))

	data := buf.Bytes()
	// Flip a byte inside the first section payload.
	data[headerSize+sectionHeaderSize+2] ^= 0xff
	_, err := Decode[string](data)
	assert.ErrorIs(t, err, ErrChecksum)
}

func TestDecode_Truncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testSnapshot(10)))

	data := buf.Bytes()
	for _, cut := range []int{3, headerSize - 1, headerSize + 4, len(data) - 3} {
		_, err := Decode[string](data[:cut])
		assert.ErrorIs(t, err, ErrTruncated, "cut at %d", cut)
	}
}

func TestDecode_SkipsUnknownSections(t *testing.T) {
	var buf bytes.Buffer
	snap := testSnapshot(5)
	require.NoError(t, Write(&buf, snap, WithCompression(CompressionNone)))

	// Append a section with an id this version does not define and bump
	// the section count. Decoders must step over it.
	data := buf.Bytes()
	extra := []byte("future payload")
	var shdr [sectionHeaderSize]byte
	shdr[0] = 0x7f
	binary.LittleEndian.PutUint64(shdr[4:], uint64(len(extra)))
	data = append(data, shdr[:]...)
	data = append(data, extra...)
	data = binary.LittleEndian.AppendUint32(data, hash.CRC32C(extra))
	data[17]++

	got, err := Decode[string](data)
	require.NoError(t, err)
	assertSnapshotsEqual(t, snap, got)
}

func TestWriteFile_ReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "view.snap")

	snap := testSnapshot(25)
	require.NoError(t, WriteFile(path, snap))

	got, err := ReadFile[string](path)
	require.NoError(t, err)
	assertSnapshotsEqual(t, snap, got)

	// No temporary file may survive a successful write.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "view.snap", entries[0].Name())
}

func TestWriteFile_ReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "view.snap")

	require.NoError(t, WriteFile(path, testSnapshot(5)))
	bigger := testSnapshot(40)
	require.NoError(t, WriteFile(path, bigger))

	got, err := ReadFile[string](path)
	require.NoError(t, err)
	assertSnapshotsEqual(t, bigger, got)
}

func TestParseCompression(t *testing.T) {
	tests := []struct {
		in      string
		want    Compression
		wantErr bool
	}{
		{in: "", want: CompressionNone},
		{in: "none", want: CompressionNone},
		{in: "zstd", want: CompressionZstd},
		{in: "lz4", want: CompressionLZ4},
		{in: "snappy", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseCompression(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, got, mustParse(t, got.String()))
	}
}

func mustParse(t *testing.T, s string) Compression {
	t.Helper()
	c, err := ParseCompression(s)
	require.NoError(t, err)
	return c
}
