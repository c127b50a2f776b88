package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dataview-go/dataview/codec"
	"github.com/dataview-go/dataview/internal/fs"
	"github.com/dataview-go/dataview/internal/hash"
	"github.com/dataview-go/dataview/item"
)

// Snapshot is a point-in-time image of a container's full contents.
// Order holds every identifier in full-sequence order and Items the
// matching records, index for index. Filters and sort state are runtime
// configuration and are not part of a snapshot.
type Snapshot[ID comparable] struct {
	Order     []ID
	Items     []item.Item
	CreatedAt time.Time
}

// Option configures snapshot encoding.
type Option func(*config)

type config struct {
	codec       codec.Codec
	compression Compression
	blockSize   int
}

func defaultConfig() config {
	return config{
		codec:       codec.Default,
		compression: CompressionZstd,
		blockSize:   defaultBlockSize,
	}
}

// WithCodec selects the codec used for section payloads. The identifier
// type must be encodable by it.
func WithCodec(c codec.Codec) Option {
	return func(cfg *config) {
		if c != nil {
			cfg.codec = c
		}
	}
}

// WithCompression selects the block compression for section payloads.
func WithCompression(c Compression) Option {
	return func(cfg *config) {
		cfg.compression = c
	}
}

// WithBlockSize overrides the compression block size in bytes.
func WithBlockSize(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.blockSize = n
		}
	}
}

// Write encodes snap to w.
func Write[ID comparable](w io.Writer, snap *Snapshot[ID], opts ...Option) error {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if snap == nil {
		return errors.New("snapshot: nil snapshot")
	}
	if len(snap.Order) != len(snap.Items) {
		return fmt.Errorf("%w: %d identifiers, %d items", ErrLengthMismatch, len(snap.Order), len(snap.Items))
	}
	if !cfg.compression.valid() {
		return fmt.Errorf("snapshot: unknown compression %d", uint8(cfg.compression))
	}
	name := cfg.codec.Name()
	if len(name) > maxCodecName {
		return fmt.Errorf("snapshot: codec name %q exceeds %d bytes", name, maxCodecName)
	}

	createdAt := snap.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	var hdr [headerSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], Magic)
	binary.LittleEndian.PutUint16(hdr[4:], Version)
	binary.LittleEndian.PutUint16(hdr[6:], 0)
	copy(hdr[8:8+maxCodecName], name)
	hdr[16] = uint8(cfg.compression)
	hdr[17] = 3
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}

	m := meta{Count: uint64(len(snap.Order)), CreatedAt: createdAt.UnixNano()}
	if err := writeSection(w, cfg, sectionMeta, m); err != nil {
		return err
	}
	if err := writeSection(w, cfg, sectionOrder, snap.Order); err != nil {
		return err
	}
	return writeSection(w, cfg, sectionItems, snap.Items)
}

func writeSection(w io.Writer, cfg config, id uint8, v any) error {
	raw, err := cfg.codec.Marshal(v)
	if err != nil {
		return fmt.Errorf("snapshot: encode section %d: %w", id, err)
	}
	payload, err := compressPayload(raw, cfg.compression, cfg.blockSize)
	if err != nil {
		return fmt.Errorf("snapshot: compress section %d: %w", id, err)
	}

	var shdr [sectionHeaderSize]byte
	shdr[0] = id
	binary.LittleEndian.PutUint64(shdr[4:], uint64(len(payload)))
	if _, err := w.Write(shdr[:]); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	var crc [crcSize]byte
	binary.LittleEndian.PutUint32(crc[:], hash.CRC32C(payload))
	_, err = w.Write(crc[:])
	return err
}

// WriteFile writes the snapshot to path. The file is written to a
// temporary sibling first and renamed into place only after a successful
// sync, so a crash mid-write never leaves a partial snapshot under path.
func WriteFile[ID comparable](path string, snap *Snapshot[ID], opts ...Option) error {
	return fs.WriteAtomic(fs.Default, path, 0o644, func(w io.Writer) error {
		return Write(w, snap, opts...)
	})
}
