package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"github.com/dataview-go/dataview/codec"
	"github.com/dataview-go/dataview/internal/hash"
	"github.com/dataview-go/dataview/internal/mmap"
)

// Decode parses a complete snapshot image. The returned snapshot does not
// reference data, so callers may release the buffer afterwards.
func Decode[ID comparable](data []byte) (*Snapshot[ID], error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: header", ErrTruncated)
	}
	if m := binary.LittleEndian.Uint32(data[0:]); m != Magic {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, m)
	}
	if v := binary.LittleEndian.Uint16(data[4:]); v != Version {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidVersion, v)
	}
	name := string(bytes.TrimRight(data[8:8+maxCodecName], "\x00"))
	c, ok := codec.ByName(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, name)
	}
	comp := Compression(data[16])
	sectionCount := int(data[17])

	snap := &Snapshot[ID]{}
	var m meta
	var haveMeta, haveOrder, haveItems bool

	off := headerSize
	for i := 0; i < sectionCount; i++ {
		if off+sectionHeaderSize > len(data) {
			return nil, fmt.Errorf("%w: section header", ErrTruncated)
		}
		id := data[off]
		length := binary.LittleEndian.Uint64(data[off+4:])
		off += sectionHeaderSize

		rest := uint64(len(data) - off)
		if rest < crcSize || length > rest-crcSize {
			return nil, fmt.Errorf("%w: section %d payload", ErrTruncated, id)
		}
		payload := data[off : off+int(length)]
		off += int(length)
		want := binary.LittleEndian.Uint32(data[off:])
		off += crcSize

		if got := hash.CRC32C(payload); got != want {
			return nil, fmt.Errorf("%w: section %d: expected 0x%08x, got 0x%08x", ErrChecksum, id, want, got)
		}

		raw, err := decompressPayload(payload, comp)
		if err != nil {
			return nil, fmt.Errorf("snapshot: section %d: %w", id, err)
		}

		switch id {
		case sectionMeta:
			if err := c.Unmarshal(raw, &m); err != nil {
				return nil, fmt.Errorf("snapshot: decode metadata: %w", err)
			}
			haveMeta = true
		case sectionOrder:
			if err := c.Unmarshal(raw, &snap.Order); err != nil {
				return nil, fmt.Errorf("snapshot: decode identifier order: %w", err)
			}
			haveOrder = true
		case sectionItems:
			if err := c.Unmarshal(raw, &snap.Items); err != nil {
				return nil, fmt.Errorf("snapshot: decode items: %w", err)
			}
			haveItems = true
		default:
			// Unknown section from a newer writer, skip it.
		}
	}

	if !haveMeta || !haveOrder || !haveItems {
		return nil, ErrMissingSection
	}
	if uint64(len(snap.Order)) != m.Count || len(snap.Order) != len(snap.Items) {
		return nil, fmt.Errorf("%w: header count %d, %d identifiers, %d items",
			ErrLengthMismatch, m.Count, len(snap.Order), len(snap.Items))
	}
	snap.CreatedAt = time.Unix(0, m.CreatedAt)
	return snap, nil
}

// Read decodes a snapshot from a stream.
func Read[ID comparable](r io.Reader) (*Snapshot[ID], error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Decode[ID](data)
}

// ReadFile memory-maps path and decodes the snapshot it contains.
func ReadFile[ID comparable](path string) (*Snapshot[ID], error) {
	f, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode[ID](f.Bytes())
}
