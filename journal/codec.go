package journal

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/dataview-go/dataview/internal/hash"
	"github.com/dataview-go/dataview/item"
)

// Each entry is framed as
//
//	[BodyLen:4][CRC32C:4][Kind:1][Flags:1][Seq:8][Payload:N]
//
// where BodyLen covers everything after the CRC and the CRC covers the
// same bytes. Flag bit 0 marks a zstd-compressed payload. A frame whose
// checksum fails is only acceptable as the very last frame in the file,
// where it is treated as a torn tail from an interrupted write.
const (
	frameHeaderSize = 8
	frameFixedLen   = 10

	frameFlagCompressed = 1

	// Payloads below this size are never worth compressing.
	compressMinSize = 64
)

// body is the codec-encoded portion of a frame. Fields not used by an
// operation kind stay at their zero values.
type body[ID comparable] struct {
	Pos   int       `json:"pos"`
	ID    ID        `json:"id"`
	Item  item.Item `json:"item,omitempty"`
	Order []ID      `json:"order,omitempty"`
}

func (j *Journal[ID]) encodeFrame(kind Kind, seq uint64, pl body[ID]) ([]byte, error) {
	var payload []byte
	if kind != KindClear && kind != KindCheckpoint {
		b, err := j.codec.Marshal(pl)
		if err != nil {
			return nil, fmt.Errorf("journal: encode %s payload: %w", kind, err)
		}
		payload = b
	}

	var flags byte
	if j.enc != nil && len(payload) >= compressMinSize {
		if compressed := j.enc.EncodeAll(payload, nil); len(compressed) < len(payload) {
			payload = compressed
			flags |= frameFlagCompressed
		}
	}

	frame := make([]byte, frameHeaderSize+frameFixedLen+len(payload))
	binary.LittleEndian.PutUint32(frame[0:4], uint32(frameFixedLen+len(payload)))
	fb := frame[frameHeaderSize:]
	fb[0] = byte(kind)
	fb[1] = flags
	binary.LittleEndian.PutUint64(fb[2:10], seq)
	copy(fb[frameFixedLen:], payload)
	binary.LittleEndian.PutUint32(frame[4:8], hash.CRC32C(fb))
	return frame, nil
}

func (j *Journal[ID]) decodeEntry(fr frame) (Entry[ID], error) {
	switch fr.kind {
	case KindAddAt, KindUpdate, KindRemove, KindClear, KindReorder, KindCheckpoint:
	default:
		return Entry[ID]{}, fmt.Errorf("%w: unknown op kind %d at offset %d", ErrCorrupt, fr.kind, fr.off)
	}

	e := Entry[ID]{Kind: fr.kind, Seq: fr.seq}
	if len(fr.payload) == 0 {
		return e, nil
	}

	payload := fr.payload
	if fr.flags&frameFlagCompressed != 0 {
		decoded, err := j.dec.DecodeAll(payload, nil)
		if err != nil {
			return Entry[ID]{}, fmt.Errorf("journal: decompress entry %d: %w", fr.seq, err)
		}
		payload = decoded
	}

	var pl body[ID]
	if err := j.codec.Unmarshal(payload, &pl); err != nil {
		return Entry[ID]{}, fmt.Errorf("journal: decode entry %d: %w", fr.seq, err)
	}
	e.Pos = pl.Pos
	e.ID = pl.ID
	e.Item = pl.Item
	e.Order = pl.Order
	return e, nil
}

// frame is a verified on-disk frame before payload decoding.
type frame struct {
	kind    Kind
	flags   byte
	seq     uint64
	payload []byte
	off     int64
}

// walkFrames reads consecutive frames from r, which must cover exactly
// size bytes of entry stream, and calls visit for each frame whose
// checksum verifies. It returns the offset just past the last good frame.
//
// An incomplete final frame, a frame whose declared length runs past the
// end, or a checksum failure on the very last frame all end the walk
// without error: that is the torn tail of an interrupted append. A
// checksum failure anywhere before the end means the log body itself is
// damaged and yields ErrCorrupt.
func walkFrames(r io.Reader, size int64, visit func(fr frame) error) (int64, error) {
	br := bufio.NewReader(r)
	var off int64

	for {
		remaining := size - off
		if remaining < frameHeaderSize {
			return off, nil
		}

		var hdr [frameHeaderSize]byte
		if _, err := io.ReadFull(br, hdr[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return off, nil
			}
			return off, err
		}
		length := int64(binary.LittleEndian.Uint32(hdr[0:4]))
		crc := binary.LittleEndian.Uint32(hdr[4:8])

		// A length that cannot hold the fixed fields or that runs past
		// the end of the file means framing is lost from here on.
		if length < frameFixedLen || length > remaining-frameHeaderSize {
			return off, nil
		}

		fb := make([]byte, length)
		if _, err := io.ReadFull(br, fb); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return off, nil
			}
			return off, err
		}

		if hash.CRC32C(fb) != crc {
			if off+frameHeaderSize+length == size {
				return off, nil
			}
			return off, fmt.Errorf("%w: offset %d", ErrCorrupt, off)
		}

		fr := frame{
			kind:    Kind(fb[0]),
			flags:   fb[1],
			seq:     binary.LittleEndian.Uint64(fb[2:10]),
			payload: fb[frameFixedLen:],
			off:     off,
		}
		if err := visit(fr); err != nil {
			return off, err
		}
		off += frameHeaderSize + length
	}
}
