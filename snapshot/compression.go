package snapshot

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the block compression applied to section payloads.
type Compression uint8

const (
	// CompressionNone stores section payloads verbatim.
	CompressionNone Compression = 0
	// CompressionZstd compresses payload blocks with zstd (better ratio).
	CompressionZstd Compression = 1
	// CompressionLZ4 compresses payload blocks with LZ4 (faster).
	CompressionLZ4 Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression maps a configuration string to a Compression value.
// The empty string means no compression.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "none":
		return CompressionNone, nil
	case "zstd":
		return CompressionZstd, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("snapshot: unknown compression %q", s)
	}
}

func (c Compression) valid() bool {
	return c == CompressionNone || c == CompressionZstd || c == CompressionLZ4
}

// Encoder/decoder pools avoid re-allocating zstd state per section.
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// Each block is framed as [UncompressedSize uint32][CompressedSize uint32]
// followed by the block data. CompressedSize == 0 marks a block stored
// uncompressed, which happens when compression would not shrink it enough
// to be worth the decode cost.
const (
	blockHeaderSize  = 8
	defaultBlockSize = 256 * 1024
)

// compressPayload splits raw into blocks of at most blockSize bytes and
// frames each one. With CompressionNone the payload is returned as-is,
// without any framing.
func compressPayload(raw []byte, c Compression, blockSize int) ([]byte, error) {
	if c == CompressionNone {
		return raw, nil
	}
	if !c.valid() {
		return nil, fmt.Errorf("snapshot: unknown compression %d", uint8(c))
	}
	if blockSize <= 0 {
		blockSize = defaultBlockSize
	}

	out := make([]byte, 0, len(raw)/2+blockHeaderSize)
	for off := 0; off < len(raw); off += blockSize {
		end := min(off+blockSize, len(raw))
		frame, err := compressBlock(raw[off:end], c)
		if err != nil {
			return nil, err
		}
		out = append(out, frame...)
	}
	return out, nil
}

// compressBlock frames a single block. If the compressed form is not at
// least 10% smaller than the original the block is stored verbatim.
func compressBlock(data []byte, c Compression) ([]byte, error) {
	var compressed []byte
	switch c {
	case CompressionLZ4:
		dst := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, dst, nil)
		if err != nil {
			return nil, err
		}
		compressed = dst[:n]
	case CompressionZstd:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(data, nil)
		putZstdEncoder(enc)
	}

	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		frame := make([]byte, blockHeaderSize+len(data))
		binary.LittleEndian.PutUint32(frame[0:], uint32(len(data)))
		binary.LittleEndian.PutUint32(frame[4:], 0)
		copy(frame[blockHeaderSize:], data)
		return frame, nil
	}

	frame := make([]byte, blockHeaderSize+len(compressed))
	binary.LittleEndian.PutUint32(frame[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(frame[4:], uint32(len(compressed)))
	copy(frame[blockHeaderSize:], compressed)
	return frame, nil
}

// decompressPayload walks the block frames in data and reassembles the
// original payload. With CompressionNone the input is the payload.
func decompressPayload(data []byte, c Compression) ([]byte, error) {
	if c == CompressionNone {
		return data, nil
	}

	out := make([]byte, 0, len(data))
	off := 0
	for off < len(data) {
		if off+blockHeaderSize > len(data) {
			return nil, fmt.Errorf("%w: block header", ErrTruncated)
		}
		usize := int(binary.LittleEndian.Uint32(data[off:]))
		csize := int(binary.LittleEndian.Uint32(data[off+4:]))
		off += blockHeaderSize

		if csize == 0 {
			if off+usize > len(data) {
				return nil, fmt.Errorf("%w: stored block", ErrTruncated)
			}
			out = append(out, data[off:off+usize]...)
			off += usize
			continue
		}

		if off+csize > len(data) {
			return nil, fmt.Errorf("%w: compressed block", ErrTruncated)
		}
		block := data[off : off+csize]
		off += csize

		switch c {
		case CompressionZstd:
			dec := getZstdDecoder()
			decoded, err := dec.DecodeAll(block, make([]byte, 0, usize))
			putZstdDecoder(dec)
			if err != nil {
				return nil, err
			}
			if len(decoded) != usize {
				return nil, fmt.Errorf("snapshot: decompressed %d bytes, header says %d", len(decoded), usize)
			}
			out = append(out, decoded...)
		case CompressionLZ4:
			dst := make([]byte, usize)
			n, err := lz4.UncompressBlock(block, dst)
			if err != nil {
				return nil, err
			}
			if n != usize {
				return nil, fmt.Errorf("snapshot: decompressed %d bytes, header says %d", n, usize)
			}
			out = append(out, dst[:n]...)
		default:
			return nil, fmt.Errorf("snapshot: unknown compression %d", uint8(c))
		}
	}
	return out, nil
}
