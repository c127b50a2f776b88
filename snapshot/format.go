// Package snapshot encodes and decodes point-in-time container images.
//
// A snapshot file is self-describing: a fixed header records the format
// version, the codec used for section payloads and the block compression
// applied to them. The payload is a series of sections, each framed with
// its identifier, length and a CRC32-C trailer so corruption is detected
// per section. Readers skip sections they do not recognize, which lets
// future versions add sections without breaking older readers.
package snapshot

import "errors"

const (
	// Magic identifies snapshot files (ASCII "DVW1").
	Magic = 0x44565731
	// Version is the current snapshot format version.
	Version = 1

	headerSize        = 24
	sectionHeaderSize = 12
	crcSize           = 4

	maxCodecName = 8
)

// Section identifiers.
const (
	sectionMeta  uint8 = 1
	sectionOrder uint8 = 2
	sectionItems uint8 = 3
)

var (
	// ErrInvalidMagic is returned when a file does not start with the
	// snapshot magic number.
	ErrInvalidMagic = errors.New("snapshot: invalid magic number")
	// ErrInvalidVersion is returned for format versions this package
	// cannot decode.
	ErrInvalidVersion = errors.New("snapshot: unsupported version")
	// ErrUnknownCodec is returned when the header names a codec that is
	// not registered.
	ErrUnknownCodec = errors.New("snapshot: unknown codec")
	// ErrChecksum is returned when a section payload fails CRC
	// verification.
	ErrChecksum = errors.New("snapshot: checksum mismatch")
	// ErrTruncated is returned when the file ends before a declared
	// section does.
	ErrTruncated = errors.New("snapshot: truncated file")
	// ErrMissingSection is returned when a required section is absent.
	ErrMissingSection = errors.New("snapshot: missing section")
	// ErrLengthMismatch is returned when the identifier order and the
	// item records disagree in length.
	ErrLengthMismatch = errors.New("snapshot: order and item counts differ")
)

// meta is the codec-encoded payload of the metadata section.
type meta struct {
	Count     uint64 `json:"count"`
	CreatedAt int64  `json:"created_at"`
}
