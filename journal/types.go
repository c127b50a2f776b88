package journal

import (
	"errors"

	"github.com/dataview-go/dataview/codec"
	"github.com/dataview-go/dataview/item"
)

// SyncMode defines the fsync behavior for journal appends.
type SyncMode int

const (
	// SyncAlways fsyncs after every logged operation. Slowest but an
	// acknowledged operation survives power loss.
	SyncAlways SyncMode = iota

	// SyncOnClose fsyncs only at Checkpoint and Close. Operations since
	// the last sync may be lost on power failure but survive a process
	// crash.
	SyncOnClose

	// SyncNone never fsyncs explicitly and leaves flushing to the OS.
	SyncNone
)

// Kind identifies the operation recorded by a journal entry.
type Kind uint8

const (
	// KindAddAt records an insertion at a full-sequence position.
	KindAddAt Kind = iota + 1
	// KindUpdate records an item replacement for an identifier.
	KindUpdate
	// KindRemove records an identifier removal.
	KindRemove
	// KindClear records removal of all items.
	KindClear
	// KindReorder records the full identifier permutation after a sort.
	KindReorder
	// KindCheckpoint marks that all preceding state is captured in a
	// snapshot. Replay discards everything before the last marker.
	KindCheckpoint
)

func (k Kind) String() string {
	switch k {
	case KindAddAt:
		return "add-at"
	case KindUpdate:
		return "update"
	case KindRemove:
		return "remove"
	case KindClear:
		return "clear"
	case KindReorder:
		return "reorder"
	case KindCheckpoint:
		return "checkpoint"
	default:
		return "unknown"
	}
}

// Entry is a single logged operation, as handed to Replay callbacks.
type Entry[ID comparable] struct {
	Kind  Kind
	Seq   uint64
	Pos   int       // full-sequence position, KindAddAt only
	ID    ID        // KindAddAt, KindUpdate, KindRemove
	Item  item.Item // KindAddAt, KindUpdate
	Order []ID      // KindReorder only
}

// Options contains configuration for the journal.
type Options struct {
	// Codec encodes entry payloads. The codec is recorded in the file
	// header; reopening an existing journal adopts the header's codec.
	Codec codec.Codec

	// Compress enables per-entry zstd compression of payloads that are
	// large enough for it to pay off.
	Compress bool

	// SyncMode controls fsync behavior (SyncAlways, SyncOnClose,
	// SyncNone).
	SyncMode SyncMode

	// AutoCheckpointEntries triggers the checkpoint callback after N
	// logged operations. Set to 0 to disable.
	AutoCheckpointEntries int
}

// DefaultOptions returns the default journal options.
var DefaultOptions = Options{
	Codec:                 codec.Default,
	Compress:              false,
	SyncMode:              SyncAlways,
	AutoCheckpointEntries: 10000,
}

// Stats describes the current state of a journal file.
type Stats struct {
	// Seq is the highest sequence number issued so far.
	Seq uint64
	// Entries is the number of operation frames currently in the file,
	// checkpoint markers excluded.
	Entries int
	// SizeBytes is the current file size.
	SizeBytes int64
	// RepairedBytes is the number of torn-tail bytes dropped when the
	// journal was opened.
	RepairedBytes int64
}

var (
	// ErrClosed is returned when operating on a closed journal.
	ErrClosed = errors.New("journal: closed")
	// ErrCorrupt is returned when a frame before the tail fails checksum
	// verification or carries an unknown operation kind.
	ErrCorrupt = errors.New("journal: corrupt entry")
	// ErrInvalidMagic is returned when the file does not start with the
	// journal magic number.
	ErrInvalidMagic = errors.New("journal: invalid magic number")
	// ErrInvalidVersion is returned for header versions this package
	// cannot read.
	ErrInvalidVersion = errors.New("journal: unsupported version")
	// ErrUnknownCodec is returned when the header names an unregistered
	// codec.
	ErrUnknownCodec = errors.New("journal: unknown codec")
)
