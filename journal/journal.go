// Package journal provides an append-only operation log that makes a
// container recoverable between snapshots.
//
// Every mutation is framed with a length and a CRC32-C checksum and
// appended before it is acknowledged, so a crash loses at most the
// operation being written. Opening a journal repairs a torn tail by
// truncating at the first incomplete frame. Replay rebuilds the logged
// operations, discarding everything up to the last checkpoint marker.
package journal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/dataview-go/dataview/codec"
	"github.com/dataview-go/dataview/item"
)

// Journal is an append-only log of container operations. It is safe for
// concurrent use.
type Journal[ID comparable] struct {
	mu    sync.Mutex
	file  *os.File
	path  string
	codec codec.Codec
	enc   *zstd.Encoder
	dec   *zstd.Decoder

	syncMode   SyncMode
	dataOffset int64
	seq        uint64
	entries    int
	repaired   int64

	autoCheckpointEntries int
	committed             int
	checkpointFunc        func() error
}

// Open opens or creates the journal at path. An existing file is scanned
// to restore the sequence counter; a torn tail left by a crashed append
// is truncated away.
func Open[ID comparable](path string, optFns ...func(o *Options)) (*Journal[ID], error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Codec == nil {
		opts.Codec = codec.Default
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("journal: create directory: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("journal: open file: %w", err)
	}
	st, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("journal: stat file: %w", err)
	}

	j := &Journal[ID]{
		file:                  file,
		path:                  path,
		codec:                 opts.Codec,
		syncMode:              opts.SyncMode,
		autoCheckpointEntries: opts.AutoCheckpointEntries,
	}

	if st.Size() == 0 {
		hdrLen, err := writeHeader(file, headerInfo{
			Compressed: opts.Compress,
			CodecName:  opts.Codec.Name(),
		})
		if err != nil {
			_ = file.Close()
			return nil, err
		}
		j.dataOffset = hdrLen
	} else {
		hdr, err := readHeader(file)
		if err != nil {
			_ = file.Close()
			return nil, err
		}
		// The file's own codec wins over the option: all entries in one
		// journal share the encoding chosen at creation.
		c, ok := codec.ByName(hdr.CodecName)
		if !ok {
			_ = file.Close()
			return nil, fmt.Errorf("%w: %q", ErrUnknownCodec, hdr.CodecName)
		}
		j.codec = c
		j.dataOffset = hdr.HeaderLen

		if err := j.scan(); err != nil {
			_ = file.Close()
			return nil, err
		}
	}

	if opts.Compress {
		enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("journal: create compressor: %w", err)
		}
		j.enc = enc
	}
	// The decoder always exists: entries compressed under an earlier
	// configuration must stay readable.
	dec, err := zstd.NewReader(nil)
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("journal: create decompressor: %w", err)
	}
	j.dec = dec

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("journal: seek end: %w", err)
	}
	return j, nil
}

// scan walks the existing entry stream to restore the sequence counter
// and entry count, truncating a torn tail in place.
func (j *Journal[ID]) scan() error {
	st, err := j.file.Stat()
	if err != nil {
		return fmt.Errorf("journal: stat file: %w", err)
	}
	streamSize := st.Size() - j.dataOffset

	sr := io.NewSectionReader(j.file, j.dataOffset, streamSize)
	good, err := walkFrames(sr, streamSize, func(fr frame) error {
		if fr.seq > j.seq {
			j.seq = fr.seq
		}
		if fr.kind != KindCheckpoint {
			j.entries++
		}
		return nil
	})
	if err != nil {
		return err
	}

	if good < streamSize {
		if err := j.file.Truncate(j.dataOffset + good); err != nil {
			return fmt.Errorf("journal: truncate torn tail: %w", err)
		}
		if err := j.file.Sync(); err != nil {
			return fmt.Errorf("journal: sync after repair: %w", err)
		}
		j.repaired = streamSize - good
	}
	return nil
}

// Path returns the journal file path.
func (j *Journal[ID]) Path() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.path
}

// LogAddAt logs an insertion of id with it at the given full-sequence
// position.
func (j *Journal[ID]) LogAddAt(pos int, id ID, it item.Item) error {
	return j.log(KindAddAt, body[ID]{Pos: pos, ID: id, Item: it})
}

// LogUpdate logs an item replacement for id.
func (j *Journal[ID]) LogUpdate(id ID, it item.Item) error {
	return j.log(KindUpdate, body[ID]{ID: id, Item: it})
}

// LogRemove logs the removal of id.
func (j *Journal[ID]) LogRemove(id ID) error {
	return j.log(KindRemove, body[ID]{ID: id})
}

// LogClear logs the removal of all items.
func (j *Journal[ID]) LogClear() error {
	return j.log(KindClear, body[ID]{})
}

// LogReorder logs the full identifier permutation after an in-place
// sort.
func (j *Journal[ID]) LogReorder(order []ID) error {
	return j.log(KindReorder, body[ID]{Order: order})
}

func (j *Journal[ID]) log(kind Kind, pl body[ID]) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return ErrClosed
	}

	j.seq++
	frame, err := j.encodeFrame(kind, j.seq, pl)
	if err != nil {
		return err
	}
	if _, err := j.file.Write(frame); err != nil {
		return fmt.Errorf("journal: append %s: %w", kind, err)
	}
	j.entries++
	j.committed++

	if j.syncMode == SyncAlways {
		if err := j.file.Sync(); err != nil {
			return fmt.Errorf("journal: sync: %w", err)
		}
	}
	return nil
}

// SetCheckpointCallback sets the function invoked by MaybeCheckpoint when
// the auto-checkpoint threshold is reached. The callback typically saves
// a snapshot and then calls Checkpoint.
func (j *Journal[ID]) SetCheckpointCallback(fn func() error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.checkpointFunc = fn
}

// MaybeCheckpoint fires the checkpoint callback if the logged operation
// count has crossed the auto-checkpoint threshold. Callers invoke it
// after the logged operation has been applied, never between an append
// and its apply: the callback snapshots current state, and entries whose
// effects are not yet in that state would be truncated unseen.
func (j *Journal[ID]) MaybeCheckpoint() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return ErrClosed
	}
	return j.maybeCheckpointLocked()
}

// maybeCheckpointLocked fires the checkpoint callback once the logged
// operation count crosses the threshold. Must be called with j.mu held.
func (j *Journal[ID]) maybeCheckpointLocked() error {
	if j.autoCheckpointEntries <= 0 || j.committed < j.autoCheckpointEntries || j.checkpointFunc == nil {
		return nil
	}

	// Reset before releasing the lock so concurrent appends do not
	// trigger a second checkpoint while this one runs.
	j.committed = 0
	j.mu.Unlock()
	err := j.checkpointFunc()
	j.mu.Lock()
	return err
}

// Checkpoint records that the current state is captured elsewhere and
// truncates the log. It writes a checkpoint marker, fsyncs, and starts a
// fresh file, so a crash between marker and truncation still replays to
// the checkpointed state.
func (j *Journal[ID]) Checkpoint() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return ErrClosed
	}

	j.seq++
	frame, err := j.encodeFrame(KindCheckpoint, j.seq, body[ID]{})
	if err != nil {
		return err
	}
	if _, err := j.file.Write(frame); err != nil {
		return fmt.Errorf("journal: append checkpoint: %w", err)
	}
	if err := j.file.Sync(); err != nil {
		return fmt.Errorf("journal: sync checkpoint: %w", err)
	}
	return j.truncateLocked()
}

// truncateLocked replaces the file with an empty journal. Must be called
// with j.mu held.
func (j *Journal[ID]) truncateLocked() error {
	if err := j.file.Close(); err != nil {
		return fmt.Errorf("journal: close before truncate: %w", err)
	}

	file, err := os.OpenFile(j.path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("journal: recreate file: %w", err)
	}
	hdrLen, err := writeHeader(file, headerInfo{
		Compressed: j.enc != nil,
		CodecName:  j.codec.Name(),
	})
	if err != nil {
		_ = file.Close()
		return err
	}

	j.file = file
	j.dataOffset = hdrLen
	j.seq = 0
	j.entries = 0
	j.committed = 0
	return nil
}

// Sync flushes appended entries to stable storage regardless of the
// configured sync mode.
func (j *Journal[ID]) Sync() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return ErrClosed
	}
	return j.file.Sync()
}

// Len returns the number of operation entries currently in the file.
func (j *Journal[ID]) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.entries
}

// Seq returns the highest sequence number issued so far.
func (j *Journal[ID]) Seq() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.seq
}

// Stats returns counters describing the journal file.
func (j *Journal[ID]) Stats() Stats {
	j.mu.Lock()
	defer j.mu.Unlock()

	s := Stats{Seq: j.seq, Entries: j.entries, RepairedBytes: j.repaired}
	if j.file != nil {
		if st, err := j.file.Stat(); err == nil {
			s.SizeBytes = st.Size()
		}
	}
	return s
}

// Close flushes and closes the journal. With SyncOnClose it performs a
// final fsync first. Close is idempotent.
func (j *Journal[ID]) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return nil
	}

	var errs []error
	if j.syncMode != SyncNone {
		if err := j.file.Sync(); err != nil {
			errs = append(errs, fmt.Errorf("journal: final sync: %w", err))
		}
	}
	if err := j.file.Close(); err != nil {
		errs = append(errs, err)
	}
	j.file = nil

	if j.enc != nil {
		_ = j.enc.Close()
		j.enc = nil
	}
	if j.dec != nil {
		j.dec.Close()
		j.dec = nil
	}
	return errors.Join(errs...)
}
