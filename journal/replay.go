package journal

import (
	"fmt"
	"io"
)

// Replay hands every committed operation to callback in log order.
// Entries before the last checkpoint marker are skipped: their effect is
// already captured by the snapshot taken at that checkpoint. A torn tail
// ends replay silently, mid-log corruption returns ErrCorrupt.
//
// The callback must not call back into the journal.
func (j *Journal[ID]) Replay(callback func(e Entry[ID]) error) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.file == nil {
		return ErrClosed
	}

	st, err := j.file.Stat()
	if err != nil {
		return fmt.Errorf("journal: stat file: %w", err)
	}
	streamSize := st.Size() - j.dataOffset
	sr := io.NewSectionReader(j.file, j.dataOffset, streamSize)

	var pending []Entry[ID]
	_, err = walkFrames(sr, streamSize, func(fr frame) error {
		e, err := j.decodeEntry(fr)
		if err != nil {
			return err
		}
		if e.Kind == KindCheckpoint {
			pending = pending[:0]
			return nil
		}
		pending = append(pending, e)
		return nil
	})
	if err != nil {
		return err
	}

	for _, e := range pending {
		if err := callback(e); err != nil {
			return fmt.Errorf("journal: replay entry %d: %w", e.Seq, err)
		}
	}
	return nil
}
