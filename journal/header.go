package journal

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

var (
	journalMagic     = [4]byte{'D', 'V', 'J', '1'}
	headerVersion    = uint16(1)
	headerFixedLen   = 16
	headerCodecBytes = 8
)

const headerFlagCompressed = 1

type headerInfo struct {
	Compressed bool
	CodecName  string
	HeaderLen  int64
}

func writeHeader(w io.Writer, info headerInfo) (int64, error) {
	if len(info.CodecName) > headerCodecBytes {
		return 0, fmt.Errorf("journal: codec name %q exceeds %d bytes", info.CodecName, headerCodecBytes)
	}

	var flags uint16
	if info.Compressed {
		flags |= headerFlagCompressed
	}

	buf := make([]byte, headerFixedLen)
	copy(buf[0:4], journalMagic[:])
	binary.LittleEndian.PutUint16(buf[4:6], headerVersion)
	binary.LittleEndian.PutUint16(buf[6:8], flags)
	copy(buf[8:8+headerCodecBytes], info.CodecName)

	if _, err := w.Write(buf); err != nil {
		return 0, fmt.Errorf("journal: write header: %w", err)
	}
	return int64(len(buf)), nil
}

func readHeader(f *os.File) (headerInfo, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return headerInfo{}, fmt.Errorf("journal: seek header: %w", err)
	}

	buf := make([]byte, headerFixedLen)
	if _, err := io.ReadFull(f, buf); err != nil {
		return headerInfo{}, fmt.Errorf("journal: read header: %w", err)
	}
	if !bytes.Equal(buf[0:4], journalMagic[:]) {
		return headerInfo{}, ErrInvalidMagic
	}
	if v := binary.LittleEndian.Uint16(buf[4:6]); v != headerVersion {
		return headerInfo{}, fmt.Errorf("%w: got %d", ErrInvalidVersion, v)
	}
	flags := binary.LittleEndian.Uint16(buf[6:8])
	name := string(bytes.TrimRight(buf[8:8+headerCodecBytes], "\x00"))

	return headerInfo{
		Compressed: flags&headerFlagCompressed != 0,
		CodecName:  name,
		HeaderLen:  int64(headerFixedLen),
	}, nil
}
