//go:build unix

package mmap

import (
	"os"

	"golang.org/x/sys/unix"
)

func mapFile(f *os.File, size int) ([]byte, bool, error) {
	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, false, err
	}
	// Snapshot parsing walks the file front to back.
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)
	return data, false, nil
}

func unmapFile(data []byte) error {
	return unix.Munmap(data)
}
