// Package hash provides the checksum primitives used by the snapshot and
// journal formats.
package hash

import (
	"hash"
	"hash/crc32"
)

// Castagnoli table, computed once. The polynomial matters: CRC32-C has
// hardware support on amd64 and arm64, and both on-disk formats store
// CRC32-C values.
var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32C computes the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}

// NewCRC32C returns a streaming CRC32-Castagnoli hash.Hash32.
func NewCRC32C() hash.Hash32 {
	return crc32.New(crc32cTable)
}
