// Package crc computes the CRC-32 (IEEE) checksum netc uses to protect
// dictionary blobs, and combines two independently computed checksums the
// way a streaming dictionary writer needs to when it serializes the fixed
// tables section and the optional LZP section separately.
package crc

import (
	"hash/crc32"

	"github.com/dsnet/golib/hashutil"
)

// Checksum returns the IEEE CRC-32 of buf.
func Checksum(buf []byte) uint32 {
	return crc32.ChecksumIEEE(buf)
}

// Combine returns the CRC-32 of the concatenation of two byte sequences,
// given their individually computed checksums and the length of the second
// sequence, without re-reading either sequence.
func Combine(crc1, crc2 uint32, len2 int64) uint32 {
	return hashutil.CombineCRC32(crc32.IEEE, crc1, crc2, len2)
}
