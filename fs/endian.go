package fs

import "encoding/binary"

// onDiskOrder is the byte order GenericFS uses for every multi-byte
// integer written to the partition. All on-disk structures are
// little-endian regardless of host architecture.
var onDiskOrder = binary.LittleEndian

// toDisk converts a 32-bit host value to its on-disk little-endian
// representation. Every value written into a superblock, inode, freemap,
// indirect block, or directory entry must pass through toDisk first.
func toDisk(v uint32) uint32 {
	return v
}

// toHost converts a 32-bit on-disk little-endian value to host form.
// Every value read out of a superblock, inode, freemap, indirect block,
// or directory entry must pass through toHost before interpretation.
//
// This is the identity function on every host: getUint32 and putUint32
// already fix the byte order through onDiskOrder, which does not depend
// on the host CPU. It exists as an explicit boundary, rather than being
// folded into the read path, so every on-disk integer passes through one
// named conversion point.
func toHost(v uint32) uint32 {
	return v
}

func getUint32(buf []byte, off int) uint32 {
	return toHost(onDiskOrder.Uint32(buf[off : off+4]))
}

func putUint32(buf []byte, off int, v uint32) {
	onDiskOrder.PutUint32(buf[off:off+4], toDisk(v))
}
