package fs

import "fmt"

// superblockHeaderSize is the number of bytes actually occupied by the
// six fixed superblock fields; the remainder of block 0 is sentinel
// filled.
const superblockHeaderSize = 6 * 4

// Superblock is the fixed header stored at block 0 of every GenericFS
// partition.
type Superblock struct {
	Magic              uint32
	BlockSize          uint32
	TotalBlocks        uint32
	InodeFreemapBlocks uint32
	BlockFreemapBlocks uint32
	InodeTableBlocks   uint32
}

// computeGeometry derives the freemap and inode-table sizes, in blocks,
// for a partition of blockCount blocks. Inodes equal blocks by
// construction, so both freemaps come out the same size.
func computeGeometry(blockCount uint32) (freemapBlocks, inodeTableBlocks uint32) {
	inodeCount := blockCount
	freemapBytes := ceilDiv(blockCount, 8)
	freemapBlocks = ceilDiv(freemapBytes, BlockSize)

	inodeTableBytes := inodeCount * InodeSize
	inodeTableBlocks = ceilDiv(inodeTableBytes, BlockSize)
	return
}

func ceilDiv(n, d uint32) uint32 {
	return (n + d - 1) / d
}

// ReadSuperblock reads and validates block 0. It fails with
// ErrNotGenericFS if the magic number does not match, or
// ErrInconsistentGeometry if the declared block size or total block count
// contradicts the device's own geometry probe.
func ReadSuperblock(dev BlockDevice) (Superblock, error) {
	var buf [BlockSize]byte
	if err := dev.ReadBlock(0, buf[:]); err != nil {
		return Superblock{}, err
	}

	sb := Superblock{
		Magic:              getUint32(buf[:], 0),
		BlockSize:          getUint32(buf[:], 4),
		TotalBlocks:        getUint32(buf[:], 8),
		InodeFreemapBlocks: getUint32(buf[:], 12),
		BlockFreemapBlocks: getUint32(buf[:], 16),
		InodeTableBlocks:   getUint32(buf[:], 20),
	}

	if sb.Magic != Magic {
		return Superblock{}, fmt.Errorf("%w: got %#x", ErrNotGenericFS, sb.Magic)
	}

	probe, err := dev.BlockCount()
	if err != nil {
		return Superblock{}, err
	}
	if sb.BlockSize != BlockSize {
		return Superblock{}, fmt.Errorf("%w: block size %d != %d", ErrInconsistentGeometry, sb.BlockSize, BlockSize)
	}
	if sb.TotalBlocks != probe {
		return Superblock{}, fmt.Errorf("%w: total_blocks %d != partition size %d blocks", ErrInconsistentGeometry, sb.TotalBlocks, probe)
	}

	return sb, nil
}

// WriteSuperblock fills block 0 with the sentinel byte, overlays the six
// header fields, and writes it back.
func WriteSuperblock(dev BlockDevice, sb Superblock) error {
	var buf [BlockSize]byte
	for i := range buf {
		buf[i] = SentinelByte
	}

	putUint32(buf[:], 0, sb.Magic)
	putUint32(buf[:], 4, sb.BlockSize)
	putUint32(buf[:], 8, sb.TotalBlocks)
	putUint32(buf[:], 12, sb.InodeFreemapBlocks)
	putUint32(buf[:], 16, sb.BlockFreemapBlocks)
	putUint32(buf[:], 20, sb.InodeTableBlocks)

	return dev.WriteBlock(0, buf[:])
}

// layout bundles the block ranges derived from a superblock, used by
// every other component to find its region of the partition.
type layout struct {
	inodeFreemapStart uint32
	inodeFreemapEnd   uint32
	blockFreemapStart uint32
	blockFreemapEnd   uint32
	inodeTableStart   uint32
	inodeTableEnd     uint32
	dataStart         uint32
	preallocatedCount uint32
}

func newLayout(sb Superblock) layout {
	f := sb.InodeFreemapBlocks
	inodeFreemapStart := uint32(1)
	inodeFreemapEnd := inodeFreemapStart + f
	blockFreemapStart := inodeFreemapEnd
	blockFreemapEnd := blockFreemapStart + sb.BlockFreemapBlocks
	inodeTableStart := blockFreemapEnd
	inodeTableEnd := inodeTableStart + sb.InodeTableBlocks
	dataStart := inodeTableEnd

	return layout{
		inodeFreemapStart: inodeFreemapStart,
		inodeFreemapEnd:   inodeFreemapEnd,
		blockFreemapStart: blockFreemapStart,
		blockFreemapEnd:   blockFreemapEnd,
		inodeTableStart:   inodeTableStart,
		inodeTableEnd:     inodeTableEnd,
		dataStart:         dataStart,
		// P = 1 + 2F + T + 1 (superblock, both freemaps, inode table, root data block)
		preallocatedCount: 1 + 2*f + sb.InodeTableBlocks + 1,
	}
}
