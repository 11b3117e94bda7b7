package fs

import "fmt"

// Resolve returns the partition-relative block number for file-relative
// block index i within inode n, walking first- and second-level indirect
// blocks as needed. A zero pointer encountered along the way is
// ErrNotAllocated; an index beyond doubly-indirect capacity is
// ErrFileTooLarge. File size is never consulted — the zero sentinel is
// authoritative.
func Resolve(dev BlockDevice, n Inode, i uint32) (uint32, error) {
	switch {
	case i < NDirect:
		b := n.Direct[i]
		if b == 0 {
			return 0, fmt.Errorf("%w: direct[%d]", ErrNotAllocated, i)
		}
		return b, nil

	case i < NDirect+firstIndirectCapacity:
		if n.FirstIndirect == 0 {
			return 0, fmt.Errorf("%w: first_indirect unset", ErrNotAllocated)
		}
		return readIndirectEntry(dev, n.FirstIndirect, i-NDirect)

	case i < NDirect+firstIndirectCapacity+secondIndirectCapacity:
		if n.SecondIndirect == 0 {
			return 0, fmt.Errorf("%w: second_indirect unset", ErrNotAllocated)
		}
		rel := i - NDirect - firstIndirectCapacity
		firstBlockIdx := rel / PointersPerBlock
		within := rel % PointersPerBlock

		firstBlock, err := readIndirectEntry(dev, n.SecondIndirect, firstBlockIdx)
		if err != nil {
			return 0, err
		}
		return readIndirectEntry(dev, firstBlock, within)

	default:
		return 0, fmt.Errorf("%w: block index %d", ErrFileTooLarge, i)
	}
}

// readIndirectEntry reads indirect block blockNum and returns entry idx,
// stopping at (and rejecting reads past) the first zero encountered
// while scanning from entry 0 — zero terminates the chain, so asking for
// an index at or beyond the first zero is ErrNotAllocated.
func readIndirectEntry(dev BlockDevice, blockNum uint32, idx uint32) (uint32, error) {
	if idx >= PointersPerBlock {
		return 0, fmt.Errorf("%w: indirect index %d out of range", ErrFileTooLarge, idx)
	}
	var buf [BlockSize]byte
	if err := dev.ReadBlock(blockNum, buf[:]); err != nil {
		return 0, err
	}
	for j := uint32(0); j <= idx; j++ {
		v := getUint32(buf[:], int(j*4))
		if v == 0 {
			return 0, fmt.Errorf("%w: indirect entry %d", ErrNotAllocated, idx)
		}
		if j == idx {
			return v, nil
		}
	}
	panic("unreachable")
}

// writeIndirectEntry reads indirect block blockNum, overwrites entry idx
// with value, and writes the block back. Used while allocating blocks
// for a growing file.
func writeIndirectEntry(dev BlockDevice, blockNum uint32, idx uint32, value uint32) error {
	var buf [BlockSize]byte
	if err := dev.ReadBlock(blockNum, buf[:]); err != nil {
		return err
	}
	putUint32(buf[:], int(idx*4), value)
	return dev.WriteBlock(blockNum, buf[:])
}

// MaterializeFile reads every block of n's file in order into a single
// buffer sized to ceil(size/BlockSize)*BlockSize bytes.
func MaterializeFile(dev BlockDevice, n Inode) ([]byte, error) {
	nblocks := ceilDiv(n.Size, BlockSize)
	if n.Size == 0 {
		nblocks = 0
	}
	out := make([]byte, nblocks*BlockSize)
	for i := uint32(0); i < nblocks; i++ {
		blockNum, err := Resolve(dev, n, i)
		if err != nil {
			return nil, err
		}
		if err := dev.ReadBlock(blockNum, out[i*BlockSize:(i+1)*BlockSize]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
