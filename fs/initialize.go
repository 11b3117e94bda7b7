package fs

import "time"

// nowFunc returns the current time in seconds for inode timestamps. It is
// a variable so it can be replaced; no test in this package replaces it.
var nowFunc = func() uint32 { return uint32(time.Now().Unix()) }

// Initialize formats a freshly opened partition of totalBlocks blocks:
// clear every block, write both freemaps, write the root inode, write the
// root directory's first block, and write the superblock last. Writing
// the superblock last means the partition only becomes a valid GenericFS
// partition as its terminal state, even though there is no journal to
// roll back an interrupted run.
func Initialize(dev BlockDevice, totalBlocks uint32) error {
	freemapBlocks, inodeTableBlocks := computeGeometry(totalBlocks)

	sb := Superblock{
		Magic:              Magic,
		BlockSize:          BlockSize,
		TotalBlocks:        totalBlocks,
		InodeFreemapBlocks: freemapBlocks,
		BlockFreemapBlocks: freemapBlocks,
		InodeTableBlocks:   inodeTableBlocks,
	}
	l := newLayout(sb)

	if l.preallocatedCount > BlockSize*8 {
		return ErrPartitionTooSmall
	}

	if err := clearPartition(dev, totalBlocks); err != nil {
		return err
	}

	inodeFreemap := freemapRange{start: l.inodeFreemapStart, end: l.inodeFreemapEnd}
	blockFreemap := freemapRange{start: l.blockFreemapStart, end: l.blockFreemapEnd}
	if err := writeInitialFreemaps(dev, inodeFreemap, blockFreemap, l.preallocatedCount); err != nil {
		return err
	}

	rootDataBlock := l.dataStart
	now := nowFunc()
	root := Inode{
		NLinks: 2,
		UID:    0,
		GID:    0,
		Mode:   ModeDir | ModePerm,
		Size:   BlockSize,
		ATime:  now,
		MTime:  now,
		CTime:  now,
	}
	root.Direct[0] = rootDataBlock
	if err := WriteInode(dev, sb, RootInode, root); err != nil {
		return err
	}

	var rootBlock [BlockSize]byte
	writeRootDirectoryBlock(rootBlock[:], RootInode, RootInode)
	if err := dev.WriteBlock(rootDataBlock, rootBlock[:]); err != nil {
		return err
	}

	return WriteSuperblock(dev, sb)
}

func clearPartition(dev BlockDevice, totalBlocks uint32) error {
	var buf [BlockSize]byte
	for i := range buf {
		buf[i] = SentinelByte
	}
	for b := uint32(0); b < totalBlocks; b++ {
		if err := dev.WriteBlock(b, buf[:]); err != nil {
			return err
		}
	}
	return nil
}

// writeInitialFreemaps sets inode 0's bit in the inode freemap and the
// first preallocatedCount bits in the block freemap (superblock, both
// freemaps, inode table, root directory data block), clearing everything
// else in both freemaps' blocks.
func writeInitialFreemaps(dev BlockDevice, inodeFreemap, blockFreemap freemapRange, preallocatedCount uint32) error {
	var empty [BlockSize]byte
	for b := inodeFreemap.start; b < inodeFreemap.end; b++ {
		if err := dev.WriteBlock(b, empty[:]); err != nil {
			return err
		}
	}
	for b := blockFreemap.start; b < blockFreemap.end; b++ {
		if err := dev.WriteBlock(b, empty[:]); err != nil {
			return err
		}
	}

	// Inode 0 (root) is allocated: bit 0 of byte 0, block 0 of the range.
	var inodeBlock0 [BlockSize]byte
	inodeBlock0[0] = 1 << 0

	if err := dev.WriteBlock(inodeFreemap.start, inodeBlock0[:]); err != nil {
		return err
	}

	var blockBlock0 [BlockSize]byte
	for i := uint32(0); i < preallocatedCount; i++ {
		byteIdx := i / 8
		bit := i % 8
		blockBlock0[byteIdx] |= 1 << bit
	}
	return dev.WriteBlock(blockFreemap.start, blockBlock0[:])
}
