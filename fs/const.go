// Package fs implements the on-disk engine for GenericFS: a small
// Unix-like file system with a superblock, two bitmap free-maps, a flat
// inode table, direct/indirect block addressing, and directories stored
// as singly-linked chains of variable-length records.
package fs

const (
	// BlockSize is the fixed size in bytes of every block on a GenericFS
	// partition, including the superblock, freemap blocks, and inode-table
	// blocks.
	BlockSize = 4096

	// BlockSizeBits is log2(BlockSize), used when a shift is clearer than a
	// division.
	BlockSizeBits = 12

	// InodeSize is the size in bytes of one on-disk inode record.
	InodeSize = 64

	// InodesPerBlock is the number of inode records packed into one block.
	InodesPerBlock = BlockSize / InodeSize

	// Magic identifies a block 0 as a valid GenericFS superblock.
	Magic uint32 = 0xDEADBEEF

	// SentinelByte fills newly initialized regions of the partition.
	SentinelByte = 0x55

	// NDirect is the number of direct block pointers in an inode.
	NDirect = 4

	// PointersPerBlock is the number of 32-bit block numbers that fit in one
	// indirect block (BlockSize / 4).
	PointersPerBlock = BlockSize / 4

	// RootInode is the inode number of the file-system root; it is always
	// allocated.
	RootInode = 0

	// firstIndirectCapacity is the number of file-relative block indices
	// addressable through the first-indirect block alone.
	firstIndirectCapacity = PointersPerBlock

	// secondIndirectCapacity is the number of file-relative block indices
	// addressable through the second-indirect block.
	secondIndirectCapacity = PointersPerBlock * PointersPerBlock
)
