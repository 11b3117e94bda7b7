package fs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSuperblock(t *testing.T, totalBlocks uint32) (BlockDevice, Superblock) {
	t.Helper()
	dev := newMemDevice(totalBlocks)
	require.NoError(t, Initialize(dev, totalBlocks))
	sb, err := ReadSuperblock(dev)
	require.NoError(t, err)
	return dev, sb
}

func TestWriteReadInodeRoundTrips(t *testing.T) {
	dev, sb := testSuperblock(t, 256)

	rec := Inode{
		NLinks: 3,
		UID:    42,
		GID:    7,
		Mode:   ModeRegular | 0644,
		Size:   12345,
		ATime:  1000,
		MTime:  2000,
		CTime:  3000,
	}
	rec.Direct[0] = 10
	rec.Direct[1] = 11
	rec.FirstIndirect = 20

	require.NoError(t, WriteInode(dev, sb, 5, rec))

	got, err := ReadInode(dev, sb, 5)
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestWriteInodePreservesSiblingsInSameBlock(t *testing.T) {
	dev, sb := testSuperblock(t, 256)

	a := Inode{NLinks: 1, Size: 111}
	b := Inode{NLinks: 2, Size: 222}

	require.NoError(t, WriteInode(dev, sb, 2, a))
	require.NoError(t, WriteInode(dev, sb, 3, b))

	gotA, err := ReadInode(dev, sb, 2)
	require.NoError(t, err)
	gotB, err := ReadInode(dev, sb, 3)
	require.NoError(t, err)

	assert.Equal(t, a, gotA)
	assert.Equal(t, b, gotB)
}

func TestInodeLocationMatchesSixtyFourPerBlock(t *testing.T) {
	sb := Superblock{InodeFreemapBlocks: 1, BlockFreemapBlocks: 1, InodeTableBlocks: 4}
	l := newLayout(sb)

	block, offset := inodeLocation(l, 0)
	assert.EqualValues(t, l.inodeTableStart, block)
	assert.Equal(t, 0, offset)

	block, offset = inodeLocation(l, 64)
	assert.EqualValues(t, l.inodeTableStart+1, block)
	assert.Equal(t, 0, offset)

	block, offset = inodeLocation(l, 65)
	assert.EqualValues(t, l.inodeTableStart+1, block)
	assert.Equal(t, 64, offset)
}
