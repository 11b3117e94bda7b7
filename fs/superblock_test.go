package fs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeGeometry256Blocks(t *testing.T) {
	freemapBlocks, inodeTableBlocks := computeGeometry(256)
	assert.Equal(t, uint32(1), freemapBlocks, "freemap should fit in one block for 256 blocks")
	assert.Equal(t, uint32(4), inodeTableBlocks, "256 inodes * 64 bytes = 16384 bytes = 4 blocks")
}

func TestInitializeThenReadSuperblockRoundTrips(t *testing.T) {
	dev := newMemDevice(256)
	require.NoError(t, Initialize(dev, 256))

	sb, err := ReadSuperblock(dev)
	require.NoError(t, err)
	assert.Equal(t, Magic, sb.Magic)
	assert.EqualValues(t, BlockSize, sb.BlockSize)
	assert.EqualValues(t, 256, sb.TotalBlocks)
	assert.EqualValues(t, 1, sb.InodeFreemapBlocks)
	assert.EqualValues(t, 1, sb.BlockFreemapBlocks)
	assert.EqualValues(t, 4, sb.InodeTableBlocks)
}

func TestReadSuperblockRejectsBadMagic(t *testing.T) {
	dev := newMemDevice(256)
	require.NoError(t, Initialize(dev, 256))

	var block0 [BlockSize]byte
	require.NoError(t, dev.ReadBlock(0, block0[:]))
	block0[0] = 0x00
	require.NoError(t, dev.WriteBlock(0, block0[:]))

	_, err := ReadSuperblock(dev)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotGenericFS))
}

func TestReadSuperblockRejectsGeometryMismatch(t *testing.T) {
	dev := newMemDevice(256)
	require.NoError(t, Initialize(dev, 256))

	sb, err := ReadSuperblock(dev)
	require.NoError(t, err)
	sb.TotalBlocks = 999
	require.NoError(t, WriteSuperblock(dev, sb))

	_, err = ReadSuperblock(dev)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInconsistentGeometry))
}
