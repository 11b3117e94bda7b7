package fs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeFreshPartitionVerifiesClean(t *testing.T) {
	dev := newMemDevice(256)
	require.NoError(t, Initialize(dev, 256))

	findings, err := Verify(dev)
	require.NoError(t, err)
	assert.Empty(t, findings, "a freshly formatted partition must report zero findings")
}

func TestInitializeRootInodeHasTwoLinks(t *testing.T) {
	dev, sb := testSuperblock(t, 256)
	root, err := ReadInode(dev, sb, RootInode)
	require.NoError(t, err)
	assert.EqualValues(t, 2, root.NLinks)
	assert.True(t, root.IsDir())
}

func TestInitializeRootDataBlockIsMarkedAllocated(t *testing.T) {
	dev, sb := testSuperblock(t, 256)
	e := newEngineFromSuperblock(dev, sb)
	root, err := ReadInode(dev, sb, RootInode)
	require.NoError(t, err)

	set, err := e.BlockFreemap().Test(root.Direct[0])
	require.NoError(t, err)
	assert.True(t, set)
}

func TestInitializeRejectsWhenPreallocatedCountExceedsOneFreemapBlock(t *testing.T) {
	// Initialize checks preallocatedCount against the geometry it derives
	// from totalBlocks before it ever touches the device, so a huge
	// totalBlocks value can be paired with a tiny backing device to exercise
	// the rejection path without allocating a correspondingly huge buffer.
	dev := newMemDevice(8)
	err := Initialize(dev, 3_000_000)
	require.ErrorIs(t, err, ErrPartitionTooSmall)
}

func TestInitializeSmallPartitionSucceeds(t *testing.T) {
	dev := newMemDevice(8)
	require.NoError(t, Initialize(dev, 8))
}

func TestInitializeIsIdempotentOnFreshDevice(t *testing.T) {
	dev := newMemDevice(256)
	require.NoError(t, Initialize(dev, 256))
	require.NoError(t, Initialize(dev, 256))

	findings, err := Verify(dev)
	require.NoError(t, err)
	assert.Empty(t, findings)
}
