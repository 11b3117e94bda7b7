package fs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findingKinds(findings []Finding) []FindingKind {
	kinds := make([]FindingKind, len(findings))
	for i, f := range findings {
		kinds[i] = f.Kind
	}
	return kinds
}

func TestVerifyDetectsMultipleUse(t *testing.T) {
	dev, sb := testSuperblock(t, 256)
	e := newEngineFromSuperblock(dev, sb)

	a, err := e.CreateFile(RootInode, "a", []byte("x"), ModePerm)
	require.NoError(t, err)
	inodeA, err := ReadInode(dev, sb, a)
	require.NoError(t, err)

	// Force a second inode's direct pointer to alias inode a's only block.
	b, err := e.AllocateInode()
	require.NoError(t, err)
	inodeB := Inode{NLinks: 1, Mode: ModeRegular | ModePerm, Size: BlockSize}
	inodeB.Direct[0] = inodeA.Direct[0]
	require.NoError(t, WriteInode(dev, sb, b, inodeB))
	require.NoError(t, e.AppendDirEntry(RootInode, "b", b))

	findings, err := Verify(dev)
	require.NoError(t, err)
	assert.Contains(t, findingKinds(findings), MultipleUse)
}

func TestVerifyDetectsUnallocatedInUse(t *testing.T) {
	dev, sb := testSuperblock(t, 256)
	e := newEngineFromSuperblock(dev, sb)

	_, err := e.CreateFile(RootInode, "hello", []byte("hi"), ModePerm)
	require.NoError(t, err)

	root, err := ReadInode(dev, sb, RootInode)
	require.NoError(t, err)
	entries, err := ReadDirectory(dev, root)
	require.NoError(t, err)
	var ino uint32
	for _, ent := range entries {
		if ent.Name == "hello" {
			ino = ent.Inode
		}
	}
	inode, err := ReadInode(dev, sb, ino)
	require.NoError(t, err)

	require.NoError(t, e.FreeBlock(inode.Direct[0]))

	findings, err := Verify(dev)
	require.NoError(t, err)
	assert.Contains(t, findingKinds(findings), UnallocatedInUse)
}

func TestVerifyDetectsAllocatedButUnused(t *testing.T) {
	dev, sb := testSuperblock(t, 256)
	e := newEngineFromSuperblock(dev, sb)

	orphan, err := e.AllocateBlock()
	require.NoError(t, err)
	_ = orphan

	findings, err := Verify(dev)
	require.NoError(t, err)
	assert.Contains(t, findingKinds(findings), AllocatedButUnused)
}

func TestVerifyDetectsLinkCountWrong(t *testing.T) {
	dev, sb := testSuperblock(t, 256)
	e := newEngineFromSuperblock(dev, sb)

	ino, err := e.CreateFile(RootInode, "f", []byte("x"), ModePerm)
	require.NoError(t, err)
	inode, err := ReadInode(dev, sb, ino)
	require.NoError(t, err)
	inode.NLinks = 9
	require.NoError(t, WriteInode(dev, sb, ino, inode))

	findings, err := Verify(dev)
	require.NoError(t, err)
	assert.Contains(t, findingKinds(findings), LinkCountWrong)
}

func TestVerifyDetectsDanglingReference(t *testing.T) {
	dev, sb := testSuperblock(t, 256)
	e := newEngineFromSuperblock(dev, sb)

	ino, err := e.CreateFile(RootInode, "f", []byte("x"), ModePerm)
	require.NoError(t, err)

	// Clear the inode's freemap bit directly without unlinking it, leaving
	// a directory entry that points at a now-unallocated inode.
	require.NoError(t, clearBit(dev, e.inodeFreemap, ino))

	findings, err := Verify(dev)
	require.NoError(t, err)
	assert.Contains(t, findingKinds(findings), DanglingReference)
}

func TestVerifyReportsOutOfRangePointerInsteadOfPanicking(t *testing.T) {
	dev, sb := testSuperblock(t, 256)
	e := newEngineFromSuperblock(dev, sb)

	ino, err := e.CreateFile(RootInode, "f", []byte("x"), ModePerm)
	require.NoError(t, err)
	inode, err := ReadInode(dev, sb, ino)
	require.NoError(t, err)
	inode.Direct[1] = sb.TotalBlocks + 1000
	require.NoError(t, WriteInode(dev, sb, ino, inode))

	var findings []Finding
	require.NotPanics(t, func() {
		findings, err = Verify(dev)
	})
	require.NoError(t, err)
	assert.Contains(t, findingKinds(findings), OutOfRangePointer)
}

func TestVerifyBadMagicSurfacesAsError(t *testing.T) {
	dev := newMemDevice(256)
	require.NoError(t, Initialize(dev, 256))

	var block0 [BlockSize]byte
	require.NoError(t, dev.ReadBlock(0, block0[:]))
	block0[0] = 0
	require.NoError(t, dev.WriteBlock(0, block0[:]))

	_, err := Verify(dev)
	require.ErrorIs(t, err, ErrNotGenericFS)
}
