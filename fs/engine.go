package fs

import (
	"fmt"
	"strings"
)

// Engine bundles a BlockDevice with its cached superblock and layout and
// exposes every GenericFS operation as a method, keeping the partition
// handle, superblock, and both freemap ranges resident across calls
// instead of re-deriving them each time.
type Engine struct {
	Dev BlockDevice
	SB  Superblock

	lay          layout
	inodeFreemap freemapRange
	blockFreemap freemapRange
}

// NewEngine reads and validates the superblock of dev and returns an
// Engine ready to serve requests.
func NewEngine(dev BlockDevice) (*Engine, error) {
	sb, err := ReadSuperblock(dev)
	if err != nil {
		return nil, err
	}
	return newEngineFromSuperblock(dev, sb), nil
}

func newEngineFromSuperblock(dev BlockDevice, sb Superblock) *Engine {
	l := newLayout(sb)
	return &Engine{
		Dev: dev,
		SB:  sb,
		lay: l,
		inodeFreemap: freemapRange{start: l.inodeFreemapStart, end: l.inodeFreemapEnd},
		blockFreemap: freemapRange{start: l.blockFreemapStart, end: l.blockFreemapEnd},
	}
}

// InodeFreemap returns a read-only view of the inode freemap.
func (e *Engine) InodeFreemap() *Freemap {
	return newFreemap(e.Dev, e.inodeFreemap, e.SB.TotalBlocks)
}

// BlockFreemap returns a read-only view of the block freemap.
func (e *Engine) BlockFreemap() *Freemap {
	return newFreemap(e.Dev, e.blockFreemap, e.SB.TotalBlocks)
}

// AllocateInode scans the inode freemap for a free bit, marks it
// allocated, zero-initializes the inode record at the computed offset,
// and returns the new inode number.
func (e *Engine) AllocateInode() (uint32, error) {
	n, err := allocate(e.Dev, e.inodeFreemap)
	if err != nil {
		return 0, err
	}
	if err := WriteInode(e.Dev, e.SB, n, Inode{}); err != nil {
		return 0, err
	}
	return n, nil
}

// FreeInode clears n's bit in the inode freemap and zeroes its record.
func (e *Engine) FreeInode(n uint32) error {
	if err := clearBit(e.Dev, e.inodeFreemap, n); err != nil {
		return err
	}
	return WriteInode(e.Dev, e.SB, n, Inode{})
}

// AllocateBlock scans the block freemap for a free bit and marks it
// allocated, returning the new block's absolute block number. The block
// contents are left untouched; callers that need a clean block should use
// allocateZeroedBlock.
func (e *Engine) AllocateBlock() (uint32, error) {
	return allocate(e.Dev, e.blockFreemap)
}

// FreeBlock clears n's bit in the block freemap.
func (e *Engine) FreeBlock(n uint32) error {
	return clearBit(e.Dev, e.blockFreemap, n)
}

func (e *Engine) allocateZeroedBlock() (uint32, error) {
	n, err := e.AllocateBlock()
	if err != nil {
		return 0, err
	}
	var zero [BlockSize]byte
	if err := e.Dev.WriteBlock(n, zero[:]); err != nil {
		return 0, err
	}
	return n, nil
}

// setBlockPointer wires file-relative block index i of n to blockNum,
// allocating first- or second-indirect blocks lazily as i crosses their
// thresholds. It does not write n back to the inode table; callers must
// persist n themselves once done.
func (e *Engine) setBlockPointer(n *Inode, i uint32, blockNum uint32) error {
	switch {
	case i < NDirect:
		n.Direct[i] = blockNum
		return nil

	case i < NDirect+firstIndirectCapacity:
		if n.FirstIndirect == 0 {
			blk, err := e.allocateZeroedBlock()
			if err != nil {
				return err
			}
			n.FirstIndirect = blk
		}
		return writeIndirectEntry(e.Dev, n.FirstIndirect, i-NDirect, blockNum)

	case i < NDirect+firstIndirectCapacity+secondIndirectCapacity:
		if n.SecondIndirect == 0 {
			blk, err := e.allocateZeroedBlock()
			if err != nil {
				return err
			}
			n.SecondIndirect = blk
		}
		rel := i - NDirect - firstIndirectCapacity
		firstIdx := rel / PointersPerBlock
		within := rel % PointersPerBlock

		firstBlock, err := peekIndirectEntry(e.Dev, n.SecondIndirect, firstIdx)
		if err != nil {
			return err
		}
		if firstBlock == 0 {
			blk, err := e.allocateZeroedBlock()
			if err != nil {
				return err
			}
			firstBlock = blk
			if err := writeIndirectEntry(e.Dev, n.SecondIndirect, firstIdx, firstBlock); err != nil {
				return err
			}
		}
		return writeIndirectEntry(e.Dev, firstBlock, within, blockNum)

	default:
		return ErrFileTooLarge
	}
}

// peekIndirectEntry reads entry idx of an indirect block without the
// zero-terminates-the-chain check Resolve applies; used while allocating,
// where a zero genuinely means "not yet allocated" rather than "end of
// chain".
func peekIndirectEntry(dev BlockDevice, blockNum uint32, idx uint32) (uint32, error) {
	if idx >= PointersPerBlock {
		return 0, fmt.Errorf("%w: indirect index %d out of range", ErrFileTooLarge, idx)
	}
	var buf [BlockSize]byte
	if err := dev.ReadBlock(blockNum, buf[:]); err != nil {
		return 0, err
	}
	return getUint32(buf[:], int(idx*4)), nil
}

// ReadFileData materializes n's file and trims the result to exactly
// n.Size bytes (MaterializeFile rounds up to a block boundary).
func ReadFileData(dev BlockDevice, n Inode) ([]byte, error) {
	data, err := MaterializeFile(dev, n)
	if err != nil {
		return nil, err
	}
	if uint32(len(data)) < n.Size {
		return data, nil
	}
	return data[:n.Size], nil
}

// WriteFileData allocates fresh data blocks for a brand-new inode and
// writes data into them, wiring direct/indirect pointers as needed. It is
// only valid for a newly allocated (all-zero) inode; growing an existing
// file in place is not implemented.
func (e *Engine) WriteFileData(n *Inode, data []byte) error {
	nblocks := ceilDiv(uint32(len(data)), BlockSize)
	for i := uint32(0); i < nblocks; i++ {
		blockNum, err := e.AllocateBlock()
		if err != nil {
			return err
		}
		var buf [BlockSize]byte
		start := i * BlockSize
		end := start + BlockSize
		if end > uint32(len(data)) {
			end = uint32(len(data))
		}
		copy(buf[:], data[start:end])
		if err := e.Dev.WriteBlock(blockNum, buf[:]); err != nil {
			return err
		}
		if err := e.setBlockPointer(n, i, blockNum); err != nil {
			return err
		}
	}
	n.Size = uint32(len(data))
	return nil
}

// CreateFile allocates an inode, writes data into freshly allocated
// blocks, and links it into dirInodeNum under name.
func (e *Engine) CreateFile(dirInodeNum uint32, name string, data []byte, mode uint32) (uint32, error) {
	ino, err := e.AllocateInode()
	if err != nil {
		return 0, err
	}
	n := Inode{NLinks: 1, Mode: mode | ModeRegular}
	if err := e.WriteFileData(&n, data); err != nil {
		return 0, err
	}
	if err := WriteInode(e.Dev, e.SB, ino, n); err != nil {
		return 0, err
	}
	if err := e.AppendDirEntry(dirInodeNum, name, ino); err != nil {
		return 0, err
	}
	return ino, nil
}

// CreateDirectory allocates a new directory inode, formats its first data
// block with "." and "..", and links it into parentInodeNum under name.
func (e *Engine) CreateDirectory(parentInodeNum uint32, name string) (uint32, error) {
	ino, err := e.AllocateInode()
	if err != nil {
		return 0, err
	}
	blockNum, err := e.AllocateBlock()
	if err != nil {
		return 0, err
	}
	var buf [BlockSize]byte
	writeRootDirectoryBlock(buf[:], ino, parentInodeNum)
	if err := e.Dev.WriteBlock(blockNum, buf[:]); err != nil {
		return 0, err
	}

	n := Inode{NLinks: 2, Mode: ModeDir | ModePerm, Size: BlockSize}
	n.Direct[0] = blockNum
	if err := WriteInode(e.Dev, e.SB, ino, n); err != nil {
		return 0, err
	}
	if err := e.AppendDirEntry(parentInodeNum, name, ino); err != nil {
		return 0, err
	}

	parent, err := ReadInode(e.Dev, e.SB, parentInodeNum)
	if err != nil {
		return 0, err
	}
	parent.NLinks++
	if err := WriteInode(e.Dev, e.SB, parentInodeNum, parent); err != nil {
		return 0, err
	}
	return ino, nil
}

// Unlink removes name from dirInodeNum's directory and, if that was the
// target inode's last reference, releases its blocks and its inode-table
// slot.
func (e *Engine) Unlink(dirInodeNum uint32, name string) error {
	if name == "." || name == ".." {
		return fmt.Errorf("genericfs: cannot unlink %q", name)
	}
	dirInode, err := ReadInode(e.Dev, e.SB, dirInodeNum)
	if err != nil {
		return err
	}
	targetIno, err := LookupDirEntry(e.Dev, dirInode, name)
	if err != nil {
		return err
	}
	target, err := ReadInode(e.Dev, e.SB, targetIno)
	if err != nil {
		return err
	}
	if target.IsDir() {
		entries, err := ReadDirectory(e.Dev, target)
		if err != nil {
			return err
		}
		if len(entries) > 2 {
			return ErrDirectoryNotEmpty
		}
	}

	if err := e.RemoveDirEntry(dirInodeNum, name); err != nil {
		return err
	}

	if target.IsDir() {
		// An empty directory's only references are its own "." entry and
		// the parent entry just removed, so it always goes away entirely;
		// its ".." entry was counted against the parent's NLinks.
		if err := e.freeInodeBlocks(target); err != nil {
			return err
		}
		if err := e.FreeInode(targetIno); err != nil {
			return err
		}
		dirInode.NLinks--
		return WriteInode(e.Dev, e.SB, dirInodeNum, dirInode)
	}

	target.NLinks--
	if target.NLinks > 0 {
		return WriteInode(e.Dev, e.SB, targetIno, target)
	}

	if err := e.freeInodeBlocks(target); err != nil {
		return err
	}
	return e.FreeInode(targetIno)
}

// freeInodeBlocks clears the block-freemap bit for every block reachable
// from n: direct pointers, the first-indirect block and its entries, and
// the second-indirect block together with every first-indirect block it
// points to and their entries.
func (e *Engine) freeInodeBlocks(n Inode) error {
	for _, b := range n.Direct {
		if b != 0 {
			if err := e.FreeBlock(b); err != nil {
				return err
			}
		}
	}
	if n.FirstIndirect != 0 {
		if err := e.freeIndirectChain(n.FirstIndirect); err != nil {
			return err
		}
		if err := e.FreeBlock(n.FirstIndirect); err != nil {
			return err
		}
	}
	if n.SecondIndirect != 0 {
		var buf [BlockSize]byte
		if err := e.Dev.ReadBlock(n.SecondIndirect, buf[:]); err != nil {
			return err
		}
		for j := uint32(0); j < PointersPerBlock; j++ {
			firstBlock := getUint32(buf[:], int(j*4))
			if firstBlock == 0 {
				break
			}
			if err := e.freeIndirectChain(firstBlock); err != nil {
				return err
			}
			if err := e.FreeBlock(firstBlock); err != nil {
				return err
			}
		}
		if err := e.FreeBlock(n.SecondIndirect); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) freeIndirectChain(blockNum uint32) error {
	var buf [BlockSize]byte
	if err := e.Dev.ReadBlock(blockNum, buf[:]); err != nil {
		return err
	}
	for j := uint32(0); j < PointersPerBlock; j++ {
		b := getUint32(buf[:], int(j*4))
		if b == 0 {
			break
		}
		if err := e.FreeBlock(b); err != nil {
			return err
		}
	}
	return nil
}

// ResolvePath walks path (slash-separated, relative to the root inode)
// and returns the resolved inode, its inode number, and the inode number
// of its parent directory.
func (e *Engine) ResolvePath(path string) (Inode, uint32, uint32, error) {
	inode, err := ReadInode(e.Dev, e.SB, RootInode)
	if err != nil {
		return Inode{}, 0, 0, err
	}
	inoNum := uint32(RootInode)
	parentNum := uint32(RootInode)

	path = strings.Trim(path, "/")
	if path == "" {
		return inode, inoNum, parentNum, nil
	}

	for _, part := range strings.Split(path, "/") {
		if part == "" {
			continue
		}
		if !inode.IsDir() {
			return Inode{}, 0, 0, ErrNotDirectory
		}
		next, err := LookupDirEntry(e.Dev, inode, part)
		if err != nil {
			return Inode{}, 0, 0, err
		}
		nextInode, err := ReadInode(e.Dev, e.SB, next)
		if err != nil {
			return Inode{}, 0, 0, err
		}
		parentNum = inoNum
		inoNum = next
		inode = nextInode
	}
	return inode, inoNum, parentNum, nil
}
