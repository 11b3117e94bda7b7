package fs

import "fmt"

// dirEntryHeaderSize is the fixed portion of a directory record: next
// offset (4 bytes), inode number (4 bytes), name length (1 byte).
const dirEntryHeaderSize = 4 + 4 + 1

// DirEntry is one (name, inode) pair read out of a directory chain,
// annotated with its on-disk location (file-relative block index and
// offset within that block) and its name length.
type DirEntry struct {
	Name       string
	Inode      uint32
	blockIndex uint32
	offset     uint32
	nameLen    uint8
}

func dirEntrySize(nameLen int) uint32 {
	return dirEntryHeaderSize + uint32(nameLen)
}

// ReadDirectory materializes dirInode's file and walks every data block
// in file order, following the next_offset chain within each block.
// Within a block: next == 0 ends that block's chain; otherwise next must
// be strictly greater than the current record's offset, and the record
// must fit entirely within the block — violations are
// ErrMalformedDirectory.
func ReadDirectory(dev BlockDevice, dirInode Inode) ([]DirEntry, error) {
	data, err := MaterializeFile(dev, dirInode)
	if err != nil {
		return nil, err
	}

	var entries []DirEntry
	nblocks := uint32(len(data)) / BlockSize
	for b := uint32(0); b < nblocks; b++ {
		block := data[b*BlockSize : (b+1)*BlockSize]
		pos := uint32(0)
		for {
			if pos+dirEntryHeaderSize > BlockSize {
				return nil, fmt.Errorf("%w: record header at block %d offset %d overruns block", ErrMalformedDirectory, b, pos)
			}
			next := getUint32(block, int(pos))
			ino := getUint32(block, int(pos+4))
			nameLen := block[pos+8]
			end := pos + dirEntryHeaderSize + uint32(nameLen)
			if end > BlockSize {
				return nil, fmt.Errorf("%w: record at block %d offset %d overruns block", ErrMalformedDirectory, b, pos)
			}
			name := string(block[pos+dirEntryHeaderSize : end])
			entries = append(entries, DirEntry{
				Name:       name,
				Inode:      ino,
				blockIndex: b,
				offset:     pos,
				nameLen:    nameLen,
			})
			if next == 0 {
				break
			}
			if next <= pos {
				return nil, fmt.Errorf("%w: next_offset %d does not strictly increase past %d", ErrMalformedDirectory, next, pos)
			}
			pos = next
		}
	}
	return entries, nil
}

// LookupDirEntry returns the inode number bound to name in dirInode, or
// ErrNotFound.
func LookupDirEntry(dev BlockDevice, dirInode Inode, name string) (uint32, error) {
	entries, err := ReadDirectory(dev, dirInode)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		if e.Name == name {
			return e.Inode, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// writeRootDirectoryBlock formats a freshly allocated data block as a new
// directory's first block, seeding it with "." -> self and ".." ->
// parent, the same layout the initializer uses for the root's own block.
func writeRootDirectoryBlock(buf []byte, selfInode, parentInode uint32) {
	for i := range buf {
		buf[i] = 0
	}
	// "." at offset 0, chaining to offset 10 (9-byte header + 1-byte name).
	putUint32(buf, 0, 10)
	putUint32(buf, 4, selfInode)
	buf[8] = 1
	buf[9] = '.'

	// ".." at offset 10, end of chain.
	putUint32(buf, 10, 0)
	putUint32(buf, 14, parentInode)
	buf[18] = 2
	buf[19] = '.'
	buf[20] = '.'
}

// AppendDirEntry appends a (name, targetIno) record to dirInode's
// directory chain, extending the directory into a new data block if the
// current last block has no room. dirInodeNum's on-disk inode record is
// rewritten if the directory grows.
func (e *Engine) AppendDirEntry(dirInodeNum uint32, name string, targetIno uint32) error {
	if len(name) > 255 {
		return fmt.Errorf("genericfs: name %q too long", name)
	}
	dirInode, err := ReadInode(e.Dev, e.SB, dirInodeNum)
	if err != nil {
		return err
	}
	if !dirInode.IsDir() {
		return ErrNotDirectory
	}
	if _, err := LookupDirEntry(e.Dev, dirInode, name); err == nil {
		return fmt.Errorf("%w: %q", ErrExists, name)
	}

	nblocks := dirInode.Size / BlockSize
	if nblocks == 0 {
		return fmt.Errorf("genericfs: directory inode %d has no blocks", dirInodeNum)
	}
	lastBlockIdx := nblocks - 1

	lastBlockNum, err := Resolve(e.Dev, dirInode, lastBlockIdx)
	if err != nil {
		return err
	}
	var buf [BlockSize]byte
	if err := e.Dev.ReadBlock(lastBlockNum, buf[:]); err != nil {
		return err
	}

	tailPos, tailNameLen, err := findTail(buf[:])
	if err != nil {
		return err
	}
	newOffset := tailPos + dirEntryHeaderSize + uint32(tailNameLen)
	newSize := dirEntrySize(len(name))

	if newOffset+newSize <= BlockSize {
		writeDirRecord(buf[:], newOffset, 0, targetIno, name)
		putUint32(buf[:], int(tailPos), newOffset)
		return e.Dev.WriteBlock(lastBlockNum, buf[:])
	}

	// No room: grow the directory by one data block.
	newBlockNum, err := e.allocateZeroedBlock()
	if err != nil {
		return err
	}
	if err := e.setBlockPointer(&dirInode, nblocks, newBlockNum); err != nil {
		return err
	}
	var newBuf [BlockSize]byte
	writeDirRecord(newBuf[:], 0, 0, targetIno, name)
	if err := e.Dev.WriteBlock(newBlockNum, newBuf[:]); err != nil {
		return err
	}
	dirInode.Size += BlockSize
	return WriteInode(e.Dev, e.SB, dirInodeNum, dirInode)
}

// findTail follows the in-block chain starting at offset 0 and returns
// the offset and name length of the record whose next is 0.
func findTail(block []byte) (pos uint32, nameLen uint8, err error) {
	pos = 0
	for {
		next := getUint32(block, int(pos))
		nl := block[pos+8]
		if next == 0 {
			return pos, nl, nil
		}
		if next <= pos {
			return 0, 0, fmt.Errorf("%w: next_offset %d does not strictly increase past %d", ErrMalformedDirectory, next, pos)
		}
		pos = next
	}
}

func writeDirRecord(block []byte, offset uint32, next uint32, ino uint32, name string) {
	putUint32(block, int(offset), next)
	putUint32(block, int(offset+4), ino)
	block[offset+8] = byte(len(name))
	copy(block[offset+9:offset+9+uint32(len(name))], name)
}

// RemoveDirEntry removes the record named name from dirInode's directory
// by splicing the preceding record's next_offset past it. The record at
// offset 0 of a block can never be removed: an error is returned for it.
// In a directory's first block that record is "."; in every later block
// it is the first entry AppendDirEntry wrote there, so such an entry
// cannot be removed (or unlinked) by this engine.
func (e *Engine) RemoveDirEntry(dirInodeNum uint32, name string) error {
	dirInode, err := ReadInode(e.Dev, e.SB, dirInodeNum)
	if err != nil {
		return err
	}
	nblocks := dirInode.Size / BlockSize
	for b := uint32(0); b < nblocks; b++ {
		blockNum, err := Resolve(e.Dev, dirInode, b)
		if err != nil {
			return err
		}
		var buf [BlockSize]byte
		if err := e.Dev.ReadBlock(blockNum, buf[:]); err != nil {
			return err
		}

		pos := uint32(0)
		prevPos := uint32(0)
		havePrev := false
		for {
			next := getUint32(buf[:], int(pos))
			nameLen := buf[pos+8]
			entryName := string(buf[pos+dirEntryHeaderSize : pos+dirEntryHeaderSize+uint32(nameLen)])
			if entryName == name {
				if !havePrev {
					return fmt.Errorf("genericfs: cannot remove first entry of a directory block")
				}
				putUint32(buf[:], int(prevPos), next)
				return e.Dev.WriteBlock(blockNum, buf[:])
			}
			if next == 0 {
				break
			}
			prevPos = pos
			havePrev = true
			pos = next
		}
	}
	return fmt.Errorf("%w: %q", ErrNotFound, name)
}
