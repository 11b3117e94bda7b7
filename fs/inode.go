package fs

// Mode bits. Only the type bits the engine actually inspects are named;
// permission bits are stored verbatim and never enforced.
const (
	ModeDir     uint32 = 1 << 14
	ModeRegular uint32 = 1 << 15
	ModePerm    uint32 = 0755
)

// Inode is the 64-byte on-disk inode record.
type Inode struct {
	NLinks         uint32
	UID            uint32
	GID            uint32
	Mode           uint32
	Size           uint32
	ATime          uint32
	MTime          uint32
	CTime          uint32
	Direct         [NDirect]uint32
	FirstIndirect  uint32
	SecondIndirect uint32
	// unused1, unused2 pad the record to 64 bytes; kept only to preserve
	// the layout, never interpreted.
	unused1 uint32
	unused2 uint32
}

// IsDir reports whether the inode's mode has the directory type bit set.
func (n Inode) IsDir() bool { return n.Mode&ModeDir != 0 }

// inodeLocation returns the block containing inode number n and the
// byte offset of its 64-byte record within that block.
func inodeLocation(l layout, n uint32) (block uint32, offset int) {
	block = l.inodeTableStart + n/InodesPerBlock
	offset = InodeSize * int(n%InodesPerBlock)
	return
}

// ReadInode reads the block containing inode n and decodes its record,
// converting every field from disk form.
func ReadInode(dev BlockDevice, sb Superblock, n uint32) (Inode, error) {
	l := newLayout(sb)
	block, offset := inodeLocation(l, n)

	var buf [BlockSize]byte
	if err := dev.ReadBlock(block, buf[:]); err != nil {
		return Inode{}, err
	}
	return decodeInode(buf[offset : offset+InodeSize]), nil
}

// WriteInode reads the containing block, overlays inode n's 64-byte
// slice with rec (converting each field to disk form), and writes the
// block back — a read-modify-write that preserves the other 63 inodes
// sharing the block.
func WriteInode(dev BlockDevice, sb Superblock, n uint32, rec Inode) error {
	l := newLayout(sb)
	block, offset := inodeLocation(l, n)

	var buf [BlockSize]byte
	if err := dev.ReadBlock(block, buf[:]); err != nil {
		return err
	}
	encodeInode(rec, buf[offset:offset+InodeSize])
	return dev.WriteBlock(block, buf[:])
}

func decodeInode(b []byte) Inode {
	var n Inode
	n.NLinks = getUint32(b, 0)
	n.UID = getUint32(b, 4)
	n.GID = getUint32(b, 8)
	n.Mode = getUint32(b, 12)
	n.Size = getUint32(b, 16)
	n.ATime = getUint32(b, 20)
	n.MTime = getUint32(b, 24)
	n.CTime = getUint32(b, 28)
	for i := 0; i < NDirect; i++ {
		n.Direct[i] = getUint32(b, 32+4*i)
	}
	n.FirstIndirect = getUint32(b, 32+4*NDirect)
	n.SecondIndirect = getUint32(b, 32+4*NDirect+4)
	n.unused1 = getUint32(b, 32+4*NDirect+8)
	n.unused2 = getUint32(b, 32+4*NDirect+12)
	return n
}

func encodeInode(n Inode, b []byte) {
	putUint32(b, 0, n.NLinks)
	putUint32(b, 4, n.UID)
	putUint32(b, 8, n.GID)
	putUint32(b, 12, n.Mode)
	putUint32(b, 16, n.Size)
	putUint32(b, 20, n.ATime)
	putUint32(b, 24, n.MTime)
	putUint32(b, 28, n.CTime)
	for i := 0; i < NDirect; i++ {
		putUint32(b, 32+4*i, n.Direct[i])
	}
	putUint32(b, 32+4*NDirect, n.FirstIndirect)
	putUint32(b, 32+4*NDirect+4, n.SecondIndirect)
	putUint32(b, 32+4*NDirect+8, n.unused1)
	putUint32(b, 32+4*NDirect+12, n.unused2)
}
