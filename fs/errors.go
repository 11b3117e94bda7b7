package fs

import "errors"

// Error taxonomy for the GenericFS engine, per the design's error table.
// Callers should match against these with errors.Is; wrapped errors carry
// the offending block/inode number via fmt.Errorf("%w: ...", Err...).
var (
	// ErrIO is returned when a block-device read or write is short or the
	// underlying device reports a failure.
	ErrIO = errors.New("genericfs: io error")

	// ErrNotGenericFS is returned by ReadSuperblock when the magic number
	// does not match after endian conversion.
	ErrNotGenericFS = errors.New("genericfs: not a genericfs partition")

	// ErrInconsistentGeometry is returned when the superblock's declared
	// block size or total block count contradicts the device probe.
	ErrInconsistentGeometry = errors.New("genericfs: inconsistent geometry")

	// ErrPartitionTooSmall is returned by Initialize when the preallocated
	// metadata blocks do not fit in a single freemap block.
	ErrPartitionTooSmall = errors.New("genericfs: partition too small")

	// ErrNoSpace is returned by a freemap scan that finds no cleared bit.
	ErrNoSpace = errors.New("genericfs: no space left")

	// ErrFileTooLarge is returned by the block-address resolver when a
	// file-relative block index exceeds doubly-indirect capacity.
	ErrFileTooLarge = errors.New("genericfs: file too large")

	// ErrNotAllocated is returned when the resolver walks into a zero
	// (unallocated) pointer.
	ErrNotAllocated = errors.New("genericfs: block not allocated")

	// ErrNotFound is returned when a directory lookup does not find the
	// requested name.
	ErrNotFound = errors.New("genericfs: name not found")

	// ErrExists is returned when a directory already contains an entry
	// with the requested name.
	ErrExists = errors.New("genericfs: name already exists")

	// ErrNotDirectory is returned when an operation that requires a
	// directory inode is given a regular-file inode.
	ErrNotDirectory = errors.New("genericfs: not a directory")

	// ErrIsDirectory is returned when an operation that requires a regular
	// file is given a directory inode.
	ErrIsDirectory = errors.New("genericfs: is a directory")

	// ErrDirectoryNotEmpty is returned by Unlink/Rmdir-style callers when a
	// directory still has entries besides "." and "..".
	ErrDirectoryNotEmpty = errors.New("genericfs: directory not empty")

	// ErrMalformedDirectory is returned by the directory walker when a
	// record's next_offset does not strictly increase, or a record would
	// extend past the end of its block.
	ErrMalformedDirectory = errors.New("genericfs: malformed directory chain")
)

// FindingKind enumerates the kinds of inconsistency Verify can report.
type FindingKind int

const (
	// MultipleUse marks a block reachable from more than one allocated
	// inode (or more than once from the same inode).
	MultipleUse FindingKind = iota
	// AllocatedButUnused marks a block freemap bit that is set but whose
	// block is not reachable from any inode.
	AllocatedButUnused
	// UnallocatedInUse marks a block freemap bit that is cleared but whose
	// block is reachable from an inode.
	UnallocatedInUse
	// LinkCountWrong marks an inode whose nlinks disagrees with the number
	// of directory entries referencing it.
	LinkCountWrong
	// DanglingReference marks a directory entry that references an inode
	// whose freemap bit is cleared.
	DanglingReference
	// OutOfRangePointer marks a direct or indirect block pointer, read from
	// an allocated inode or one of its indirect blocks, that does not name
	// a valid block on this partition.
	OutOfRangePointer
)

func (k FindingKind) String() string {
	switch k {
	case MultipleUse:
		return "MultipleUse"
	case AllocatedButUnused:
		return "AllocatedButUnused"
	case UnallocatedInUse:
		return "UnallocatedInUse"
	case LinkCountWrong:
		return "LinkCountWrong"
	case DanglingReference:
		return "DanglingReference"
	case OutOfRangePointer:
		return "OutOfRangePointer"
	default:
		return "Unknown"
	}
}

// Finding is a single consistency problem reported by Verify. Object is
// the block number or inode number the finding concerns, depending on
// Kind. Verify never stops at the first Finding; it collects every one it
// can detect and returns them together.
type Finding struct {
	Kind    FindingKind
	Object  uint32
	Detail  string
}

func (f Finding) String() string {
	if f.Detail == "" {
		return f.Kind.String()
	}
	return f.Kind.String() + ": " + f.Detail
}
