package fs

// Verify reconstructs block and inode usage from the inode table and
// directory graph and compares it against the two freemaps and each
// inode's nlinks field. It never modifies the partition and always
// returns every finding it can detect rather than stopping at the first
// one.
func Verify(dev BlockDevice) ([]Finding, error) {
	sb, err := ReadSuperblock(dev)
	if err != nil {
		return nil, err
	}
	e := newEngineFromSuperblock(dev, sb)

	var findings []Finding

	blockFindings, err := e.verifyBlocks()
	if err != nil {
		return nil, err
	}
	findings = append(findings, blockFindings...)

	inodeFindings, err := e.verifyInodes()
	if err != nil {
		return nil, err
	}
	findings = append(findings, inodeFindings...)

	return findings, nil
}

// verifyBlocks builds a per-block usage counter by walking every allocated
// inode's block chain, then compares it against the block freemap.
func (e *Engine) verifyBlocks() ([]Finding, error) {
	counters := make([]uint32, e.SB.TotalBlocks)
	// Seed only the metadata blocks (superblock, both freemaps, inode
	// table) to 1. The root directory's own data block at e.lay.dataStart
	// is deliberately left at 0 here so that the inode walk below, which
	// reaches it through the root inode's direct pointer, is the sole
	// source of its count; otherwise it would be double-counted and a
	// freshly formatted partition would falsely report MultipleUse.
	for b := uint32(0); b < e.lay.dataStart; b++ {
		counters[b] = 1
	}

	var findings []Finding
	inodeFreemap := e.InodeFreemap()
	for n := uint32(0); n < inodeFreemap.NumBits(); n++ {
		set, err := inodeFreemap.Test(n)
		if err != nil {
			return nil, err
		}
		if !set {
			continue
		}
		inode, err := ReadInode(e.Dev, e.SB, n)
		if err != nil {
			return nil, err
		}
		if err := e.walkInodeBlocks(inode, counters, &findings); err != nil {
			return nil, err
		}
	}

	for b, count := range counters {
		if count > 1 {
			findings = append(findings, Finding{Kind: MultipleUse, Object: uint32(b)})
		}
	}

	blockFreemap := e.BlockFreemap()
	for b := uint32(0); b < blockFreemap.NumBits(); b++ {
		set, err := blockFreemap.Test(b)
		if err != nil {
			return nil, err
		}
		switch {
		case set && counters[b] == 0:
			findings = append(findings, Finding{Kind: AllocatedButUnused, Object: b})
		case !set && counters[b] != 0:
			findings = append(findings, Finding{Kind: UnallocatedInUse, Object: b})
		}
	}

	return findings, nil
}

// walkInodeBlocks increments counters for every block reachable from n:
// direct pointers, the first-indirect block and its entries, and the
// second-indirect block together with each first-indirect block it names
// and their entries. It stops at the first zero entry of any indirect
// block. A pointer outside the partition's block range is reported as an
// OutOfRangePointer finding rather than indexed into counters.
func (e *Engine) walkInodeBlocks(n Inode, counters []uint32, findings *[]Finding) error {
	for _, b := range n.Direct {
		if b != 0 {
			e.countBlock(b, counters, findings)
		}
	}
	if n.FirstIndirect != 0 && e.countBlock(n.FirstIndirect, counters, findings) {
		if err := e.walkIndirectEntries(n.FirstIndirect, counters, findings); err != nil {
			return err
		}
	}
	if n.SecondIndirect != 0 && e.countBlock(n.SecondIndirect, counters, findings) {
		var buf [BlockSize]byte
		if err := e.Dev.ReadBlock(n.SecondIndirect, buf[:]); err != nil {
			return err
		}
		for j := uint32(0); j < PointersPerBlock; j++ {
			firstBlock := getUint32(buf[:], int(j*4))
			if firstBlock == 0 {
				break
			}
			if e.countBlock(firstBlock, counters, findings) {
				if err := e.walkIndirectEntries(firstBlock, counters, findings); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (e *Engine) walkIndirectEntries(blockNum uint32, counters []uint32, findings *[]Finding) error {
	var buf [BlockSize]byte
	if err := e.Dev.ReadBlock(blockNum, buf[:]); err != nil {
		return err
	}
	for j := uint32(0); j < PointersPerBlock; j++ {
		b := getUint32(buf[:], int(j*4))
		if b == 0 {
			break
		}
		e.countBlock(b, counters, findings)
	}
	return nil
}

// countBlock increments counters[b] and reports true if b is a valid block
// number for this partition; otherwise it records an OutOfRangePointer
// finding and reports false, so callers don't dereference it as a block to
// read. Every block pointer read from an inode or an indirect block passes
// through here instead of indexing counters directly.
func (e *Engine) countBlock(b uint32, counters []uint32, findings *[]Finding) bool {
	if b >= e.SB.TotalBlocks {
		*findings = append(*findings, Finding{Kind: OutOfRangePointer, Object: b})
		return false
	}
	counters[b]++
	return true
}

// verifyInodes starts every reference counter at 0 (the root's baseline
// link count is found by the scan visiting its own "." and ".." entries,
// never preseeded), walks the directory tree from the root, and compares
// the result against each allocated inode's nlinks.
func (e *Engine) verifyInodes() ([]Finding, error) {
	counters := make([]uint32, e.SB.TotalBlocks)

	visited := map[uint32]bool{RootInode: true}
	queue := []uint32{RootInode}
	for len(queue) > 0 {
		dirNum := queue[0]
		queue = queue[1:]

		dirInode, err := ReadInode(e.Dev, e.SB, dirNum)
		if err != nil {
			return nil, err
		}
		entries, err := ReadDirectory(e.Dev, dirInode)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.Inode >= uint32(len(counters)) {
				continue
			}
			counters[entry.Inode]++
			if visited[entry.Inode] {
				continue
			}
			childInode, err := ReadInode(e.Dev, e.SB, entry.Inode)
			if err != nil {
				return nil, err
			}
			if childInode.IsDir() {
				visited[entry.Inode] = true
				queue = append(queue, entry.Inode)
			}
		}
	}

	var findings []Finding
	inodeFreemap := e.InodeFreemap()
	for n := uint32(0); n < inodeFreemap.NumBits(); n++ {
		set, err := inodeFreemap.Test(n)
		if err != nil {
			return nil, err
		}
		if set {
			inode, err := ReadInode(e.Dev, e.SB, n)
			if err != nil {
				return nil, err
			}
			if counters[n] != inode.NLinks {
				findings = append(findings, Finding{Kind: LinkCountWrong, Object: n})
			}
		} else if counters[n] != 0 {
			findings = append(findings, Finding{Kind: DanglingReference, Object: n})
		}
	}

	return findings, nil
}
