package fs

import "fmt"

// freemapRange addresses one of the two freemaps (inode or block) by its
// absolute block range [start, end) on the partition.
type freemapRange struct {
	start uint32
	end   uint32
}

// scanFirstFree walks r block by block, byte by byte, and within each
// byte examines bits from the least-significant side first (bit 1 up to
// bit 8), returning the first cleared bit found. This ordering is
// preserved from the source format verbatim: it is part of the external
// contract, not an implementation detail, so a partition written by one
// implementation stays readable by another. An all-free byte therefore
// yields bit 1 (object 0), and a byte with only its LSB set yields bit 2
// (object 1). Returns ErrNoSpace if every bit in the range is set.
func scanFirstFree(dev BlockDevice, r freemapRange) (relBlock, byteIdx uint32, bit uint8, err error) {
	var buf [BlockSize]byte
	for rel := uint32(0); rel < r.end-r.start; rel++ {
		if err := dev.ReadBlock(r.start+rel, buf[:]); err != nil {
			return 0, 0, 0, err
		}
		for b := 0; b < BlockSize; b++ {
			byteVal := buf[b]
			for bitPos := uint8(1); bitPos <= 8; bitPos++ {
				mask := uint8(1) << (bitPos - 1)
				if byteVal&mask == 0 {
					return rel, uint32(b), bitPos, nil
				}
			}
		}
	}
	return 0, 0, 0, ErrNoSpace
}

// mark sets the bit identified by (relBlock, byteIdx, bit) — using the
// scanner's 1-indexed-from-LSB bit numbering — in the freemap block.
func mark(dev BlockDevice, r freemapRange, relBlock, byteIdx uint32, bit uint8) error {
	var buf [BlockSize]byte
	blockNum := r.start + relBlock
	if err := dev.ReadBlock(blockNum, buf[:]); err != nil {
		return err
	}
	buf[byteIdx] |= 1 << (bit - 1)
	return dev.WriteBlock(blockNum, buf[:])
}

// clearBit unsets the bit for absolute object number n within r, the
// counterpart to allocate used by Unlink to free an inode or block.
func clearBit(dev BlockDevice, r freemapRange, n uint32) error {
	relBlock := n / (BlockSize * 8)
	within := n % (BlockSize * 8)
	byteIdx := within / 8
	bit := uint8(within%8) + 1

	var buf [BlockSize]byte
	blockNum := r.start + relBlock
	if err := dev.ReadBlock(blockNum, buf[:]); err != nil {
		return err
	}
	buf[byteIdx] &^= 1 << (bit - 1)
	return dev.WriteBlock(blockNum, buf[:])
}

// testBit reports whether the bit for absolute object number n within r
// is set, used by the verifier's block- and inode-freemap passes.
func testBit(dev BlockDevice, r freemapRange, n uint32) (bool, error) {
	relBlock := n / (BlockSize * 8)
	within := n % (BlockSize * 8)
	byteIdx := within / 8
	bit := uint8(within % 8)

	var buf [BlockSize]byte
	if err := dev.ReadBlock(r.start+relBlock, buf[:]); err != nil {
		return false, err
	}
	return buf[byteIdx]&(1<<bit) != 0, nil
}

// allocate composes scan+mark and returns the absolute object number,
// reported in ascending-bit-order numbering (bit 0 == least significant),
// matching the scanner's own LSB-first search order.
func allocate(dev BlockDevice, r freemapRange) (uint32, error) {
	relBlock, byteIdx, bit, err := scanFirstFree(dev, r)
	if err != nil {
		return 0, err
	}
	if err := mark(dev, r, relBlock, byteIdx, bit); err != nil {
		return 0, err
	}
	return relBlock*(BlockSize*8) + byteIdx*8 + uint32(bit-1), nil
}

// Freemap is a read-facing view of one of the two bitmaps, used by the
// verifier to walk every bit without re-deriving the range each time.
type Freemap struct {
	dev   BlockDevice
	r     freemapRange
	nbits uint32
}

func newFreemap(dev BlockDevice, r freemapRange, nbits uint32) *Freemap {
	return &Freemap{dev: dev, r: r, nbits: nbits}
}

// Test reports whether bit n is set.
func (m *Freemap) Test(n uint32) (bool, error) {
	if n >= m.nbits {
		return false, fmt.Errorf("genericfs: bit %d out of range (max %d)", n, m.nbits)
	}
	return testBit(m.dev, m.r, n)
}

// NumBits returns the number of addressable bits (inodes, or blocks) the
// freemap covers.
func (m *Freemap) NumBits() uint32 {
	return m.nbits
}
