package fs

import "fmt"

// memDevice is an in-memory BlockDevice used by the test suite in place
// of a real file, so tests don't need to touch a real disk.
type memDevice struct {
	blocks [][BlockSize]byte
}

func newMemDevice(totalBlocks uint32) *memDevice {
	return &memDevice{blocks: make([][BlockSize]byte, totalBlocks)}
}

func (d *memDevice) ReadBlock(blockNumber uint32, buf []byte) error {
	if blockNumber >= uint32(len(d.blocks)) {
		return fmt.Errorf("%w: block %d out of range", ErrIO, blockNumber)
	}
	copy(buf, d.blocks[blockNumber][:])
	return nil
}

func (d *memDevice) WriteBlock(blockNumber uint32, buf []byte) error {
	if blockNumber >= uint32(len(d.blocks)) {
		return fmt.Errorf("%w: block %d out of range", ErrIO, blockNumber)
	}
	copy(d.blocks[blockNumber][:], buf[:BlockSize])
	return nil
}

func (d *memDevice) BlockCount() (uint32, error) {
	return uint32(len(d.blocks)), nil
}
