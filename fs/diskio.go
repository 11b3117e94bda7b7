package fs

import (
	"fmt"
	"os"
)

// BlockDevice is the block-I/O port the rest of the engine calls through.
// It is opaque to every other component: nothing above this file knows or
// cares whether the partition is a real file, an in-memory buffer, or a
// raw device. Block numbers are not bounds-checked here; callers are
// responsible for staying within BlockCount.
type BlockDevice interface {
	// ReadBlock reads exactly one BlockSize-byte block into buf, which must
	// be at least BlockSize bytes long.
	ReadBlock(blockNumber uint32, buf []byte) error
	// WriteBlock writes exactly the first BlockSize bytes of buf as block
	// blockNumber.
	WriteBlock(blockNumber uint32, buf []byte) error
	// BlockCount returns the total number of BlockSize blocks the device
	// holds.
	BlockCount() (uint32, error)
}

// FileBlockDevice is a BlockDevice backed by a bare host file opened with
// os.O_RDWR.
type FileBlockDevice struct {
	f *os.File
}

// NewFileBlockDevice wraps an already-open partition file.
func NewFileBlockDevice(f *os.File) *FileBlockDevice {
	return &FileBlockDevice{f: f}
}

// OpenFileBlockDevice opens path for read/write and wraps it.
func OpenFileBlockDevice(path string) (*FileBlockDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0666)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %v", ErrIO, path, err)
	}
	return NewFileBlockDevice(f), nil
}

// CreateFileBlockDevice creates a new partition file of the given size in
// blocks, filled with zero bytes, and wraps it. Callers that need the
// sentinel-filled layout should run Initialize afterward.
func CreateFileBlockDevice(path string, totalBlocks uint32) (*FileBlockDevice, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("%w: creating %s: %v", ErrIO, path, err)
	}
	size := int64(totalBlocks) * BlockSize
	if size > 0 {
		if _, err := f.Seek(size-1, 0); err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: sizing %s: %v", ErrIO, path, err)
		}
		if _, err := f.Write([]byte{0}); err != nil {
			f.Close()
			return nil, fmt.Errorf("%w: sizing %s: %v", ErrIO, path, err)
		}
	}
	return NewFileBlockDevice(f), nil
}

// Close closes the underlying file.
func (d *FileBlockDevice) Close() error {
	return d.f.Close()
}

func (d *FileBlockDevice) ReadBlock(blockNumber uint32, buf []byte) error {
	n, err := d.f.ReadAt(buf[:BlockSize], int64(blockNumber)*BlockSize)
	if err != nil {
		return fmt.Errorf("%w: reading block %d: %v", ErrIO, blockNumber, err)
	}
	if n != BlockSize {
		return fmt.Errorf("%w: short read of block %d (%d bytes)", ErrIO, blockNumber, n)
	}
	return nil
}

func (d *FileBlockDevice) WriteBlock(blockNumber uint32, buf []byte) error {
	n, err := d.f.WriteAt(buf[:BlockSize], int64(blockNumber)*BlockSize)
	if err != nil {
		return fmt.Errorf("%w: writing block %d: %v", ErrIO, blockNumber, err)
	}
	if n != BlockSize {
		return fmt.Errorf("%w: short write of block %d (%d bytes)", ErrIO, blockNumber, n)
	}
	return nil
}

func (d *FileBlockDevice) BlockCount() (uint32, error) {
	info, err := d.f.Stat()
	if err != nil {
		return 0, fmt.Errorf("%w: stat: %v", ErrIO, err)
	}
	return uint32(info.Size() / BlockSize), nil
}
