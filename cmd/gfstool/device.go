package main

import (
	"github.com/pchapin/genericfs/fs"
)

// openEngine opens path read/write and constructs an Engine over it. The
// caller is responsible for closing the returned device once done.
func openEngine(path string) (*fs.Engine, *fs.FileBlockDevice, error) {
	dev, err := fs.OpenFileBlockDevice(path)
	if err != nil {
		return nil, nil, err
	}
	e, err := fs.NewEngine(dev)
	if err != nil {
		dev.Close()
		return nil, nil, err
	}
	return e, dev, nil
}
