package volume

import "fmt"

// DataSource owns the input volume a tracking run samples from. Lazy
// sources can drop their in-memory grid before a worker pool is split
// off and reload it locally inside each worker, so the grid is never
// duplicated across workers that have not asked for it.
type DataSource interface {
	// Volume returns the loaded grid, or nil after Drop.
	Volume() *Volume
	// Drop releases the in-memory grid.
	Drop()
	// Reload brings the grid back after a Drop.
	Reload() error
	// Lazy reports whether Reload can recover the grid from backing
	// storage. Non-lazy sources lose nothing on Drop but cannot feed
	// more than a couple of workers.
	Lazy() bool
	// Fork returns an independent handle on the same backing data for
	// use by a new worker.
	Fork() DataSource
}

// MemSource serves a grid that exists only in memory. Drop is a no-op:
// there is nowhere to reload from.
type MemSource struct {
	vol *Volume
}

func NewMemSource(vol *Volume) *MemSource {
	return &MemSource{vol: vol}
}

func (s *MemSource) Volume() *Volume { return s.vol }
func (s *MemSource) Drop()           {}
func (s *MemSource) Reload() error   { return nil }
func (s *MemSource) Lazy() bool      { return false }

func (s *MemSource) Fork() DataSource { return s }

// FileSource serves a grid stored in an .nvol file. The grid is read
// on creation and can be dropped and reloaded at will; forks start
// dropped and read the file themselves.
type FileSource struct {
	path string
	dev  Device
	vol  *Volume
}

func NewFileSource(path string, dev Device) (*FileSource, error) {
	vol, err := ReadVolumeFile(path, dev)
	if err != nil {
		return nil, fmt.Errorf("cannot open volume %s: %w", path, err)
	}
	return &FileSource{path: path, dev: dev, vol: vol}, nil
}

func (s *FileSource) Volume() *Volume { return s.vol }

func (s *FileSource) Drop() { s.vol = nil }

func (s *FileSource) Reload() error {
	if s.vol != nil {
		return nil
	}
	vol, err := ReadVolumeFile(s.path, s.dev)
	if err != nil {
		return err
	}
	s.vol = vol
	return nil
}

func (s *FileSource) Lazy() bool { return true }

func (s *FileSource) Fork() DataSource {
	return &FileSource{path: s.path, dev: s.dev}
}
