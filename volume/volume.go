/*package volume holds the in-memory data model shared by the
interpolation engine and the tracker: rank-3 scalar grids and rank-4
multi-channel grids in voxel space with a corner origin (position 0.0
is the outer corner of voxel 0), plus binary tracking masks.
*/
package volume

import (
	"fmt"

	"github.com/emer/etable/etensor"
	"github.com/goki/mat32"
)

// Device tags the compute location of a grid or coordinate batch. Grids
// and the coordinates used to sample them must live on the same device.
type Device int

const (
	CPU Device = iota
)

func (d Device) String() string {
	switch d {
	case CPU:
		return "cpu"
	}
	return fmt.Sprintf("device(%d)", int(d))
}

// Volume references a rank-3 or rank-4 grid. Rank-4 grids carry their
// channels on the trailing axis. The underlying tensor is never copied
// and must not be mutated while a tracking run holds the Volume.
type Volume struct {
	Data *etensor.Float32
	Dev  Device

	// Row-major strides into Data.Values, with sc == 1 for rank 4.
	sx, sy, sz, sc int
}

// New wraps a grid tensor. It panics if the tensor is not rank 3 or 4.
func New(data *etensor.Float32, dev Device) *Volume {
	nd := data.NumDims()
	if nd <= 2 || nd >= 5 {
		panic(fmt.Sprintf("volume must be 3D or 4D, got %dD", nd))
	}

	v := &Volume{Data: data, Dev: dev}
	c := 1
	if nd == 4 {
		c = data.Dim(3)
	}
	v.sc = 1
	v.sz = c
	v.sy = data.Dim(2) * v.sz
	v.sx = data.Dim(1) * v.sy
	return v
}

// Rank returns 3 for scalar grids and 4 for multi-channel grids.
func (v *Volume) Rank() int { return v.Data.NumDims() }

// Dim returns the grid size along one of the three spatial axes.
func (v *Volume) Dim(axis int) int { return v.Data.Dim(axis) }

// Channels returns the channel count, 1 for rank-3 grids.
func (v *Volume) Channels() int {
	if v.Rank() == 4 {
		return v.Data.Dim(3)
	}
	return 1
}

// At returns the channel-c value stored at voxel (x, y, z). Indices
// must already be inside the grid.
func (v *Volume) At(x, y, z, c int) float32 {
	return v.Data.Values[x*v.sx+y*v.sy+z*v.sz+c*v.sc]
}

// InBound reports whether p lies within [0, S) on every spatial axis.
func (v *Volume) InBound(p mat32.Vec3) bool {
	return p.X >= 0 && p.Y >= 0 && p.Z >= 0 &&
		p.X < float32(v.Dim(0)) &&
		p.Y < float32(v.Dim(1)) &&
		p.Z < float32(v.Dim(2))
}

// Coords is an ordered batch of voxel-space positions, one per active
// streamline. Batches are ephemeral: the tracker rebuilds one from the
// current streamline tails at every propagation step.
type Coords struct {
	Pos []mat32.Vec3
	Dev Device
}

// Mask is a binary rank-3 volume delimiting where tracking is legal.
type Mask struct {
	vol *Volume
}

// NewMask wraps a rank-3 grid as a tracking mask. Panics on rank-4
// input: masks have no channels.
func NewMask(data *etensor.Float32, dev Device) *Mask {
	if data.NumDims() != 3 {
		panic(fmt.Sprintf("mask must be 3D, got %dD", data.NumDims()))
	}
	return &Mask{vol: New(data, dev)}
}

// Volume returns the grid backing the mask.
func (m *Mask) Volume() *Volume { return m.vol }

// Contains reports whether p is inside the grid and the voxel under it
// is set. The voxel under a corner-origin position is its floor.
func (m *Mask) Contains(p mat32.Vec3) bool {
	if !m.vol.InBound(p) {
		return false
	}
	x := int(mat32.Floor(p.X))
	y := int(mat32.Floor(p.Y))
	z := int(mat32.Floor(p.Z))
	return m.vol.At(x, y, z, 0) > 0.5
}
