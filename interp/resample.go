package interp

import (
	"fmt"

	"github.com/goki/mat32"

	"github.com/levje/dwi-ml/volume"
)

// Mode selects how Resample fills in samples that fall outside the
// grid.
type Mode int

const (
	// Nearest clamps to the edge voxel. This is what Values always
	// does.
	Nearest Mode = iota
	// Constant treats everything outside the grid as 0.
	Constant
	// Reflect mirrors the grid about its edges.
	Reflect
	// Wrap repeats the grid periodically.
	Wrap
)

func (m Mode) String() string {
	switch m {
	case Nearest:
		return "nearest"
	case Constant:
		return "constant"
	case Reflect:
		return "reflect"
	case Wrap:
		return "wrap"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ModeFromString parses one of "nearest", "constant", "reflect" or
// "wrap".
func ModeFromString(s string) (Mode, error) {
	for m := Nearest; m <= Wrap; m++ {
		if m.String() == s {
			return m, nil
		}
	}
	return Nearest, fmt.Errorf("unknown boundary mode %q", s)
}

// Resample evaluates vol at every position in coords with order-1
// interpolation along each axis, filling out-of-bounds samples
// according to mode. Rank-4 grids are processed one channel at a time
// and reassembled column by column into the (position, channel) output.
//
// This is the reference path for the batched engine: slower, but with
// boundary handling beyond clamping.
func Resample(vol *volume.Volume, coords volume.Coords, mode Mode) [][]float32 {
	nd := vol.Rank()
	if nd <= 2 || nd >= 5 {
		panic(fmt.Sprintf("volume must be 3D or 4D, got %dD", nd))
	}
	if vol.Dev != coords.Dev {
		panic(fmt.Sprintf(
			"volume on device %v, coords on device %v",
			vol.Dev, coords.Dev,
		))
	}

	n := len(coords.Pos)
	out := make([][]float32, n)
	for j := range out {
		out[j] = make([]float32, vol.Channels())
	}
	for c := 0; c < vol.Channels(); c++ {
		for j, p := range coords.Pos {
			out[j][c] = resampleAt(vol, p, c, mode)
		}
	}
	return out
}

func resampleAt(vol *volume.Volume, p mat32.Vec3, c int, mode Mode) float32 {
	fx, fy, fz := mat32.Floor(p.X), mat32.Floor(p.Y), mat32.Floor(p.Z)
	ix, iy, iz := int(fx), int(fy), int(fz)
	tx := float64(p.X - fx)
	ty := float64(p.Y - fy)
	tz := float64(p.Z - fz)

	nx, ny, nz := vol.Dim(0), vol.Dim(1), vol.Dim(2)

	sum := 0.0
	for _, off := range cornerBox {
		w := axisWeight(tx, off[0]) *
			axisWeight(ty, off[1]) *
			axisWeight(tz, off[2])
		if w == 0 {
			continue
		}

		x, okx := mapIdx(ix+off[0], nx, mode)
		y, oky := mapIdx(iy+off[1], ny, mode)
		z, okz := mapIdx(iz+off[2], nz, mode)
		if !okx || !oky || !okz {
			// Constant mode: the sample is 0.
			continue
		}
		sum += w * float64(vol.At(x, y, z, c))
	}
	return float32(sum)
}

func axisWeight(t float64, off int) float64 {
	if off == 0 {
		return 1 - t
	}
	return t
}

// mapIdx maps an axis index onto [0, n) according to mode. The second
// return is false only in Constant mode, for indices outside the grid.
func mapIdx(i, n int, mode Mode) (int, bool) {
	if i >= 0 && i < n {
		return i, true
	}
	switch mode {
	case Nearest:
		return clampIdx(i, n), true
	case Constant:
		return 0, false
	case Reflect:
		if n == 1 {
			return 0, true
		}
		p := 2 * n
		i = ((i % p) + p) % p
		if i >= n {
			i = p - 1 - i
		}
		return i, true
	case Wrap:
		return ((i % n) + n) % n, true
	}
	panic(fmt.Sprintf("unknown boundary mode %d", int(mode)))
}
