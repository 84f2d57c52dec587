/*package interp samples MRI volumes at arbitrary sub-voxel positions.

The primary path, Values, evaluates a rank-3 or rank-4 grid at a batch
of voxel-space positions with trilinear interpolation, computing the
eight basis weights of every position through a fixed 8x8 transform
matrix (Bourke's formulation, see spie.org/samples/PM159.pdf). The
whole batch is handled with one matrix product so that the tracker can
sample thousands of streamline tails per step at fixed cost.

Resample is the reference path: per-axis linear interpolation with a
selectable out-of-bounds policy. At mode Nearest it agrees with Values,
which always clamps.
*/
package interp

import (
	"fmt"

	"github.com/goki/mat32"
	"gonum.org/v1/gonum/mat"

	"github.com/levje/dwi-ml/volume"
)

// cornerBox lists the offsets from floor(position) to the 8 voxel
// corners surrounding it, ordered to match the columns of b1.
var cornerBox = [8][3]int{
	{0, 0, 0},
	{0, 0, 1},
	{0, 1, 0},
	{0, 1, 1},
	{1, 0, 0},
	{1, 0, 1},
	{1, 1, 0},
	{1, 1, 1},
}

// b1 converts the 8 corner samples of a unit cell into the coefficients
// of the trilinear polynomial: constant, dx, dy, dz, dx*dy, dy*dz,
// dx*dz, dx*dy*dz. Its transpose maps the monomial vector Q of a
// position onto the corner weights. Both are initialized once and never
// written again.
var b1 = mat.NewDense(8, 8, []float64{
	1, 0, 0, 0, 0, 0, 0, 0,
	-1, 0, 0, 0, 1, 0, 0, 0,
	-1, 0, 1, 0, 0, 0, 0, 0,
	-1, 1, 0, 0, 0, 0, 0, 0,
	1, 0, -1, 0, -1, 0, 1, 0,
	1, -1, -1, 1, 0, 0, 0, 0,
	1, -1, 0, 0, -1, 1, 0, 0,
	-1, 1, 1, -1, 1, -1, -1, 1,
})

var b1T = mat.DenseCopyOf(b1.T())

// Values evaluates vol at every position in coords. The result has one
// row per position and one column per channel (a single column for
// rank-3 grids). Positions outside the grid are clamped to the nearest
// voxel, never rejected.
//
// Values panics if the volume is not rank 3 or 4, or if the volume and
// the coordinate batch do not live on the same device. It is a pure
// function of its inputs.
func Values(vol *volume.Volume, coords volume.Coords) [][]float32 {
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
	nc := vol.Channels()
	out := make([][]float32, n)

	if n == 0 {
		return out
	}

	// Weights for the whole batch at once: w = b1^T * Q, where column
	// j of Q holds the monomials of position j.
	q := mat.NewDense(8, n, nil)
	fl := make([][3]int, n)
	for j, p := range coords.Pos {
		fx, fy, fz := mat32.Floor(p.X), mat32.Floor(p.Y), mat32.Floor(p.Z)
		fl[j] = [3]int{int(fx), int(fy), int(fz)}

		dx := float64(p.X - fx)
		dy := float64(p.Y - fy)
		dz := float64(p.Z - fz)
		q.Set(0, j, 1)
		q.Set(1, j, dx)
		q.Set(2, j, dy)
		q.Set(3, j, dz)
		q.Set(4, j, dx*dy)
		q.Set(5, j, dy*dz)
		q.Set(6, j, dx*dz)
		q.Set(7, j, dx*dy*dz)
	}
	w := &mat.Dense{}
	w.Mul(b1T, q)

	nx, ny, nz := vol.Dim(0), vol.Dim(1), vol.Dim(2)
	acc := make([]float64, nc)

	for j := range coords.Pos {
		for c := range acc {
			acc[c] = 0
		}
		for i := 0; i < 8; i++ {
			x := clampIdx(fl[j][0]+cornerBox[i][0], nx)
			y := clampIdx(fl[j][1]+cornerBox[i][1], ny)
			z := clampIdx(fl[j][2]+cornerBox[i][2], nz)
			wi := w.At(i, j)
			for c := 0; c < nc; c++ {
				acc[c] += wi * float64(vol.At(x, y, z, c))
			}
		}
		row := make([]float32, nc)
		for c := 0; c < nc; c++ {
			row[c] = float32(acc[c])
		}
		out[j] = row
	}
	return out
}

func clampIdx(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
