package model

import (
	"fmt"

	"github.com/goki/mat32"
)

// VectorField reads the proposed direction straight out of the first
// three feature channels, treating a rank-4 input volume as a principal
// direction field (e.g. a peaks map). Directions are sign-flipped when
// needed so that they never fold back against the previous direction.
type VectorField struct{}

func (m *VectorField) Init(n int) State { return noState(n) }

func (m *VectorField) Predict(
	feats [][]float32, prev []mat32.Vec3, st State,
) ([]mat32.Vec3, State) {
	dirs := make([]mat32.Vec3, len(feats))
	for i, row := range feats {
		if len(row) < 3 {
			panic(fmt.Sprintf(
				"direction field needs >= 3 channels, got %d", len(row),
			))
		}
		d := mat32.NewVec3(row[0], row[1], row[2])
		if d.Dot(prev[i]) < 0 {
			d = d.Negate()
		}
		dirs[i] = d
	}
	return dirs, st
}
