package model

import "github.com/goki/mat32"

// CopyPrev proposes the previous direction again, unchanged. On the
// first step, where no previous direction exists, it proposes Initial.
// The simplest possible baseline: a streamline tracked with it is a
// straight line.
type CopyPrev struct {
	Initial mat32.Vec3
}

func (m *CopyPrev) Init(n int) State { return noState(n) }

func (m *CopyPrev) Predict(
	feats [][]float32, prev []mat32.Vec3, st State,
) ([]mat32.Vec3, State) {
	dirs := make([]mat32.Vec3, len(prev))
	for i, p := range prev {
		if p.Length() == 0 {
			dirs[i] = m.Initial
		} else {
			dirs[i] = p
		}
	}
	return dirs, st
}
