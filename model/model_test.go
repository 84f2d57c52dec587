package model

import (
	"testing"

	"github.com/goki/mat32"
	"github.com/stretchr/testify/assert"
)

func TestCopyPrev(t *testing.T) {
	m := &CopyPrev{Initial: mat32.NewVec3(1, 0, 0)}
	st := m.Init(3)
	assert.Equal(t, 3, st.Len())

	prev := []mat32.Vec3{
		{},
		{X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: -1},
	}
	dirs, st := m.Predict(make([][]float32, 3), prev, st)

	assert.Equal(t, mat32.NewVec3(1, 0, 0), dirs[0])
	assert.Equal(t, prev[1], dirs[1])
	assert.Equal(t, prev[2], dirs[2])
	assert.Equal(t, 3, st.Len())
}

func TestStateKeep(t *testing.T) {
	m := &CopyPrev{}
	st := m.Init(5)
	st = st.Keep([]int{0, 3, 4})
	assert.Equal(t, 3, st.Len())
}

func TestVectorField(t *testing.T) {
	m := &VectorField{}
	st := m.Init(2)

	feats := [][]float32{
		{1, 0, 0, 0.5},
		{0, 2, 0, 0.5},
	}
	prev := []mat32.Vec3{
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: -1, Z: 0},
	}
	dirs, _ := m.Predict(feats, prev, st)

	// Row 0 already points along prev; row 1 folds back and must flip.
	assert.Equal(t, mat32.NewVec3(1, 0, 0), dirs[0])
	assert.Equal(t, mat32.NewVec3(0, -2, 0), dirs[1])
}

func TestVectorFieldNeedsThreeChannels(t *testing.T) {
	m := &VectorField{}
	st := m.Init(1)
	prev := []mat32.Vec3{{X: 1, Y: 0, Z: 0}}
	assert.Panics(t, func() {
		m.Predict([][]float32{{1, 2}}, prev, st)
	})
}
