package tracking

import (
	"testing"

	"github.com/emer/etable/etensor"
	"github.com/goki/mat32"
	"github.com/stretchr/testify/assert"

	"github.com/levje/dwi-ml/model"
	"github.com/levje/dwi-ml/volume"
)

func TestPrepareBackwardDirections(t *testing.T) {
	prop := NewModelPropagator(
		constSource(8, 1), &model.CopyPrev{}, 0.5, 20,
	)

	// Already reversed: the tail is the seed end, so the backward
	// direction continues away from the old first point.
	reversed := &Streamline{Points: []mat32.Vec3{
		{X: 4, Y: 4, Z: 4},
		{X: 3, Y: 4, Z: 4},
		{X: 2, Y: 4, Z: 4},
	}}
	short := &Streamline{Points: []mat32.Vec3{{X: 1, Y: 1, Z: 1}}}

	info := prop.PrepareBackward(
		[]*Streamline{reversed, short}, prop.PrepareForward(
			[]mat32.Vec3{{X: 2, Y: 4, Z: 4}, {X: 1, Y: 1, Z: 1}},
		),
	)
	mi := info.(*modelInfo)

	assert.Equal(t, 2, mi.Len())
	assert.Equal(t, mat32.NewVec3(-1, 0, 0), mi.prev[0])
	assert.Equal(t, mat32.Vec3{}, mi.prev[1])
}

func TestPropagateBatchedInterpolation(t *testing.T) {
	// A direction-field volume pointing along +y everywhere.
	data := etensor.NewFloat32([]int{8, 8, 8, 3}, nil, nil)
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			for z := 0; z < 8; z++ {
				data.Set([]int{x, y, z, 1}, 1)
			}
		}
	}
	src := volume.NewMemSource(volume.New(data, volume.CPU))
	prop := NewModelPropagator(src, &model.VectorField{}, 0.5, 20)

	pos := []mat32.Vec3{
		{X: 2, Y: 2, Z: 2},
		{X: 5.5, Y: 3.25, Z: 4},
		{X: 1, Y: 6, Z: 6.5},
	}
	info := prop.PrepareForward(pos)
	next, info, valid := prop.Propagate(pos, info)

	assert.Equal(t, 3, info.Len())
	for i := range pos {
		assert.True(t, valid[i], "row %d", i)
		assert.Equal(t, pos[i].Add(mat32.NewVec3(0, 0.5, 0)), next[i],
			"row %d", i)
	}
}

// constModel always proposes the same direction.
type constModel struct {
	dir mat32.Vec3
}

func (m *constModel) Init(n int) model.State { return countState(n) }

func (m *constModel) Predict(
	feats [][]float32, prev []mat32.Vec3, st model.State,
) ([]mat32.Vec3, model.State) {
	dirs := make([]mat32.Vec3, len(prev))
	for i := range dirs {
		dirs[i] = m.dir
	}
	return dirs, st
}

func TestPropagateAngleRejection(t *testing.T) {
	prop := NewModelPropagator(
		constSource(8, 1), &constModel{dir: mat32.NewVec3(1, 0, 0)},
		0.5, 20,
	)

	pos := []mat32.Vec3{{X: 4, Y: 4, Z: 4}}
	info := &modelInfo{
		// The model proposes +x, 90 degrees away from +y.
		prev: []mat32.Vec3{{X: 0, Y: 1, Z: 0}},
		st:   prop.Model.Init(1),
	}

	next, newInfo, valid := prop.Propagate(pos, info)

	assert.False(t, valid[0])
	// Rejected steps keep going straight along the previous direction.
	assert.Equal(t, mat32.NewVec3(4, 4.5, 4), next[0])
	assert.Equal(t, mat32.NewVec3(0, 1, 0), newInfo.(*modelInfo).prev[0])
}

func TestFinalizeHalfStep(t *testing.T) {
	prop := NewModelPropagator(
		constSource(8, 1), &model.CopyPrev{}, 1.0, 20,
	)

	info := &modelInfo{
		prev: []mat32.Vec3{{X: 1, Y: 0, Z: 0}, {}},
		st:   prop.Model.Init(2),
	}

	fin, ok := prop.FinalizeStreamline(mat32.NewVec3(3, 3, 3), info, 0)
	assert.True(t, ok)
	assert.Equal(t, mat32.NewVec3(3.5, 3, 3), fin)

	// No direction yet: nothing to append.
	_, ok = prop.FinalizeStreamline(mat32.NewVec3(3, 3, 3), info, 1)
	assert.False(t, ok)
}

func TestPropagateOnDroppedSourcePanics(t *testing.T) {
	dir := t.TempDir()
	vol := volume.New(etensor.NewFloat32([]int{4, 4, 4}, nil, nil), volume.CPU)
	path := dir + "/vol.nvol"
	if err := volume.WriteVolumeFile(path, vol); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	src, err := volume.NewFileSource(path, volume.CPU)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	prop := NewModelPropagator(src, &model.CopyPrev{}, 0.5, 20)
	pos := []mat32.Vec3{{X: 1, Y: 1, Z: 1}}
	info := prop.PrepareForward(pos)

	if err := prop.ResetData(false); err != nil {
		t.Fatalf("drop failed: %v", err)
	}
	assert.Panics(t, func() { prop.Propagate(pos, info) })

	if err := prop.ResetData(true); err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	_, _, _ = prop.Propagate(pos, info)
}

func TestInfoKeep(t *testing.T) {
	mi := &modelInfo{
		prev: []mat32.Vec3{{X: 1, Y: 0, Z: 0}, {X: 0, Y: 1, Z: 0}, {X: 0, Y: 0, Z: 1}, {X: 2, Y: 0, Z: 0}},
		st:   countState(4),
	}
	kept := mi.Keep([]int{0, 2}).(*modelInfo)

	assert.Equal(t, 2, kept.Len())
	assert.Equal(t, mat32.NewVec3(1, 0, 0), kept.prev[0])
	assert.Equal(t, mat32.NewVec3(0, 0, 1), kept.prev[1])
	assert.Equal(t, 2, kept.st.Len())
}

func TestBadStepSizePanics(t *testing.T) {
	assert.Panics(t, func() {
		NewModelPropagator(constSource(4, 1), &model.CopyPrev{}, 0, 20)
	})
}
