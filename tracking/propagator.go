package tracking

import (
	"fmt"
	"math"

	"github.com/goki/mat32"

	"github.com/levje/dwi-ml/interp"
	"github.com/levje/dwi-ml/model"
	"github.com/levje/dwi-ml/volume"
)

// Info is the propagator-owned per-streamline context threaded between
// steps: previous directions, model hidden state, whatever the
// propagator needs. The tracker never looks inside, it only compacts
// rows as streamlines terminate.
type Info interface {
	Len() int
	// Keep compacts the context down to the given rows, preserving
	// their order.
	Keep(rows []int) Info
}

// Propagator advances a batch of streamlines one step at a time.
// Implementations must be vectorized: Propagate sees the whole active
// batch and is expected to sample the input volume once per step, not
// once per streamline.
type Propagator interface {
	// PrepareForward builds the context needed to start forward
	// propagation from the given seeds. Pure initialization; no
	// stopping criteria are evaluated here.
	PrepareForward(seeds []mat32.Vec3) Info

	// PrepareBackward rebuilds the context for propagating the
	// reversed half of already-forward-propagated lines.
	PrepareBackward(lines []*Streamline, info Info) Info

	// Propagate performs one vectorized step: next position per
	// streamline, updated context, and a validity flag telling whether
	// the proposed direction passed the sanity checks.
	Propagate(pos []mat32.Vec3, info Info) ([]mat32.Vec3, Info, []bool)

	// FinalizeStreamline proposes an optional last partial step for
	// row. The second return is false when no extra point should be
	// appended.
	FinalizeStreamline(last mat32.Vec3, info Info, row int) (mat32.Vec3, bool)

	// ResetData drops (reload == false) or reloads (reload == true)
	// the in-memory input data. The tracker drops before splitting off
	// a worker pool and reloads inside each worker, so the volume is
	// never duplicated into workers wholesale.
	ResetData(reload bool) error

	// Lazy reports whether ResetData(true) can recover dropped data.
	Lazy() bool

	// ThreadCopy copies enough of the propagator's state to a new
	// instance so that both can run Propagate simultaneously.
	ThreadCopy(id, workers int) Propagator
}

// modelInfo is the context of a ModelPropagator: one previous unit
// direction per streamline (zero until the first accepted step) plus
// the model state.
type modelInfo struct {
	prev []mat32.Vec3
	st   model.State
}

func (mi *modelInfo) Len() int { return len(mi.prev) }

func (mi *modelInfo) Keep(rows []int) Info {
	prev := make([]mat32.Vec3, len(rows))
	for i, r := range rows {
		prev[i] = mi.prev[r]
	}
	return &modelInfo{prev: prev, st: mi.st.Keep(rows)}
}

// ModelPropagator steps streamlines along the directions predicted by a
// model from features interpolated out of the input volume. A proposed
// direction is rejected when its norm is degenerate or when it bends
// more than MaxAngle away from the previous direction; rejected steps
// fall back to going straight.
type ModelPropagator struct {
	Source volume.DataSource
	Model  model.Model

	// StepSize is the distance between consecutive points, in voxels.
	StepSize float32
	// MaxAngle is the largest accepted bend per step, in degrees.
	MaxAngle float32

	cosTheta float32
}

// minDirNorm rejects directions too short to orient reliably.
const minDirNorm = 1e-6

func NewModelPropagator(
	src volume.DataSource, m model.Model, stepSize, maxAngle float32,
) *ModelPropagator {
	if stepSize <= 0 {
		panic(fmt.Sprintf("step size is %g, must be positive", stepSize))
	}
	return &ModelPropagator{
		Source:   src,
		Model:    m,
		StepSize: stepSize,
		MaxAngle: maxAngle,
		cosTheta: float32(math.Cos(float64(maxAngle) * math.Pi / 180)),
	}
}

func (p *ModelPropagator) PrepareForward(seeds []mat32.Vec3) Info {
	return &modelInfo{
		prev: make([]mat32.Vec3, len(seeds)),
		st:   p.Model.Init(len(seeds)),
	}
}

func (p *ModelPropagator) PrepareBackward(lines []*Streamline, info Info) Info {
	// The lines come in already reversed: their tail is the seed end.
	// The previous direction of the backward phase is the direction of
	// the last segment, pointing away from the old first point.
	prev := make([]mat32.Vec3, len(lines))
	for i, ln := range lines {
		if ln.Len() > 1 {
			seg := ln.Points[ln.Len()-1].Sub(ln.Points[ln.Len()-2])
			if seg.Length() > minDirNorm {
				prev[i] = seg.Normal()
			}
		}
	}
	return &modelInfo{prev: prev, st: p.Model.Init(len(lines))}
}

func (p *ModelPropagator) Propagate(
	pos []mat32.Vec3, info Info,
) ([]mat32.Vec3, Info, []bool) {
	mi := info.(*modelInfo)
	if len(pos) != mi.Len() {
		panic(fmt.Sprintf(
			"%d positions for %d context rows", len(pos), mi.Len(),
		))
	}

	vol := p.Source.Volume()
	if vol == nil {
		panic("propagate on a dropped data source")
	}

	// One interpolation call for the whole active batch.
	feats := interp.Values(vol, volume.Coords{Pos: pos, Dev: vol.Dev})
	dirs, st := p.Model.Predict(feats, mi.prev, mi.st)

	next := make([]mat32.Vec3, len(pos))
	prev := make([]mat32.Vec3, len(pos))
	valid := make([]bool, len(pos))

	for i, d := range dirs {
		n := d.Length()
		ok := n > minDirNorm
		if ok && mi.prev[i].Length() > 0 {
			ok = d.Dot(mi.prev[i])/n >= p.cosTheta
		}

		if ok {
			d = d.DivScalar(n)
		} else {
			// Recoverable: keep going straight and let the tracker
			// count the failure.
			d = mi.prev[i]
		}
		next[i] = pos[i].Add(d.MulScalar(p.StepSize))
		prev[i] = d
		valid[i] = ok
	}
	return next, &modelInfo{prev: prev, st: st}, valid
}

func (p *ModelPropagator) FinalizeStreamline(
	last mat32.Vec3, info Info, row int,
) (mat32.Vec3, bool) {
	mi := info.(*modelInfo)
	d := mi.prev[row]
	if d.Length() <= minDirNorm {
		return last, false
	}
	fin := last.Add(d.MulScalar(p.StepSize / 2))
	if fin == last {
		return last, false
	}
	return fin, true
}

func (p *ModelPropagator) ResetData(reload bool) error {
	if reload {
		return p.Source.Reload()
	}
	p.Source.Drop()
	return nil
}

func (p *ModelPropagator) Lazy() bool { return p.Source.Lazy() }

func (p *ModelPropagator) ThreadCopy(id, workers int) Propagator {
	cp := *p
	cp.Source = p.Source.Fork()
	return &cp
}
