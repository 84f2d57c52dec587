/*package model defines the direction-prediction interface the tracking
propagator consumes, along with two deterministic built-in models. A
model sees one interpolated feature row and the previous direction per
streamline and proposes the next direction for the whole batch at once.
*/
package model

import "github.com/goki/mat32"

// State carries per-streamline model context (hidden state, direction
// history) between propagation steps. It is owned by the propagator:
// passed back in at every step and replaced by the step's output.
type State interface {
	Len() int
	// Keep compacts the state down to the given rows, preserving their
	// order. The tracker calls this when streamlines leave the active
	// set so that terminated rows stop being updated.
	Keep(rows []int) State
}

// Model proposes the next direction for every streamline in a batch.
type Model interface {
	// Init returns the state used to begin tracking n streamlines.
	Init(n int) State
	// Predict consumes one feature row and the previous unit direction
	// per streamline (the zero vector before the first accepted step)
	// and returns the proposed directions plus the updated state.
	// Directions need not be normalized; the propagator rejects
	// degenerate ones.
	Predict(feats [][]float32, prev []mat32.Vec3, st State) ([]mat32.Vec3, State)
}

// noState is the state of stateless models: just a row count.
type noState int

func (s noState) Len() int { return int(s) }

func (s noState) Keep(rows []int) State { return noState(len(rows)) }
