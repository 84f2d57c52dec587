/*package tracking propagates batches of streamlines through an MRI
volume. A composed Tracker drives a pluggable Propagator: every step it
gathers the tails of all still-active streamlines, lets the propagator
sample the volume and predict one direction per streamline, then applies
the stopping criteria and compacts the active set. Streamlines are
tracked in both directions from their seed unless told otherwise.
*/
package tracking

import (
	"fmt"

	"github.com/goki/mat32"
)

// Status is the lifecycle stage of a streamline.
type Status int

const (
	Seeded Status = iota
	Active
	Terminated
)

// Streamline is an ordered, growable sequence of voxel-space positions.
// It grows one point per propagation step while live and becomes
// immutable once terminated.
type Streamline struct {
	Points []mat32.Vec3

	// InvalidCount counts consecutive steps whose proposed direction
	// was rejected. Reset to zero by any accepted direction.
	InvalidCount int

	status Status
}

// NewStreamline creates a streamline holding only its seed point.
func NewStreamline(seed mat32.Vec3, maxPts int) *Streamline {
	pts := make([]mat32.Vec3, 1, maxPts)
	pts[0] = seed
	return &Streamline{Points: pts, status: Seeded}
}

func (s *Streamline) Len() int { return len(s.Points) }

// Last returns the current tail position.
func (s *Streamline) Last() mat32.Vec3 { return s.Points[len(s.Points)-1] }

// Append grows the streamline by one point. Panics after termination:
// terminated streamlines are immutable.
func (s *Streamline) Append(p mat32.Vec3) {
	if s.status == Terminated {
		panic(fmt.Sprintf(
			"append to terminated streamline of %d points", s.Len(),
		))
	}
	s.status = Active
	s.Points = append(s.Points, p)
}

// Terminate removes the streamline from play for good.
func (s *Streamline) Terminate() { s.status = Terminated }

func (s *Streamline) Status() Status { return s.status }

// Reverse flips the point order in place, so that the backward phase
// can continue from the seed end of a forward-propagated line.
func (s *Streamline) Reverse() {
	for i, j := 0, len(s.Points)-1; i < j; i, j = i+1, j-1 {
		s.Points[i], s.Points[j] = s.Points[j], s.Points[i]
	}
}

// reactivate rearms a streamline for the backward phase.
func (s *Streamline) reactivate() {
	s.status = Active
	s.InvalidCount = 0
}
