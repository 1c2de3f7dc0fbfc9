package island

import (
	"github.com/pkg/errors"

	"mu-bmd-unroll/internal/uvmesh"
)

// DefaultMaxSteps bounds every lattice walk. Real boundaries end a walk long
// before this; reaching it means the adjacency is corrupt.
const DefaultMaxSteps = 10000

// Direction selects which neighbour inside a face a walk moves to.
type Direction int

const (
	// Prev walks to the previous corner of each face (rows).
	Prev Direction = iota
	// Next walks to the next corner of each face (columns).
	Next
)

func (d Direction) String() string {
	if d == Next {
		return "next"
	}
	return "prev"
}

// Step returns d(c).
func (d Direction) Step(v *uvmesh.View, c int) int {
	if d == Next {
		return v.Next(c)
	}
	return v.Prev(c)
}

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	if d == Next {
		return Prev
	}
	return Next
}

// Continuation finds the corner that carries a walk in direction d across
// the edge {b, d(b)} into the neighbouring face. The candidate b' must be
// coincident with b, and d⁻¹(b') must be coincident with d(b). It returns
// false at a boundary and ErrTopology when more than one candidate fits.
func Continuation(v *uvmesh.View, b int, d Direction) (int, bool, error) {
	across := d.Step(v, b)
	back := d.Reverse()
	found, n := -1, 0
	for _, cand := range v.Coincident(b) {
		if !v.IsCoincident(back.Step(v, cand), across) {
			continue
		}
		if n == 0 {
			found = cand
		}
		n++
	}
	switch n {
	case 0:
		return -1, false, nil
	case 1:
		return found, true, nil
	default:
		return -1, false, errors.Wrapf(ErrTopology, "%d branches continue corner %d (%s)", n, b, d)
	}
}

// LengthFunc measures the lattice step between two corners of one face.
type LengthFunc func(a, b int) float64

// Path is the result of one lattice walk. Anchors[i] is the anchor corner of
// the i-th cell and Lengths[i] that cell's extent in the walk direction.
type Path struct {
	Anchors []int
	Lengths []float64
}

// Total returns the accumulated length of the walk.
func (p Path) Total() float64 {
	var sum float64
	for _, l := range p.Lengths {
		sum += l
	}
	return sum
}

// Offsets returns the running totals, starting at 0; len(Anchors)+1 values.
func (p Path) Offsets() []float64 {
	out := make([]float64, len(p.Lengths)+1)
	for i, l := range p.Lengths {
		out[i+1] = out[i] + l
	}
	return out
}

// Walk follows the lattice from start in direction d until no continuation
// exists. A revisited anchor or more than maxSteps steps aborts the walk
// with ErrSafetyLimitExceeded.
func Walk(v *uvmesh.View, start int, d Direction, length LengthFunc, maxSteps int) (Path, error) {
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	path := Path{Anchors: []int{start}}
	seen := map[int]struct{}{start: {}}

	a := start
	for step := 0; ; step++ {
		if step >= maxSteps {
			return Path{}, errors.Wrapf(ErrSafetyLimitExceeded, "walk %s from corner %d: %d steps", d, start, maxSteps)
		}
		b := d.Step(v, a)
		path.Lengths = append(path.Lengths, length(a, b))

		next, ok, err := Continuation(v, b, d)
		if err != nil {
			return Path{}, err
		}
		if !ok {
			return path, nil
		}
		if _, dup := seen[next]; dup {
			return Path{}, errors.Wrapf(ErrSafetyLimitExceeded, "walk %s from corner %d: cycle at corner %d", d, start, next)
		}
		seen[next] = struct{}{}
		path.Anchors = append(path.Anchors, next)
		a = next
	}
}
