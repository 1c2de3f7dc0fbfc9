// Package island finds UV islands in a uvmesh.View and picks the corner a
// grid unroll starts from.
package island

import (
	"github.com/pkg/errors"

	"mu-bmd-unroll/internal/uvmesh"
)

// Island is one maximal UV-continuous set of faces and their corners.
type Island struct {
	ID int

	view    *uvmesh.View
	faces   []int
	corners []int
	member  map[int]struct{}
}

// View returns the snapshot the island was detected in.
func (is *Island) View() *uvmesh.View { return is.view }

// Faces returns the island's faces in ascending order.
func (is *Island) Faces() []int { return is.faces }

// Corners returns the island's corners in ascending order.
func (is *Island) Corners() []int { return is.corners }

// Contains reports whether corner c belongs to the island.
func (is *Island) Contains(c int) bool {
	_, ok := is.member[c]
	return ok
}

// IsQuadGrid reports whether every face of the island has four corners.
func (is *Island) IsQuadGrid() bool {
	return is.CheckQuads() == nil
}

// CheckQuads returns ErrTopology naming the first face without four corners.
func (is *Island) CheckQuads() error {
	for _, f := range is.faces {
		if n := is.view.FaceSize(f); n != 4 {
			return errors.Wrapf(ErrTopology, "island %d: face %d has %d corners", is.ID, f, n)
		}
	}
	return nil
}

// StructuralCorners returns the corners no other corner is coincident with,
// in ascending order. On a clean quad patch these are its four outer corners.
func (is *Island) StructuralCorners() []int {
	var out []int
	for _, c := range is.corners {
		if len(is.view.Coincident(c)) == 0 {
			out = append(out, c)
		}
	}
	return out
}

// ChooseOrigin walks the boundary from each structural corner in the Prev
// direction, summing UV distance, and returns the corner with the longest
// walk. Ties keep the earliest corner in the given order.
func (is *Island) ChooseOrigin(structural []int, maxSteps int) (int, error) {
	if err := is.CheckQuads(); err != nil {
		return -1, err
	}
	if len(structural) == 0 {
		return -1, errors.Wrapf(ErrTopology, "island %d: no structural corner", is.ID)
	}

	best, bestLen := -1, -1.0
	for _, c := range structural {
		path, err := Walk(is.view, c, Prev, is.view.UVDistance, maxSteps)
		if err != nil {
			return -1, errors.Wrapf(err, "island %d: boundary walk", is.ID)
		}
		if l := path.Total(); l > bestLen {
			best, bestLen = c, l
		}
	}
	return best, nil
}

// Origin chooses the origin among the island's own structural corners.
func (is *Island) Origin(maxSteps int) (int, error) {
	return is.ChooseOrigin(is.StructuralCorners(), maxSteps)
}

// Summary describes an island for logs and reports.
type Summary struct {
	ID         int   `json:"id"`
	Faces      int   `json:"faces"`
	Corners    int   `json:"corners"`
	Quads      bool  `json:"quads"`
	Structural []int `json:"structural"`
}

// Summary returns the island's summary.
func (is *Island) Summary() Summary {
	return Summary{
		ID:         is.ID,
		Faces:      len(is.faces),
		Corners:    len(is.corners),
		Quads:      is.IsQuadGrid(),
		Structural: is.StructuralCorners(),
	}
}
