package island

import (
	"sort"

	"mu-bmd-unroll/internal/uvmesh"
)

// Detect partitions every face-corner of v into islands: maximal sets of
// faces joined through coincident corners. Islands are numbered in discovery
// order, which follows ascending face index.
//
// Time: O(F + C·k), k = corners per vertex. Memory: O(F).
func Detect(v *uvmesh.View) []*Island {
	owner := make([]int, v.NumFaces())
	for i := range owner {
		owner[i] = -1
	}

	var islands []*Island
	for f0 := 0; f0 < v.NumFaces(); f0++ {
		if owner[f0] >= 0 {
			continue
		}
		id := len(islands)
		owner[f0] = id
		queue := []int{f0}

		for qi := 0; qi < len(queue); qi++ {
			f := queue[qi]
			for _, c := range v.FaceCorners(f) {
				for _, o := range v.Coincident(c) {
					g := v.FaceOf(o)
					if owner[g] < 0 {
						owner[g] = id
						queue = append(queue, g)
					}
				}
			}
		}
		islands = append(islands, newIsland(id, v, queue))
	}
	return islands
}

func newIsland(id int, v *uvmesh.View, faces []int) *Island {
	sort.Ints(faces)
	is := &Island{
		ID:     id,
		view:   v,
		faces:  faces,
		member: make(map[int]struct{}),
	}
	for _, f := range faces {
		for _, c := range v.FaceCorners(f) {
			is.corners = append(is.corners, c)
			is.member[c] = struct{}{}
		}
	}
	return is
}
