// Package uvmesh holds an index-addressed snapshot of a mesh's face/corner
// topology together with one UV coordinate per face-corner.
//
// Faces, corners and vertices are plain ints. Corners of a face are stored
// contiguously in cycle order, so moving to the next or previous corner of a
// face is index arithmetic. UV writes are buffered and reach the host only on
// Commit.
package uvmesh

import (
	"math"
	"sort"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
)

// Sink receives committed UV coordinates, one call per written corner.
type Sink interface {
	SetCornerUV(corner int, uv r2.Point)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(corner int, uv r2.Point)

// SetCornerUV calls f(corner, uv).
func (f SinkFunc) SetCornerUV(corner int, uv r2.Point) { f(corner, uv) }

// View is the topology snapshot taken for one operation.
type View struct {
	faceStart  []int // corners of face f are [faceStart[f], faceStart[f+1])
	cornerFace []int
	cornerVert []int
	uv         []r2.Point
	pos        []r3.Vector // per vertex; nil when the host has no positions

	vertCorners [][]int
	coincident  [][]int

	pending map[int]r2.Point
}

// NumFaces returns the number of faces.
func (v *View) NumFaces() int { return len(v.faceStart) - 1 }

// NumCorners returns the number of face-corners.
func (v *View) NumCorners() int { return len(v.cornerFace) }

// NumVertices returns the number of vertices referenced by the snapshot.
func (v *View) NumVertices() int { return len(v.vertCorners) }

// FaceSize returns the number of corners of face f.
func (v *View) FaceSize(f int) int { return v.faceStart[f+1] - v.faceStart[f] }

// FaceCorners returns the corners of face f in cycle order.
func (v *View) FaceCorners(f int) []int {
	out := make([]int, 0, v.FaceSize(f))
	for c := v.faceStart[f]; c < v.faceStart[f+1]; c++ {
		out = append(out, c)
	}
	return out
}

// FaceOf returns the face owning corner c.
func (v *View) FaceOf(c int) int { return v.cornerFace[c] }

// VertexOf returns the vertex touched by corner c.
func (v *View) VertexOf(c int) int { return v.cornerVert[c] }

// VertexCorners returns every corner touching vertex vi.
func (v *View) VertexCorners(vi int) []int { return v.vertCorners[vi] }

// Next returns the corner after c in its face's cycle.
func (v *View) Next(c int) int {
	f := v.cornerFace[c]
	start, n := v.faceStart[f], v.FaceSize(f)
	return start + (c-start+1)%n
}

// Prev returns the corner before c in its face's cycle.
func (v *View) Prev(c int) int {
	f := v.cornerFace[c]
	start, n := v.faceStart[f], v.FaceSize(f)
	return start + (c-start+n-1)%n
}

// UV returns the current UV of corner c, including buffered writes.
func (v *View) UV(c int) r2.Point {
	if p, ok := v.pending[c]; ok {
		return p
	}
	return v.uv[c]
}

// HasPositions reports whether the snapshot carries vertex positions.
func (v *View) HasPositions() bool { return v.pos != nil }

// Position returns the position of vertex vi.
func (v *View) Position(vi int) (r3.Vector, bool) {
	if v.pos == nil {
		return r3.Vector{}, false
	}
	return v.pos[vi], true
}

// Coincident returns the corners sharing c's vertex with a bit-identical UV,
// excluding c. The relation reflects the last committed state.
func (v *View) Coincident(c int) []int { return v.coincident[c] }

// IsCoincident reports whether a and b are distinct coincident corners.
func (v *View) IsCoincident(a, b int) bool {
	if a == b || v.cornerVert[a] != v.cornerVert[b] {
		return false
	}
	return v.uv[a] == v.uv[b]
}

// UVDistance returns the Euclidean distance between two corners' UVs.
func (v *View) UVDistance(a, b int) float64 {
	return v.UV(a).Sub(v.UV(b)).Norm()
}

// EdgeLength returns the distance between the vertices of a and b along the
// mesh surface. Without vertex positions it falls back to UVDistance.
func (v *View) EdgeLength(a, b int) float64 {
	if v.pos == nil {
		return v.UVDistance(a, b)
	}
	return v.pos[v.cornerVert[a]].Distance(v.pos[v.cornerVert[b]])
}

// SetUV buffers p for corner c and for every corner coincident with c at call
// time, so a welded group stays welded after the move.
func (v *View) SetUV(c int, p r2.Point) {
	cur := v.UV(c)
	for _, o := range v.vertCorners[v.cornerVert[c]] {
		if o == c || v.UV(o) == cur {
			v.pending[o] = p
		}
	}
}

// Pending returns the number of corners with buffered writes.
func (v *View) Pending() int { return len(v.pending) }

// Discard drops all buffered writes.
func (v *View) Discard() {
	v.pending = make(map[int]r2.Point)
}

// Commit flushes buffered writes to sink in ascending corner order and makes
// them part of the snapshot. It returns the number of corners written.
func (v *View) Commit(sink Sink) int {
	if len(v.pending) == 0 {
		return 0
	}
	corners := make([]int, 0, len(v.pending))
	for c := range v.pending {
		corners = append(corners, c)
	}
	sort.Ints(corners)

	touched := make(map[int]struct{})
	for _, c := range corners {
		p := v.pending[c]
		if sink != nil {
			sink.SetCornerUV(c, p)
		}
		v.uv[c] = p
		touched[v.cornerVert[c]] = struct{}{}
	}
	v.pending = make(map[int]r2.Point)
	for vi := range touched {
		v.linkVertex(vi)
	}
	return len(corners)
}

// Bounds returns the UV bounding rectangle of the given corners.
func (v *View) Bounds(corners []int) r2.Rect {
	rect := r2.EmptyRect()
	for _, c := range corners {
		rect = rect.AddPoint(v.UV(c))
	}
	return rect
}

// linkVertex recomputes the coincidence lists of every corner at vertex vi.
func (v *View) linkVertex(vi int) {
	group := v.vertCorners[vi]
	for _, a := range group {
		var peers []int
		for _, b := range group {
			if a != b && v.uv[a] == v.uv[b] {
				peers = append(peers, b)
			}
		}
		v.coincident[a] = peers
	}
}

// validUV reports whether p can take part in exact coincidence tests.
func validUV(p r2.Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y)
}
