package uvmesh

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

var (
	// ErrDegenerateFace indicates a face with fewer than three corners.
	ErrDegenerateFace = errors.New("uvmesh: face needs at least 3 corners")
	// ErrCornerMismatch indicates a face whose vertex and UV lists differ in length.
	ErrCornerMismatch = errors.New("uvmesh: vertex and uv counts differ")
	// ErrVertexRange indicates a corner referencing an unknown vertex.
	ErrVertexRange = errors.New("uvmesh: vertex index out of range")
	// ErrInvalidUV indicates a NaN UV component.
	ErrInvalidUV = errors.New("uvmesh: uv is NaN")
)

// Builder assembles a View face by face.
type Builder struct {
	positions []r3.Vector
	faceStart []int
	verts     []int
	uvs       []r2.Point
	maxVert   int
	err       error
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{faceStart: []int{0}, maxVert: -1}
}

// AddVertex registers a vertex position and returns its index. Hosts without
// positions may skip AddVertex entirely; vertices are then implied by the
// indices used in AddFace.
func (b *Builder) AddVertex(p r3.Vector) int {
	b.positions = append(b.positions, p)
	return len(b.positions) - 1
}

// AddFace appends a face whose corners touch verts with the matching uvs, in
// cycle order, and returns the face index. The first error is kept and
// reported by Build.
func (b *Builder) AddFace(verts []int, uvs []r2.Point) int {
	face := len(b.faceStart) - 1
	if b.err != nil {
		return face
	}
	switch {
	case len(verts) != len(uvs):
		b.err = errors.Wrapf(ErrCornerMismatch, "face %d: %d vertices, %d uvs", face, len(verts), len(uvs))
		return face
	case len(verts) < 3:
		b.err = errors.Wrapf(ErrDegenerateFace, "face %d has %d corners", face, len(verts))
		return face
	}
	for i, vi := range verts {
		if vi < 0 {
			b.err = errors.Wrapf(ErrVertexRange, "face %d corner %d: vertex %d", face, i, vi)
			return face
		}
		if !validUV(uvs[i]) {
			b.err = errors.Wrapf(ErrInvalidUV, "face %d corner %d", face, i)
			return face
		}
		if vi > b.maxVert {
			b.maxVert = vi
		}
	}
	b.verts = append(b.verts, verts...)
	b.uvs = append(b.uvs, uvs...)
	b.faceStart = append(b.faceStart, len(b.verts))
	return face
}

// Build validates the collected faces and precomputes the vertex→corners and
// corner→coincident-corners maps.
func (b *Builder) Build() (*View, error) {
	if b.err != nil {
		return nil, b.err
	}
	numVerts := b.maxVert + 1
	if b.positions != nil {
		if b.maxVert >= len(b.positions) {
			return nil, errors.Wrapf(ErrVertexRange, "vertex %d of %d", b.maxVert, len(b.positions))
		}
		numVerts = len(b.positions)
	}

	n := len(b.verts)
	v := &View{
		faceStart:   append([]int(nil), b.faceStart...),
		cornerFace:  make([]int, n),
		cornerVert:  append([]int(nil), b.verts...),
		uv:          append([]r2.Point(nil), b.uvs...),
		vertCorners: make([][]int, numVerts),
		coincident:  make([][]int, n),
		pending:     make(map[int]r2.Point),
	}
	if b.positions != nil {
		v.pos = append([]r3.Vector(nil), b.positions...)
	}
	for f := 0; f+1 < len(v.faceStart); f++ {
		for c := v.faceStart[f]; c < v.faceStart[f+1]; c++ {
			v.cornerFace[c] = f
		}
	}
	for c, vi := range v.cornerVert {
		v.vertCorners[vi] = append(v.vertCorners[vi], c)
	}
	for vi := range v.vertCorners {
		v.linkVertex(vi)
	}
	return v, nil
}
