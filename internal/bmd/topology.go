package bmd

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"mu-bmd-unroll/internal/uvmesh"
)

// ErrIndex is returned for triangle records pointing outside their mesh.
var ErrIndex = errors.New("bmd: triangle index out of range")

type cornerRef struct {
	tri, k int
}

// Binding connects a mesh to the uvmesh view built from it. It receives
// committed UVs as a uvmesh.Sink and writes them back into the mesh's
// texcoord table on Finish.
type Binding struct {
	mesh    *Mesh
	refs    []cornerRef // view corner -> triangle corner
	written map[int]r2.Point
}

// Topology builds a view with one vertex per mesh vertex and one face per
// triangle record, corner UV = UVs[TI[k]]. pose overrides the vertex
// positions when it has one entry per vertex; nil uses Verts as stored.
func (m *Mesh) Topology(pose []r3.Vector) (*uvmesh.View, *Binding, error) {
	if pose != nil && len(pose) != len(m.Verts) {
		return nil, nil, errors.Errorf("bmd: pose has %d positions for %d vertices", len(pose), len(m.Verts))
	}
	b := uvmesh.NewBuilder()
	for i, v := range m.Verts {
		p := r3.Vector{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
		if pose != nil {
			p = pose[i]
		}
		b.AddVertex(p)
	}

	bind := &Binding{mesh: m, written: make(map[int]r2.Point)}
	for ti, t := range m.Tris {
		if t.Polygon != 3 && t.Polygon != 4 {
			return nil, nil, errors.Errorf("bmd: triangle %d has polygon type %d", ti, t.Polygon)
		}
		verts := make([]int, t.Polygon)
		uvs := make([]r2.Point, t.Polygon)
		for k := 0; k < t.Polygon; k++ {
			vi, tc := int(t.VI[k]), int(t.TI[k])
			if vi < 0 || vi >= len(m.Verts) {
				return nil, nil, errors.Wrapf(ErrIndex, "triangle %d corner %d: vertex %d of %d", ti, k, vi, len(m.Verts))
			}
			if tc < 0 || tc >= len(m.UVs) {
				return nil, nil, errors.Wrapf(ErrIndex, "triangle %d corner %d: texcoord %d of %d", ti, k, tc, len(m.UVs))
			}
			verts[k] = vi
			uvs[k] = r2.Point{X: float64(m.UVs[tc][0]), Y: float64(m.UVs[tc][1])}
			bind.refs = append(bind.refs, cornerRef{tri: ti, k: k})
		}
		b.AddFace(verts, uvs)
	}

	v, err := b.Build()
	if err != nil {
		return nil, nil, err
	}
	return v, bind, nil
}

// SetCornerUV records the committed UV of a view corner.
func (b *Binding) SetCornerUV(corner int, uv r2.Point) {
	b.written[corner] = uv
}

// Pending returns the number of corners recorded since the last Finish.
func (b *Binding) Pending() int { return len(b.written) }

// Finish writes recorded UVs into the mesh. Texcoord entries are shared
// between triangle corners, so each entry keeps the value of its first
// corner (in triangle order) and corners that now disagree with it are moved
// to appended entries; corners with equal values share one entry. It returns
// the number of entries appended. The mesh is left untouched on error.
func (b *Binding) Finish() (int, error) {
	if len(b.written) == 0 {
		return 0, nil
	}
	m := b.mesh

	type slot struct {
		uv    [2]float32
		fixed bool
	}
	type move struct {
		ref cornerRef
		idx int
	}
	slots := make([]slot, len(m.UVs))
	// extra[t] maps a value to the entry created for it from slot t.
	extra := make(map[int]map[[2]float32]int)
	var grown [][2]float32
	var moves []move

	for c, ref := range b.refs {
		tc := int(m.Tris[ref.tri].TI[ref.k])
		uv := m.UVs[tc]
		if p, ok := b.written[c]; ok {
			uv = [2]float32{float32(p.X), float32(p.Y)}
		}

		s := &slots[tc]
		switch {
		case !s.fixed:
			s.uv, s.fixed = uv, true
		case s.uv != uv:
			byVal := extra[tc]
			if byVal == nil {
				byVal = make(map[[2]float32]int)
				extra[tc] = byVal
			}
			idx, ok := byVal[uv]
			if !ok {
				idx = len(m.UVs) + len(grown)
				byVal[uv] = idx
				grown = append(grown, uv)
			}
			moves = append(moves, move{ref: ref, idx: idx})
		}
	}
	if n := len(m.UVs) + len(grown); n > math.MaxInt16 {
		return 0, errors.Errorf("bmd: rebinding needs %d texcoords", n)
	}

	for tc, s := range slots {
		if s.fixed {
			m.UVs[tc] = s.uv
		}
	}
	for _, mv := range moves {
		m.Tris[mv.ref.tri].TI[mv.ref.k] = int16(mv.idx)
	}
	m.UVs = append(m.UVs, grown...)

	b.written = make(map[int]r2.Point)
	return len(grown), nil
}
