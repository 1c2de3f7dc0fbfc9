// Package uvmeshtest builds small quad-grid views for tests.
package uvmeshtest

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"mu-bmd-unroll/internal/uvmesh"
)

// Grid describes a rows×cols patch of quads lying in the z=0 plane.
type Grid struct {
	Rows, Cols int

	// ColWidths and RowHeights set the 3D edge lengths; nil means 1.
	ColWidths  []float64
	RowHeights []float64

	// UV maps a vertex's planar position to its UV. nil keeps the position.
	UV func(p r2.Point) r2.Point

	// RollCorners starts each face's corner cycle at a different corner.
	RollCorners bool

	// NoPositions builds the view without vertex positions.
	NoPositions bool

	// VertexBase offsets vertex indices so several grids can share a builder.
	VertexBase int
}

// Vertex returns the vertex index of lattice point (row, col).
func (g Grid) Vertex(row, col int) int {
	return g.VertexBase + row*(g.Cols+1) + col
}

// Point returns the planar position of lattice point (row, col).
func (g Grid) Point(row, col int) r2.Point {
	var x, y float64
	for i := 0; i < col; i++ {
		x += g.width(i)
	}
	for i := 0; i < row; i++ {
		y += g.height(i)
	}
	return r2.Point{X: x, Y: y}
}

func (g Grid) width(i int) float64 {
	if i < len(g.ColWidths) {
		return g.ColWidths[i]
	}
	return 1
}

func (g Grid) height(i int) float64 {
	if i < len(g.RowHeights) {
		return g.RowHeights[i]
	}
	return 1
}

// AddTo appends the grid's vertices and faces to b and returns the face
// indices in row-major order.
func (g Grid) AddTo(b *uvmesh.Builder) []int {
	if !g.NoPositions {
		for r := 0; r <= g.Rows; r++ {
			for c := 0; c <= g.Cols; c++ {
				p := g.Point(r, c)
				b.AddVertex(r3.Vector{X: p.X, Y: p.Y})
			}
		}
	}
	uv := g.UV
	if uv == nil {
		uv = func(p r2.Point) r2.Point { return p }
	}
	var faces []int
	for r := 0; r < g.Rows; r++ {
		for c := 0; c < g.Cols; c++ {
			lattice := [4][2]int{{r, c}, {r, c + 1}, {r + 1, c + 1}, {r + 1, c}}
			roll := 0
			if g.RollCorners {
				roll = (r + 2*c) % 4
			}
			verts := make([]int, 4)
			uvs := make([]r2.Point, 4)
			for k := 0; k < 4; k++ {
				lp := lattice[(k+roll)%4]
				verts[k] = g.Vertex(lp[0], lp[1])
				uvs[k] = uv(g.Point(lp[0], lp[1]))
			}
			faces = append(faces, b.AddFace(verts, uvs))
		}
	}
	return faces
}

// Build returns a view holding only this grid.
func (g Grid) Build() (*uvmesh.View, error) {
	b := uvmesh.NewBuilder()
	g.AddTo(b)
	return b.Build()
}

// Rotate returns a UV transform rotating by theta radians around pivot,
// then translating by offset.
func Rotate(theta float64, pivot, offset r2.Point) func(r2.Point) r2.Point {
	sin, cos := math.Sincos(theta)
	return func(p r2.Point) r2.Point {
		d := p.Sub(pivot)
		return r2.Point{
			X: pivot.X + d.X*cos - d.Y*sin + offset.X,
			Y: pivot.Y + d.X*sin + d.Y*cos + offset.Y,
		}
	}
}

// Shear returns a UV transform that skews x by k·y and scales by s.
func Shear(k, s float64) func(r2.Point) r2.Point {
	return func(p r2.Point) r2.Point {
		return r2.Point{X: (p.X + k*p.Y) * s, Y: p.Y * s}
	}
}
