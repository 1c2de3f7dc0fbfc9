// Package gridmap recovers the row/column lattice of a quad island and
// rewrites its UVs onto an axis-aligned grid.
package gridmap

import (
	"github.com/golang/geo/r2"

	"mu-bmd-unroll/internal/island"
)

// Cell is one face of the recovered lattice.
type Cell struct {
	Row, Col int
	Anchor   int // corner mapped to (ColOffsets[Col], RowOffsets[Row])
	Face     int
}

// Grid is the result of Map. Offsets are cumulative step lengths starting at
// 0, already multiplied by Scale; RowOffsets has Rows+1 entries and
// ColOffsets Cols+1.
type Grid struct {
	Island   *island.Island
	Origin   int
	OriginUV r2.Point

	Rows, Cols int
	RowOffsets []float64
	ColOffsets []float64
	Cells      []Cell // row-major

	Scale float64
}

// Cell returns the cell at (row, col).
func (g *Grid) Cell(row, col int) Cell {
	return g.Cells[row*g.Cols+col]
}

// Rect returns the UV rectangle a cell occupies after Apply.
func (g *Grid) Rect(c Cell) r2.Rect {
	lo := g.point(c.Row, c.Col)
	hi := g.point(c.Row+1, c.Col+1)
	return r2.RectFromPoints(lo, hi)
}

// Size returns the grid's extent in UV units.
func (g *Grid) Size() r2.Point {
	return r2.Point{X: g.ColOffsets[g.Cols], Y: g.RowOffsets[g.Rows]}
}

func (g *Grid) point(row, col int) r2.Point {
	return g.OriginUV.Add(r2.Point{X: g.ColOffsets[col], Y: g.RowOffsets[row]})
}

// Targets returns the new UV of every corner the grid covers.
func (g *Grid) Targets() map[int]r2.Point {
	v := g.Island.View()
	out := make(map[int]r2.Point, len(g.Cells)*4)
	for _, c := range g.Cells {
		a := c.Anchor
		out[a] = g.point(c.Row, c.Col)
		out[v.Next(a)] = g.point(c.Row, c.Col+1)
		out[v.Prev(a)] = g.point(c.Row+1, c.Col)
		out[v.Next(v.Next(a))] = g.point(c.Row+1, c.Col+1)
	}
	return out
}
