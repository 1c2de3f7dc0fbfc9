// Package raster bakes textures for remapped UV layouts.
package raster

import (
	"image"
	"math"

	"github.com/golang/geo/r2"
)

// maxTiles bounds how many unit tiles one face may wrap across per axis.
const maxTiles = 4

// Face is one polygon of a remapped mesh. Src holds the UVs the source
// texture is sampled at, Dst the UVs the face occupies after remapping.
type Face struct {
	Src, Dst []r2.Point
}

// Bake renders every face into a new texture of the given size (the source
// size when size is zero) so that sampling it at Dst shows what sampling tex
// at Src showed before. UVs wrap the way the sampler does: a face is drawn
// into every unit tile it overlaps. Covered regions are then grown by
// padding pixels to hide seams under filtering.
func Bake(tex *image.NRGBA, faces []Face, size image.Point, padding int) *image.NRGBA {
	if tex == nil {
		return nil
	}
	if size.X <= 0 || size.Y <= 0 {
		size = tex.Rect.Size()
	}
	fb := NewFrameBuffer(size.X, size.Y)
	w, h := float64(size.X), float64(size.Y)

	for _, f := range faces {
		n := len(f.Dst)
		if n < 3 || len(f.Src) != n {
			continue
		}
		lo, hi := bounds(f.Dst)
		base := r2.Point{X: math.Floor(lo.X), Y: math.Floor(lo.Y)}
		nx := min(int(math.Ceil(hi.X-base.X)), maxTiles)
		ny := min(int(math.Ceil(hi.Y-base.Y)), maxTiles)

		for ty := 0; ty < ny; ty++ {
			for tx := 0; tx < nx; tx++ {
				off := base.Add(r2.Point{X: float64(tx), Y: float64(ty)})
				px := make([]r2.Point, n)
				for k, p := range f.Dst {
					q := p.Sub(off)
					px[k] = r2.Point{X: q.X * w, Y: q.Y * h}
				}
				// Fan triangulation: (0, k, k+1)
				for k := 1; k+1 < n; k++ {
					fillTriangle(fb,
						[3]r2.Point{px[0], px[k], px[k+1]},
						[3]r2.Point{f.Src[0], f.Src[k], f.Src[k+1]},
						tex)
				}
			}
		}
	}

	fb.Dilate(padding)
	return fb.Image()
}

func bounds(pts []r2.Point) (lo, hi r2.Point) {
	lo = r2.Point{X: math.Inf(1), Y: math.Inf(1)}
	hi = r2.Point{X: math.Inf(-1), Y: math.Inf(-1)}
	for _, p := range pts {
		lo.X, lo.Y = math.Min(lo.X, p.X), math.Min(lo.Y, p.Y)
		hi.X, hi.Y = math.Max(hi.X, p.X), math.Max(hi.Y, p.Y)
	}
	return lo, hi
}
