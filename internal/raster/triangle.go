package raster

import (
	"image"
	"math"

	"github.com/golang/geo/r2"
)

// fillTriangle rasterizes one triangle whose corners d are in pixel space,
// sampling tex at the matching source UVs s. Pixels are tested at their
// centres; later triangles overwrite earlier ones.
//
// This is the HOT PATH: no allocations in the pixel loop.
func fillTriangle(fb *FrameBuffer, d, s [3]r2.Point, tex *image.NRGBA) {
	x0, y0 := d[0].X, d[0].Y
	x1, y1 := d[1].X, d[1].Y
	x2, y2 := d[2].X, d[2].Y

	// Bounding box
	minX := int(math.Floor(math.Min(math.Min(x0, x1), x2)))
	maxX := int(math.Ceil(math.Max(math.Max(x0, x1), x2)))
	minY := int(math.Floor(math.Min(math.Min(y0, y1), y2)))
	maxY := int(math.Ceil(math.Max(math.Max(y0, y1), y2)))

	if minX < 0 {
		minX = 0
	}
	if maxX >= fb.Width {
		maxX = fb.Width - 1
	}
	if minY < 0 {
		minY = 0
	}
	if maxY >= fb.Height {
		maxY = fb.Height - 1
	}
	if minX > maxX || minY > maxY {
		return
	}

	// Barycentric setup
	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det

	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) + 0.5 - y2
		rowOff := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) + 0.5 - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1

			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			u := w0*s[0].X + w1*s[1].X + w2*s[2].X
			v := w0*s[0].Y + w1*s[1].Y + w2*s[2].Y
			r, g, b, a := SampleTexture(tex, u, v)

			i := rowOff + sx
			fb.Color[i*4] = r
			fb.Color[i*4+1] = g
			fb.Color[i*4+2] = b
			fb.Color[i*4+3] = a
			fb.Covered[i] = true
		}
	}
}
