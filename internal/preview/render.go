// Package preview draws UV layouts: island wireframes over the texture they
// map into, with labels, encoded as WebP, TGA or PNG.
package preview

import (
	"image"
	"image/color"
	"math"

	"github.com/gogpu/gg"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"

	"mu-bmd-unroll/internal/texture"
)

// State says what the last run did to a face.
type State int

const (
	// Untouched faces were not part of any selected island.
	Untouched State = iota
	// Mapped faces belong to an island that now forms a grid.
	Mapped
	// Failed faces belong to an island the mapper rejected.
	Failed
)

// Outline is one face of the layout in UV space.
type Outline struct {
	UV    []r2.Point
	State State
}

// Label is text placed at a UV position.
type Label struct {
	At   r2.Point
	Text string
}

// Layout is everything drawn on one preview.
type Layout struct {
	Background image.Image // drawn over the unit square; nil draws a checkerboard
	Faces      []Outline
	Labels     []Label
}

// Options control the preview raster.
type Options struct {
	Size        int // final edge length in pixels
	Supersample int
}

const (
	defaultSize = 512
	marginPx    = 8
	lineWidth   = 2
	fontSize    = 11
	checkerCell = 16
)

var (
	colorCanvas   = color.NRGBA{R: 0x20, G: 0x20, B: 0x24, A: 0xFF}
	colorCheckerA = color.NRGBA{R: 0x50, G: 0x50, B: 0x50, A: 0xFF}
	colorCheckerB = color.NRGBA{R: 0x70, G: 0x70, B: 0x70, A: 0xFF}
)

// stateRGBA is the stroke color per state; fill uses the same color at
// fillAlpha.
var stateRGBA = map[State][3]float64{
	Untouched: {0.6, 0.6, 0.6},
	Mapped:    {0.1, 0.9, 0.2},
	Failed:    {0.95, 0.1, 0.1},
}

const fillAlpha = 0.25

// frame maps UV space onto a square canvas, keeping the aspect ratio.
type frame struct {
	lo     r2.Point
	scale  float64
	offset r2.Point
}

func newFrame(faces []Outline, px int, margin float64) frame {
	rect := r2.RectFromPoints(r2.Point{}, r2.Point{X: 1, Y: 1})
	for _, f := range faces {
		for _, p := range f.UV {
			rect = rect.AddPoint(p)
		}
	}
	avail := float64(px) - 2*margin
	size := rect.Size()
	scale := avail / math.Max(size.X, size.Y)
	return frame{
		lo:    rect.Lo(),
		scale: scale,
		offset: r2.Point{
			X: margin + (avail-size.X*scale)/2,
			Y: margin + (avail-size.Y*scale)/2,
		},
	}
}

func (f frame) px(p r2.Point) r2.Point {
	return p.Sub(f.lo).Mul(f.scale).Add(f.offset)
}

// Render draws a layout. The unit square holds the background, faces are
// outlined (filled lightly) in their state color and labels are drawn on
// top.
func Render(l Layout, opts Options) (*image.NRGBA, error) {
	if opts.Size <= 0 {
		opts.Size = defaultSize
	}
	ss := max(opts.Supersample, 1)
	px := opts.Size * ss
	fr := newFrame(l.Faces, px, float64(marginPx*ss))

	canvas := image.NewNRGBA(image.Rect(0, 0, px, px))
	draw.Draw(canvas, canvas.Rect, image.NewUniform(colorCanvas), image.Point{}, draw.Src)

	lo, hi := fr.px(r2.Point{}), fr.px(r2.Point{X: 1, Y: 1})
	unit := image.Rect(int(math.Round(lo.X)), int(math.Round(lo.Y)), int(math.Round(hi.X)), int(math.Round(hi.Y)))
	if l.Background != nil {
		draw.CatmullRom.Scale(canvas, unit, l.Background, l.Background.Bounds(), draw.Over, nil)
	} else {
		checker(canvas, unit, checkerCell*ss)
	}

	dc := gg.NewContextForImage(canvas)
	defer dc.Close()
	dc.SetLineWidth(lineWidth * float64(ss))
	for i, f := range l.Faces {
		if len(f.UV) < 2 {
			continue
		}
		rgb := stateRGBA[f.State]
		trace(dc, fr, f.UV)
		dc.SetRGBA(rgb[0], rgb[1], rgb[2], fillAlpha)
		if err := dc.FillPreserve(); err != nil {
			return nil, errors.Wrapf(err, "preview: fill face %d", i)
		}
		dc.SetRGBA(rgb[0], rgb[1], rgb[2], 1)
		if err := dc.Stroke(); err != nil {
			return nil, errors.Wrapf(err, "preview: stroke face %d", i)
		}
	}

	out := texture.ToNRGBA(dc.Image())
	if len(l.Labels) > 0 {
		if err := drawLabels(out, fr, l.Labels, float64(fontSize*ss)); err != nil {
			return nil, err
		}
	}
	if ss > 1 {
		out = Downsample(out, opts.Size, opts.Size)
	}
	return out, nil
}

func trace(dc *gg.Context, fr frame, uv []r2.Point) {
	p := fr.px(uv[0])
	dc.MoveTo(p.X, p.Y)
	for _, q := range uv[1:] {
		p = fr.px(q)
		dc.LineTo(p.X, p.Y)
	}
	dc.ClosePath()
}

func checker(dst *image.NRGBA, r image.Rectangle, cell int) {
	a, b := image.NewUniform(colorCheckerA), image.NewUniform(colorCheckerB)
	for y := r.Min.Y; y < r.Max.Y; y += cell {
		for x := r.Min.X; x < r.Max.X; x += cell {
			src := a
			if ((x-r.Min.X)/cell+(y-r.Min.Y)/cell)%2 == 1 {
				src = b
			}
			draw.Draw(dst, image.Rect(x, y, x+cell, y+cell).Intersect(r), src, image.Point{}, draw.Src)
		}
	}
}
