package preview

import (
	"image"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

var (
	regularOnce sync.Once
	regular     *sfnt.Font
	regularErr  error
)

func regularFont() (*sfnt.Font, error) {
	regularOnce.Do(func() {
		regular, regularErr = opentype.Parse(goregular.TTF)
	})
	return regular, regularErr
}

// drawLabels centres each label on its UV position. Faces are not safe for
// concurrent use, so each call opens its own.
func drawLabels(dst *image.NRGBA, fr frame, labels []Label, size float64) error {
	f, err := regularFont()
	if err != nil {
		return errors.Wrap(err, "preview: parse font")
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return errors.Wrap(err, "preview: font face")
	}
	defer face.Close()

	d := &font.Drawer{Dst: dst, Src: image.White, Face: face}
	ascent := face.Metrics().Ascent
	for _, l := range labels {
		p := fr.px(l.At)
		width := d.MeasureString(l.Text)
		d.Dot = fixed.Point26_6{
			X: floatToFixed(p.X) - width/2,
			Y: floatToFixed(p.Y) + ascent/2,
		}
		d.DrawString(l.Text)
	}
	return nil
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}
