package preview

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ftrvxmtrx/tga"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func square(x0, y0, x1, y1 float64) []r2.Point {
	return []r2.Point{{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1}}
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

var blue = color.NRGBA{B: 255, A: 255}

// near compares channels with a tolerance; drawing goes through float color.
func near(t *testing.T, want, got color.NRGBA, msg string) {
	t.Helper()
	w := [4]uint8{want.R, want.G, want.B, want.A}
	g := [4]uint8{got.R, got.G, got.B, got.A}
	for i := range w {
		assert.InDelta(t, int(w[i]), int(g[i]), 2, "%s: want %v got %v", msg, want, got)
	}
}

func TestRender(t *testing.T) {
	l := Layout{
		Background: solid(4, 4, blue),
		Faces: []Outline{
			{UV: square(0, 0, 0.25, 0.25), State: Failed},
			{UV: square(0.5, 0.5, 1, 1), State: Mapped},
		},
	}
	// unit square spans pixels 8..92
	img, err := Render(l, Options{Size: 100, Supersample: 1})
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 100, 100), img.Bounds())

	near(t, colorCanvas, img.NRGBAAt(2, 2), "outside the frame")
	near(t, blue, img.NRGBAAt(70, 30), "plain background")

	tinted := img.NRGBAAt(18, 18)
	assert.Greater(t, int(tinted.R), 40, "failed face fill")
	assert.Greater(t, int(tinted.B), 150)

	var green uint8
	for x := 48; x <= 52; x++ {
		green = max(green, img.NRGBAAt(x, 71).G)
	}
	assert.Greater(t, int(green), 200, "mapped face outline")
}

func TestRender_FrameGrowsToFitFaces(t *testing.T) {
	l := Layout{Faces: []Outline{{UV: square(1, 0, 2, 1), State: Mapped}}}
	img, err := Render(l, Options{Size: 100, Supersample: 1})
	require.NoError(t, err)

	// frame is 2×1 wide, unit square fills the left half of the usable area
	near(t, colorCanvas, img.NRGBAAt(50, 15), "above the frame")
	near(t, colorCheckerA, img.NRGBAAt(20, 40), "first checker cell")
	near(t, colorCheckerB, img.NRGBAAt(30, 40), "second checker cell")
}

func TestRender_Labels(t *testing.T) {
	l := Layout{Faces: []Outline{{UV: square(0, 0, 1, 1)}}}
	plain, err := Render(l, Options{Size: 64, Supersample: 2})
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 64), plain.Bounds())

	l.Labels = []Label{{At: r2.Point{X: 0.5, Y: 0.5}, Text: "#0"}}
	labeled, err := Render(l, Options{Size: 64, Supersample: 2})
	require.NoError(t, err)
	assert.NotEqual(t, plain.Pix, labeled.Pix)
}

func TestDownsample(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})

	got := Downsample(img, 1, 1)
	c := got.NRGBAAt(0, 0)
	assert.Greater(t, int(c.R), 240, "no dark halo")
	assert.Zero(t, c.G)
	assert.InDelta(t, 128, int(c.A), 20)

	assert.Same(t, img, Downsample(img, 4, 4))
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatWebP, "WEBP": FormatWebP, ".tga": FormatTGA, "png": FormatPNG, "none": FormatNone} {
		got, err := ParseFormat(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("gif")
	assert.True(t, errors.Is(err, ErrFormat))

	assert.Equal(t, ".webp", FormatWebP.Ext())
	assert.Equal(t, "", FormatNone.Ext())
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	img := solid(3, 2, color.NRGBA{R: 1, G: 2, B: 3, A: 255})

	p := filepath.Join(dir, "a", "out.png")
	require.NoError(t, Save(p, img, FormatPNG))
	f, err := os.Open(p)
	require.NoError(t, err)
	back, err := png.Decode(f)
	f.Close()
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), back.Bounds())

	p = filepath.Join(dir, "out.tga")
	require.NoError(t, Save(p, img, FormatTGA))
	raw, err := os.ReadFile(p)
	require.NoError(t, err)
	back, err = tga.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), back.Bounds())

	p = filepath.Join(dir, "out.webp")
	require.NoError(t, Save(p, img, FormatWebP))
	raw, err = os.ReadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "RIFF", string(raw[:4]))
	assert.Equal(t, "WEBP", string(raw[8:12]))

	p = filepath.Join(dir, "skip")
	require.NoError(t, Save(p, img, FormatNone))
	assert.NoFileExists(t, p)

	assert.Error(t, Encode(&bytes.Buffer{}, img, Format("gif")))
}
