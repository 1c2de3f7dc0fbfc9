package preview

import (
	"image"

	"golang.org/x/image/draw"
)

// Downsample reduces image size with premultiplied-alpha-aware Lanczos filtering.
// This prevents dark halo artifacts at transparent edges.
func Downsample(img *image.NRGBA, w, h int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() <= w && b.Dy() <= h {
		return img
	}

	// Premultiply alpha
	premul := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			si := img.PixOffset(x, y)
			di := premul.PixOffset(x, y)
			a := uint32(img.Pix[si+3])
			for c := 0; c < 3; c++ {
				premul.Pix[di+c] = uint8((uint32(img.Pix[si+c])*a + 127) / 255)
			}
			premul.Pix[di+3] = img.Pix[si+3]
		}
	}

	// Downsample with CatmullRom (approximates Lanczos)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), premul, premul.Bounds(), draw.Src, nil)

	// Unpremultiply alpha
	result := image.NewNRGBA(dst.Bounds())
	for i := 0; i < len(dst.Pix); i += 4 {
		a := float64(dst.Pix[i+3])
		if a > 1 {
			inv := 255.0 / a
			result.Pix[i] = clamp8(float64(dst.Pix[i]) * inv)
			result.Pix[i+1] = clamp8(float64(dst.Pix[i+1]) * inv)
			result.Pix[i+2] = clamp8(float64(dst.Pix[i+2]) * inv)
		}
		result.Pix[i+3] = dst.Pix[i+3]
	}

	return result
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
