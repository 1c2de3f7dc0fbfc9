package texture

import (
	"bytes"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
)

const (
	ozjHeader = 24 // OZJ: 24-byte header + JPEG data
	oztHeader = 4  // OZT: 4-byte header + TGA data
)

// LoadTexture reads a texture file and returns an NRGBA image.
func LoadTexture(path string) (*image.NRGBA, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "texture: read %s", path)
	}
	return Decode(raw, filepath.Ext(path))
}

// decoders maps an extension to its decoder. The format is never sniffed:
// tga has no magic bytes and would claim every file.
var decoders = map[string]func(io.Reader) (image.Image, error){
	".ozj":  jpeg.Decode,
	".jpg":  jpeg.Decode,
	".jpeg": jpeg.Decode,
	".ozt":  tga.Decode,
	".tga":  tga.Decode,
	".png":  png.Decode,
	".bmp":  bmp.Decode,
}

// Decode decodes texture bytes of the format named by ext.
func Decode(raw []byte, ext string) (*image.NRGBA, error) {
	ext = strings.ToLower(ext)
	decode, ok := decoders[ext]
	if !ok {
		return nil, errors.Errorf("texture: unknown extension %q", ext)
	}
	imgData := raw

	switch ext {
	case ".ozj":
		if len(raw) <= ozjHeader {
			return nil, errors.Errorf("texture: OZJ too short (%d bytes)", len(raw))
		}
		imgData = raw[ozjHeader:]
	case ".ozt":
		if len(raw) <= oztHeader {
			return nil, errors.Errorf("texture: OZT too short (%d bytes)", len(raw))
		}
		imgData = raw[oztHeader:]
	}

	img, err := decode(bytes.NewReader(imgData))
	if err != nil {
		return nil, errors.Wrapf(err, "texture: decode %s", ext)
	}
	return ToNRGBA(img), nil
}

// ToNRGBA converts any image to NRGBA format with its origin at (0, 0).
func ToNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Rect, src, b.Min, draw.Src)
	return dst
}
