package preview

import (
	"bufio"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"github.com/pkg/errors"
)

// Format is an output image format.
type Format string

const (
	FormatWebP Format = "webp"
	FormatTGA  Format = "tga"
	FormatPNG  Format = "png"
	FormatNone Format = "none"
)

// ErrFormat is returned for unknown format names.
var ErrFormat = errors.New("preview: unknown image format")

// ParseFormat accepts a format name in any case; empty means webp.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(s, "."))); f {
	case "":
		return FormatWebP, nil
	case FormatWebP, FormatTGA, FormatPNG, FormatNone:
		return f, nil
	}
	return "", errors.Wrapf(ErrFormat, "%q", s)
}

// Ext returns the file extension for f, with the dot.
func (f Format) Ext() string {
	if f == FormatNone {
		return ""
	}
	return "." + string(f)
}

// Encode writes img to w in format f.
func Encode(w io.Writer, img image.Image, f Format) error {
	var err error
	switch f {
	case FormatWebP:
		err = nativewebp.Encode(w, img, nil)
	case FormatTGA:
		err = tga.Encode(w, img)
	case FormatPNG:
		err = png.Encode(w, img)
	default:
		return errors.Wrapf(ErrFormat, "encode %q", f)
	}
	return errors.Wrapf(err, "preview: %s encode", f)
}

// Save encodes img into path, creating parent directories. FormatNone
// writes nothing.
func Save(path string, img image.Image, f Format) error {
	if f == FormatNone {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrapf(err, "preview: create %s", filepath.Dir(path))
	}
	out, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "preview: create %s", path)
	}
	defer out.Close()

	bw := bufio.NewWriter(out)
	if err := Encode(bw, img, f); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrapf(err, "preview: write %s", path)
	}
	return errors.Wrapf(out.Close(), "preview: close %s", path)
}
