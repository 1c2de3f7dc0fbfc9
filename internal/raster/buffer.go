package raster

import "image"

// FrameBuffer holds the bake target as flat slices for cache locality.
type FrameBuffer struct {
	Width   int
	Height  int
	Color   []uint8 // RGBA interleaved, len = W*H*4
	Covered []bool  // pixel written by a face or by dilation, len = W*H
}

// NewFrameBuffer allocates a transparent, uncovered buffer.
func NewFrameBuffer(w, h int) *FrameBuffer {
	n := w * h
	return &FrameBuffer{
		Width:   w,
		Height:  h,
		Color:   make([]uint8, n*4),
		Covered: make([]bool, n),
	}
}

// Dilate grows covered regions outward by n pixels. Each uncovered pixel
// next to a covered one takes the mean of its covered 4-neighbours.
func (fb *FrameBuffer) Dilate(n int) {
	w, h := fb.Width, fb.Height
	next := make([]bool, len(fb.Covered))
	for pass := 0; pass < n; pass++ {
		copy(next, fb.Covered)
		grown := false
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				i := y*w + x
				if fb.Covered[i] {
					continue
				}
				var sum [4]int
				cnt := 0
				for _, d := range [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
					nx, ny := x+d[0], y+d[1]
					if nx < 0 || ny < 0 || nx >= w || ny >= h || !fb.Covered[ny*w+nx] {
						continue
					}
					j := (ny*w + nx) * 4
					for c := 0; c < 4; c++ {
						sum[c] += int(fb.Color[j+c])
					}
					cnt++
				}
				if cnt == 0 {
					continue
				}
				for c := 0; c < 4; c++ {
					fb.Color[i*4+c] = uint8((sum[c] + cnt/2) / cnt)
				}
				next[i] = true
				grown = true
			}
		}
		fb.Covered, next = next, fb.Covered
		if !grown {
			return
		}
	}
}

// Image copies the color buffer into an NRGBA image.
func (fb *FrameBuffer) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	copy(img.Pix, fb.Color)
	return img
}
