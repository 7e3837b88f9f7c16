package imaging

import (
	"fmt"

	"github.com/ironsheep/shelfscan/internal/vision"
)

// Dilate applies a grayscale dilation (max filter) with a kw x kh
// rectangular element anchored at its centre. The filter is separable, so the
// horizontal and vertical passes run independently; a 1 x 3 element only
// spreads samples vertically.
func (b *Backend) Dilate(m vision.Matrix, kw, kh int) (vision.Matrix, error) {
	src, err := asGray(m, "Dilate")
	if err != nil {
		return nil, err
	}
	if kw < 1 || kh < 1 {
		return nil, fmt.Errorf("invalid structuring element %dx%d", kw, kh)
	}

	out := src.Clone()
	if kw > 1 {
		out = maxFilter(out, kw, true)
	}
	if kh > 1 {
		out = maxFilter(out, kh, false)
	}
	return out, nil
}

// maxFilter runs a 1D max filter of the given size along rows (horizontal)
// or columns. Pixels outside the image are ignored.
func maxFilter(src *Mat, size int, horizontal bool) *Mat {
	w, h := src.W, src.H
	out := NewGrayMat(w, h)
	before := (size - 1) / 2
	after := size - 1 - before

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var best uint8
			if horizontal {
				for k := maxInt(0, x-before); k <= minInt(w-1, x+after); k++ {
					if v := src.Pix[y*w+k]; v > best {
						best = v
					}
				}
			} else {
				for k := maxInt(0, y-before); k <= minInt(h-1, y+after); k++ {
					if v := src.Pix[k*w+x]; v > best {
						best = v
					}
				}
			}
			out.Pix[y*w+x] = best
		}
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
