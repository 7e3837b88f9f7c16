package imaging

import (
	"math"

	"github.com/ironsheep/shelfscan/internal/vision"
)

// Canny performs Canny edge detection on a single-channel matrix.
//
// The input is expected to be smoothed already; no blur is applied here.
// Thresholds are gradient magnitudes on the 0-255 sample scale, matching the
// convention of OpenCV's Canny with L2 gradients.
//
// # Algorithm
//
//  1. Gradient computation: Sobel operators for X and Y gradients
//     magnitude = sqrt(Gx² + Gy²)
//     direction = atan2(Gy, Gx)
//
//  2. Non-maximum suppression: keep only local maxima across the gradient
//     direction, thinning edges to one pixel
//
//  3. Hysteresis thresholding:
//     - pixels at or above high are strong edges (always kept)
//     - pixels between low and high are weak edges, kept only when
//     8-connected (possibly through other weak pixels) to a strong edge
//     - pixels below low are discarded
//
// The result holds 255 for edge pixels and 0 elsewhere.
func (b *Backend) Canny(m vision.Matrix, low, high float64) (vision.Matrix, error) {
	src, err := asGray(m, "Canny")
	if err != nil {
		return nil, err
	}
	if low > high {
		low, high = high, low
	}
	return canny(src, low, high), nil
}

func canny(src *Mat, low, high float64) *Mat {
	width, height := src.W, src.H
	n := width * height
	magnitude := make([]float64, n)
	direction := make([]float64, n)

	sobelX := [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY := [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				py := clamp(y+ky, 0, height-1)
				for kx := -1; kx <= 1; kx++ {
					px := clamp(x+kx, 0, width-1)
					v := float64(src.Pix[py*width+px])
					gx += v * sobelX[ky+1][kx+1]
					gy += v * sobelY[ky+1][kx+1]
				}
			}
			magnitude[y*width+x] = math.Sqrt(gx*gx + gy*gy)
			direction[y*width+x] = math.Atan2(gy, gx)
		}
	}

	// Non-maximum suppression
	suppressed := make([]float64, n)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			i := y*width + x
			angle := direction[i]
			mag := magnitude[i]
			if mag < low {
				continue
			}

			var n1, n2 float64
			if (angle >= -math.Pi/8 && angle < math.Pi/8) || (angle >= 7*math.Pi/8 || angle < -7*math.Pi/8) {
				n1 = magnitude[i-1]
				n2 = magnitude[i+1]
			} else if (angle >= math.Pi/8 && angle < 3*math.Pi/8) || (angle >= -7*math.Pi/8 && angle < -5*math.Pi/8) {
				n1 = magnitude[i-width-1]
				n2 = magnitude[i+width+1]
			} else if (angle >= 3*math.Pi/8 && angle < 5*math.Pi/8) || (angle >= -5*math.Pi/8 && angle < -3*math.Pi/8) {
				n1 = magnitude[i-width]
				n2 = magnitude[i+width]
			} else {
				n1 = magnitude[i-width+1]
				n2 = magnitude[i+width-1]
			}

			// Ties are broken toward the earlier neighbour so a plateau
			// keeps one pixel rather than two.
			if mag > n1 && mag >= n2 {
				suppressed[i] = mag
			}
		}
	}

	// Hysteresis: flood from strong pixels through weak ones.
	out := NewGrayMat(width, height)
	stack := make([]int, 0, 1024)
	for i, v := range suppressed {
		if v >= high && out.Pix[i] == 0 {
			out.Pix[i] = 255
			stack = append(stack, i)
		}
		for len(stack) > 0 {
			j := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			jx, jy := j%width, j/width
			for dy := -1; dy <= 1; dy++ {
				ny := jy + dy
				if ny < 0 || ny >= height {
					continue
				}
				for dx := -1; dx <= 1; dx++ {
					nx := jx + dx
					if nx < 0 || nx >= width || (dx == 0 && dy == 0) {
						continue
					}
					k := ny*width + nx
					if out.Pix[k] == 0 && suppressed[k] >= low {
						out.Pix[k] = 255
						stack = append(stack, k)
					}
				}
			}
		}
	}
	return out
}

// clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
