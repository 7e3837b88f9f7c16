package imaging

import (
	"fmt"
	"image"
	"math"
	"math/rand"

	"github.com/ironsheep/shelfscan/internal/vision"
)

// houghSeed fixes the point visiting order so results are reproducible for a
// given edge map.
const houghSeed = 0x5eed

// HoughLinesP finds line segments with the progressive probabilistic Hough
// transform.
//
// # Algorithm
//
// Edge pixels are visited in random order. Each pixel votes in a
// (rho, theta) accumulator; when a vote pushes a cell to the threshold, the
// line through that cell is walked in both directions from the pixel,
// bridging gaps up to MaxLineGap. The walked pixels are removed from the
// edge set, and if the segment is at least MinLineLength long its votes are
// withdrawn from the accumulator and the segment is emitted. Removing
// consumed pixels is what keeps a single straight edge from producing dozens
// of overlapping detections.
func (b *Backend) HoughLinesP(m vision.Matrix, p vision.HoughParams) ([]vision.Segment, error) {
	src, err := asGray(m, "HoughLinesP")
	if err != nil {
		return nil, err
	}
	if p.Rho <= 0 || p.Theta <= 0 {
		return nil, fmt.Errorf("invalid Hough resolution rho=%v theta=%v", p.Rho, p.Theta)
	}
	if p.Threshold < 1 {
		p.Threshold = 1
	}
	return houghLinesP(src, p, houghSeed), nil
}

func houghLinesP(src *Mat, p vision.HoughParams, seed int64) []vision.Segment {
	width, height := src.W, src.H
	irho := 1 / p.Rho
	numAngle := int(math.Round(math.Pi / p.Theta))
	numRho := int(math.Round(float64((width+height)*2+1) / p.Rho))
	rhoOffset := (numRho - 1) / 2

	cosTab := make([]float64, numAngle)
	sinTab := make([]float64, numAngle)
	for n := 0; n < numAngle; n++ {
		angle := float64(n) * p.Theta
		cosTab[n] = math.Cos(angle) * irho
		sinTab[n] = math.Sin(angle) * irho
	}

	accum := make([]int, numAngle*numRho)
	mask := make([]bool, width*height)
	points := make([]image.Point, 0)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if src.Pix[y*width+x] != 0 {
				mask[y*width+x] = true
				points = append(points, image.Point{X: x, Y: y})
			}
		}
	}

	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(points), func(i, j int) {
		points[i], points[j] = points[j], points[i]
	})

	rhoIndex := func(x, y, n int) int {
		r := int(math.Round(float64(x)*cosTab[n] + float64(y)*sinTab[n]))
		return n*numRho + clamp(r+rhoOffset, 0, numRho-1)
	}

	const shift = 16
	lineGap := int(p.MaxLineGap)
	lineLength := int(p.MinLineLength)
	lines := make([]vision.Segment, 0)

	for _, pt := range points {
		if !mask[pt.Y*width+pt.X] {
			continue
		}
		mask[pt.Y*width+pt.X] = false

		maxVal := p.Threshold - 1
		maxN := 0
		for n := 0; n < numAngle; n++ {
			idx := rhoIndex(pt.X, pt.Y, n)
			accum[idx]++
			if accum[idx] > maxVal {
				maxVal = accum[idx]
				maxN = n
			}
		}
		if maxVal < p.Threshold {
			continue
		}

		// Walk along the line perpendicular to the winning normal, in
		// 16.16 fixed point along the minor axis.
		a := -sinTab[maxN]
		bb := cosTab[maxN]
		x0, y0 := pt.X, pt.Y
		var dx0, dy0 int
		xMajor := math.Abs(a) > math.Abs(bb)
		if xMajor {
			dx0 = 1
			if a < 0 {
				dx0 = -1
			}
			dy0 = int(math.Round(bb * (1 << shift) / math.Abs(a)))
			y0 = (y0 << shift) + (1 << (shift - 1))
		} else {
			dy0 = 1
			if bb < 0 {
				dy0 = -1
			}
			dx0 = int(math.Round(a * (1 << shift) / math.Abs(bb)))
			x0 = (x0 << shift) + (1 << (shift - 1))
		}

		pixelAt := func(x, y int) (int, int) {
			if xMajor {
				return x, y >> shift
			}
			return x >> shift, y
		}

		lineEnd := [2]image.Point{pt, pt}
		for k := 0; k < 2; k++ {
			gap := 0
			x, y, dx, dy := x0, y0, dx0, dy0
			if k > 0 {
				dx, dy = -dx, -dy
			}
			for ; ; x, y = x+dx, y+dy {
				px, py := pixelAt(x, y)
				if px < 0 || px >= width || py < 0 || py >= height {
					break
				}
				if mask[py*width+px] {
					gap = 0
					lineEnd[k] = image.Point{X: px, Y: py}
				} else if gap++; gap > lineGap {
					break
				}
			}
		}

		good := absInt(lineEnd[1].X-lineEnd[0].X) >= lineLength ||
			absInt(lineEnd[1].Y-lineEnd[0].Y) >= lineLength

		for k := 0; k < 2; k++ {
			x, y, dx, dy := x0, y0, dx0, dy0
			if k > 0 {
				dx, dy = -dx, -dy
			}
			for ; ; x, y = x+dx, y+dy {
				px, py := pixelAt(x, y)
				if px < 0 || px >= width || py < 0 || py >= height {
					break
				}
				if mask[py*width+px] {
					if good {
						for n := 0; n < numAngle; n++ {
							accum[rhoIndex(px, py, n)]--
						}
					}
					mask[py*width+px] = false
				}
				if px == lineEnd[k].X && py == lineEnd[k].Y {
					break
				}
			}
		}

		if good {
			lines = append(lines, vision.Segment{
				X1: lineEnd[0].X, Y1: lineEnd[0].Y,
				X2: lineEnd[1].X, Y2: lineEnd[1].Y,
			})
		}
	}
	return lines
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
