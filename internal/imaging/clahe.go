package imaging

import "math"

// clahe performs contrast-limited adaptive histogram equalization.
//
// The image is split into a grid of tiles x tiles regions (fewer when the
// image is smaller than the grid). Each region gets its own clipped
// equalization table; every pixel is mapped by bilinear interpolation between
// the tables of the four nearest region centres so no tile seams appear.
func clahe(src *Mat, clipLimit float64, tiles int) *Mat {
	w, h := src.W, src.H
	tilesX, tileW := tileGrid(w, tiles)
	tilesY, tileH := tileGrid(h, tiles)

	luts := make([][256]uint8, tilesX*tilesY)
	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			x0, y0 := tx*tileW, ty*tileH
			x1, y1 := minInt(x0+tileW, w), minInt(y0+tileH, h)
			luts[ty*tilesX+tx] = tileLUT(src, x0, y0, x1, y1, clipLimit)
		}
	}

	out := NewGrayMat(w, h)
	for y := 0; y < h; y++ {
		// Position relative to tile centres.
		gy := (float64(y)+0.5)/float64(tileH) - 0.5
		ty0 := int(math.Floor(gy))
		fy := gy - float64(ty0)
		ty1 := ty0 + 1
		ty0 = clamp(ty0, 0, tilesY-1)
		ty1 = clamp(ty1, 0, tilesY-1)

		for x := 0; x < w; x++ {
			gx := (float64(x)+0.5)/float64(tileW) - 0.5
			tx0 := int(math.Floor(gx))
			fx := gx - float64(tx0)
			tx1 := tx0 + 1
			tx0 = clamp(tx0, 0, tilesX-1)
			tx1 = clamp(tx1, 0, tilesX-1)

			v := src.Pix[y*w+x]
			tl := float64(luts[ty0*tilesX+tx0][v])
			tr := float64(luts[ty0*tilesX+tx1][v])
			bl := float64(luts[ty1*tilesX+tx0][v])
			br := float64(luts[ty1*tilesX+tx1][v])

			top := tl + (tr-tl)*fx
			bottom := bl + (br-bl)*fx
			out.Pix[y*w+x] = uint8(math.Round(top + (bottom-top)*fy))
		}
	}
	return out
}

// tileGrid splits size pixels into at most tiles regions of equal rounded-up
// length. The count shrinks until every region starts inside the image.
func tileGrid(size, tiles int) (n, length int) {
	n = maxInt(1, minInt(tiles, size))
	length = (size + n - 1) / n
	for n > 1 && (n-1)*length >= size {
		n--
		length = (size + n - 1) / n
	}
	return n, length
}

// tileLUT builds the clipped equalization table for one region.
func tileLUT(src *Mat, x0, y0, x1, y1 int, clipLimit float64) [256]uint8 {
	var hist [256]int
	for y := y0; y < y1; y++ {
		row := src.Pix[y*src.W:]
		for x := x0; x < x1; x++ {
			hist[row[x]]++
		}
	}
	area := (x1 - x0) * (y1 - y0)

	if clipLimit > 0 {
		limit := int(clipLimit * float64(area) / 256)
		if limit < 1 {
			limit = 1
		}
		excess := 0
		for i, c := range hist {
			if c > limit {
				excess += c - limit
				hist[i] = limit
			}
		}
		// Redistribute the clipped mass evenly, remainder to the low bins.
		step := excess / 256
		rest := excess % 256
		for i := range hist {
			hist[i] += step
			if i < rest {
				hist[i]++
			}
		}
	}

	var lut [256]uint8
	cdf := 0
	scale := 255.0 / float64(area)
	for i, c := range hist {
		cdf += c
		lut[i] = uint8(math.Min(255, math.Round(float64(cdf)*scale)))
	}
	return lut
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
