package detection

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/shelfscan/internal/vision"
)

// Fractions of the image height used by the row segmenter.
const (
	rowSmoothingFraction = 0.01
	darkBandRatio        = 0.4
	minBandFraction      = 0.01
	bandCenterMargin     = 0.15
	minCandidateFraction = 0.10
	minRowFraction       = 0.15
)

// SegmentRows splits m into shelf rows using the dark bands of its
// horizontal brightness profile.
//
// When no dark band qualifies, or fewer than two rows are tall enough, the
// whole image is returned as a single row. The result is ordered top to
// bottom and rows never overlap.
func SegmentRows(b vision.Backend, m vision.Matrix, cfg Config) ([]ShelfRow, error) {
	arena := vision.NewArena()
	defer arena.Release()

	gray, err := b.Grayscale(m)
	if err != nil {
		return nil, fmt.Errorf("grayscale: %w", err)
	}
	arena.Track(gray)

	profile, err := b.RowMeans(gray)
	if err != nil {
		return nil, fmt.Errorf("row means: %w", err)
	}
	return segmentProfile(profile), nil
}

// band is a half-open row interval [start, end).
type band struct{ start, end int }

func (b band) length() int { return b.end - b.start }

func segmentProfile(profile []float64) []ShelfRow {
	h := len(profile)
	whole := []ShelfRow{{Y: 0, Height: h}}
	if h == 0 {
		return whole
	}
	height := float64(h)

	smoothed := movingAverage(profile, maxInt(1, int(rowSmoothingFraction*height)))
	threshold := darkBandRatio * stat.Mean(smoothed, nil)

	var bands []band
	for _, bd := range darkBands(smoothed, profile, threshold) {
		// Length is measured on the snapped band, not the smoothed run.
		if float64(bd.length()) <= minBandFraction*height {
			continue
		}
		center := float64(bd.start+bd.end) / 2
		if center < bandCenterMargin*height || center > (1-bandCenterMargin)*height {
			continue
		}
		bands = append(bands, bd)
	}
	if len(bands) == 0 {
		return whole
	}

	var rows []ShelfRow
	keep := func(start, end int) {
		n := float64(end - start)
		if n > minCandidateFraction*height && n > minRowFraction*height {
			rows = append(rows, ShelfRow{Y: start, Height: end - start})
		}
	}
	prev := 0
	for _, bd := range bands {
		keep(prev, bd.start)
		prev = bd.end
	}
	keep(prev, h)

	if len(rows) < 2 {
		return whole
	}
	return rows
}

// movingAverage returns the mean of a window of the given size centred on
// every sample. The window shrinks at the ends of the signal.
func movingAverage(signal []float64, window int) []float64 {
	n := len(signal)
	prefix := make([]float64, n)
	floats.CumSum(prefix, signal)

	sum := func(lo, hi int) float64 {
		s := prefix[hi-1]
		if lo > 0 {
			s -= prefix[lo-1]
		}
		return s
	}

	out := make([]float64, n)
	half := window / 2
	for i := range signal {
		lo := maxInt(0, i-half)
		hi := minInt(n, i-half+window)
		out[i] = sum(lo, hi) / float64(hi-lo)
	}
	return out
}

// darkBands finds runs of the smoothed signal below threshold and snaps
// each run outward over the adjacent raw samples that are also below
// threshold, so smoothing does not shrink the band. Overlapping runs are
// joined.
func darkBands(smoothed, raw []float64, threshold float64) []band {
	n := len(smoothed)
	var out []band
	for i := 0; i < n; {
		if smoothed[i] >= threshold {
			i++
			continue
		}
		start := i
		for i < n && smoothed[i] < threshold {
			i++
		}
		bd := band{start: start, end: i}
		for bd.start > 0 && raw[bd.start-1] < threshold {
			bd.start--
		}
		for bd.end < n && raw[bd.end] < threshold {
			bd.end++
		}
		if len(out) > 0 && bd.start <= out[len(out)-1].end {
			last := &out[len(out)-1]
			last.end = maxInt(last.end, bd.end)
			continue
		}
		out = append(out, bd)
	}
	return out
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
