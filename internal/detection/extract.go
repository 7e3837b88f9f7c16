package detection

import (
	"fmt"
	"image"
	"math"

	"github.com/ironsheep/shelfscan/internal/vision"
)

// rowTransform maps a working-resolution row into original image
// coordinates.
type rowTransform struct {
	scaleX, scaleY float64
	// workY is the row top in the working image.
	workY int
	// full is the row in original coordinates.
	full ShelfRow
}

// scaleRow converts a working row into original coordinates, clamped to
// fullHeight. ok is false when nothing is left after clamping.
func scaleRow(row ShelfRow, scaleY float64, fullHeight int) (ShelfRow, bool) {
	y0 := clampInt(int(math.Round(float64(row.Y)*scaleY)), 0, fullHeight)
	y1 := clampInt(int(math.Round(float64(row.Y+row.Height)*scaleY)), 0, fullHeight)
	if y1 <= y0 {
		return ShelfRow{}, false
	}
	return ShelfRow{Y: y0, Height: y1 - y0}, true
}

// extractSpines crops every region from fullRow, the original-resolution
// matrix of the row described by t. Regions are clamped to the row and
// skipped when nothing is left.
func extractSpines(b vision.Backend, fullRow vision.Matrix, regions []Region, t rowTransform, cfg Config) ([]Spine, error) {
	arena := vision.NewArena()
	defer arena.Release()

	width, height := fullRow.Width(), fullRow.Height()
	spines := make([]Spine, 0, len(regions))
	for _, r := range regions {
		x0 := clampInt(int(math.Round(r.X*t.scaleX)), 0, width)
		x1 := clampInt(int(math.Round((r.X+r.Width)*t.scaleX)), 0, width)
		if x1 <= x0 {
			continue
		}

		crop, err := b.Crop(fullRow, image.Rect(x0, 0, x1, height))
		if err != nil {
			return nil, fmt.Errorf("crop region at x=%d: %w", x0, err)
		}
		arena.Track(crop)

		data, err := b.Encode(crop, vision.JPEG, cfg.JPEGQuality)
		if err != nil {
			return nil, fmt.Errorf("encode region at x=%d: %w", x0, err)
		}
		brightness, err := b.MeanBrightness(crop)
		if err != nil {
			return nil, fmt.Errorf("measure region at x=%d: %w", x0, err)
		}

		spines = append(spines, Spine{
			Index:          len(spines),
			BoundingBox:    BoundingBox{X: x0, Y: t.full.Y, Width: x1 - x0, Height: height},
			Image:          data,
			LeftEdge:       t.line(r.Left),
			RightEdge:      t.line(r.Right),
			MeanBrightness: brightness,
		})
		crop.Release()
	}
	return spines, nil
}

// line maps a row-relative working line into original image coordinates.
func (t rowTransform) line(l *Line) *Line {
	if l == nil {
		return nil
	}
	out := l.scaled(t.scaleX, t.scaleY, 0, float64(t.workY)*t.scaleY)
	return &out
}

// FilterSpines drops spines narrower than MinQualityWidthPercent of
// imageWidth or darker than MinMeanBrightness, then renumbers the survivors
// from 0 in their original order. It returns the survivors and the number
// dropped. The input slice is not modified.
func FilterSpines(spines []Spine, imageWidth int, cfg Config) ([]Spine, int) {
	minWidth := float64(imageWidth) * cfg.MinQualityWidthPercent / 100
	kept := make([]Spine, 0, len(spines))
	for _, s := range spines {
		if float64(s.BoundingBox.Width) < minWidth || s.MeanBrightness < cfg.MinMeanBrightness {
			continue
		}
		s.Index = len(kept)
		kept = append(kept, s)
	}
	return kept, len(spines) - len(kept)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
