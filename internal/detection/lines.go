package detection

import (
	"fmt"
	"math"

	"github.com/ironsheep/shelfscan/internal/vision"
)

// Hough settings per orientation. Horizontal search uses a higher vote
// threshold so rows of text glyphs do not read as shelf edges.
const (
	verticalVotes   = 50
	verticalGap     = 10
	horizontalVotes = 100
	horizontalGap   = 20

	horizontalMinLengthFraction = 0.5
	horizontalTolerance         = 5.0
)

// FindLines extracts straight edges of the given orientation from a binary
// edge map.
//
// Vertical lines must be at least MinLineLengthPercent of the map height and
// lean at most VerticalAngleTolerance degrees. Horizontal lines must span
// half the map width and lie within 5 degrees of horizontal. The result is
// unordered.
func FindLines(b vision.Backend, edges vision.Matrix, cfg Config, o Orientation) ([]Line, error) {
	params := vision.HoughParams{Rho: 1, Theta: math.Pi / 180}
	var tolerance float64
	switch o {
	case Vertical:
		params.Threshold = verticalVotes
		params.MaxLineGap = verticalGap
		params.MinLineLength = cfg.MinLineLengthPercent / 100 * float64(edges.Height())
		tolerance = cfg.VerticalAngleTolerance
	case Horizontal:
		params.Threshold = horizontalVotes
		params.MaxLineGap = horizontalGap
		params.MinLineLength = horizontalMinLengthFraction * float64(edges.Width())
		tolerance = horizontalTolerance
	default:
		return nil, fmt.Errorf("unknown orientation %q", o)
	}

	segments, err := b.HoughLinesP(edges, params)
	if err != nil {
		return nil, fmt.Errorf("hough: %w", err)
	}

	lines := make([]Line, 0, len(segments))
	for _, s := range segments {
		if l, ok := classify(s, o, tolerance); ok {
			lines = append(lines, l)
		}
	}
	return lines, nil
}

// classify turns a segment into a Line when it lies within tolerance
// degrees of orientation o.
func classify(s vision.Segment, o Orientation, tolerance float64) (Line, bool) {
	dx := math.Abs(float64(s.X2 - s.X1))
	dy := math.Abs(float64(s.Y2 - s.Y1))
	if dx == 0 && dy == 0 {
		return Line{}, false
	}
	fromHorizontal := math.Atan2(dy, dx) * 180 / math.Pi

	l := Line{
		X1: float64(s.X1), Y1: float64(s.Y1),
		X2: float64(s.X2), Y2: float64(s.Y2),
		Orientation: o,
	}
	if o == Vertical {
		l.Angle = 90 - fromHorizontal
		l.Key = l.AvgX()
	} else {
		l.Angle = fromHorizontal
		l.Key = l.AvgY()
	}
	return l, l.Angle <= tolerance
}
