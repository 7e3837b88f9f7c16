package detection

import (
	"fmt"

	"github.com/ironsheep/shelfscan/internal/vision"
)

// DetectEdges runs Canny with the configured thresholds and dilates the
// result with a 1 wide by 3 tall element. The dilation only bridges gaps
// along the vertical axis so horizontal text strokes are not joined.
// The caller owns the returned matrix.
func DetectEdges(b vision.Backend, gray vision.Matrix, cfg Config) (vision.Matrix, error) {
	arena := vision.NewArena()
	defer arena.Release()

	edges, err := b.Canny(gray, cfg.CannyLowThreshold, cfg.CannyHighThreshold)
	if err != nil {
		return nil, fmt.Errorf("canny: %w", err)
	}
	arena.Track(edges)

	dilated, err := b.Dilate(edges, 1, 3)
	if err != nil {
		return nil, fmt.Errorf("dilate: %w", err)
	}
	return dilated, nil
}
