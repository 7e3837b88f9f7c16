package imaging

import (
	"fmt"

	"github.com/ironsheep/shelfscan/internal/vision"
)

// RowMeans returns the mean sample of every row of a gray matrix.
func (b *Backend) RowMeans(m vision.Matrix) ([]float64, error) {
	src, err := asGray(m, "RowMeans")
	if err != nil {
		return nil, err
	}
	means := make([]float64, src.H)
	if src.W == 0 {
		return means, nil
	}
	for y := 0; y < src.H; y++ {
		sum := 0
		for _, v := range src.Pix[y*src.W : (y+1)*src.W] {
			sum += int(v)
		}
		means[y] = float64(sum) / float64(src.W)
	}
	return means, nil
}

// MeanBrightness averages all color samples of m (R, G and B, alpha
// excluded) on the 0-255 scale. For a gray matrix it is the plain mean.
func (b *Backend) MeanBrightness(m vision.Matrix) (float64, error) {
	src, err := asMat(m)
	if err != nil {
		return 0, err
	}
	pixels := src.W * src.H
	if pixels == 0 {
		return 0, fmt.Errorf("mean of empty matrix")
	}

	var sum int64
	switch src.C {
	case 1:
		for _, v := range src.Pix {
			sum += int64(v)
		}
		return float64(sum) / float64(pixels), nil
	case 4:
		for i := 0; i < len(src.Pix); i += 4 {
			sum += int64(src.Pix[i]) + int64(src.Pix[i+1]) + int64(src.Pix[i+2])
		}
		return float64(sum) / float64(pixels*3), nil
	default:
		return 0, fmt.Errorf("unsupported channel count %d", src.C)
	}
}
