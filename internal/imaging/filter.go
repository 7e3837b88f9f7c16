package imaging

import (
	"fmt"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/histogram"

	"github.com/ironsheep/shelfscan/internal/vision"
)

// Grayscale converts to luminance using ITU-R BT.601 weights
// (0.299*R + 0.587*G + 0.114*B). A gray input is copied.
func (b *Backend) Grayscale(m vision.Matrix) (vision.Matrix, error) {
	mat, err := asMat(m)
	if err != nil {
		return nil, err
	}
	if mat.C == 1 {
		return mat.Clone(), nil
	}
	return redToGray(effect.GrayscaleWithWeights(mat.Image(), 0.299, 0.587, 0.114)), nil
}

// GaussianBlur blurs with a Gaussian of radius ksize/2, i.e. a ksize-tap
// separable kernel. Borders are replicated.
func (b *Backend) GaussianBlur(m vision.Matrix, ksize int) (vision.Matrix, error) {
	mat, err := asMat(m)
	if err != nil {
		return nil, err
	}
	if ksize < 3 {
		return mat.Clone(), nil
	}

	blurred := blur.Gaussian(mat.Image(), float64(ksize/2))
	if mat.C == 1 {
		return redToGray(blurred), nil
	}
	return FromImage(blurred), nil
}

// EqualizeGlobal spreads the gray histogram over the full 0-255 range.
func (b *Backend) EqualizeGlobal(m vision.Matrix) (vision.Matrix, error) {
	mat, err := asGray(m, "EqualizeGlobal")
	if err != nil {
		return nil, err
	}

	// For a gray image the red histogram is the luminance histogram.
	hist := histogram.NewRGBAHistogram(mat.Image())
	lut := equalizationLUT(hist.R.Bins, len(mat.Pix))

	out := NewGrayMat(mat.W, mat.H)
	for i, v := range mat.Pix {
		out.Pix[i] = lut[v]
	}
	return out, nil
}

// EqualizeAdaptive applies CLAHE with tiles x tiles regions.
func (b *Backend) EqualizeAdaptive(m vision.Matrix, clipLimit float64, tiles int) (vision.Matrix, error) {
	mat, err := asGray(m, "EqualizeAdaptive")
	if err != nil {
		return nil, err
	}
	if tiles < 1 {
		return nil, fmt.Errorf("invalid CLAHE tile count %d", tiles)
	}
	return clahe(mat, clipLimit, tiles), nil
}

// equalizationLUT maps each gray level through the normalized cumulative
// histogram, anchored so the darkest populated level maps to 0.
func equalizationLUT(bins []int, total int) [256]uint8 {
	var lut [256]uint8
	if total == 0 || len(bins) < 256 {
		for i := range lut {
			lut[i] = uint8(i)
		}
		return lut
	}

	cdfMin := 0
	for _, c := range bins[:256] {
		if c > 0 {
			cdfMin = c
			break
		}
	}
	if total == cdfMin {
		// Single gray level: nothing to spread.
		for i := range lut {
			lut[i] = uint8(i)
		}
		return lut
	}

	cdf := 0
	for i := 0; i < 256; i++ {
		cdf += bins[i]
		v := float64(cdf-cdfMin) / float64(total-cdfMin) * 255
		if v < 0 {
			v = 0
		}
		lut[i] = uint8(v + 0.5)
	}
	return lut
}
