package detection

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/ironsheep/shelfscan/internal/imaging"
	"github.com/ironsheep/shelfscan/internal/vision"
)

// createTestImage creates a solid color test image
func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createShelfImage draws a uniformly lit image with dark horizontal bands
// covering [start, end) row ranges.
func createShelfImage(width, height int, light, dark uint8, bands ...[2]int) *image.RGBA {
	img := createTestImage(width, height, color.Gray{Y: light})
	for _, b := range bands {
		for y := b[0]; y < b[1]; y++ {
			for x := 0; x < width; x++ {
				img.Set(x, y, color.Gray{Y: dark})
			}
		}
	}
	return img
}

// createSpineImage draws vertical stripes of the given width alternating
// between two gray levels, like books of equal thickness side by side.
func createSpineImage(width, height, stripe int, a, b uint8) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := a
			if (x/stripe)%2 == 1 {
				v = b
			}
			img.Set(x, y, color.Gray{Y: v})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func newTestBackend() vision.Backend {
	return imaging.NewBackend()
}

func newTestDetector(t *testing.T, opts ...Option) *Detector {
	t.Helper()
	d, err := NewDetector(newTestBackend(), opts...)
	if err != nil {
		t.Fatalf("NewDetector failed: %v", err)
	}
	return d
}

// noAdaptiveBackend reports adaptive equalization as unsupported and counts
// the global equalization calls made instead.
type noAdaptiveBackend struct {
	*imaging.Backend
	globalCalls int
}

func (b *noAdaptiveBackend) EqualizeAdaptive(vision.Matrix, float64, int) (vision.Matrix, error) {
	return nil, vision.ErrUnsupported
}

func (b *noAdaptiveBackend) EqualizeGlobal(m vision.Matrix) (vision.Matrix, error) {
	b.globalCalls++
	return b.Backend.EqualizeGlobal(m)
}

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
