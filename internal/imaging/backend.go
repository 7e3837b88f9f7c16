package imaging

import (
	"bytes"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP format decoder

	"github.com/ironsheep/shelfscan/internal/vision"
)

// BackendName is the registry name of the pure Go backend.
const BackendName = "go"

func init() {
	vision.Register(BackendName, func() (vision.Backend, error) {
		return NewBackend(), nil
	})
}

// Backend implements vision.Backend in pure Go.
//
// It has no state and is safe for concurrent use.
type Backend struct{}

// NewBackend returns the pure Go backend.
func NewBackend() *Backend {
	return &Backend{}
}

// Name implements vision.Backend.
func (b *Backend) Name() string { return BackendName }

// Decode parses JPEG, PNG, GIF, BMP, TIFF or WebP data. EXIF orientation is
// applied so the matrix matches what a viewer shows.
func (b *Backend) Decode(data []byte) (vision.Matrix, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("failed to decode image: empty buffer")
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return FromImage(img), nil
}

// Encode serializes m as JPEG or PNG.
func (b *Backend) Encode(m vision.Matrix, format vision.Format, quality int) ([]byte, error) {
	mat, err := asMat(m)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	switch format {
	case vision.JPEG:
		if quality < 1 || quality > 100 {
			quality = 90
		}
		err = imaging.Encode(&buf, mat.Image(), imaging.JPEG, imaging.JPEGQuality(quality))
	case vision.PNG:
		err = imaging.Encode(&buf, mat.Image(), imaging.PNG)
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

// Resize resamples m with a bilinear filter.
func (b *Backend) Resize(m vision.Matrix, width, height int) (vision.Matrix, error) {
	mat, err := asMat(m)
	if err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid resize target %dx%d", width, height)
	}
	if width == mat.W && height == mat.H {
		return mat.Clone(), nil
	}

	resized := imaging.Resize(mat.Image(), width, height, imaging.Linear)
	if mat.C == 1 {
		return redToGray(resized), nil
	}
	return &Mat{Pix: resized.Pix, W: width, H: height, C: 4}, nil
}

// Crop copies the part of r that lies inside m.
func (b *Backend) Crop(m vision.Matrix, r image.Rectangle) (vision.Matrix, error) {
	mat, err := asMat(m)
	if err != nil {
		return nil, err
	}

	bounds := image.Rect(0, 0, mat.W, mat.H)
	clamped := r.Canon().Intersect(bounds)
	if clamped.Empty() {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", r, bounds)
	}

	if mat.C == 1 {
		out := NewGrayMat(clamped.Dx(), clamped.Dy())
		for y := 0; y < out.H; y++ {
			start := (clamped.Min.Y+y)*mat.W + clamped.Min.X
			copy(out.Pix[y*out.W:(y+1)*out.W], mat.Pix[start:start+out.W])
		}
		return out, nil
	}

	cropped := imaging.Crop(mat.Image(), clamped)
	return &Mat{Pix: cropped.Pix, W: clamped.Dx(), H: clamped.Dy(), C: 4}, nil
}

var _ vision.Backend = (*Backend)(nil)
