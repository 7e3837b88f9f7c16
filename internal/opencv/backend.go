//go:build gocv

// Package opencv implements vision.Backend on OpenCV through gocv.
//
// It is compiled only with the gocv build tag and registers itself as
// "opencv". Import it for its side effect:
//
//	import _ "github.com/ironsheep/shelfscan/internal/opencv"
//
// Matrices wrap gocv.Mat; Release closes the native memory once and is a
// no-op afterwards.
package opencv

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/ironsheep/shelfscan/internal/vision"
)

// BackendName is the registry name of the OpenCV backend.
const BackendName = "opencv"

func init() {
	vision.Register(BackendName, func() (vision.Backend, error) {
		return NewBackend(), nil
	})
}

// Matrix wraps a gocv.Mat.
type Matrix struct {
	mat      gocv.Mat
	released bool
}

func wrap(m gocv.Mat) *Matrix { return &Matrix{mat: m} }

func (m *Matrix) Width() int    { return m.mat.Cols() }
func (m *Matrix) Height() int   { return m.mat.Rows() }
func (m *Matrix) Channels() int { return m.mat.Channels() }

// Release closes the native Mat. Safe to call more than once.
func (m *Matrix) Release() {
	if m.released {
		return
	}
	m.released = true
	m.mat.Close()
}

// Backend implements vision.Backend with OpenCV. It has no state.
type Backend struct{}

// NewBackend returns the OpenCV backend.
func NewBackend() *Backend { return &Backend{} }

// Name implements vision.Backend.
func (b *Backend) Name() string { return BackendName }

func unwrap(m vision.Matrix) (gocv.Mat, error) {
	mm, ok := m.(*Matrix)
	if !ok {
		return gocv.Mat{}, fmt.Errorf("opencv: foreign matrix type %T", m)
	}
	if mm.released {
		return gocv.Mat{}, fmt.Errorf("opencv: matrix already released")
	}
	return mm.mat, nil
}

func unwrapGray(m vision.Matrix, op string) (gocv.Mat, error) {
	mat, err := unwrap(m)
	if err != nil {
		return mat, err
	}
	if mat.Channels() != 1 {
		return mat, fmt.Errorf("opencv: %s needs a single-channel matrix, got %d channels", op, mat.Channels())
	}
	return mat, nil
}

// Decode parses the image with EXIF orientation applied and returns a
// 3-channel BGR matrix.
func (b *Backend) Decode(data []byte) (vision.Matrix, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("failed to decode image: empty buffer")
	}
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("failed to decode image: unrecognized format")
	}
	return wrap(mat), nil
}

// Encode serializes m as JPEG or PNG.
func (b *Backend) Encode(m vision.Matrix, format vision.Format, quality int) ([]byte, error) {
	mat, err := unwrap(m)
	if err != nil {
		return nil, err
	}

	var buf *gocv.NativeByteBuffer
	switch format {
	case vision.JPEG:
		if quality < 1 || quality > 100 {
			quality = 90
		}
		buf, err = gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{gocv.IMWriteJpegQuality, quality})
	case vision.PNG:
		buf, err = gocv.IMEncode(gocv.PNGFileExt, mat)
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", format, err)
	}
	defer buf.Close()

	// GetBytes aliases native memory freed by Close.
	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}

// Resize uses area interpolation when shrinking and bilinear otherwise.
func (b *Backend) Resize(m vision.Matrix, width, height int) (vision.Matrix, error) {
	mat, err := unwrap(m)
	if err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid resize target %dx%d", width, height)
	}
	interp := gocv.InterpolationLinear
	if width < mat.Cols() && height < mat.Rows() {
		interp = gocv.InterpolationArea
	}
	dst := gocv.NewMat()
	gocv.Resize(mat, &dst, image.Point{X: width, Y: height}, 0, 0, interp)
	return wrap(dst), nil
}

// Crop copies the part of r that lies inside m.
func (b *Backend) Crop(m vision.Matrix, r image.Rectangle) (vision.Matrix, error) {
	mat, err := unwrap(m)
	if err != nil {
		return nil, err
	}
	bounds := image.Rect(0, 0, mat.Cols(), mat.Rows())
	clamped := r.Canon().Intersect(bounds)
	if clamped.Empty() {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", r, bounds)
	}
	region := mat.Region(clamped)
	defer region.Close()
	return wrap(region.Clone()), nil
}

// Grayscale converts BGR or BGRA input. Single-channel input is cloned.
func (b *Backend) Grayscale(m vision.Matrix) (vision.Matrix, error) {
	mat, err := unwrap(m)
	if err != nil {
		return nil, err
	}
	dst := gocv.NewMat()
	switch mat.Channels() {
	case 1:
		dst.Close()
		return wrap(mat.Clone()), nil
	case 3:
		gocv.CvtColor(mat, &dst, gocv.ColorBGRToGray)
	case 4:
		gocv.CvtColor(mat, &dst, gocv.ColorBGRAToGray)
	default:
		dst.Close()
		return nil, fmt.Errorf("opencv: unsupported channel count %d", mat.Channels())
	}
	return wrap(dst), nil
}

// GaussianBlur blurs with sigma derived from ksize.
func (b *Backend) GaussianBlur(m vision.Matrix, ksize int) (vision.Matrix, error) {
	mat, err := unwrap(m)
	if err != nil {
		return nil, err
	}
	if ksize < 1 || ksize%2 == 0 {
		return nil, fmt.Errorf("opencv: blur kernel must be odd and positive, got %d", ksize)
	}
	dst := gocv.NewMat()
	gocv.GaussianBlur(mat, &dst, image.Point{X: ksize, Y: ksize}, 0, 0, gocv.BorderDefault)
	return wrap(dst), nil
}

// EqualizeAdaptive applies CLAHE on a tiles x tiles grid.
func (b *Backend) EqualizeAdaptive(m vision.Matrix, clipLimit float64, tiles int) (vision.Matrix, error) {
	mat, err := unwrapGray(m, "CLAHE")
	if err != nil {
		return nil, err
	}
	if tiles < 1 {
		tiles = 8
	}
	clahe := gocv.NewCLAHEWithParams(clipLimit, image.Point{X: tiles, Y: tiles})
	defer clahe.Close()

	dst := gocv.NewMat()
	clahe.Apply(mat, &dst)
	return wrap(dst), nil
}

// EqualizeGlobal applies histogram equalization.
func (b *Backend) EqualizeGlobal(m vision.Matrix) (vision.Matrix, error) {
	mat, err := unwrapGray(m, "histogram equalization")
	if err != nil {
		return nil, err
	}
	dst := gocv.NewMat()
	gocv.EqualizeHist(mat, &dst)
	return wrap(dst), nil
}

// Canny runs OpenCV's detector with a 3x3 Sobel aperture.
func (b *Backend) Canny(m vision.Matrix, low, high float64) (vision.Matrix, error) {
	mat, err := unwrapGray(m, "Canny")
	if err != nil {
		return nil, err
	}
	dst := gocv.NewMat()
	gocv.Canny(mat, &dst, float32(low), float32(high))
	return wrap(dst), nil
}

// Dilate applies a kw x kh rectangular structuring element.
func (b *Backend) Dilate(m vision.Matrix, kw, kh int) (vision.Matrix, error) {
	mat, err := unwrap(m)
	if err != nil {
		return nil, err
	}
	if kw < 1 || kh < 1 {
		return nil, fmt.Errorf("opencv: invalid dilation kernel %dx%d", kw, kh)
	}
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Point{X: kw, Y: kh})
	defer kernel.Close()

	dst := gocv.NewMat()
	gocv.Dilate(mat, &dst, kernel)
	return wrap(dst), nil
}

// HoughLinesP runs the probabilistic Hough transform.
func (b *Backend) HoughLinesP(m vision.Matrix, p vision.HoughParams) ([]vision.Segment, error) {
	mat, err := unwrapGray(m, "Hough")
	if err != nil {
		return nil, err
	}
	lines := gocv.NewMat()
	defer lines.Close()
	gocv.HoughLinesPWithParams(mat, &lines, float32(p.Rho), float32(p.Theta), p.Threshold,
		float32(p.MinLineLength), float32(p.MaxLineGap))

	segs := make([]vision.Segment, 0, lines.Rows())
	for i := 0; i < lines.Rows(); i++ {
		v := lines.GetVeciAt(i, 0)
		segs = append(segs, vision.Segment{X1: int(v[0]), Y1: int(v[1]), X2: int(v[2]), Y2: int(v[3])})
	}
	return segs, nil
}

// RowMeans reduces every row to its average.
func (b *Backend) RowMeans(m vision.Matrix) ([]float64, error) {
	mat, err := unwrapGray(m, "row means")
	if err != nil {
		return nil, err
	}
	if mat.Empty() {
		return nil, fmt.Errorf("opencv: row means of an empty matrix")
	}
	col := gocv.NewMat()
	defer col.Close()
	gocv.Reduce(mat, &col, 1, gocv.ReduceAvg, gocv.MatTypeCV64F)

	out := make([]float64, mat.Rows())
	for y := range out {
		out[y] = col.GetDoubleAt(y, 0)
	}
	return out, nil
}

// MeanBrightness averages the color channels, alpha excluded.
func (b *Backend) MeanBrightness(m vision.Matrix) (float64, error) {
	mat, err := unwrap(m)
	if err != nil {
		return 0, err
	}
	if mat.Empty() {
		return 0, fmt.Errorf("opencv: mean brightness of an empty matrix")
	}
	s := mat.Mean()
	switch mat.Channels() {
	case 1:
		return s.Val1, nil
	default:
		return (s.Val1 + s.Val2 + s.Val3) / 3, nil
	}
}

var _ vision.Backend = (*Backend)(nil)
