package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/shelfscan/internal/vision"
)

// Mat is the pure Go pixel matrix.
//
// Samples are stored row-major and interleaved with no padding. Gray matrices
// have one channel; color matrices have four (non-premultiplied RGBA) so they
// can be handed to image libraries as *image.NRGBA without copying.
type Mat struct {
	Pix []uint8
	W   int
	H   int
	C   int
}

var errReleased = errors.New("matrix already released")

// NewGrayMat allocates a zeroed single-channel matrix.
func NewGrayMat(width, height int) *Mat {
	return &Mat{Pix: make([]uint8, width*height), W: width, H: height, C: 1}
}

// NewColorMat allocates a zeroed four-channel matrix.
func NewColorMat(width, height int) *Mat {
	return &Mat{Pix: make([]uint8, width*height*4), W: width, H: height, C: 4}
}

// Width implements vision.Matrix.
func (m *Mat) Width() int { return m.W }

// Height implements vision.Matrix.
func (m *Mat) Height() int { return m.H }

// Channels implements vision.Matrix.
func (m *Mat) Channels() int { return m.C }

// Release drops the sample buffer. Later operations on m fail.
func (m *Mat) Release() { m.Pix = nil }

// GrayAt returns the sample at (x, y) of a single-channel matrix.
func (m *Mat) GrayAt(x, y int) uint8 { return m.Pix[y*m.W+x] }

// SetGray sets the sample at (x, y) of a single-channel matrix.
func (m *Mat) SetGray(x, y int, v uint8) { m.Pix[y*m.W+x] = v }

// Image returns an image.Image sharing m's samples: *image.Gray for one
// channel, *image.NRGBA for four.
func (m *Mat) Image() image.Image {
	r := image.Rect(0, 0, m.W, m.H)
	if m.C == 1 {
		return &image.Gray{Pix: m.Pix, Stride: m.W, Rect: r}
	}
	return &image.NRGBA{Pix: m.Pix, Stride: m.W * 4, Rect: r}
}

// Clone returns a deep copy of m.
func (m *Mat) Clone() *Mat {
	pix := make([]uint8, len(m.Pix))
	copy(pix, m.Pix)
	return &Mat{Pix: pix, W: m.W, H: m.H, C: m.C}
}

// FromImage converts any image into a Mat. Gray images stay single-channel,
// everything else becomes four-channel NRGBA.
func FromImage(img image.Image) *Mat {
	if g, ok := img.(*image.Gray); ok {
		return grayFromImage(g)
	}
	nrgba := imaging.Clone(img)
	return &Mat{Pix: nrgba.Pix, W: nrgba.Rect.Dx(), H: nrgba.Rect.Dy(), C: 4}
}

// grayFromImage copies g into a tightly packed Mat regardless of stride or
// origin.
func grayFromImage(g *image.Gray) *Mat {
	b := g.Bounds()
	out := NewGrayMat(b.Dx(), b.Dy())
	for y := 0; y < out.H; y++ {
		src := g.Pix[g.PixOffset(b.Min.X, b.Min.Y+y):]
		copy(out.Pix[y*out.W:(y+1)*out.W], src[:out.W])
	}
	return out
}

// redToGray collapses a color image whose channels are equal (the output of
// resampling or blurring a gray source) back to one channel.
func redToGray(img image.Image) *Mat {
	b := img.Bounds()
	out := NewGrayMat(b.Dx(), b.Dy())
	switch src := img.(type) {
	case *image.NRGBA:
		for y := 0; y < out.H; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := 0; x < out.W; x++ {
				out.Pix[y*out.W+x] = row[x*4]
			}
		}
	case *image.RGBA:
		for y := 0; y < out.H; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := 0; x < out.W; x++ {
				out.Pix[y*out.W+x] = row[x*4]
			}
		}
	default:
		for y := 0; y < out.H; y++ {
			for x := 0; x < out.W; x++ {
				out.Pix[y*out.W+x] = color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray).Y
			}
		}
	}
	return out
}

// asMat unwraps a vision.Matrix produced by this backend.
func asMat(m vision.Matrix) (*Mat, error) {
	mat, ok := m.(*Mat)
	if !ok {
		return nil, fmt.Errorf("imaging: foreign matrix type %T", m)
	}
	if mat.Pix == nil {
		return nil, errReleased
	}
	return mat, nil
}

// asGray unwraps m and checks that it has a single channel.
func asGray(m vision.Matrix, op string) (*Mat, error) {
	mat, err := asMat(m)
	if err != nil {
		return nil, err
	}
	if mat.C != 1 {
		return nil, fmt.Errorf("imaging: %s needs a single-channel matrix, got %d channels", op, mat.C)
	}
	return mat, nil
}
