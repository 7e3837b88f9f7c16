// Package vision defines the narrow matrix interface the spine detection
// pipeline is written against.
//
// A Backend owns every pixel operation the pipeline needs (decode, resize,
// crop, grayscale, blur, equalization, edge detection, morphology, line
// extraction and a few reductions). Pipeline code never touches pixels
// directly, so a backend can be swapped without changing detection logic.
//
// # Ownership
//
// Every Matrix returned by a Backend is owned by the caller and must be
// released exactly once with Release (further calls are no-ops). Use an Arena
// to guarantee release on every exit path:
//
//	arena := vision.NewArena()
//	defer arena.Release()
//	gray, err := b.Grayscale(m)
//	if err != nil {
//	    return nil, err
//	}
//	arena.Track(gray)
package vision

import (
	"errors"
	"image"
)

// ErrUnsupported is returned by a Backend for an operation it does not
// implement. Callers that have a fallback check for it with errors.Is.
var ErrUnsupported = errors.New("vision: operation not supported by backend")

// ErrBackendUnavailable is returned by Open when the named backend is not
// compiled in or failed to initialize.
var ErrBackendUnavailable = errors.New("vision: backend unavailable")

// Matrix is a 2D grid of 8-bit samples with 1, 3 or 4 channels.
// Implementations must be comparable (pointer types) so an Arena can track
// them by identity.
type Matrix interface {
	Width() int
	Height() int
	Channels() int

	// Release frees the backing memory. It is safe to call more than once.
	Release()
}

// Format selects an encoding for Backend.Encode.
type Format int

const (
	// JPEG encodes with the quality passed to Encode.
	JPEG Format = iota
	// PNG encodes losslessly; quality is ignored.
	PNG
)

func (f Format) String() string {
	switch f {
	case JPEG:
		return "jpeg"
	case PNG:
		return "png"
	default:
		return "unknown"
	}
}

// Segment is a line segment returned by HoughLinesP, in the coordinate space
// of the matrix it was extracted from.
type Segment struct {
	X1, Y1, X2, Y2 int
}

// HoughParams configures probabilistic Hough line extraction.
type HoughParams struct {
	// Rho is the distance resolution of the accumulator in pixels.
	Rho float64
	// Theta is the angle resolution of the accumulator in radians.
	Theta float64
	// Threshold is the minimum number of accumulator votes.
	Threshold int
	// MinLineLength discards segments shorter than this many pixels.
	MinLineLength float64
	// MaxLineGap is the largest gap between points joined into one segment.
	MaxLineGap float64
}

// Backend implements the pixel operations used by the detection pipeline.
// Operations never mutate their inputs.
type Backend interface {
	// Name identifies the backend in logs and diagnostics.
	Name() string

	// Decode parses an encoded image (JPEG, PNG, WebP).
	Decode(data []byte) (Matrix, error)
	// Encode serializes m. quality applies to JPEG only (1-100).
	Encode(m Matrix, format Format, quality int) ([]byte, error)

	// Resize returns m resampled to width x height.
	Resize(m Matrix, width, height int) (Matrix, error)
	// Crop returns a copy of r. r is clamped to the matrix bounds; an empty
	// intersection is an error.
	Crop(m Matrix, r image.Rectangle) (Matrix, error)

	// Grayscale returns a single-channel copy of m.
	Grayscale(m Matrix) (Matrix, error)
	// GaussianBlur blurs m with a ksize x ksize Gaussian kernel.
	GaussianBlur(m Matrix, ksize int) (Matrix, error)
	// EqualizeAdaptive applies contrast-limited adaptive histogram
	// equalization to a single-channel matrix. May return ErrUnsupported.
	EqualizeAdaptive(m Matrix, clipLimit float64, tiles int) (Matrix, error)
	// EqualizeGlobal applies global histogram equalization to a
	// single-channel matrix.
	EqualizeGlobal(m Matrix) (Matrix, error)

	// Canny returns a binary (0/255) edge map of a single-channel matrix.
	Canny(m Matrix, low, high float64) (Matrix, error)
	// Dilate applies a max filter with a kw x kh rectangular element.
	Dilate(m Matrix, kw, kh int) (Matrix, error)
	// HoughLinesP extracts line segments from a binary edge map.
	HoughLinesP(m Matrix, p HoughParams) ([]Segment, error)

	// RowMeans returns the mean sample value of every row of a
	// single-channel matrix.
	RowMeans(m Matrix) ([]float64, error)
	// MeanBrightness returns the mean sample value across color channels
	// (alpha excluded) on a 0-255 scale.
	MeanBrightness(m Matrix) (float64, error)
}
