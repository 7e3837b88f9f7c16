package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/shelfscan/internal/detection"
)

// DefaultLanguage is the Tesseract language used when none is configured.
const DefaultLanguage = "eng"

// ErrUnavailable is returned when the build carries no OCR engine.
var ErrUnavailable = errors.New("ocr: text recognition is not available in this build")

// Recognition is the best reading of one image.
type Recognition struct {
	// Text is the recognized text with surrounding whitespace trimmed.
	Text string `json:"text"`

	// Confidence is the mean word confidence (0.0 to 1.0).
	Confidence float64 `json:"confidence"`

	// Rotation is the clockwise rotation in degrees (0, 90 or 270) that
	// produced this reading.
	Rotation int `json:"rotation"`
}

// Recognizer reads text from an encoded image.
type Recognizer interface {
	Recognize(data []byte) (*Recognition, error)
}

// SpineText pairs a spine index with what was read from its crop.
type SpineText struct {
	Index int `json:"index"`
	Recognition
	// Error is set when this spine could not be read; the other spines are
	// still attempted.
	Error string `json:"error,omitempty"`
}

// RecognizeSpines runs r over every spine crop in order. A failure on one
// spine is recorded on its entry; ErrUnavailable aborts the whole call.
func RecognizeSpines(r Recognizer, spines []detection.Spine) ([]SpineText, error) {
	out := make([]SpineText, 0, len(spines))
	for _, s := range spines {
		entry := SpineText{Index: s.Index}
		rec, err := r.Recognize(s.Image)
		switch {
		case errors.Is(err, ErrUnavailable):
			return nil, err
		case err != nil:
			entry.Error = err.Error()
		case rec != nil:
			entry.Recognition = *rec
		}
		out = append(out, entry)
	}
	return out, nil
}

// orientation is one rotated copy of the input, ready for the engine.
type orientation struct {
	rotation int
	img      image.Image
}

// orientations decodes data and returns it upright and turned both ways.
func orientations(data []byte) ([]orientation, error) {
	src, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode crop: %w", err)
	}
	return []orientation{
		{rotation: 0, img: src},
		{rotation: 90, img: imaging.Rotate270(src)},
		{rotation: 270, img: imaging.Rotate90(src)},
	}, nil
}

// best picks the most confident non-empty reading. Ties keep the earlier
// candidate, so an upright reading wins over a rotated one of equal
// confidence.
func best(candidates []Recognition) *Recognition {
	var winner *Recognition
	for i := range candidates {
		c := &candidates[i]
		if strings.TrimSpace(c.Text) == "" {
			continue
		}
		if winner == nil || c.Confidence > winner.Confidence {
			winner = c
		}
	}
	if winner == nil {
		return &Recognition{}
	}
	out := *winner
	out.Text = strings.TrimSpace(out.Text)
	return &out
}

// meanConfidence averages word confidences reported on Tesseract's 0-100
// scale and returns a value in 0-1.
func meanConfidence(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	return stat.Mean(scores, nil) / 100
}
