//go:build cgo && linux

package ocr

import (
	"bytes"
	"fmt"
	"image/png"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract recognizes text with the native Tesseract library.
//
// A Tesseract value is safe for concurrent use: each Recognize call opens its
// own gosseract client.
type Tesseract struct {
	language string
	tessdata string
}

// NewTesseract returns a recognizer for the given language. An empty
// tessdataPrefix uses the system training data.
func NewTesseract(language, tessdataPrefix string) *Tesseract {
	if language == "" {
		language = DefaultLanguage
	}
	return &Tesseract{language: language, tessdata: tessdataPrefix}
}

// Recognize reads the crop upright and rotated both ways and returns the
// most confident reading.
func (t *Tesseract) Recognize(data []byte) (*Recognition, error) {
	variants, err := orientations(data)
	if err != nil {
		return nil, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if t.tessdata != "" {
		if err := client.SetTessdataPrefix(t.tessdata); err != nil {
			return nil, fmt.Errorf("failed to set tessdata path: %w", err)
		}
	}
	if err := client.SetLanguage(t.language); err != nil {
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return nil, fmt.Errorf("failed to set page segmentation: %w", err)
	}

	candidates := make([]Recognition, 0, len(variants))
	for _, v := range variants {
		var buf bytes.Buffer
		if err := png.Encode(&buf, v.img); err != nil {
			return nil, fmt.Errorf("failed to encode rotated crop: %w", err)
		}
		if err := client.SetImageFromBytes(buf.Bytes()); err != nil {
			return nil, fmt.Errorf("failed to set image: %w", err)
		}

		text, err := client.Text()
		if err != nil {
			return nil, fmt.Errorf("OCR failed: %w", err)
		}

		// Word boxes carry the confidences; a failure here still leaves
		// the text usable at zero confidence.
		var scores []float64
		if boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD); err == nil {
			for _, box := range boxes {
				if box.Word != "" {
					scores = append(scores, box.Confidence)
				}
			}
		}

		candidates = append(candidates, Recognition{
			Text:       text,
			Confidence: meanConfidence(scores),
			Rotation:   v.rotation,
		})
	}
	return best(candidates), nil
}

// Version returns the linked Tesseract version.
func Version() string {
	client := gosseract.NewClient()
	defer client.Close()
	return client.Version()
}

// Available reports whether this build can recognize text.
func Available() bool { return true }
