// Package ocr reads the title text printed on spine crops using Tesseract.
//
// Detection never calls this package; it is the downstream collaborator that
// turns the JPEG crops in a detection.Result into text. Recognizer is the
// seam: the Tesseract implementation wraps gosseract/v2, and tests or other
// engines can supply their own.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr libtesseract-dev
//   - macOS: brew install tesseract
//
// Language data files are required for each language:
//   - Ubuntu/Debian: apt-get install tesseract-ocr-eng (for English)
//   - Other languages: tesseract-ocr-<lang> packages
//
// The gosseract binding needs cgo. Builds without cgo, or on platforms other
// than Linux, get a stub whose Recognize returns ErrUnavailable.
//
// # Orientation
//
// Spine titles usually run along the spine, so a crop is read three ways: as
// is, rotated 90 degrees counter-clockwise and rotated 90 degrees clockwise.
// The reading with the highest mean word confidence wins and its rotation is
// reported.
//
// # Performance Considerations
//
// OCR is computationally expensive and each spine is recognized up to three
// times. Callers with many spines should bound the work with a deadline at
// the transport layer.
package ocr
