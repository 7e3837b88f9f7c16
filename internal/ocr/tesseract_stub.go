//go:build !(cgo && linux)

package ocr

// Tesseract is a placeholder for builds without the native library.
type Tesseract struct{}

// NewTesseract returns a recognizer that always fails with ErrUnavailable.
func NewTesseract(language, tessdataPrefix string) *Tesseract {
	return &Tesseract{}
}

// Recognize always returns ErrUnavailable.
func (t *Tesseract) Recognize(data []byte) (*Recognition, error) {
	return nil, ErrUnavailable
}

// Version returns an empty string.
func Version() string { return "" }

// Available reports whether this build can recognize text.
func Available() bool { return false }
