package detection

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/shelfscan/internal/vision"
)

const (
	blurKernel    = 5
	claheClip     = 2.0
	claheTileGrid = 8
)

// discardLogger backs the exported stage functions, which take no logger.
var discardLogger logrus.FieldLogger = &logrus.Logger{
	Out:       io.Discard,
	Formatter: new(logrus.TextFormatter),
	Hooks:     make(logrus.LevelHooks),
	Level:     logrus.PanicLevel,
}

// Preprocess converts m to gray, blurs it with a 5x5 Gaussian and applies
// adaptive contrast equalization. Backends without adaptive equalization
// get global histogram equalization instead. m is not modified.
func Preprocess(b vision.Backend, m vision.Matrix) (vision.Matrix, error) {
	return preprocess(b, m, discardLogger)
}

func preprocess(b vision.Backend, m vision.Matrix, log logrus.FieldLogger) (vision.Matrix, error) {
	arena := vision.NewArena()
	defer arena.Release()

	gray, err := b.Grayscale(m)
	if err != nil {
		return nil, fmt.Errorf("grayscale: %w", err)
	}
	arena.Track(gray)

	blurred, err := b.GaussianBlur(gray, blurKernel)
	if err != nil {
		return nil, fmt.Errorf("blur: %w", err)
	}
	arena.Track(blurred)

	out, err := b.EqualizeAdaptive(blurred, claheClip, claheTileGrid)
	if errors.Is(err, vision.ErrUnsupported) {
		log.WithField("backend", b.Name()).Debug("adaptive equalization unavailable, using global equalization")
		out, err = b.EqualizeGlobal(blurred)
	}
	if err != nil {
		return nil, fmt.Errorf("equalize: %w", err)
	}
	return out, nil
}
