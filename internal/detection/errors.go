package detection

import (
	"errors"
	"fmt"
)

// ErrorCode classifies detection failures for callers and transports.
type ErrorCode string

const (
	CodeDecodeFailed       ErrorCode = "DECODE_FAILED"
	CodeBackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"
	CodeStageFailed        ErrorCode = "STAGE_FAILED"
)

// Sentinels for errors.Is. A *Error matches the sentinel of its Code.
var (
	ErrDecode             = errors.New("image decode failed")
	ErrBackendUnavailable = errors.New("vision backend unavailable")
	ErrStage              = errors.New("detection stage failed")
)

// Stage names used in errors and log fields.
const (
	StageDecode   = "decode"
	StageResize   = "resize"
	StageRows     = "rows"
	StageEdges    = "edges"
	StageLines    = "lines"
	StageExtract  = "extract"
	StageDebug    = "debug"
	StageValidate = "validate"
)

var errEmptyImage = errors.New("image has no pixels")

// Error is returned by Detector.Detect. No partial result accompanies it.
type Error struct {
	Code    ErrorCode
	Stage   string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Stage, e.Message)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches the sentinel for e.Code.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrDecode:
		return e.Code == CodeDecodeFailed
	case ErrBackendUnavailable:
		return e.Code == CodeBackendUnavailable
	case ErrStage:
		return e.Code == CodeStageFailed
	}
	return false
}

// NewDecodeError reports unreadable input bytes.
func NewDecodeError(cause error) *Error {
	return &Error{Code: CodeDecodeFailed, Stage: StageDecode, Message: "input is not a supported image", Cause: cause}
}

// NewBackendError reports a missing or broken vision backend.
func NewBackendError(cause error) *Error {
	return &Error{Code: CodeBackendUnavailable, Stage: StageValidate, Message: "vision backend unavailable", Cause: cause}
}

// NewStageError reports a failure inside a pipeline stage.
func NewStageError(stage, message string, cause error) *Error {
	return &Error{Code: CodeStageFailed, Stage: stage, Message: message, Cause: cause}
}
