// Package apperr defines the error taxonomy shared across pipeline stages.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// Stage names the pipeline stage an error originated from.
type Stage string

const (
	StageValidate Stage = "validate"
	StageSequence Stage = "sequence"
	StageRender   Stage = "render"
	StageCompose  Stage = "compose"
)

// Code is a machine-readable defect code.
type Code string

const (
	CodeEmptyInput            Code = "empty_input"
	CodeUnknownKind           Code = "unknown_kind"
	CodeUnterminatedBlock     Code = "unterminated_block"
	CodeUnbalancedDelimiter   Code = "unbalanced_delimiter"
	CodeGenerationUnavailable Code = "generation_unavailable"
	CodeGenerationMalformed   Code = "generation_malformed"
	CodeSequenceTooShort      Code = "sequence_too_short"
	CodeRenderFailed          Code = "render_failed"
	CodeNothingToCompose      Code = "nothing_to_compose"
	CodeFrameSizeMismatch     Code = "frame_size_mismatch"
	CodeCancelled             Code = "cancelled"
)

// Error carries the stage, defect code, and (where applicable) the index of
// the offending keyframe, so callers can decide whether to retry with
// adjusted settings or abort. Frame is -1 when no keyframe applies.
type Error struct {
	Stage Stage
	Code  Code
	Frame int
	Err   error
}

// New creates a stage error without an underlying cause.
func New(stage Stage, code Code, msg string) *Error {
	return &Error{Stage: stage, Code: code, Frame: -1, Err: errors.New(msg)}
}

// Wrap creates a stage error wrapping an underlying cause.
func Wrap(stage Stage, code Code, err error) *Error {
	return &Error{Stage: stage, Code: code, Frame: -1, Err: err}
}

// AtFrame creates a stage error tagged with a keyframe index.
func AtFrame(stage Stage, code Code, frame int, err error) *Error {
	return &Error{Stage: stage, Code: code, Frame: frame, Err: err}
}

func (e *Error) Error() string {
	if e.Frame >= 0 {
		return fmt.Sprintf("%s: %s (frame %d): %v", e.Stage, e.Code, e.Frame, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Stage, e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// CodeOf returns the defect code of err, or "" if err carries none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// StageOf returns the stage err originated from, or "" if unknown.
func StageOf(err error) Stage {
	var e *Error
	if errors.As(err, &e) {
		return e.Stage
	}
	return ""
}

// FrameOf returns the keyframe index attached to err, or -1.
func FrameOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Frame
	}
	return -1
}

// IsCancelled reports whether err is a cooperative-cancellation outcome.
func IsCancelled(err error) bool {
	return CodeOf(err) == CodeCancelled
}
