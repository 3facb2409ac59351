package types

import (
	"context"
	"errors"
	"fmt"
)

// ErrorKind classifies terminal run failures
type ErrorKind string

const (
	ErrNoMediaFound    ErrorKind = "NoMediaFoundError"
	ErrInvalidDuration ErrorKind = "InvalidDurationError"
	ErrAssetProbe      ErrorKind = "AssetProbeError"
	ErrCaptionProvider ErrorKind = "CaptionProviderError"
	ErrTTSProvider     ErrorKind = "TTSProviderError"
	ErrRenderTimeout   ErrorKind = "RenderTimeoutError"
	ErrRenderFailure   ErrorKind = "RenderFailureError"
	ErrCanceled        ErrorKind = "CanceledError"
	ErrConfig          ErrorKind = "ConfigError"
	ErrUnclassified    ErrorKind = "Error"
)

var exitCodes = map[ErrorKind]int{
	ErrUnclassified:    1,
	ErrConfig:          2,
	ErrNoMediaFound:    10,
	ErrInvalidDuration: 11,
	ErrAssetProbe:      12,
	ErrCaptionProvider: 13,
	ErrTTSProvider:     14,
	ErrRenderTimeout:   15,
	ErrRenderFailure:   16,
	ErrCanceled:        17,
}

// ExitCode is the process exit status for a kind
func (k ErrorKind) ExitCode() int {
	if code, ok := exitCodes[k]; ok {
		return code
	}
	return 1
}

// RunError is a classified failure. State is filled in by the driver with
// the state the failure originated in.
type RunError struct {
	Kind  ErrorKind
	State State
	Err   error
}

func (e *RunError) Error() string {
	if e.State != "" {
		return fmt.Sprintf("%s in %s: %v", e.Kind, e.State, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// NewError wraps err with a kind
func NewError(kind ErrorKind, err error) *RunError {
	return &RunError{Kind: kind, Err: err}
}

// Errorf builds a classified error from a format string
func Errorf(kind ErrorKind, format string, args ...any) *RunError {
	return &RunError{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the kind of err. Context cancellation is reported as
// ErrCanceled even when it was not wrapped in a RunError.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var re *RunError
	if errors.As(err, &re) {
		return re.Kind
	}
	if errors.Is(err, context.Canceled) {
		return ErrCanceled
	}
	return ErrUnclassified
}

// ExitCode maps err to a process exit status; nil maps to 0
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return KindOf(err).ExitCode()
}
