package inference

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failure at the bridge boundary. Every kind maps to
// exit code 1; the kind only drives logging and the prediction log.
type ErrorKind string

const (
	ArgumentError   ErrorKind = "argument"
	ResolutionError ErrorKind = "resolution"
	NotFound        ErrorKind = "not_found"
	LoadError       ErrorKind = "load"
	PredictionError ErrorKind = "prediction"
)

// Error is the single error type the bridge turns into a failure envelope.
// Message is user-facing and ends up verbatim in the JSON "error" field.
type Error struct {
	Kind    ErrorKind
	Message string
	Usage   string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// KindOf reports the kind of err, or "" when err did not originate here.
func KindOf(err error) ErrorKind {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind
	}
	return ""
}

func notFoundError(path string, err error) *Error {
	return &Error{Kind: NotFound, Message: fmt.Sprintf("File not found: %s", path), Err: err}
}

func loadError(err error) *Error {
	return &Error{Kind: LoadError, Message: fmt.Sprintf("Error loading model: %v", err), Err: err}
}

func predictionError(err error) *Error {
	return &Error{Kind: PredictionError, Message: fmt.Sprintf("Error making prediction: %v", err), Err: err}
}
