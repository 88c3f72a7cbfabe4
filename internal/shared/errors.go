package shared

import (
	"errors"
	"fmt"
	"time"
)

// GenericFailureMessage is shown when a failure carries no usable detail.
const GenericFailureMessage = "failed to process image"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Validation errors (never reach the network)
	ErrNoFile       = fmt.Errorf("no file selected")
	ErrNotImage     = fmt.Errorf("please upload an image (JPG/PNG/WebP)")
	ErrFileTooLarge = fmt.Errorf("file too large")

	// Controller errors
	ErrBusy = fmt.Errorf("an upload is already in progress")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrTimeout            = fmt.Errorf("operation timed out")
	ErrMalformedResponse  = fmt.Errorf("malformed response")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

// ValidationError is a local, pre-network failure: no file, wrong media type or oversized file.
type ValidationError struct {
	Err     error  // One of ErrNoFile, ErrNotImage, ErrFileTooLarge
	Message string // Text shown to the user
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError wraps a validation sentinel with its user-facing message.
func NewValidationError(err error, format string, args ...any) *ValidationError {
	msg := err.Error()
	if format != "" {
		msg = fmt.Sprintf(format, args...)
	}
	return &ValidationError{Err: err, Message: msg}
}

// TransportError reports a network failure, refused connection or timeout.
type TransportError struct {
	Err     error
	Timeout bool
	After   time.Duration // Configured deadline, set when Timeout is true
}

func (e *TransportError) Error() string {
	if e.Timeout {
		if e.After > 0 {
			return fmt.Sprintf("request timed out after %s", e.After)
		}
		return "request timed out"
	}
	if e.Err == nil {
		return "network error"
	}
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	if e.Timeout {
		return ErrTimeout
	}
	return e.Err
}

// ServiceError is a non-2xx response from the colorize backend.
//
// Detail holds the backend's "detail" field verbatim when it was a JSON string.
type ServiceError struct {
	StatusCode int
	Detail     string
}

func (e *ServiceError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("%s (status %d)", GenericFailureMessage, e.StatusCode)
}

func (e *ServiceError) Unwrap() error { return ErrAPIRequest }

// UserMessage converts any error into the text shown as the error state.
//
// Transport failures other than timeouts and malformed replies collapse to
// [GenericFailureMessage]; their causes only go to the log.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var (
		verr *ValidationError
		terr *TransportError
		serr *ServiceError
	)
	switch {
	case errors.As(err, &verr):
		return verr.Error()
	case errors.As(err, &serr):
		return serr.Error()
	case errors.As(err, &terr):
		if terr.Timeout {
			return terr.Error()
		}
		return GenericFailureMessage
	case errors.Is(err, ErrMalformedResponse):
		return GenericFailureMessage
	}

	if msg := err.Error(); msg != "" {
		return msg
	}
	return GenericFailureMessage
}
