package photos

import (
	"errors"
	"net/http"
)

// ValidationError reports a problem with the stored object itself, such as
// an empty body or a content type outside the allow-list.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// InvalidImageFormatError reports that the vision service rejected the image
// bytes as malformed, typically a payload that does not match its declared
// content type.
type InvalidImageFormatError struct {
	Err error
}

func (e *InvalidImageFormatError) Error() string {
	if e.Err == nil {
		return "invalid image format"
	}
	return e.Err.Error()
}

func (e *InvalidImageFormatError) Unwrap() error { return e.Err }

// InvalidInputError reports a search request with no usable query.
type InvalidInputError struct {
	Msg string
}

func (e *InvalidInputError) Error() string { return e.Msg }

// StatusCode maps an error onto the HTTP status returned to the caller.
// Caller and data problems are 400; everything else is 500.
func StatusCode(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var (
		validation *ValidationError
		format     *InvalidImageFormatError
		input      *InvalidInputError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &format), errors.As(err, &input):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
