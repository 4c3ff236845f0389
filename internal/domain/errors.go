package domain

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

var (
	// ErrInvalidInput is returned when a request is missing its location.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMalformedResponse is returned when backend output holds no usable JSON verdict.
	ErrMalformedResponse = errors.New("malformed upstream response")

	// ErrBackendUnavailable is returned when no generative backend is configured.
	ErrBackendUnavailable = errors.New("scoring backend unavailable")

	// ErrUpstream is returned when a configured upstream (backend, forecast,
	// geocoder) could not be reached or rejected the request.
	ErrUpstream = errors.New("upstream request failed")
)

// maxExcerpt bounds how much of a bad response is kept for logging.
const maxExcerpt = 200

// MalformedResponseError describes backend output that could not be used.
type MalformedResponseError struct {
	Reason  string
	Excerpt string
}

func newMalformedResponseError(reason, text string) *MalformedResponseError {
	excerpt := text
	if len(excerpt) > maxExcerpt {
		cut := maxExcerpt
		for cut > 0 && !utf8.RuneStart(excerpt[cut]) {
			cut--
		}
		excerpt = excerpt[:cut]
	}
	return &MalformedResponseError{Reason: reason, Excerpt: excerpt}
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMalformedResponse, e.Reason)
}

func (e *MalformedResponseError) Unwrap() error {
	return ErrMalformedResponse
}
