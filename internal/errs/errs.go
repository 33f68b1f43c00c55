package errs

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration  = errors.New("configuration error")
	ErrUpstream       = errors.New("upstream error")
	ErrResponseFormat = errors.New("response format error")
	ErrIO             = errors.New("io error")
)

func Configuration(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

func ResponseFormat(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrResponseFormat, fmt.Sprintf(format, args...))
}

// IO wraps err so that it matches both ErrIO and the underlying cause.
func IO(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrIO, op, err)
}

// UpstreamError is returned when the image service answers with a non-2xx status.
type UpstreamError struct {
	StatusCode int
	Status     string
	Detail     string
}

func (e *UpstreamError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", ErrUpstream, e.Status)
	}
	return fmt.Sprintf("%s: %s: %s", ErrUpstream, e.Status, e.Detail)
}

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}
