package domain

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateSlug  = errors.New("a business with this slug already exists")
	ErrDuplicateEmail = errors.New("email is already on the waitlist")
	ErrForbidden      = errors.New("forbidden")

	// AI path. Never surfaced past the orchestrator.
	ErrEmptyCompletion = errors.New("completion contained no usable text")

	// QR path.
	ErrEncoding        = errors.New("payload exceeds QR symbol capacity")
	ErrInvalidQRSize   = errors.New("unsupported QR size")
	ErrInvalidQRFormat = errors.New("unsupported QR format")

	// Platform capabilities. Unavailable triggers a fallback; cancelled is a
	// user decision and not a failure.
	ErrShareUnavailable     = errors.New("share target unavailable")
	ErrShareCancelled       = errors.New("share cancelled")
	ErrClipboardUnavailable = errors.New("clipboard unavailable")
)

// UpstreamHTTPError is a non-2xx answer from the text-completion endpoint.
type UpstreamHTTPError struct {
	Status int
	Body   string
}

func (e *UpstreamHTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream returned status %d", e.Status)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.Status, e.Body)
}

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s: %s", e.Field, e.Message)
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
