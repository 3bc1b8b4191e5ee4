package shelf

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a path does not exist or is not the kind of entry an operation needs
	ErrNotFound = errors.New("not found")
	// ErrBadRequest is returned when a request is missing required input
	ErrBadRequest = errors.New("bad request")
	// ErrInvalidPath is returned when a path cannot be resolved inside the storage root
	ErrInvalidPath = fmt.Errorf("invalid path: %w", ErrBadRequest)
	// ErrEmptyBody is returned when an upload carries no content
	ErrEmptyBody = fmt.Errorf("empty body: %w", ErrBadRequest)
	// ErrMissingCopySource is returned when a copy request names no source
	ErrMissingCopySource = fmt.Errorf("missing copy source: %w", ErrBadRequest)
)
