package multires

import (
	"errors"
	"fmt"
)

var (
	// ErrNamespaceMismatch is returned when a recipe from one namespace is
	// applied to a field bound to another.
	ErrNamespaceMismatch = errors.New("recipe namespace does not match field namespace")

	// ErrRenderTimeout is returned when a request waited the full render
	// grace period for a variant claimed by another worker.
	ErrRenderTimeout = errors.New("timed out waiting for variant render")
)

// ProcessingError wraps a failure inside the image pipeline itself: the
// source could not be decoded, a processor rejected it, or encoding failed.
type ProcessingError struct {
	Variant string
	Err     error
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("processing variant %s: %v", e.Variant, e.Err)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// StorageError wraps a failure reading the source file or persisting the
// rendered output. The variant is released back to pending so a later
// request can retry once the storage issue clears.
type StorageError struct {
	Variant string
	Path    string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage for variant %s (%s): %v", e.Variant, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
