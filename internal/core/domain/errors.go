package domain

import (
	"errors"
	"fmt"
)

var (
	// Scanning failures, fatal to the run.
	ErrPathNotFound     = errors.New("input path not found")
	ErrNotADirectory    = errors.New("input path is not a directory")
	ErrNoDocumentsFound = errors.New("no supported documents found")

	// Per-category dispatch failures, degrade the category only.
	ErrExtraction      = errors.New("extraction failed")
	ErrDispatchTimeout = errors.New("dispatch timed out")

	// Surfaced in run metadata, never raised.
	ErrMissingCategory = errors.New("required category missing")

	// Writer failure, fatal to the run.
	ErrOutputGeneration = errors.New("output generation failed")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
