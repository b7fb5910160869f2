package errors

import (
	"strings"
	"unicode"
)

// MaxTaskIDLength is the longest task identifier accepted from input files.
const MaxTaskIDLength = 256

// ValidateTaskID validates a task identifier read from untrusted input.
// It rejects empty names, control characters and overly long names.
func ValidateTaskID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidGraph, "task ID cannot be empty")
	}

	if len(id) > MaxTaskIDLength {
		return New(ErrCodeInvalidGraph, "task ID too long (max %d characters)", MaxTaskIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidGraph, "task ID %q contains control characters", id)
		}
	}

	return nil
}

// ValidateWeight validates a task or edge weight.
func ValidateWeight(what string, w int) error {
	if w < 0 {
		return New(ErrCodeInvalidGraph, "%s weight must not be negative, got %d", what, w)
	}
	return nil
}

// ValidateProcessors validates a processor count against an upper limit.
// A limit of zero or less means no upper limit.
func ValidateProcessors(p, limit int) error {
	if p < 1 {
		return New(ErrCodeInvalidInput, "processors must be at least 1, got %d", p)
	}
	if limit > 0 && p > limit {
		return New(ErrCodeInvalidInput, "processors must be at most %d, got %d", limit, p)
	}
	return nil
}

// ValidatePath validates an output path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No path traversal sequences (..)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	for _, part := range strings.FieldsFunc(path, func(r rune) bool { return r == '/' || r == '\\' }) {
		if part == ".." {
			return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
		}
	}

	return nil
}
