// Package common defines shared sentinel errors used across the server
// layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")

	// Request-level errors, safe to retry after correction.
	ErrValidation = errors.New("validation error")
	ErrOwnership  = errors.New("forbidden")

	// Pipeline errors. ErrUpload means the whole upload batch failed and the
	// caller must regenerate slots before retrying. ErrPartialWrite means a
	// datastore write failed mid-orchestration; compensation may or may not
	// have succeeded, see the wrapped detail.
	ErrUpload       = errors.New("upload failed")
	ErrPartialWrite = errors.New("partial write")

	// Internal-consistency errors (flat result count vs. submission shape).
	ErrInternal = errors.New("internal error")
)
