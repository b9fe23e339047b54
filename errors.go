package lfas

import "errors"

// Package-level error sentinels, defined once so callers can compare with
// errors.Is instead of parsing messages.
var (
	// ErrStorageIO wraps failures from the storage backend (I/O, environment).
	ErrStorageIO = errors.New("lfas: storage I/O error")

	// ErrSerialization wraps binary encode/decode failures.
	ErrSerialization = errors.New("lfas: serialization error")

	// ErrConfiguration wraps failures surfaced while opening or configuring
	// an engine (e.g. an unwritable storage directory).
	ErrConfiguration = errors.New("lfas: configuration error")
)
