// Package common provides shared utilities and types used across the application.
package common

import (
	"errors"
	"fmt"
)

// Common application errors.
var (
	// ErrSessionNotFound covers missing, expired, and tenant-mismatched
	// sessions. The three cases are intentionally indistinguishable so a
	// caller cannot probe for sessions belonging to another tenant.
	ErrSessionNotFound = errors.New("import session not found")

	// ErrInvalidConfig marks configuration values that fail validation.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// FormatError indicates an unrecognized or malformed container or header.
// It aborts the whole parse.
type FormatError struct {
	Format string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("unrecognized file format: %s", e.Reason)
	}
	return fmt.Sprintf("malformed %s file: %s", e.Format, e.Reason)
}

// NewFormatError creates a format error for the given format and reason.
func NewFormatError(format, reason string) error {
	return &FormatError{Format: format, Reason: reason}
}

// SizeLimitError indicates an archive or inner document whose declared
// uncompressed size exceeds the configured cap. It is raised before the bulk
// data is materialized.
type SizeLimitError struct {
	Declared int64
	Limit    int64
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("declared uncompressed size %d exceeds limit %d", e.Declared, e.Limit)
}

// MappingError indicates a mapping request entry that references a temp id
// absent from the session's parse result. The entry is rejected; remaining
// entries still apply.
type MappingError struct {
	TempID string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("mapping references unknown temp id %s", e.TempID)
}
