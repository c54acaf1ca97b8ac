package codes

import (
	"errors"
	"fmt"
)

var (
	ErrFormat   = errors.New("codes: malformed code")
	ErrMismatch = errors.New("codes: code does not match record")
	ErrNotFound = errors.New("codes: no record for code")

	ErrInvalidStepKind = errors.New("codes: invalid step kind")
)

// Machine-readable codes surfaced to API callers.
const (
	CodeMalformed = "malformed_code"
	CodeMismatch  = "code_mismatch"
	CodeNotFound  = "not_found"
)

// FormatError reports a payload that cannot be decoded: wrong prefix, too few
// fields or a non-numeric identifier.
type FormatError struct {
	Family Family
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("codes: invalid %s code: %s: %v", e.Family, e.Reason, e.Err)
	}
	return fmt.Sprintf("codes: invalid %s code: %s", e.Family, e.Reason)
}

func (e *FormatError) Is(target error) bool { return target == ErrFormat }
func (e *FormatError) Unwrap() error        { return e.Err }
func (e *FormatError) Code() string         { return CodeMalformed }

// MismatchError reports a well-formed payload whose decoded identity
// disagrees with the record it resolves to.
type MismatchError struct {
	Family  Family
	Field   string
	Scanned string
	Stored  string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("codes: %s code %s %q does not match record value %q",
		e.Family, e.Field, e.Scanned, e.Stored)
}

func (e *MismatchError) Is(target error) bool { return target == ErrMismatch }
func (e *MismatchError) Code() string         { return CodeMismatch }

// NotFoundError reports a decoded identifier that resolves to no record.
// Key replaces ID for entities named by string.
type NotFoundError struct {
	Entity string
	ID     int
	Key    string
}

func (e *NotFoundError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("codes: %s %q not found", e.Entity, e.Key)
	}
	return fmt.Sprintf("codes: %s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }
func (e *NotFoundError) Code() string         { return CodeNotFound }

func formatErr(family Family, reason string, err error) error {
	return &FormatError{Family: family, Reason: reason, Err: err}
}

// ErrorCode maps err onto its machine-readable code, or "" when err is not
// part of the scan failure taxonomy.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrFormat):
		return CodeMalformed
	case errors.Is(err, ErrMismatch):
		return CodeMismatch
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	}
	return ""
}
