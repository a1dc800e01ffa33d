// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
)

// ErrorKind classifies batch failures for the user-facing notification.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindConversion ErrorKind = "conversion"
	KindArchive    ErrorKind = "archive"
	KindFileSystem ErrorKind = "filesystem"
)

// Error is a classified failure with an optional underlying cause.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// ValidationError reports bad or missing input detected before any work.
func ValidationError(message string, err error) *Error {
	return &Error{Kind: KindValidation, Message: message, Err: err}
}

// ConversionError reports a document that could not be opened or rasterized.
func ConversionError(message string, err error) *Error {
	return &Error{Kind: KindConversion, Message: message, Err: err}
}

// ArchiveError reports a failure building an archive container.
func ArchiveError(message string, err error) *Error {
	return &Error{Kind: KindArchive, Message: message, Err: err}
}

// FileSystemError reports a folder creation or file move failure.
func FileSystemError(message string, err error) *Error {
	return &Error{Kind: KindFileSystem, Message: message, Err: err}
}

// IsKind reports whether err, or any error it wraps, is an *Error of kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
