package core

import (
	"errors"
	"fmt"
)

// Request-scoped failures. None of them are fatal to the process.
var (
	// ErrUnsupportedFileType is returned when the upload is not an Excel
	// Open XML workbook (.xlsx, .xlsm, .xltx, .xltm).
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrTokenNotFound is returned for tokens the store never issued or has evicted.
	ErrTokenNotFound = errors.New("unknown or expired token")

	// ErrTokenExpired is returned once, by the lookup that removes an idle entry.
	ErrTokenExpired = errors.New("token expired")

	// ErrSheetNotFound is returned when the workbook has no sheet with the given name.
	ErrSheetNotFound = errors.New("sheet not found")

	// ErrInvalidPage is returned for a negative offset or a non-positive limit.
	ErrInvalidPage = errors.New("invalid page window")
)

// ParseError reports that uploaded or cached bytes could not be read as a workbook.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse workbook: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ExportError reports a failure after an export started streaming rows.
type ExportError struct {
	Sheet string
	Err   error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export of sheet %q failed: %v", e.Sheet, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err means the token or sheet cannot be resolved.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrTokenNotFound) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrSheetNotFound)
}
