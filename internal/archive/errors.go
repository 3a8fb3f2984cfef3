package archive

import (
	"errors"
	"fmt"
)

// Error codes for archive loading.
const (
	ErrCodeNotFound     = "E005" // Archive file not found
	ErrCodeReadFailed   = "E008" // Archive file unreadable
	ErrCodeParseFailed  = "E201" // Not valid YAML
	ErrCodeSchema       = "E202" // Does not match the archive schema
	ErrCodeInvalidTrace = "E203" // Schema-valid but inconsistent trace
	ErrCodeStoreFailed  = "E204" // Import into the store failed
)

// LoadError describes why one archive file could not be loaded.
type LoadError struct {
	Path    string
	Code    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Path, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsIOError returns true if err is a storage failure (the file could not
// be read or the store rejected the import) rather than bad content.
// Uses errors.As to handle wrapped errors.
func IsIOError(err error) bool {
	var le *LoadError
	if !errors.As(err, &le) {
		return false
	}
	switch le.Code {
	case ErrCodeNotFound, ErrCodeReadFailed, ErrCodeStoreFailed:
		return true
	}
	return false
}

// IsContentError returns true if the archive was read but is malformed.
func IsContentError(err error) bool {
	var le *LoadError
	if !errors.As(err, &le) {
		return false
	}
	switch le.Code {
	case ErrCodeParseFailed, ErrCodeSchema, ErrCodeInvalidTrace:
		return true
	}
	return false
}
