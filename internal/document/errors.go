package document

import (
	"errors"
	"fmt"
)

// ErrOpen matches every *OpenError via errors.Is.
var ErrOpen = errors.New("document cannot be opened")

// OpenError reports a missing, unreadable or malformed document. It is
// returned before any conversion starts.
type OpenError struct {
	Path    string
	Page    int // 1-based page that failed, 0 when the whole document failed
	Message string
	Err     error
}

func (e *OpenError) Error() string {
	msg := e.Message
	if e.Page > 0 {
		msg = fmt.Sprintf("%s (page %d)", msg, e.Page)
	}
	if e.Err != nil {
		return fmt.Sprintf("open %s: %s: %v", e.Path, msg, e.Err)
	}
	return fmt.Sprintf("open %s: %s", e.Path, msg)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

// Is lets callers test for the error class without a type assertion.
func (e *OpenError) Is(target error) bool {
	return target == ErrOpen
}
