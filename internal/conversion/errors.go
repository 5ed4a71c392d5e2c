package conversion

import "errors"

var (
	// ErrEmptyText matches every *EmptyTextError.
	ErrEmptyText = errors.New("no text to convert")

	// ErrTaskRunning is returned when a conversion is submitted while another
	// one is still running.
	ErrTaskRunning = errors.New("conversion already running")

	// ErrNoOutputPath is returned for a request without an output path.
	ErrNoOutputPath = errors.New("output path is required")
)

// EmptyTextError reports a document whose text is blank after trimming.
type EmptyTextError struct {
	// Source names where the text came from, when known.
	Source string
}

func (e *EmptyTextError) Error() string {
	if e.Source != "" {
		return "No text found in " + e.Source
	}
	return "No text found in the document"
}

func (e *EmptyTextError) Is(target error) bool {
	return target == ErrEmptyText
}
