package tts

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownBackend matches every *UnknownBackendError.
	ErrUnknownBackend = errors.New("unknown synthesis backend")

	// ErrBadStatus marks a backend that answered with a non-success status.
	ErrBadStatus = errors.New("backend returned non-success status")

	// ErrTransport marks a request that never produced a response.
	ErrTransport = errors.New("backend unreachable")

	// ErrMissingCredential marks a backend whose API key is not configured.
	ErrMissingCredential = errors.New("backend credential missing")

	// ErrNoAudio marks a response that carried no audio payload.
	ErrNoAudio = errors.New("backend returned no audio")
)

// UnknownBackendError reports a voice name that no backend answers to.
type UnknownBackendError struct {
	Name string
}

func (e *UnknownBackendError) Error() string {
	return fmt.Sprintf("unknown voice %q", e.Name)
}

func (e *UnknownBackendError) Is(target error) bool {
	return target == ErrUnknownBackend
}

// SynthesisError is returned by every backend. Message is what the user is
// shown; Err carries the cause and one of the sentinel errors above.
type SynthesisError struct {
	Backend    string
	Message    string
	StatusCode int
	Err        error
}

func (e *SynthesisError) Error() string {
	return e.Message
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// IsSynthesisError reports whether err came from a synthesis backend.
func IsSynthesisError(err error) bool {
	var se *SynthesisError
	return errors.As(err, &se)
}

func transportError(backend, message string, err error) *SynthesisError {
	return &SynthesisError{
		Backend: backend,
		Message: message,
		Err:     fmt.Errorf("%w: %w", ErrTransport, err),
	}
}

func missingCredentialError(backend string, err error) *SynthesisError {
	return &SynthesisError{
		Backend: backend,
		Message: fmt.Sprintf("%s API key is not configured", backend),
		Err:     fmt.Errorf("%w: %w", ErrMissingCredential, err),
	}
}
