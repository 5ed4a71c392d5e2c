// Package secrets resolves API credentials from configuration or from files
// in a secrets directory. It is read-only; nothing here writes credentials.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when no source holds the requested credential.
var ErrNotFound = errors.New("credential not configured")

// Store looks up a credential by provider name. Values passed at construction
// (normally from environment variables) win over <dir>/<name>_api_key.txt.
type Store struct {
	values   map[string]string
	dir      string
	readFile func(name string) ([]byte, error)
}

// NewStore creates a store. Empty values are ignored so an unset environment
// variable falls through to the secrets directory.
func NewStore(dir string, values map[string]string) *Store {
	v := make(map[string]string, len(values))
	for name, value := range values {
		if value = strings.TrimSpace(value); value != "" {
			v[name] = value
		}
	}
	return &Store{values: v, dir: dir, readFile: os.ReadFile}
}

// Lookup returns the credential for name or an error wrapping ErrNotFound.
func (s *Store) Lookup(name string) (string, error) {
	if v, ok := s.values[name]; ok {
		return v, nil
	}

	if s.dir != "" {
		data, err := s.readFile(filepath.Join(s.dir, name+"_api_key.txt"))
		if err == nil {
			if v := strings.TrimSpace(string(data)); v != "" {
				return v, nil
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("read %s credential: %w", name, err)
		}
	}

	return "", fmt.Errorf("%s: %w", name, ErrNotFound)
}

// Has reports whether a credential is available for name.
func (s *Store) Has(name string) bool {
	_, err := s.Lookup(name)
	return err == nil
}
