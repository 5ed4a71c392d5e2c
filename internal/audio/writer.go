package audio

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ExtMP3 is the native container of every synthesis backend.
const ExtMP3 = ".mp3"

// ErrWrite matches every *WriteError via errors.Is.
var ErrWrite = errors.New("cannot write audio file")

// WriteError reports an output path that could not be written.
type WriteError struct {
	Path string
	Op   string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

func (e *WriteError) Is(target error) bool {
	return target == ErrWrite
}

// NormalizePath appends ext unless path already ends with it. The comparison
// ignores case so "Chapter1.MP3" is kept as is.
func NormalizePath(path, ext string) string {
	if strings.HasSuffix(strings.ToLower(path), strings.ToLower(ext)) {
		return path
	}
	return path + ext
}

// tempFile is the subset of *os.File the writer needs.
type tempFile interface {
	io.Writer
	Name() string
	Sync() error
	Close() error
}

// Writer stores audio so readers never observe a partially written file:
// data goes to a temporary file next to the target and is renamed over it
// once complete.
type Writer struct {
	createTemp func(dir, pattern string) (tempFile, error)
	rename     func(oldpath, newpath string) error
	remove     func(name string) error
	chmod      func(name string, mode os.FileMode) error
}

// NewWriter constructs a Writer backed by the OS.
func NewWriter() *Writer {
	return &Writer{
		createTemp: func(dir, pattern string) (tempFile, error) { return os.CreateTemp(dir, pattern) },
		rename:     os.Rename,
		remove:     os.Remove,
		chmod:      os.Chmod,
	}
}

// WriteFile replaces path with data. On any failure the temporary file is
// removed and path is left untouched.
func (w *Writer) WriteFile(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	tmp, err := w.createTemp(dir, "."+filepath.Base(path)+".*.part")
	if err != nil {
		return &WriteError{Path: path, Op: "create temp file", Err: err}
	}

	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = w.remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return &WriteError{Path: path, Op: "write", Err: err}
	}
	if err = tmp.Sync(); err != nil {
		tmp.Close()
		return &WriteError{Path: path, Op: "sync", Err: err}
	}
	if err = tmp.Close(); err != nil {
		return &WriteError{Path: path, Op: "close", Err: err}
	}
	// CreateTemp uses 0600; output files are meant to be shared like any other.
	if err = w.chmod(tmpName, 0o644); err != nil {
		return &WriteError{Path: path, Op: "chmod", Err: err}
	}
	if err = w.rename(tmpName, path); err != nil {
		return &WriteError{Path: path, Op: "rename", Err: err}
	}
	return nil
}
