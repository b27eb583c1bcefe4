// Package payload resolves the origin of message body bytes: a named
// file or the process's standard input. Exactly one source is active
// per run.
package payload

import (
	"io"
	"os"

	"golang.org/x/xerrors"
)

// Source is a readable payload origin. File-backed sources own their
// descriptor; the stdin source never closes the underlying stream.
type Source struct {
	// Name identifies the source in diagnostics ("stdin" or the file path).
	Name string

	// IsFile reports whether the source is a named file.
	IsFile bool

	// Size is the stat-reported size for file sources, -1 when unknown.
	Size int64

	// Oversized is set when the pre-flight check found the file larger
	// than the maximum message size. Advisory only; the transport layer
	// enforces the actual truncation.
	Oversized bool

	r      io.ReadCloser
	closed bool
}

// Stdin returns the standard input source. Its size is unknown, so no
// oversize pre-check applies.
func Stdin() *Source {
	return &Source{Name: "stdin", Size: -1, r: os.Stdin}
}

// Resolve returns the payload source for path. An empty path selects
// standard input. For file paths the file is stat'ed first: a stat
// failure does not abort (the open is still attempted), and a size above
// maxSize only marks the source oversized.
func Resolve(path string, maxSize int64) (*Source, error) {
	if path == "" {
		return Stdin(), nil
	}

	size := int64(-1)
	oversized := false
	if st, err := os.Stat(path); err == nil {
		size = st.Size()
		oversized = size > maxSize
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, xerrors.Errorf("file not found: %w", err)
	}

	return &Source{
		Name:      path,
		IsFile:    true,
		Size:      size,
		Oversized: oversized,
		r:         f,
	}, nil
}

func (s *Source) Read(p []byte) (int, error) {
	return s.r.Read(p)
}

// Close releases a file-backed source. Closing the stdin source or
// closing twice is a no-op.
func (s *Source) Close() error {
	if !s.IsFile || s.closed {
		return nil
	}
	s.closed = true
	return s.r.Close()
}
