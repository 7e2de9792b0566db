// Package source supplies schema fragments as named streams and guarantees
// every opened stream is closed, including on partial failure.
package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Source is one raw schema fragment.
type Source struct {
	Name string
	io.ReadCloser
}

// FromReader wraps r as a source; r is closed with the source when it
// implements io.Closer.
func FromReader(name string, r io.Reader) Source {
	if rc, ok := r.(io.ReadCloser); ok {
		return Source{Name: name, ReadCloser: rc}
	}
	return Source{Name: name, ReadCloser: io.NopCloser(r)}
}

func FromString(name, s string) Source {
	return FromReader(name, strings.NewReader(s))
}

// Open opens paths in order. If any path fails, the sources opened so far
// are closed before the error is returned.
func Open(paths ...string) ([]Source, error) {
	srcs := make([]Source, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			closeErr := CloseAll(srcs)
			return nil, errors.Join(fmt.Errorf("open schema source %s: %w", p, err), closeErr)
		}
		srcs = append(srcs, Source{Name: filepath.Base(p), ReadCloser: f})
	}
	return srcs, nil
}

// CloseAll closes every source and joins the close errors.
func CloseAll(srcs []Source) error {
	var errs []error
	for _, s := range srcs {
		if s.ReadCloser == nil {
			continue
		}
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}
