package storage

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrNotFound    = errors.New("storage: not found")
	ErrInvalidPath = errors.New("storage: invalid document path")
)

// Backend stores whole documents under slash-separated relative paths. A
// Write replaces the previous body atomically: readers see either the old or
// the new document, never a mix.
type Backend interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
	Exists(ctx context.Context, path string) (bool, error)
	Close() error
}

func cleanPath(path string) (string, error) {
	p := strings.TrimSpace(path)
	if p == "" || strings.HasPrefix(p, "/") {
		return "", ErrInvalidPath
	}
	for _, part := range strings.Split(p, "/") {
		if part == ".." || part == "" {
			return "", ErrInvalidPath
		}
	}
	return p, nil
}
