// Package storage saves generated artifacts (illustrations, synthesized
// speech) to a local directory or an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrInvalidPath is returned for absolute paths and paths leaving the store
// root.
var ErrInvalidPath = errors.New("storage: invalid path")

// FileStore stores whole files addressed by forward-slash paths relative to
// the store root. Implementations are safe for concurrent use.
type FileStore interface {
	// Put writes data to name, replacing any previous content.
	Put(ctx context.Context, name string, data []byte, contentType string) error

	// Get returns the content of name. A missing file yields an error
	// wrapping os.ErrNotExist.
	Get(ctx context.Context, name string) ([]byte, error)

	// Delete removes name. Deleting a missing file is not an error.
	Delete(ctx context.Context, name string) error

	Exists(ctx context.Context, name string) (bool, error)

	// Location returns a human readable address of name, such as a file
	// path or an s3:// URL.
	Location(name string) string
}

func cleanPath(name string) (string, error) {
	if name == "" || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}
	p := path.Clean(name)
	if p == "." || p == ".." || strings.HasPrefix(p, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}
	return p, nil
}
