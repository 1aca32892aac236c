// Package artifact stores binary outputs (synthesized WAV audio) addressed by
// owner id and a relative path.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// Store defines operations for persisting user artifacts.
type Store interface {
	Put(ctx context.Context, owner, path string, content []byte, contentType string) error
	Get(ctx context.Context, owner, path string) ([]byte, error)
	List(ctx context.Context, owner string) ([]string, error)
	Delete(ctx context.Context, owner, path string) error
	// URL returns a time-limited download link, or ErrNoURL when the backend
	// cannot serve one.
	URL(ctx context.Context, owner, path string) (string, error)
}

var (
	ErrNotFound = errors.New("artifact not found")
	ErrNoURL    = errors.New("artifact store cannot issue urls")
)

// objectKey validates owner and p and joins them. Paths are relative and may
// not climb out of the owner's prefix.
func objectKey(owner, p string) (string, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" || strings.Contains(owner, "/") {
		return "", fmt.Errorf("owner is required and may not contain '/'")
	}
	p = strings.TrimSpace(p)
	if p == "" {
		return "", fmt.Errorf("path is required")
	}
	clean := path.Clean("/" + p)
	if clean == "/" || strings.Contains(p, "..") {
		return "", fmt.Errorf("invalid artifact path %q", p)
	}
	return owner + clean, nil
}

func ownerPrefix(owner string) (string, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" || strings.Contains(owner, "/") {
		return "", fmt.Errorf("owner is required and may not contain '/'")
	}
	return owner + "/", nil
}
