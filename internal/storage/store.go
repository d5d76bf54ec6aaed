// Package storage persists materialized images and re-serves them by URL.
package storage

import (
	"context"
	"io"
	"strings"
)

// Store is durable storage for generated images.
type Store interface {
	Exists(ctx context.Context, name string) (bool, error)
	Save(ctx context.Context, name string, body io.Reader, contentType string) error
	URL(name string) string
}

func joinURL(base, name string) string {
	return strings.TrimRight(base, "/") + "/" + name
}
