// Package storage wraps the object store that holds uploaded files.
package storage

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned by NoopUploader
var ErrNotConfigured = errors.New("object storage is not configured")

// UploadInput is a single object to store
type UploadInput struct {
	Key         string
	Body        []byte
	ContentType string
}

// UploadResult describes the stored object
type UploadResult struct {
	URL  string
	ETag string
}

// Uploader stores blobs
type Uploader interface {
	Upload(ctx context.Context, input UploadInput) (*UploadResult, error)
}

// NoopUploader refuses every upload. Used when no bucket is configured.
type NoopUploader struct{}

// Upload always fails with ErrNotConfigured
func (NoopUploader) Upload(context.Context, UploadInput) (*UploadResult, error) {
	return nil, ErrNotConfigured
}
