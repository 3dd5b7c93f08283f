package storage

import (
	"context"
	"testing"

	"github.com/citivoice/complaint-server/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopUploader(t *testing.T) {
	_, err := NoopUploader{}.Upload(context.Background(), UploadInput{Key: "a"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestPublicBaseURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.StorageConfig
		want string
	}{
		{"explicit public url", config.StorageConfig{Bucket: "b", PublicURL: "https://cdn.example/"}, "https://cdn.example"},
		{"custom endpoint", config.StorageConfig{Bucket: "b", Endpoint: "http://minio:9000"}, "http://minio:9000/b"},
		{"aws", config.StorageConfig{Bucket: "b", Region: "eu-west-1"}, "https://b.s3.eu-west-1.amazonaws.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, publicBaseURL(tt.cfg))
		})
	}
}

func TestObjectURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example/uploads/abc/road%20photo.jpg",
		objectURL("https://cdn.example", "uploads/abc/road photo.jpg"))
}

func TestNewS3Uploader_RequiresBucket(t *testing.T) {
	_, err := NewS3Uploader(context.Background(), config.StorageConfig{})
	require.Error(t, err)
}
