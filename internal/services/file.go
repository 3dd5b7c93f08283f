package services

import (
	"context"
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/citivoice/complaint-server/internal/apperr"
	"github.com/citivoice/complaint-server/internal/models"
	"github.com/citivoice/complaint-server/internal/repository"
	"github.com/citivoice/complaint-server/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxUploadSize bounds a single uploaded file
const MaxUploadSize = 10 << 20

// FileService stores uploads in object storage and records them
type FileService struct {
	store    repository.Store
	uploader storage.Uploader
	logger   *zap.SugaredLogger
}

// NewFileService creates a new file service
func NewFileService(store repository.Store, uploader storage.Uploader, logger *zap.SugaredLogger) *FileService {
	return &FileService{store: store, uploader: uploader, logger: logger}
}

// Upload stores body under uploads/<uuid>/<name>
func (s *FileService) Upload(ctx context.Context, filename, contentType string, body []byte) (*models.File, error) {
	if len(body) == 0 {
		return nil, apperr.BadRequest("File is empty")
	}
	if len(body) > MaxUploadSize {
		return nil, apperr.BadRequest("File exceeds the %d MiB limit", MaxUploadSize>>20)
	}

	name := sanitizeFilename(filename)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(body)
	}

	id := uuid.New()
	res, err := s.uploader.Upload(ctx, storage.UploadInput{
		Key:         "uploads/" + id.String() + "/" + name,
		Body:        body,
		ContentType: contentType,
	})
	if errors.Is(err, storage.ErrNotConfigured) {
		return nil, apperr.Internal(err, "File storage is not configured")
	}
	if err != nil {
		return nil, apperr.Internal(err, "Failed to upload file")
	}

	f := &models.File{
		ID:          id,
		Filename:    name,
		URL:         res.URL,
		ContentType: contentType,
		Size:        int64(len(body)),
	}
	if err := s.store.CreateFile(ctx, f); err != nil {
		return nil, err
	}

	s.logger.Infow("File uploaded", "id", f.ID, "size", f.Size, "content_type", contentType)
	return f, nil
}

// sanitizeFilename keeps the base name and drops characters that do not
// belong in an object key
func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r == ' ':
			return '_'
		case r < 0x20, r == '/', r == '?', r == '#', r == '%':
			return -1
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}
