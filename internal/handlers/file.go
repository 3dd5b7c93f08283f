package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/citivoice/complaint-server/internal/apperr"
	"github.com/citivoice/complaint-server/internal/services"
	"go.uber.org/zap"
)

// multipartOverhead leaves room for boundaries and part headers
const multipartOverhead = 64 << 10

// FileHandler handles file uploads
type FileHandler struct {
	svc    *services.FileService
	logger *zap.SugaredLogger
}

// NewFileHandler creates a new file handler
func NewFileHandler(svc *services.FileService, logger *zap.SugaredLogger) *FileHandler {
	return &FileHandler{svc: svc, logger: logger}
}

// Upload handles POST /api/v1/files/upload (multipart field "file")
func (h *FileHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, services.MaxUploadSize+multipartOverhead)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, h.logger, apperr.BadRequest("File exceeds the 10 MiB limit"))
			return
		}
		respondError(w, h.logger, apperr.BadRequest("No file uploaded"))
		return
	}
	defer file.Close()

	body, err := io.ReadAll(io.LimitReader(file, services.MaxUploadSize+1))
	if err != nil {
		respondError(w, h.logger, apperr.BadRequest("Failed to read uploaded file"))
		return
	}

	uploaded, err := h.svc.Upload(r.Context(), header.Filename, header.Header.Get("Content-Type"), body)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, "File uploaded successfully", uploaded)
}
