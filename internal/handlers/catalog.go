package handlers

import (
	"net/http"

	"github.com/citivoice/complaint-server/internal/models"
	"github.com/citivoice/complaint-server/internal/services"
	"go.uber.org/zap"
)

// AgencyHandler handles agency CRUD endpoints
type AgencyHandler struct {
	svc    *services.AgencyService
	logger *zap.SugaredLogger
}

// NewAgencyHandler creates a new agency handler
func NewAgencyHandler(svc *services.AgencyService, logger *zap.SugaredLogger) *AgencyHandler {
	return &AgencyHandler{svc: svc, logger: logger}
}

// Create handles POST /api/v1/agencies
func (h *AgencyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAgencyRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	agency, err := h.svc.Create(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, "Agency created successfully", agency)
}

// List handles GET /api/v1/agencies
func (h *AgencyHandler) List(w http.ResponseWriter, r *http.Request) {
	agencies, err := h.svc.List(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Agencies retrieved successfully", agencies)
}

// Get handles GET /api/v1/agencies/{id}
func (h *AgencyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	agency, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Agency retrieved successfully", agency)
}

// Update handles PATCH /api/v1/agencies/{id}
func (h *AgencyHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	var req models.UpdateAgencyRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	agency, err := h.svc.Update(r.Context(), id, &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Agency updated successfully", agency)
}

// Delete handles DELETE /api/v1/agencies/{id}
func (h *AgencyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Agency deleted successfully", nil)
}

// CategoryHandler handles category CRUD endpoints
type CategoryHandler struct {
	svc    *services.CategoryService
	logger *zap.SugaredLogger
}

// NewCategoryHandler creates a new category handler
func NewCategoryHandler(svc *services.CategoryService, logger *zap.SugaredLogger) *CategoryHandler {
	return &CategoryHandler{svc: svc, logger: logger}
}

// Create handles POST /api/v1/categories
func (h *CategoryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CategoryRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	category, err := h.svc.Create(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, "Category created successfully", category)
}

// List handles GET /api/v1/categories
func (h *CategoryHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := h.svc.List(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Categories retrieved successfully", categories)
}

// Get handles GET /api/v1/categories/{id}
func (h *CategoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	category, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Category retrieved successfully", category)
}

// Update handles PUT /api/v1/categories/{id}
func (h *CategoryHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	var req models.CategoryRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	category, err := h.svc.Update(r.Context(), id, &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Category updated successfully", category)
}

// Delete handles DELETE /api/v1/categories/{id}
func (h *CategoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Category deleted successfully", nil)
}
