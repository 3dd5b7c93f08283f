package handlers

import (
	"context"
	"net/http"

	"github.com/citivoice/complaint-server/internal/models"
	"github.com/citivoice/complaint-server/internal/services"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type historyLister func(ctx context.Context, id uuid.UUID) ([]models.HistoryEntry, error)

// HistoryHandler serves the complaint ledger
type HistoryHandler struct {
	svc    *services.HistoryService
	logger *zap.SugaredLogger
}

// NewHistoryHandler creates a new history handler
func NewHistoryHandler(svc *services.HistoryService, logger *zap.SugaredLogger) *HistoryHandler {
	return &HistoryHandler{svc: svc, logger: logger}
}

// List handles GET /api/v1/complaint-history
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.svc.List(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Complaint history retrieved successfully", entries)
}

// ByComplaint handles GET /api/v1/complaint-history/{complaintId}
func (h *HistoryHandler) ByComplaint(w http.ResponseWriter, r *http.Request) {
	h.scoped(w, r, "complaintId", h.svc.ListByComplaint)
}

// ByAgency handles GET /api/v1/complaint-history/agency/{agencyId}
func (h *HistoryHandler) ByAgency(w http.ResponseWriter, r *http.Request) {
	h.scoped(w, r, "agencyId", h.svc.ListByAgency)
}

// ByStaff handles GET /api/v1/complaint-history/staff/{staffId}
func (h *HistoryHandler) ByStaff(w http.ResponseWriter, r *http.Request) {
	h.scoped(w, r, "staffId", h.svc.ListByStaff)
}

func (h *HistoryHandler) scoped(w http.ResponseWriter, r *http.Request, param string, list historyLister) {
	id, err := uuidParam(r, param)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	entries, err := list(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Complaint history retrieved successfully", entries)
}
