package handlers

import (
	"net/http"

	"github.com/citivoice/complaint-server/internal/models"
	"github.com/citivoice/complaint-server/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ComplaintHandler handles complaint-related HTTP endpoints
type ComplaintHandler struct {
	complaintSvc *services.ComplaintService
	historySvc   *services.HistoryService
	logger       *zap.SugaredLogger
}

// NewComplaintHandler creates a new complaint handler
func NewComplaintHandler(cs *services.ComplaintService, hs *services.HistoryService, logger *zap.SugaredLogger) *ComplaintHandler {
	return &ComplaintHandler{complaintSvc: cs, historySvc: hs, logger: logger}
}

// Create handles POST /api/v1/complaints
// Files the complaint, assigns it to the agency admin and emails the citizen.
func (h *ComplaintHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateComplaintRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	complaint, err := h.complaintSvc.Create(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	h.logger.Infow("Complaint submitted",
		"id", complaint.ID,
		"tracking_code", complaint.TrackingCode,
		"agency_id", complaint.AgencyID,
	)
	respondJSON(w, http.StatusCreated, "Complaint submitted successfully", complaint)
}

// List handles GET /api/v1/complaints
func (h *ComplaintHandler) List(w http.ResponseWriter, r *http.Request) {
	complaints, err := h.complaintSvc.List(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Complaints retrieved successfully", complaints)
}

// Get handles GET /api/v1/complaints/{id}
func (h *ComplaintHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	complaint, err := h.complaintSvc.Get(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Complaint retrieved successfully", complaint)
}

// Track handles GET /api/v1/complaints/tracking/{code}
func (h *ComplaintHandler) Track(w http.ResponseWriter, r *http.Request) {
	complaint, err := h.complaintSvc.GetByTrackingCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Complaint retrieved successfully", complaint)
}

// ListByAgency handles GET /api/v1/complaints/agency/{agencyId}
func (h *ComplaintHandler) ListByAgency(w http.ResponseWriter, r *http.Request) {
	agencyID, err := uuidParam(r, "agencyId")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	complaints, err := h.complaintSvc.ListByAgency(r.Context(), agencyID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Complaints retrieved successfully", complaints)
}

// ListByStaff handles GET /api/v1/complaints/staff/{staffId}
func (h *ComplaintHandler) ListByStaff(w http.ResponseWriter, r *http.Request) {
	staffID, err := uuidParam(r, "staffId")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	complaints, err := h.complaintSvc.ListByStaff(r.Context(), staffID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Complaints retrieved successfully", complaints)
}

// Assign handles POST /api/v1/complaints/agency/assign
func (h *ComplaintHandler) Assign(w http.ResponseWriter, r *http.Request) {
	var req models.AssignComplaintRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	complaint, err := h.complaintSvc.Assign(r.Context(), req.ComplaintID, req.StaffID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Complaint assigned successfully", complaint)
}

// Update handles PATCH /api/v1/complaints/{id}
func (h *ComplaintHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	var req models.UpdateComplaintRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	complaint, err := h.complaintSvc.Update(r.Context(), id, &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Complaint updated successfully", complaint)
}

// Delete handles DELETE /api/v1/complaints/{id}
func (h *ComplaintHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if err := h.complaintSvc.Delete(r.Context(), id); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Complaint deleted successfully", nil)
}

// UpdateStatus handles PATCH /api/v1/complaints/{id}/status
func (h *ComplaintHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	var req models.UpdateStatusRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	complaint, err := h.complaintSvc.UpdateStatus(r.Context(), id, &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Complaint status updated successfully", complaint)
}

// Transfer handles POST /api/v1/complaints/{id}/transfer
func (h *ComplaintHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	var req models.TransferComplaintRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}

	complaint, err := h.complaintSvc.Transfer(r.Context(), id, &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Complaint transferred successfully", complaint)
}

// Assignment handles GET /api/v1/complaints/{id}/assignment
func (h *ComplaintHandler) Assignment(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	assignment, err := h.complaintSvc.GetAssignment(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Assignment retrieved successfully", assignment)
}

// History handles GET /api/v1/complaints/{id}/history
func (h *ComplaintHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	entries, err := h.historySvc.ListByComplaint(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Complaint history retrieved successfully", entries)
}
