package handlers

import (
	"net/http"

	"github.com/citivoice/complaint-server/internal/apperr"
	"github.com/citivoice/complaint-server/internal/middleware"
	"github.com/citivoice/complaint-server/internal/models"
	"github.com/citivoice/complaint-server/internal/services"
	"go.uber.org/zap"
)

// DashboardHandler serves the role-scoped analytics charts
type DashboardHandler struct {
	svc    *services.AnalyticsService
	logger *zap.SugaredLogger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(svc *services.AnalyticsService, logger *zap.SugaredLogger) *DashboardHandler {
	return &DashboardHandler{svc: svc, logger: logger}
}

// SuperAdmin handles GET /api/v1/dashboard-charts/super-admin
func (h *DashboardHandler) SuperAdmin(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.Organization(r.Context())
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Analytics retrieved successfully", data)
}

// AgencyAdmin handles GET /api/v1/dashboard-charts/agency-admin/{agencyId}
// Agency admins may only read their own agency.
func (h *DashboardHandler) AgencyAdmin(w http.ResponseWriter, r *http.Request) {
	agencyID, err := uuidParam(r, "agencyId")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	caller := middleware.IdentityFrom(r.Context())
	if caller != nil && caller.Role == models.RoleAgencyAdmin &&
		(caller.AgencyID == nil || *caller.AgencyID != agencyID) {
		respondError(w, h.logger, apperr.Forbidden("Insufficient permissions"))
		return
	}

	data, err := h.svc.Agency(r.Context(), agencyID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Analytics retrieved successfully", data)
}

// Staff handles GET /api/v1/dashboard-charts/staff/{staffId}
// Staff may only read their own dashboard.
func (h *DashboardHandler) Staff(w http.ResponseWriter, r *http.Request) {
	staffID, err := uuidParam(r, "staffId")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	caller := middleware.IdentityFrom(r.Context())
	if caller != nil && caller.Role == models.RoleStaff && caller.UserID != staffID {
		respondError(w, h.logger, apperr.Forbidden("Insufficient permissions"))
		return
	}

	data, err := h.svc.Staff(r.Context(), staffID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Analytics retrieved successfully", data)
}
