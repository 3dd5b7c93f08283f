package handlers

import (
	"net/http"

	"github.com/citivoice/complaint-server/internal/apperr"
	"github.com/citivoice/complaint-server/internal/middleware"
	"github.com/citivoice/complaint-server/internal/models"
	"github.com/citivoice/complaint-server/internal/repository"
	"github.com/citivoice/complaint-server/internal/services"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UserHandler handles user management endpoints
type UserHandler struct {
	svc    *services.UserService
	logger *zap.SugaredLogger
}

// NewUserHandler creates a new user handler
func NewUserHandler(svc *services.UserService, logger *zap.SugaredLogger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

// Create handles POST /api/v1/users
// The new user receives a verification email; the temporary password
// follows once the address is verified.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	user, err := h.svc.Create(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, "User created successfully. A verification email has been sent.", user)
}

// BulkCreate handles POST /api/v1/users/bulk
func (h *UserHandler) BulkCreate(w http.ResponseWriter, r *http.Request) {
	var req models.BulkCreateUsersRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	users, err := h.svc.BulkCreate(r.Context(), req.Users)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, "Users created successfully", users)
}

// List handles GET /api/v1/users?agency_id=&role=
// Agency admins only see their own agency.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter repository.UserFilter
	q := r.URL.Query()
	if v := q.Get("agency_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			respondError(w, h.logger, apperr.BadRequest("Invalid agency_id"))
			return
		}
		filter.AgencyID = &id
	}
	if v := q.Get("role"); v != "" {
		filter.Role = models.Role(v)
		if !filter.Role.Valid() {
			respondError(w, h.logger, apperr.BadRequest("Invalid role"))
			return
		}
	}
	if caller := middleware.IdentityFrom(r.Context()); caller != nil && caller.Role == models.RoleAgencyAdmin {
		if caller.AgencyID == nil {
			respondError(w, h.logger, apperr.Forbidden("Insufficient permissions"))
			return
		}
		filter.AgencyID = caller.AgencyID
	}

	users, err := h.svc.List(r.Context(), filter)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Users retrieved successfully", users)
}

// Get handles GET /api/v1/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	user, err := h.svc.Get(r.Context(), id)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "User retrieved successfully", user)
}

// Update handles PATCH /api/v1/users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	var req models.UpdateUserRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	user, err := h.svc.Update(r.Context(), id, &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "User updated successfully", user)
}

// Delete handles DELETE /api/v1/users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id")
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "User deleted successfully", nil)
}
