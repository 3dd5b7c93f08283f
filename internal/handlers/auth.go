package handlers

import (
	"net/http"

	"github.com/citivoice/complaint-server/internal/apperr"
	"github.com/citivoice/complaint-server/internal/models"
	"github.com/citivoice/complaint-server/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthHandler handles registration, login, verification and password reset
type AuthHandler struct {
	svc    *services.AuthService
	links  services.Links
	logger *zap.SugaredLogger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(svc *services.AuthService, links services.Links, logger *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{svc: svc, links: links, logger: logger}
}

// newPasswordRequest is the body of POST /auth/reset-password/{token}/{userId}
type newPasswordRequest struct {
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	user, err := h.svc.Register(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, "User registered successfully. A verification email has been sent.", user)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	resp, err := h.svc.Login(r.Context(), &req)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Login successful", resp)
}

// Verify handles GET /api/v1/auth/verify/{token}/{userId}
// The browser is always redirected; the target page tells the outcome.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	err := h.svc.VerifyEmail(r.Context(), chi.URLParam(r, "token"), chi.URLParam(r, "userId"))
	if err != nil && apperr.KindOf(err) == apperr.KindInternal {
		h.logger.Errorw("Email verification failed", "error", err)
	}
	http.Redirect(w, r, h.links.VerificationRedirect(err == nil), http.StatusFound)
}

// RequestPasswordReset handles POST /api/v1/auth/request-password-reset
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req models.PasswordResetRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if err := h.svc.RequestPasswordReset(r.Context(), &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, services.PasswordResetMessage, nil)
}

// ResetPassword handles POST /api/v1/auth/reset-password
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req models.ResetPasswordRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	if err := h.svc.ResetPassword(r.Context(), &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Password reset successful", nil)
}

// ValidateResetToken handles GET /api/v1/auth/reset-password/{token}/{userId}
// without consuming the token
func (h *AuthHandler) ValidateResetToken(w http.ResponseWriter, r *http.Request) {
	err := h.svc.ValidateResetToken(r.Context(), chi.URLParam(r, "token"), chi.URLParam(r, "userId"))
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Token is valid. Please submit your new password.", nil)
}

// ResetPasswordWithToken handles POST /api/v1/auth/reset-password/{token}/{userId}
func (h *AuthHandler) ResetPasswordWithToken(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		respondError(w, h.logger, apperr.Unauthorized("Invalid token"))
		return
	}
	var body newPasswordRequest
	if err := decode(w, r, &body); err != nil {
		respondError(w, h.logger, err)
		return
	}

	req := &models.ResetPasswordRequest{UserID: userID, Token: chi.URLParam(r, "token"), NewPassword: body.NewPassword}
	if err := h.svc.ResetPassword(r.Context(), req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Password reset successful", nil)
}
