package handlers

import (
	"net/http"
	"strconv"

	"github.com/citivoice/complaint-server/internal/apperr"
	"github.com/citivoice/complaint-server/internal/models"
	"github.com/citivoice/complaint-server/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// IntegrityHandler handles Merkle tree verification endpoints
type IntegrityHandler struct {
	svc    *services.LedgerService
	logger *zap.SugaredLogger
}

// NewIntegrityHandler creates a new integrity handler
func NewIntegrityHandler(svc *services.LedgerService, logger *zap.SugaredLogger) *IntegrityHandler {
	return &IntegrityHandler{svc: svc, logger: logger}
}

// GetRoot handles GET /api/v1/integrity/root
func (h *IntegrityHandler) GetRoot(w http.ResponseWriter, r *http.Request) {
	status := h.svc.Status()
	w.Header().Set("X-Merkle-Root", status.Root)
	respondJSON(w, http.StatusOK, "Ledger root retrieved successfully", status)
}

// GetProof handles GET /api/v1/integrity/proof/{index}
func (h *IntegrityHandler) GetProof(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		respondError(w, h.logger, apperr.BadRequest("Invalid index"))
		return
	}

	proof, err := h.svc.Proof(index)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Proof retrieved successfully", proof)
}

// Verify handles POST /api/v1/integrity/verify
func (h *IntegrityHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyProofRequest
	if err := decode(w, r, &req); err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, "Proof checked", map[string]bool{"valid": services.Verify(&req)})
}
