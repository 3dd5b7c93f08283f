package services

import (
	"context"

	"github.com/citivoice/complaint-server/internal/models"
	"github.com/citivoice/complaint-server/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// HistoryService reads the complaint ledger
type HistoryService struct {
	store  repository.Store
	logger *zap.SugaredLogger
}

// NewHistoryService creates a new history service
func NewHistoryService(store repository.Store, logger *zap.SugaredLogger) *HistoryService {
	return &HistoryService{store: store, logger: logger}
}

// List returns every ledger row, newest first
func (s *HistoryService) List(ctx context.Context) ([]models.HistoryEntry, error) {
	return s.store.ListHistory(ctx, repository.HistoryFilter{})
}

// ListByComplaint returns one complaint's ledger. An unknown complaint is
// NotFound; a known complaint without rows yields an empty list.
func (s *HistoryService) ListByComplaint(ctx context.Context, complaintID uuid.UUID) ([]models.HistoryEntry, error) {
	if _, err := s.store.GetComplaint(ctx, complaintID); err != nil {
		return nil, err
	}
	return s.store.ListHistory(ctx, repository.HistoryFilter{ComplaintID: &complaintID})
}

// ListByAgency returns rows for complaints the agency owns or that moved to or from it
func (s *HistoryService) ListByAgency(ctx context.Context, agencyID uuid.UUID) ([]models.HistoryEntry, error) {
	if _, err := s.store.GetAgency(ctx, agencyID); err != nil {
		return nil, err
	}
	return s.store.ListHistory(ctx, repository.HistoryFilter{AgencyID: &agencyID})
}

// ListByStaff returns rows naming the user as actor or target
func (s *HistoryService) ListByStaff(ctx context.Context, staffID uuid.UUID) ([]models.HistoryEntry, error) {
	if _, err := s.store.GetUser(ctx, staffID); err != nil {
		return nil, err
	}
	return s.store.ListHistory(ctx, repository.HistoryFilter{StaffID: &staffID})
}
