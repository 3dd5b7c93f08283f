package services

import (
	"context"

	"github.com/citivoice/complaint-server/internal/models"
	"github.com/citivoice/complaint-server/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AgencyService manages agencies
type AgencyService struct {
	store  repository.Store
	logger *zap.SugaredLogger
}

// NewAgencyService creates a new agency service
func NewAgencyService(store repository.Store, logger *zap.SugaredLogger) *AgencyService {
	return &AgencyService{store: store, logger: logger}
}

// Create stores a new agency
func (s *AgencyService) Create(ctx context.Context, req *models.CreateAgencyRequest) (*models.Agency, error) {
	a := &models.Agency{
		Name:        req.Name,
		Acronym:     req.Acronym,
		Description: req.Description,
		LogoURL:     req.LogoURL,
	}
	if err := s.store.CreateAgency(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Infow("Agency created", "id", a.ID, "acronym", a.Acronym)
	return a, nil
}

// List returns all agencies
func (s *AgencyService) List(ctx context.Context) ([]models.Agency, error) {
	return s.store.ListAgencies(ctx)
}

// Get returns one agency
func (s *AgencyService) Get(ctx context.Context, id uuid.UUID) (*models.Agency, error) {
	return s.store.GetAgency(ctx, id)
}

// Update applies a partial update
func (s *AgencyService) Update(ctx context.Context, id uuid.UUID, req *models.UpdateAgencyRequest) (*models.Agency, error) {
	a, err := s.store.GetAgency(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		a.Name = *req.Name
	}
	if req.Acronym != nil {
		a.Acronym = *req.Acronym
	}
	if req.Description != nil {
		a.Description = *req.Description
	}
	if req.LogoURL != nil {
		a.LogoURL = *req.LogoURL
	}
	if err := s.store.UpdateAgency(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Delete removes an agency
func (s *AgencyService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteAgency(ctx, id); err != nil {
		return err
	}
	s.logger.Infow("Agency deleted", "id", id)
	return nil
}
