package services

import (
	"context"

	"github.com/citivoice/complaint-server/internal/apperr"
	"github.com/citivoice/complaint-server/internal/models"
	"github.com/citivoice/complaint-server/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CategoryService manages categories and the one-primary-per-agency rule
type CategoryService struct {
	store  repository.Store
	logger *zap.SugaredLogger
}

// NewCategoryService creates a new category service
func NewCategoryService(store repository.Store, logger *zap.SugaredLogger) *CategoryService {
	return &CategoryService{store: store, logger: logger}
}

// checkPrimaryAgency fails with Conflict when another category already uses
// agencyID as its primary agency. self is excluded so an update may keep its own primary.
func checkPrimaryAgency(ctx context.Context, repo repository.Repository, agencyID *uuid.UUID, self uuid.UUID) error {
	if agencyID == nil {
		return nil
	}
	existing, err := repo.FindCategoryByPrimaryAgency(ctx, *agencyID)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != self {
		return apperr.Conflict("Agency is already assigned as primary to category: %s", existing.Name)
	}
	return nil
}

// Create stores a category with its secondary agencies
func (s *CategoryService) Create(ctx context.Context, req *models.CategoryRequest) (*models.Category, error) {
	var created *models.Category
	err := s.store.WithTx(ctx, func(ctx context.Context, repo repository.Repository) error {
		if err := checkPrimaryAgency(ctx, repo, req.PrimaryAgencyID, uuid.Nil); err != nil {
			return err
		}
		c := &models.Category{
			Name:               req.Name,
			Description:        req.Description,
			PrimaryAgencyID:    req.PrimaryAgencyID,
			SecondaryAgencyIDs: req.SecondaryAgencies,
		}
		if err := repo.CreateCategory(ctx, c); err != nil {
			return err
		}
		var err error
		created, err = repo.GetCategory(ctx, c.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Infow("Category created", "id", created.ID, "name", created.Name)
	return created, nil
}

// List returns all categories with their agencies
func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.store.ListCategories(ctx)
}

// Get returns one category
func (s *CategoryService) Get(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return s.store.GetCategory(ctx, id)
}

// Update overwrites the category. The secondary agency set is replaced wholesale.
func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, req *models.CategoryRequest) (*models.Category, error) {
	var updated *models.Category
	err := s.store.WithTx(ctx, func(ctx context.Context, repo repository.Repository) error {
		c, err := repo.GetCategory(ctx, id)
		if err != nil {
			return err
		}
		if err := checkPrimaryAgency(ctx, repo, req.PrimaryAgencyID, id); err != nil {
			return err
		}

		c.Name = req.Name
		c.Description = req.Description
		c.PrimaryAgencyID = req.PrimaryAgencyID
		c.SecondaryAgencyIDs = req.SecondaryAgencies
		if err := repo.UpdateCategory(ctx, c); err != nil {
			return err
		}
		updated, err = repo.GetCategory(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a category
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.store.DeleteCategory(ctx, id)
}
