package repository

import (
	"context"

	"github.com/citivoice/complaint-server/internal/apperr"
	"github.com/citivoice/complaint-server/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const categoryColumns = `c.id, c.name, c.description, c.primary_agency_id, c.created_at, c.updated_at,
	pa.id, pa.name, pa.acronym, pa.logo_url`

const categoryFrom = ` FROM categories c LEFT JOIN agencies pa ON pa.id = c.primary_agency_id`

func scanCategory(row pgx.Row) (*models.Category, error) {
	var c models.Category
	var paID *uuid.UUID
	var paName, paAcronym, paLogoURL *string
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.PrimaryAgencyID, &c.CreatedAt, &c.UpdatedAt,
		&paID, &paName, &paAcronym, &paLogoURL)
	if err != nil {
		return nil, err
	}
	if paID != nil {
		c.PrimaryAgency = &models.AgencySummary{ID: *paID, Name: *paName, Acronym: *paAcronym, LogoURL: *paLogoURL}
	}
	c.SecondaryAgencyIDs = make([]uuid.UUID, 0)
	c.SecondaryAgencies = make([]models.AgencySummary, 0)
	return &c, nil
}

// loadSecondaryAgencies fills the secondary agency links of the given categories
func (r *PgRepository) loadSecondaryAgencies(ctx context.Context, categories []*models.Category) error {
	if len(categories) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(categories))
	byID := make(map[uuid.UUID]*models.Category, len(categories))
	for i, c := range categories {
		ids[i] = c.ID
		byID[c.ID] = c
	}

	query := `
		SELECT csa.category_id, a.id, a.name, a.acronym, a.logo_url
		FROM category_secondary_agencies csa
		JOIN agencies a ON a.id = csa.agency_id
		WHERE csa.category_id = ANY($1)
		ORDER BY a.name
	`
	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var categoryID uuid.UUID
		var a models.AgencySummary
		if err := rows.Scan(&categoryID, &a.ID, &a.Name, &a.Acronym, &a.LogoURL); err != nil {
			return err
		}
		c := byID[categoryID]
		c.SecondaryAgencyIDs = append(c.SecondaryAgencyIDs, a.ID)
		c.SecondaryAgencies = append(c.SecondaryAgencies, a)
	}
	return rows.Err()
}

func (r *PgRepository) replaceSecondaryAgencies(ctx context.Context, categoryID uuid.UUID, agencyIDs []uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM category_secondary_agencies WHERE category_id = $1`, categoryID); err != nil {
		return err
	}
	if len(agencyIDs) == 0 {
		return nil
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO category_secondary_agencies (category_id, agency_id)
		SELECT $1, unnest($2::uuid[])
		ON CONFLICT DO NOTHING
	`, categoryID, agencyIDs)
	return err
}

// CreateCategory inserts the category and its secondary agency links.
// Callers run it inside WithTx so the links and the row land together.
func (r *PgRepository) CreateCategory(ctx context.Context, c *models.Category) error {
	query := `
		INSERT INTO categories (name, description, primary_agency_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, c.Name, c.Description, c.PrimaryAgencyID).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return translateError(err, "Category")
	}
	return translateError(r.replaceSecondaryAgencies(ctx, c.ID, c.SecondaryAgencyIDs), "Category")
}

// GetCategory returns one category with its agencies
func (r *PgRepository) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	c, err := scanCategory(r.db.QueryRow(ctx, `SELECT `+categoryColumns+categoryFrom+` WHERE c.id = $1`, id))
	if err != nil {
		return nil, translateError(err, "Category")
	}
	if err := r.loadSecondaryAgencies(ctx, []*models.Category{c}); err != nil {
		return nil, translateError(err, "Category")
	}
	return c, nil
}

// ListCategories returns all categories with their agencies, newest first
func (r *PgRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := r.db.Query(ctx, `SELECT `+categoryColumns+categoryFrom+` ORDER BY c.created_at DESC`)
	if err != nil {
		return nil, translateError(err, "Category")
	}

	var ptrs []*models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			rows.Close()
			return nil, translateError(err, "Category")
		}
		ptrs = append(ptrs, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, translateError(err, "Category")
	}

	if err := r.loadSecondaryAgencies(ctx, ptrs); err != nil {
		return nil, translateError(err, "Category")
	}

	categories := make([]models.Category, len(ptrs))
	for i, c := range ptrs {
		categories[i] = *c
	}
	return categories, nil
}

// FindCategoryByPrimaryAgency returns the category using agencyID as primary
func (r *PgRepository) FindCategoryByPrimaryAgency(ctx context.Context, agencyID uuid.UUID) (*models.Category, error) {
	c, err := scanCategory(r.db.QueryRow(ctx,
		`SELECT `+categoryColumns+categoryFrom+` WHERE c.primary_agency_id = $1 ORDER BY c.created_at LIMIT 1`, agencyID))
	if err != nil {
		return nil, translateError(err, "Category")
	}
	return c, nil
}

// UpdateCategory overwrites the category and replaces its secondary agencies
func (r *PgRepository) UpdateCategory(ctx context.Context, c *models.Category) error {
	query := `
		UPDATE categories SET name = $2, description = $3, primary_agency_id = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, c.ID, c.Name, c.Description, c.PrimaryAgencyID).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return translateError(err, "Category")
	}
	return translateError(r.replaceSecondaryAgencies(ctx, c.ID, c.SecondaryAgencyIDs), "Category")
}

// DeleteCategory removes the category and its links
func (r *PgRepository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return translateDeleteError(err, "Category")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Category not found")
	}
	return nil
}
