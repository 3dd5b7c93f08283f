package repository

import (
	"context"

	"github.com/citivoice/complaint-server/internal/apperr"
	"github.com/citivoice/complaint-server/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const agencyColumns = `a.id, a.name, a.acronym, a.description, a.logo_url, a.created_at, a.updated_at,
	(SELECT COUNT(*) FROM users u WHERE u.agency_id = a.id)`

func scanAgency(row pgx.Row) (*models.Agency, error) {
	var a models.Agency
	err := row.Scan(&a.ID, &a.Name, &a.Acronym, &a.Description, &a.LogoURL, &a.CreatedAt, &a.UpdatedAt, &a.UserCount)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAgency inserts the agency and fills its id and timestamps
func (r *PgRepository) CreateAgency(ctx context.Context, a *models.Agency) error {
	query := `
		INSERT INTO agencies (name, acronym, description, logo_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, a.Name, a.Acronym, a.Description, a.LogoURL).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	return translateError(err, "Agency")
}

// GetAgency returns one agency with its user count
func (r *PgRepository) GetAgency(ctx context.Context, id uuid.UUID) (*models.Agency, error) {
	a, err := scanAgency(r.db.QueryRow(ctx, `SELECT `+agencyColumns+` FROM agencies a WHERE a.id = $1`, id))
	if err != nil {
		return nil, translateError(err, "Agency")
	}
	return a, nil
}

// ListAgencies returns all agencies, newest first
func (r *PgRepository) ListAgencies(ctx context.Context) ([]models.Agency, error) {
	rows, err := r.db.Query(ctx, `SELECT `+agencyColumns+` FROM agencies a ORDER BY a.created_at DESC`)
	if err != nil {
		return nil, translateError(err, "Agency")
	}
	defer rows.Close()

	agencies := make([]models.Agency, 0)
	for rows.Next() {
		a, err := scanAgency(rows)
		if err != nil {
			return nil, translateError(err, "Agency")
		}
		agencies = append(agencies, *a)
	}
	return agencies, translateError(rows.Err(), "Agency")
}

// UpdateAgency overwrites the agency's mutable fields
func (r *PgRepository) UpdateAgency(ctx context.Context, a *models.Agency) error {
	query := `
		UPDATE agencies SET name = $2, acronym = $3, description = $4, logo_url = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query, a.ID, a.Name, a.Acronym, a.Description, a.LogoURL).Scan(&a.UpdatedAt)
	return translateError(err, "Agency")
}

// DeleteAgency removes the agency. Referencing rows make this a BadRequest.
func (r *PgRepository) DeleteAgency(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM agencies WHERE id = $1`, id)
	if err != nil {
		return translateDeleteError(err, "Agency")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Agency not found")
	}
	return nil
}
