package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/citivoice/complaint-server/internal/apperr"
	"github.com/citivoice/complaint-server/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, name, email, password_hash, role, agency_id, is_verified, is_active, is_temp_password, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.AgencyID,
		&u.IsVerified, &u.IsActive, &u.IsTempPassword, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *PgRepository) queryUsers(ctx context.Context, query string, args ...any) ([]models.User, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, translateError(err, "User")
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, translateError(err, "User")
		}
		users = append(users, *u)
	}
	return users, translateError(rows.Err(), "User")
}

// CreateUser inserts the user and fills its id and timestamps
func (r *PgRepository) CreateUser(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (name, email, password_hash, role, agency_id, is_verified, is_active, is_temp_password)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, u.Name, u.Email, u.PasswordHash, u.Role, u.AgencyID,
		u.IsVerified, u.IsActive, u.IsTempPassword).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	return translateError(err, "User")
}

// GetUser returns one user
func (r *PgRepository) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, translateError(err, "User")
	}
	return u, nil
}

// GetUserByEmail looks a user up by (case-insensitive) email
func (r *PgRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
	if err != nil {
		return nil, translateError(err, "User")
	}
	return u, nil
}

// FindUsersByEmails returns the users whose email is in the list
func (r *PgRepository) FindUsersByEmails(ctx context.Context, emails []string) ([]models.User, error) {
	lowered := make([]string, len(emails))
	for i, e := range emails {
		lowered[i] = strings.ToLower(e)
	}
	return r.queryUsers(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = ANY($1) ORDER BY email`, lowered)
}

// ListUsers returns users matching the filter, newest first
func (r *PgRepository) ListUsers(ctx context.Context, filter UserFilter) ([]models.User, error) {
	var conds []string
	var args []any
	if filter.AgencyID != nil {
		args = append(args, *filter.AgencyID)
		conds = append(conds, fmt.Sprintf("agency_id = $%d", len(args)))
	}
	if filter.Role != "" {
		args = append(args, filter.Role)
		conds = append(conds, fmt.Sprintf("role = $%d", len(args)))
	}

	query := `SELECT ` + userColumns + ` FROM users`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at DESC`
	return r.queryUsers(ctx, query, args...)
}

// FindAgencyAdmin returns the earliest agency admin of the agency
func (r *PgRepository) FindAgencyAdmin(ctx context.Context, agencyID uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE agency_id = $1 AND role = $2 ORDER BY created_at LIMIT 1`
	u, err := scanUser(r.db.QueryRow(ctx, query, agencyID, models.RoleAgencyAdmin))
	if err != nil {
		return nil, translateError(err, "User")
	}
	return u, nil
}

// UpdateUser overwrites the user's mutable fields
func (r *PgRepository) UpdateUser(ctx context.Context, u *models.User) error {
	query := `
		UPDATE users SET name = $2, email = $3, password_hash = $4, role = $5, agency_id = $6,
			is_verified = $7, is_active = $8, is_temp_password = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query, u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.AgencyID,
		u.IsVerified, u.IsActive, u.IsTempPassword).Scan(&u.UpdatedAt)
	return translateError(err, "User")
}

// DeleteUser removes the user
func (r *PgRepository) DeleteUser(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return translateDeleteError(err, "User")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User not found")
	}
	return nil
}
