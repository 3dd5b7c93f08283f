package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/citivoice/complaint-server/internal/apperr"
	"github.com/citivoice/complaint-server/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const complaintColumns = `c.id, c.subject, c.description, c.citizen_name, c.citizen_email,
	c.category_id, c.agency_id, c.status, c.tracking_code, c.created_at, c.updated_at`

const complaintDetailQuery = `
	SELECT ` + complaintColumns + `,
		ag.name, ag.acronym, ag.logo_url,
		cat.name,
		asg.id, asg.staff_id, asg.assigned_at, su.name, su.email, su.role
	FROM complaints c
	JOIN agencies ag ON ag.id = c.agency_id
	JOIN categories cat ON cat.id = c.category_id
	LEFT JOIN assignments asg ON asg.complaint_id = c.id
	LEFT JOIN users su ON su.id = asg.staff_id`

func scanComplaint(row pgx.Row) (*models.Complaint, error) {
	var c models.Complaint
	err := row.Scan(&c.ID, &c.Subject, &c.Description, &c.CitizenName, &c.CitizenEmail,
		&c.CategoryID, &c.AgencyID, &c.Status, &c.TrackingCode, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanComplaintDetail(row pgx.Row) (*models.ComplaintDetail, error) {
	var d models.ComplaintDetail
	var agency models.AgencySummary
	var category models.CategorySummary
	var asgID, staffID *uuid.UUID
	var assignedAt *time.Time
	var staffName, staffEmail, staffRole *string

	c := &d.Complaint
	err := row.Scan(&c.ID, &c.Subject, &c.Description, &c.CitizenName, &c.CitizenEmail,
		&c.CategoryID, &c.AgencyID, &c.Status, &c.TrackingCode, &c.CreatedAt, &c.UpdatedAt,
		&agency.Name, &agency.Acronym, &agency.LogoURL,
		&category.Name,
		&asgID, &staffID, &assignedAt, &staffName, &staffEmail, &staffRole)
	if err != nil {
		return nil, err
	}

	agency.ID = c.AgencyID
	category.ID = c.CategoryID
	d.Agency = &agency
	d.Category = &category

	if asgID != nil {
		d.Assignment = &models.Assignment{
			ID:          *asgID,
			ComplaintID: c.ID,
			StaffID:     *staffID,
			AssignedAt:  *assignedAt,
			Staff: &models.UserSummary{
				ID:    *staffID,
				Name:  *staffName,
				Email: *staffEmail,
				Role:  models.Role(*staffRole),
			},
		}
	}
	return &d, nil
}

// CreateComplaint inserts the complaint and fills its id and timestamps
func (r *PgRepository) CreateComplaint(ctx context.Context, c *models.Complaint) error {
	query := `
		INSERT INTO complaints (subject, description, citizen_name, citizen_email, category_id, agency_id, status, tracking_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, c.Subject, c.Description, c.CitizenName, c.CitizenEmail,
		c.CategoryID, c.AgencyID, c.Status, c.TrackingCode).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return translateError(err, "Complaint")
}

// GetComplaint returns the bare complaint row
func (r *PgRepository) GetComplaint(ctx context.Context, id uuid.UUID) (*models.Complaint, error) {
	c, err := scanComplaint(r.db.QueryRow(ctx, `SELECT `+complaintColumns+` FROM complaints c WHERE c.id = $1`, id))
	if err != nil {
		return nil, translateError(err, "Complaint")
	}
	return c, nil
}

// GetComplaintForUpdate returns the complaint row locked for the current transaction
func (r *PgRepository) GetComplaintForUpdate(ctx context.Context, id uuid.UUID) (*models.Complaint, error) {
	c, err := scanComplaint(r.db.QueryRow(ctx, `SELECT `+complaintColumns+` FROM complaints c WHERE c.id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, translateError(err, "Complaint")
	}
	return c, nil
}

// GetComplaintDetail returns the complaint with agency, category and assignment
func (r *PgRepository) GetComplaintDetail(ctx context.Context, id uuid.UUID) (*models.ComplaintDetail, error) {
	d, err := scanComplaintDetail(r.db.QueryRow(ctx, complaintDetailQuery+` WHERE c.id = $1`, id))
	if err != nil {
		return nil, translateError(err, "Complaint")
	}
	return d, nil
}

// GetComplaintByTrackingCode looks a complaint up by its public code
func (r *PgRepository) GetComplaintByTrackingCode(ctx context.Context, code string) (*models.ComplaintDetail, error) {
	d, err := scanComplaintDetail(r.db.QueryRow(ctx, complaintDetailQuery+` WHERE c.tracking_code = $1`, code))
	if err != nil {
		return nil, translateError(err, "Complaint")
	}
	return d, nil
}

// TrackingCodeExists reports whether a complaint already uses code
func (r *PgRepository) TrackingCodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM complaints WHERE tracking_code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, translateError(err, "Complaint")
	}
	return exists, nil
}

// ListComplaints returns complaints matching the filter, newest first
func (r *PgRepository) ListComplaints(ctx context.Context, filter ComplaintFilter) ([]models.ComplaintDetail, error) {
	var conds []string
	var args []any
	if filter.AgencyID != nil {
		args = append(args, *filter.AgencyID)
		conds = append(conds, fmt.Sprintf("c.agency_id = $%d", len(args)))
	}
	if filter.StaffID != nil {
		args = append(args, *filter.StaffID)
		conds = append(conds, fmt.Sprintf("asg.staff_id = $%d", len(args)))
	}

	query := complaintDetailQuery
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY c.created_at DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, translateError(err, "Complaint")
	}
	defer rows.Close()

	complaints := make([]models.ComplaintDetail, 0)
	for rows.Next() {
		d, err := scanComplaintDetail(rows)
		if err != nil {
			return nil, translateError(err, "Complaint")
		}
		complaints = append(complaints, *d)
	}
	return complaints, translateError(rows.Err(), "Complaint")
}

// UpdateComplaint overwrites every mutable column, including status and agency
func (r *PgRepository) UpdateComplaint(ctx context.Context, c *models.Complaint) error {
	query := `
		UPDATE complaints SET subject = $2, description = $3, citizen_name = $4, citizen_email = $5,
			category_id = $6, agency_id = $7, status = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query, c.ID, c.Subject, c.Description, c.CitizenName, c.CitizenEmail,
		c.CategoryID, c.AgencyID, c.Status).Scan(&c.UpdatedAt)
	return translateError(err, "Complaint")
}

// DeleteComplaint removes the complaint. Assignment and history rows cascade.
func (r *PgRepository) DeleteComplaint(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM complaints WHERE id = $1`, id)
	if err != nil {
		return translateError(err, "Complaint")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Complaint not found")
	}
	return nil
}
