package repository

import (
	"context"

	"github.com/citivoice/complaint-server/internal/models"
	"github.com/google/uuid"
)

// GetAssignment returns the complaint's current assignment with its staff member
func (r *PgRepository) GetAssignment(ctx context.Context, complaintID uuid.UUID) (*models.Assignment, error) {
	query := `
		SELECT a.id, a.complaint_id, a.staff_id, a.assigned_at, u.name, u.email, u.role
		FROM assignments a
		JOIN users u ON u.id = a.staff_id
		WHERE a.complaint_id = $1
	`
	var a models.Assignment
	staff := &models.UserSummary{}
	err := r.db.QueryRow(ctx, query, complaintID).
		Scan(&a.ID, &a.ComplaintID, &a.StaffID, &a.AssignedAt, &staff.Name, &staff.Email, &staff.Role)
	if err != nil {
		return nil, translateError(err, "Assignment")
	}
	staff.ID = a.StaffID
	a.Staff = staff
	return &a, nil
}

// UpsertAssignment binds the complaint to a.StaffID, replacing any previous assignee
func (r *PgRepository) UpsertAssignment(ctx context.Context, a *models.Assignment) error {
	query := `
		INSERT INTO assignments (complaint_id, staff_id, assigned_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (complaint_id) DO UPDATE SET staff_id = EXCLUDED.staff_id, assigned_at = EXCLUDED.assigned_at
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query, a.ComplaintID, a.StaffID, a.AssignedAt).Scan(&a.ID)
	return translateError(err, "Assignment")
}

// DeleteAssignment removes the complaint's assignment if there is one
func (r *PgRepository) DeleteAssignment(ctx context.Context, complaintID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `DELETE FROM assignments WHERE complaint_id = $1`, complaintID)
	return translateError(err, "Assignment")
}
