package repository

import (
	"context"

	"github.com/citivoice/complaint-server/internal/models"
	"github.com/google/uuid"
)

// CreateFile records an uploaded object
func (r *PgRepository) CreateFile(ctx context.Context, f *models.File) error {
	query := `
		INSERT INTO files (id, filename, url, content_type, size)
		VALUES (COALESCE($1, gen_random_uuid()), $2, $3, $4, $5)
		RETURNING id, created_at
	`
	var id *uuid.UUID
	if f.ID != uuid.Nil {
		id = &f.ID
	}
	err := r.db.QueryRow(ctx, query, id, f.Filename, f.URL, f.ContentType, f.Size).Scan(&f.ID, &f.CreatedAt)
	return translateError(err, "File")
}
