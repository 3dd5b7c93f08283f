package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/citivoice/complaint-server/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const historyQuery = `
	SELECT h.id, h.complaint_id, h.from_user_id, h.to_user_id, h.from_agency_id, h.to_agency_id,
		h.action, h.metadata, h.timestamp,
		c.subject, c.tracking_code, c.status,
		fu.name, fu.email, tu.name, tu.email,
		fa.name, fa.acronym, fa.logo_url, ta.name, ta.acronym, ta.logo_url
	FROM complaint_history h
	JOIN complaints c ON c.id = h.complaint_id
	LEFT JOIN users fu ON fu.id = h.from_user_id
	LEFT JOIN users tu ON tu.id = h.to_user_id
	LEFT JOIN agencies fa ON fa.id = h.from_agency_id
	LEFT JOIN agencies ta ON ta.id = h.to_agency_id`

func scanHistory(row pgx.Row) (*models.HistoryEntry, error) {
	var h models.HistoryEntry
	cs := &models.ComplaintSummary{}
	var fuName, fuEmail, tuName, tuEmail *string
	var faName, faAcronym, faLogo, taName, taAcronym, taLogo *string

	err := row.Scan(&h.ID, &h.ComplaintID, &h.FromUserID, &h.ToUserID, &h.FromAgencyID, &h.ToAgencyID,
		&h.Action, &h.Metadata, &h.Timestamp,
		&cs.Subject, &cs.TrackingCode, &cs.Status,
		&fuName, &fuEmail, &tuName, &tuEmail,
		&faName, &faAcronym, &faLogo, &taName, &taAcronym, &taLogo)
	if err != nil {
		return nil, err
	}

	cs.ID = h.ComplaintID
	h.Complaint = cs
	h.FromUser = userSummary(h.FromUserID, fuName, fuEmail)
	h.ToUser = userSummary(h.ToUserID, tuName, tuEmail)
	h.FromAgency = agencySummary(h.FromAgencyID, faName, faAcronym, faLogo)
	h.ToAgency = agencySummary(h.ToAgencyID, taName, taAcronym, taLogo)
	return &h, nil
}

func userSummary(id *uuid.UUID, name, email *string) *models.UserSummary {
	if id == nil || name == nil {
		return nil
	}
	return &models.UserSummary{ID: *id, Name: *name, Email: *email}
}

func agencySummary(id *uuid.UUID, name, acronym, logo *string) *models.AgencySummary {
	if id == nil || name == nil {
		return nil
	}
	return &models.AgencySummary{ID: *id, Name: *name, Acronym: *acronym, LogoURL: *logo}
}

// AppendHistory adds a ledger row. Rows are never updated or deleted.
// clock_timestamp() and seq keep rows of one transaction in insertion order.
func (r *PgRepository) AppendHistory(ctx context.Context, h *models.HistoryEntry) error {
	query := `
		INSERT INTO complaint_history (complaint_id, from_user_id, to_user_id, from_agency_id, to_agency_id, action, metadata, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, clock_timestamp()))
		RETURNING id, timestamp
	`
	var ts any
	if !h.Timestamp.IsZero() {
		ts = h.Timestamp
	}
	err := r.db.QueryRow(ctx, query, h.ComplaintID, h.FromUserID, h.ToUserID, h.FromAgencyID, h.ToAgencyID,
		h.Action, h.Metadata, ts).Scan(&h.ID, &h.Timestamp)
	return translateError(err, "Complaint history")
}

// ListHistory returns ledger rows matching the filter
func (r *PgRepository) ListHistory(ctx context.Context, filter HistoryFilter) ([]models.HistoryEntry, error) {
	var conds []string
	var args []any
	if filter.ComplaintID != nil {
		args = append(args, *filter.ComplaintID)
		conds = append(conds, fmt.Sprintf("h.complaint_id = $%d", len(args)))
	}
	if filter.AgencyID != nil {
		args = append(args, *filter.AgencyID)
		n := len(args)
		conds = append(conds, fmt.Sprintf("(c.agency_id = $%d OR h.from_agency_id = $%d OR h.to_agency_id = $%d)", n, n, n))
	}
	if filter.StaffID != nil {
		args = append(args, *filter.StaffID)
		n := len(args)
		conds = append(conds, fmt.Sprintf("(h.from_user_id = $%d OR h.to_user_id = $%d)", n, n))
	}
	if filter.Action != "" {
		args = append(args, filter.Action)
		conds = append(conds, fmt.Sprintf("h.action = $%d", len(args)))
	}

	query := historyQuery
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	if filter.Chronological {
		query += ` ORDER BY h.timestamp ASC, h.seq ASC`
	} else {
		query += ` ORDER BY h.timestamp DESC, h.seq DESC`
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, translateError(err, "Complaint history")
	}
	defer rows.Close()

	entries := make([]models.HistoryEntry, 0)
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, translateError(err, "Complaint history")
		}
		entries = append(entries, *h)
	}
	return entries, translateError(rows.Err(), "Complaint history")
}
