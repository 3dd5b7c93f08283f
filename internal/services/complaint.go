package services

import (
	"context"
	"fmt"
	"time"

	"github.com/citivoice/complaint-server/internal/apperr"
	"github.com/citivoice/complaint-server/internal/models"
	"github.com/citivoice/complaint-server/internal/notify"
	"github.com/citivoice/complaint-server/internal/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxTrackingCodeAttempts = 5

// ComplaintService owns the complaint lifecycle: creation, assignment,
// status transitions and transfers, each paired with its ledger rows in
// one transaction. Notifications go out after commit.
type ComplaintService struct {
	store   repository.Store
	queue   notify.Queue
	links   Links
	logger  *zap.SugaredLogger
	now     Clock
	genCode func(time.Time) (string, error)
}

// NewComplaintService creates a new complaint service
func NewComplaintService(store repository.Store, queue notify.Queue, links Links, logger *zap.SugaredLogger) *ComplaintService {
	return &ComplaintService{
		store:   store,
		queue:   queue,
		links:   links,
		logger:  logger,
		now:     time.Now,
		genCode: GenerateTrackingCode,
	}
}

// Create files a complaint, assigns it to the agency's first admin and
// records SUBMITTED and ASSIGNED ledger rows.
func (s *ComplaintService) Create(ctx context.Context, req *models.CreateComplaintRequest) (*models.ComplaintDetail, error) {
	var detail *models.ComplaintDetail
	var admin *models.User

	err := s.store.WithTx(ctx, func(ctx context.Context, repo repository.Repository) error {
		agency, err := repo.GetAgency(ctx, req.AgencyID)
		if err != nil {
			return err
		}
		if _, err := repo.GetCategory(ctx, req.CategoryID); err != nil {
			return err
		}

		admin, err = repo.FindAgencyAdmin(ctx, agency.ID)
		if apperr.Is(err, apperr.KindNotFound) {
			return apperr.NotFound("No admin found for the agency")
		}
		if err != nil {
			return err
		}

		code, err := s.uniqueTrackingCode(ctx, repo)
		if err != nil {
			return err
		}

		complaint := &models.Complaint{
			Subject:      req.Subject,
			Description:  req.Description,
			CitizenName:  req.CitizenName,
			CitizenEmail: req.CitizenEmail,
			CategoryID:   req.CategoryID,
			AgencyID:     agency.ID,
			Status:       models.StatusPending,
			TrackingCode: code,
		}
		if err := repo.CreateComplaint(ctx, complaint); err != nil {
			return err
		}

		if err := repo.UpsertAssignment(ctx, &models.Assignment{
			ComplaintID: complaint.ID,
			StaffID:     admin.ID,
			AssignedAt:  s.now(),
		}); err != nil {
			return err
		}

		if err := repo.AppendHistory(ctx, &models.HistoryEntry{
			ComplaintID:  complaint.ID,
			FromAgencyID: models.UUIDPtr(agency.ID),
			ToAgencyID:   models.UUIDPtr(agency.ID),
			Action:       models.ActionSubmitted,
			Metadata:     "Complaint submitted by citizen",
		}); err != nil {
			return err
		}
		if err := repo.AppendHistory(ctx, &models.HistoryEntry{
			ComplaintID:  complaint.ID,
			ToUserID:     models.UUIDPtr(admin.ID),
			FromAgencyID: models.UUIDPtr(agency.ID),
			ToAgencyID:   models.UUIDPtr(agency.ID),
			Action:       models.ActionAssigned,
			Metadata:     "Initial assignment to agency admin",
		}); err != nil {
			return err
		}

		detail, err = repo.GetComplaintDetail(ctx, complaint.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Complaint created",
		"id", detail.ID,
		"tracking_code", detail.TrackingCode,
		"agency_id", detail.AgencyID,
		"assigned_to", admin.ID,
	)

	dispatch(ctx, s.queue, s.logger,
		notify.Message{
			Template: notify.TemplateComplaintConfirmation,
			To:       detail.CitizenEmail,
			Data: map[string]string{
				"name":          detail.CitizenName,
				"trackingCode":  detail.TrackingCode,
				"agencyName":    detail.Agency.Name,
				"agencyLogoUrl": logoOrDefault(detail.Agency.LogoURL),
				"trackingLink":  s.links.TrackingURL(detail.TrackingCode),
			},
		},
		s.assignmentMessage(admin, detail),
	)

	return detail, nil
}

// uniqueTrackingCode draws codes until one is unused
func (s *ComplaintService) uniqueTrackingCode(ctx context.Context, repo repository.Repository) (string, error) {
	for attempt := 0; attempt < maxTrackingCodeAttempts; attempt++ {
		code, err := s.genCode(s.now())
		if err != nil {
			return "", apperr.Internal(err, "Failed to generate tracking code")
		}
		exists, err := repo.TrackingCodeExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
		s.logger.Warnw("Tracking code collision", "code", code, "attempt", attempt+1)
	}
	return "", apperr.Internal(fmt.Errorf("%d tracking code collisions", maxTrackingCodeAttempts), "Failed to generate a unique tracking code")
}

// Assign binds the complaint to a staff member of its agency. The first
// assignment is recorded as ASSIGNED, later ones as REASSIGNED. A PENDING
// complaint moves to IN_PROGRESS.
func (s *ComplaintService) Assign(ctx context.Context, complaintID, staffID uuid.UUID) (*models.ComplaintDetail, error) {
	var detail *models.ComplaintDetail
	var staff *models.User

	err := s.store.WithTx(ctx, func(ctx context.Context, repo repository.Repository) error {
		complaint, err := repo.GetComplaintForUpdate(ctx, complaintID)
		if err != nil {
			return err
		}

		staff, err = repo.GetUser(ctx, staffID)
		if apperr.Is(err, apperr.KindNotFound) {
			return apperr.NotFound("Staff member not found")
		}
		if err != nil {
			return err
		}
		if !staff.BelongsTo(complaint.AgencyID) {
			return apperr.BadRequest("Staff member does not belong to the complaint agency")
		}

		previous, err := repo.GetAssignment(ctx, complaintID)
		if err != nil && !apperr.Is(err, apperr.KindNotFound) {
			return err
		}

		if err := repo.UpsertAssignment(ctx, &models.Assignment{
			ComplaintID: complaintID,
			StaffID:     staff.ID,
			AssignedAt:  s.now(),
		}); err != nil {
			return err
		}

		entry := &models.HistoryEntry{
			ComplaintID: complaintID,
			ToUserID:    models.UUIDPtr(staff.ID),
			ToAgencyID:  models.UUIDPtr(complaint.AgencyID),
			Action:      models.ActionAssigned,
		}
		if previous != nil {
			entry.Action = models.ActionReassigned
			entry.FromUserID = models.UUIDPtr(previous.StaffID)
			entry.FromAgencyID = models.UUIDPtr(complaint.AgencyID)
		}
		if err := repo.AppendHistory(ctx, entry); err != nil {
			return err
		}

		if complaint.Status == models.StatusPending {
			complaint.Status = models.StatusInProgress
			if err := repo.UpdateComplaint(ctx, complaint); err != nil {
				return err
			}
		}

		detail, err = repo.GetComplaintDetail(ctx, complaintID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Complaint assigned", "id", complaintID, "staff_id", staffID, "status", detail.Status)
	dispatch(ctx, s.queue, s.logger, s.assignmentMessage(staff, detail))
	return detail, nil
}

func (s *ComplaintService) assignmentMessage(to *models.User, detail *models.ComplaintDetail) notify.Message {
	return notify.Message{
		Template: notify.TemplateComplaintAssignment,
		To:       to.Email,
		Data: map[string]string{
			"name":         to.Name,
			"subject":      detail.Subject,
			"agencyName":   detail.Agency.Name,
			"trackingCode": detail.TrackingCode,
		},
	}
}

// UpdateStatus moves the complaint to req.Status on behalf of a user of its
// agency and appends the matching ledger row. PENDING is refused: it is only
// re-entered through Transfer.
func (s *ComplaintService) UpdateStatus(ctx context.Context, complaintID uuid.UUID, req *models.UpdateStatusRequest) (*models.ComplaintDetail, error) {
	if !req.Status.Valid() {
		return nil, apperr.BadRequest("Invalid status value: %s", req.Status)
	}
	action, ok := models.HistoryActionForStatus(req.Status)
	if !ok {
		return nil, apperr.BadRequest("PENDING is only re-entered by transfer")
	}

	metadata := req.Metadata
	if metadata == "" {
		metadata = fmt.Sprintf("Status updated to %s", req.Status)
	}

	var detail *models.ComplaintDetail
	err := s.store.WithTx(ctx, func(ctx context.Context, repo repository.Repository) error {
		complaint, err := repo.GetComplaintForUpdate(ctx, complaintID)
		if err != nil {
			return err
		}

		user, err := repo.GetUser(ctx, req.UserID)
		if err != nil {
			return err
		}
		if !user.BelongsTo(complaint.AgencyID) {
			return apperr.BadRequest("User does not belong to the complaint agency")
		}

		assignment, err := repo.GetAssignment(ctx, complaintID)
		if err != nil && !apperr.Is(err, apperr.KindNotFound) {
			return err
		}

		complaint.Status = req.Status
		if err := repo.UpdateComplaint(ctx, complaint); err != nil {
			return err
		}

		entry := &models.HistoryEntry{
			ComplaintID:  complaintID,
			FromUserID:   models.UUIDPtr(user.ID),
			FromAgencyID: models.UUIDPtr(complaint.AgencyID),
			ToAgencyID:   models.UUIDPtr(complaint.AgencyID),
			Action:       action,
			Metadata:     metadata,
		}
		if assignment != nil {
			entry.ToUserID = models.UUIDPtr(assignment.StaffID)
		}
		if err := repo.AppendHistory(ctx, entry); err != nil {
			return err
		}

		detail, err = repo.GetComplaintDetail(ctx, complaintID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Complaint status updated", "id", complaintID, "status", req.Status, "by", req.UserID)

	msgs := []notify.Message{{
		Template: notify.TemplateComplaintStatusUpdate,
		To:       detail.CitizenEmail,
		Data: map[string]string{
			"name":          detail.CitizenName,
			"subject":       detail.Subject,
			"agencyName":    detail.Agency.Name,
			"agencyLogoUrl": logoOrDefault(detail.Agency.LogoURL),
			"trackingCode":  detail.TrackingCode,
			"status":        string(detail.Status),
			"trackingLink":  s.links.TrackingURL(detail.TrackingCode),
		},
	}}
	if detail.Assignment != nil && detail.Assignment.Staff != nil {
		msgs = append(msgs, notify.Message{
			Template: notify.TemplateComplaintStatusChanged,
			To:       detail.Assignment.Staff.Email,
			Data: map[string]string{
				"name":         detail.Assignment.Staff.Name,
				"subject":      detail.Subject,
				"agencyName":   detail.Agency.Name,
				"trackingCode": detail.TrackingCode,
				"status":       string(detail.Status),
				"metadata":     req.Metadata,
			},
		})
	}
	dispatch(ctx, s.queue, s.logger, msgs...)

	return detail, nil
}

// Transfer hands the complaint to another agency. The assignment is dropped
// and the status returns to PENDING; the target agency assigns it again.
func (s *ComplaintService) Transfer(ctx context.Context, complaintID uuid.UUID, req *models.TransferComplaintRequest) (*models.ComplaintDetail, error) {
	var detail *models.ComplaintDetail
	var target *models.Agency

	err := s.store.WithTx(ctx, func(ctx context.Context, repo repository.Repository) error {
		complaint, err := repo.GetComplaintForUpdate(ctx, complaintID)
		if err != nil {
			return err
		}

		user, err := repo.GetUser(ctx, req.UserID)
		if err != nil {
			return err
		}
		if !user.BelongsTo(complaint.AgencyID) {
			return apperr.BadRequest("User does not belong to the current agency")
		}

		target, err = repo.GetAgency(ctx, req.TargetAgencyID)
		if apperr.Is(err, apperr.KindNotFound) {
			return apperr.NotFound("Target agency not found")
		}
		if err != nil {
			return err
		}

		if err := repo.AppendHistory(ctx, &models.HistoryEntry{
			ComplaintID:  complaintID,
			FromUserID:   models.UUIDPtr(user.ID),
			FromAgencyID: models.UUIDPtr(complaint.AgencyID),
			ToAgencyID:   models.UUIDPtr(target.ID),
			Action:       models.ActionTransferred,
			Metadata:     req.TransferReason,
		}); err != nil {
			return err
		}

		complaint.AgencyID = target.ID
		complaint.Status = models.StatusPending
		if err := repo.UpdateComplaint(ctx, complaint); err != nil {
			return err
		}
		if err := repo.DeleteAssignment(ctx, complaintID); err != nil {
			return err
		}

		detail, err = repo.GetComplaintDetail(ctx, complaintID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Complaint transferred", "id", complaintID, "to_agency", target.ID, "by", req.UserID)

	dispatch(ctx, s.queue, s.logger, notify.Message{
		Template: notify.TemplateComplaintTransfer,
		To:       detail.CitizenEmail,
		Data: map[string]string{
			"name":                detail.CitizenName,
			"subject":             detail.Subject,
			"targetAgencyName":    target.Name,
			"targetAgencyLogoUrl": logoOrDefault(target.LogoURL),
			"trackingCode":        detail.TrackingCode,
			"transferReason":      req.TransferReason,
			"trackingLink":        s.links.TrackingURL(detail.TrackingCode),
		},
	})

	return detail, nil
}

// List returns every complaint, newest first
func (s *ComplaintService) List(ctx context.Context) ([]models.ComplaintDetail, error) {
	return s.store.ListComplaints(ctx, repository.ComplaintFilter{})
}

// ListByAgency returns the complaints an agency currently owns
func (s *ComplaintService) ListByAgency(ctx context.Context, agencyID uuid.UUID) ([]models.ComplaintDetail, error) {
	return s.store.ListComplaints(ctx, repository.ComplaintFilter{AgencyID: &agencyID})
}

// ListByStaff returns the complaints currently assigned to a user
func (s *ComplaintService) ListByStaff(ctx context.Context, staffID uuid.UUID) ([]models.ComplaintDetail, error) {
	return s.store.ListComplaints(ctx, repository.ComplaintFilter{StaffID: &staffID})
}

// Get returns one complaint
func (s *ComplaintService) Get(ctx context.Context, id uuid.UUID) (*models.ComplaintDetail, error) {
	return s.store.GetComplaintDetail(ctx, id)
}

// GetByTrackingCode returns the complaint with the given public code
func (s *ComplaintService) GetByTrackingCode(ctx context.Context, code string) (*models.ComplaintDetail, error) {
	if !ValidTrackingCode(code) {
		return nil, apperr.NotFound("Complaint not found")
	}
	return s.store.GetComplaintByTrackingCode(ctx, code)
}

// GetAssignment returns the complaint's current assignment
func (s *ComplaintService) GetAssignment(ctx context.Context, complaintID uuid.UUID) (*models.Assignment, error) {
	if _, err := s.store.GetComplaint(ctx, complaintID); err != nil {
		return nil, err
	}
	a, err := s.store.GetAssignment(ctx, complaintID)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.NotFound("No assignment found for this complaint")
	}
	return a, err
}

// Update changes descriptive fields. Status and agency belong to
// UpdateStatus and Transfer so the ledger stays complete.
func (s *ComplaintService) Update(ctx context.Context, id uuid.UUID, req *models.UpdateComplaintRequest) (*models.ComplaintDetail, error) {
	if req.Status != nil || req.AgencyID != nil {
		return nil, apperr.BadRequest("Status and agency can only be changed through the status and transfer endpoints")
	}

	var detail *models.ComplaintDetail
	err := s.store.WithTx(ctx, func(ctx context.Context, repo repository.Repository) error {
		complaint, err := repo.GetComplaintForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if req.Subject != nil {
			complaint.Subject = *req.Subject
		}
		if req.Description != nil {
			complaint.Description = *req.Description
		}
		if req.CitizenName != nil {
			complaint.CitizenName = *req.CitizenName
		}
		if req.CitizenEmail != nil {
			complaint.CitizenEmail = *req.CitizenEmail
		}
		if req.CategoryID != nil {
			if _, err := repo.GetCategory(ctx, *req.CategoryID); err != nil {
				return err
			}
			complaint.CategoryID = *req.CategoryID
		}

		if err := repo.UpdateComplaint(ctx, complaint); err != nil {
			return err
		}
		detail, err = repo.GetComplaintDetail(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// Delete removes the complaint together with its assignment and ledger rows
func (s *ComplaintService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.store.DeleteComplaint(ctx, id); err != nil {
		return err
	}
	s.logger.Infow("Complaint deleted", "id", id)
	return nil
}
