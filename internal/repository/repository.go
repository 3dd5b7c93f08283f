// Package repository is the persistence gateway. Services depend on the
// Store interface; the PostgreSQL implementation lives in postgres.go.
package repository

import (
	"context"

	"github.com/citivoice/complaint-server/internal/models"
	"github.com/google/uuid"
)

// AgencyRepository persists agencies
type AgencyRepository interface {
	CreateAgency(ctx context.Context, a *models.Agency) error
	GetAgency(ctx context.Context, id uuid.UUID) (*models.Agency, error)
	ListAgencies(ctx context.Context) ([]models.Agency, error)
	UpdateAgency(ctx context.Context, a *models.Agency) error
	DeleteAgency(ctx context.Context, id uuid.UUID) error
}

// CategoryRepository persists categories and their secondary agency links
type CategoryRepository interface {
	CreateCategory(ctx context.Context, c *models.Category) error
	GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	// FindCategoryByPrimaryAgency returns the category naming agencyID as
	// primary, or a NotFound fault.
	FindCategoryByPrimaryAgency(ctx context.Context, agencyID uuid.UUID) (*models.Category, error)
	UpdateCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

// UserFilter narrows ListUsers. Zero values match everything.
type UserFilter struct {
	AgencyID *uuid.UUID
	Role     models.Role
}

// UserRepository persists users
type UserRepository interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUsersByEmails(ctx context.Context, emails []string) ([]models.User, error)
	ListUsers(ctx context.Context, filter UserFilter) ([]models.User, error)
	// FindAgencyAdmin returns the earliest AGENCY_ADMIN of the agency.
	FindAgencyAdmin(ctx context.Context, agencyID uuid.UUID) (*models.User, error)
	UpdateUser(ctx context.Context, u *models.User) error
	DeleteUser(ctx context.Context, id uuid.UUID) error
}

// ComplaintFilter narrows ListComplaints. StaffID matches the current assignee.
type ComplaintFilter struct {
	AgencyID *uuid.UUID
	StaffID  *uuid.UUID
}

// ComplaintRepository persists complaints
type ComplaintRepository interface {
	CreateComplaint(ctx context.Context, c *models.Complaint) error
	GetComplaint(ctx context.Context, id uuid.UUID) (*models.Complaint, error)
	// GetComplaintForUpdate reads the row and locks it until the
	// surrounding transaction ends.
	GetComplaintForUpdate(ctx context.Context, id uuid.UUID) (*models.Complaint, error)
	GetComplaintDetail(ctx context.Context, id uuid.UUID) (*models.ComplaintDetail, error)
	GetComplaintByTrackingCode(ctx context.Context, code string) (*models.ComplaintDetail, error)
	TrackingCodeExists(ctx context.Context, code string) (bool, error)
	ListComplaints(ctx context.Context, filter ComplaintFilter) ([]models.ComplaintDetail, error)
	UpdateComplaint(ctx context.Context, c *models.Complaint) error
	DeleteComplaint(ctx context.Context, id uuid.UUID) error
}

// AssignmentRepository persists the one-per-complaint assignment
type AssignmentRepository interface {
	GetAssignment(ctx context.Context, complaintID uuid.UUID) (*models.Assignment, error)
	// UpsertAssignment creates the row or overwrites staff and timestamp.
	UpsertAssignment(ctx context.Context, a *models.Assignment) error
	DeleteAssignment(ctx context.Context, complaintID uuid.UUID) error
}

// HistoryFilter narrows ListHistory. AgencyID matches rows of complaints the
// agency owns as well as rows naming it as source or target. StaffID matches
// rows naming the user as source or target.
type HistoryFilter struct {
	ComplaintID   *uuid.UUID
	AgencyID      *uuid.UUID
	StaffID       *uuid.UUID
	Action        models.HistoryAction
	Chronological bool // oldest first; default is newest first
}

// HistoryRepository is the append-only ledger
type HistoryRepository interface {
	AppendHistory(ctx context.Context, h *models.HistoryEntry) error
	ListHistory(ctx context.Context, filter HistoryFilter) ([]models.HistoryEntry, error)
}

// FileRepository records uploaded objects
type FileRepository interface {
	CreateFile(ctx context.Context, f *models.File) error
}

// Repository groups every persistence operation
type Repository interface {
	AgencyRepository
	CategoryRepository
	UserRepository
	ComplaintRepository
	AssignmentRepository
	HistoryRepository
	FileRepository
}

// Store is a Repository that can run a callback inside one transaction.
// The callback's repository is bound to the transaction; returning an error
// rolls everything back.
type Store interface {
	Repository
	WithTx(ctx context.Context, fn func(ctx context.Context, repo Repository) error) error
}
