// Package models defines the data structures used across the application.
// These map to the PostgreSQL schema in internal/database/migrations.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Role is a user's access level
type Role string

const (
	RoleSuperAdmin  Role = "SUPER_ADMIN"
	RoleAgencyAdmin Role = "AGENCY_ADMIN"
	RoleStaff       Role = "STAFF"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAgencyAdmin, RoleStaff:
		return true
	}
	return false
}

// Agency is the administrative scope for users, complaints and categories
type Agency struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Acronym     string    `json:"acronym" db:"acronym"`
	Description string    `json:"description" db:"description"`
	LogoURL     string    `json:"logo_url" db:"logo_url"`
	UserCount   int       `json:"user_count" db:"-"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// AgencySummary is the agency projection embedded in other resources
type AgencySummary struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Acronym string    `json:"acronym"`
	LogoURL string    `json:"logo_url"`
}

// Summary projects the agency for embedding
func (a *Agency) Summary() *AgencySummary {
	return &AgencySummary{ID: a.ID, Name: a.Name, Acronym: a.Acronym, LogoURL: a.LogoURL}
}

// Category groups complaints. At most one category may name a given agency as primary.
type Category struct {
	ID                 uuid.UUID       `json:"id" db:"id"`
	Name               string          `json:"name" db:"name"`
	Description        string          `json:"description" db:"description"`
	PrimaryAgencyID    *uuid.UUID      `json:"primary_agency_id,omitempty" db:"primary_agency_id"`
	SecondaryAgencyIDs []uuid.UUID     `json:"secondary_agency_ids" db:"-"`
	PrimaryAgency      *AgencySummary  `json:"primary_agency,omitempty" db:"-"`
	SecondaryAgencies  []AgencySummary `json:"secondary_agencies,omitempty" db:"-"`
	CreatedAt          time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at" db:"updated_at"`
}

// CategorySummary is the category projection embedded in complaints
type CategorySummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// User is an agency member or a super admin. Citizens are not users.
type User struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	Name           string     `json:"name" db:"name"`
	Email          string     `json:"email" db:"email"`
	PasswordHash   string     `json:"-" db:"password_hash"`
	Role           Role       `json:"role" db:"role"`
	AgencyID       *uuid.UUID `json:"agency_id,omitempty" db:"agency_id"`
	IsVerified     bool       `json:"is_verified" db:"is_verified"`
	IsActive       bool       `json:"is_active" db:"is_active"`
	IsTempPassword bool       `json:"is_temp_password" db:"is_temp_password"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// UserSummary is the user projection embedded in other resources
type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Role  Role      `json:"role,omitempty"`
}

// Summary projects the user for embedding
func (u *User) Summary() *UserSummary {
	return &UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// BelongsTo reports whether the user is affiliated with the agency
func (u *User) BelongsTo(agencyID uuid.UUID) bool {
	return u.AgencyID != nil && *u.AgencyID == agencyID
}

// Complaint holds the current state of a citizen complaint.
// What happened when lives in the complaint_history ledger.
type Complaint struct {
	ID           uuid.UUID       `json:"id" db:"id"`
	Subject      string          `json:"subject" db:"subject"`
	Description  string          `json:"description" db:"description"`
	CitizenName  string          `json:"citizen_name" db:"citizen_name"`
	CitizenEmail string          `json:"citizen_email" db:"citizen_email"`
	CategoryID   uuid.UUID       `json:"category_id" db:"category_id"`
	AgencyID     uuid.UUID       `json:"agency_id" db:"agency_id"`
	Status       ComplaintStatus `json:"status" db:"status"`
	TrackingCode string          `json:"tracking_code" db:"tracking_code"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// ComplaintDetail is a complaint with its agency, category and current assignment
type ComplaintDetail struct {
	Complaint
	Agency     *AgencySummary   `json:"agency,omitempty"`
	Category   *CategorySummary `json:"category,omitempty"`
	Assignment *Assignment      `json:"assigned_to,omitempty"`
}

// ComplaintSummary is the complaint projection embedded in history rows
type ComplaintSummary struct {
	ID           uuid.UUID       `json:"id"`
	Subject      string          `json:"subject"`
	TrackingCode string          `json:"tracking_code"`
	Status       ComplaintStatus `json:"status"`
}

// Assignment binds a complaint to one staff member. One row per complaint.
type Assignment struct {
	ID          uuid.UUID    `json:"id" db:"id"`
	ComplaintID uuid.UUID    `json:"complaint_id" db:"complaint_id"`
	StaffID     uuid.UUID    `json:"staff_id" db:"staff_id"`
	AssignedAt  time.Time    `json:"assigned_at" db:"assigned_at"`
	Staff       *UserSummary `json:"staff,omitempty" db:"-"`
}

// HistoryEntry is an append-only ledger row
type HistoryEntry struct {
	ID           uuid.UUID         `json:"id" db:"id"`
	ComplaintID  uuid.UUID         `json:"complaint_id" db:"complaint_id"`
	FromUserID   *uuid.UUID        `json:"from_user_id,omitempty" db:"from_user_id"`
	ToUserID     *uuid.UUID        `json:"to_user_id,omitempty" db:"to_user_id"`
	FromAgencyID *uuid.UUID        `json:"from_agency_id,omitempty" db:"from_agency_id"`
	ToAgencyID   *uuid.UUID        `json:"to_agency_id,omitempty" db:"to_agency_id"`
	Action       HistoryAction     `json:"action" db:"action"`
	Metadata     string            `json:"metadata,omitempty" db:"metadata"`
	Timestamp    time.Time         `json:"timestamp" db:"timestamp"`
	Complaint    *ComplaintSummary `json:"complaint,omitempty" db:"-"`
	FromUser     *UserSummary      `json:"from_user,omitempty" db:"-"`
	ToUser       *UserSummary      `json:"to_user,omitempty" db:"-"`
	FromAgency   *AgencySummary    `json:"from_agency,omitempty" db:"-"`
	ToAgency     *AgencySummary    `json:"to_agency,omitempty" db:"-"`
}

// File is an uploaded object
type File struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Filename    string    `json:"filename" db:"filename"`
	URL         string    `json:"url" db:"url"`
	ContentType string    `json:"content_type" db:"content_type"`
	Size        int64     `json:"size" db:"size"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// LedgerProof contains the Merkle proof for a specific history row
type LedgerProof struct {
	LeafHash string      `json:"leaf_hash"`
	Root     string      `json:"root"`
	Proof    []ProofStep `json:"proof"`
	Index    int         `json:"index"`
}

// ProofStep is a single step in a Merkle proof path
type ProofStep struct {
	Hash     string `json:"hash"`
	Position string `json:"position"` // "left" | "right"
}

// HealthStatus represents the server health check response
type HealthStatus struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime,omitempty"`
	Database string `json:"database,omitempty"`
	Redis    string `json:"redis,omitempty"`
}

// UUIDPtr returns a pointer to a copy of id
func UUIDPtr(id uuid.UUID) *uuid.UUID { return &id }

// LedgerStatus describes the most recent ledger rebuild
type LedgerStatus struct {
	Root      string    `json:"root"`
	LeafCount int       `json:"leaf_count"`
	BuiltAt   time.Time `json:"built_at"`
}
