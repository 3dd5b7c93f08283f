package models

import "github.com/google/uuid"

// CreateComplaintRequest is the request body for filing a new complaint
type CreateComplaintRequest struct {
	Subject      string    `json:"subject" validate:"required"`
	Description  string    `json:"description" validate:"required"`
	CitizenName  string    `json:"citizen_name" validate:"required"`
	CitizenEmail string    `json:"citizen_email" validate:"required,email"`
	CategoryID   uuid.UUID `json:"category_id" validate:"required"`
	AgencyID     uuid.UUID `json:"agency_id" validate:"required"`
}

// UpdateComplaintRequest updates descriptive fields only.
// Status and AgencyID are accepted so they can be refused explicitly.
type UpdateComplaintRequest struct {
	Subject      *string    `json:"subject,omitempty" validate:"omitempty,min=1"`
	Description  *string    `json:"description,omitempty" validate:"omitempty,min=1"`
	CitizenName  *string    `json:"citizen_name,omitempty" validate:"omitempty,min=1"`
	CitizenEmail *string    `json:"citizen_email,omitempty" validate:"omitempty,email"`
	CategoryID   *uuid.UUID `json:"category_id,omitempty"`
	Status       *string    `json:"status,omitempty"`
	AgencyID     *uuid.UUID `json:"agency_id,omitempty"`
}

// AssignComplaintRequest assigns a complaint to a staff member
type AssignComplaintRequest struct {
	ComplaintID uuid.UUID `json:"complaint_id" validate:"required"`
	StaffID     uuid.UUID `json:"staff_id" validate:"required"`
}

// UpdateStatusRequest moves a complaint through its lifecycle
type UpdateStatusRequest struct {
	Status   ComplaintStatus `json:"status" validate:"required,oneof=PENDING IN_PROGRESS RESOLVED REJECTED"`
	UserID   uuid.UUID       `json:"user_id" validate:"required"`
	Metadata string          `json:"metadata,omitempty"`
}

// TransferComplaintRequest hands a complaint to another agency
type TransferComplaintRequest struct {
	TargetAgencyID uuid.UUID `json:"target_agency_id" validate:"required"`
	UserID         uuid.UUID `json:"user_id" validate:"required"`
	TransferReason string    `json:"transfer_reason,omitempty"`
}

// CreateAgencyRequest is the request body for creating an agency
type CreateAgencyRequest struct {
	Name        string `json:"name" validate:"required"`
	Acronym     string `json:"acronym" validate:"required"`
	Description string `json:"description,omitempty"`
	LogoURL     string `json:"logo_url,omitempty" validate:"omitempty,url"`
}

// UpdateAgencyRequest is a partial agency update
type UpdateAgencyRequest struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,min=1"`
	Acronym     *string `json:"acronym,omitempty" validate:"omitempty,min=1"`
	Description *string `json:"description,omitempty"`
	LogoURL     *string `json:"logo_url,omitempty" validate:"omitempty,url"`
}

// CategoryRequest creates or updates a category. On update the secondary
// agency set is replaced wholesale.
type CategoryRequest struct {
	Name              string      `json:"name" validate:"required"`
	Description       string      `json:"description"`
	PrimaryAgencyID   *uuid.UUID  `json:"primary_agency_id,omitempty"`
	SecondaryAgencies []uuid.UUID `json:"secondary_agencies,omitempty"`
}

// CreateUserRequest creates an unverified user with a generated temporary password
type CreateUserRequest struct {
	Name     string     `json:"name" validate:"required"`
	Email    string     `json:"email" validate:"required,email"`
	Role     Role       `json:"role" validate:"required,oneof=SUPER_ADMIN AGENCY_ADMIN STAFF"`
	AgencyID *uuid.UUID `json:"agency_id,omitempty"`
}

// RegisterRequest is a CreateUserRequest gated by the registration secret
type RegisterRequest struct {
	CreateUserRequest
	SecretKey string `json:"secret_key" validate:"required"`
}

// BulkCreateUsersRequest creates several users all-or-nothing
type BulkCreateUsersRequest struct {
	Users []CreateUserRequest `json:"users" validate:"required,min=1,dive"`
}

// UpdateUserRequest is a partial user update
type UpdateUserRequest struct {
	Name     *string    `json:"name,omitempty" validate:"omitempty,min=1"`
	Email    *string    `json:"email,omitempty" validate:"omitempty,email"`
	Password *string    `json:"password,omitempty" validate:"omitempty,min=8"`
	Role     *Role      `json:"role,omitempty" validate:"omitempty,oneof=SUPER_ADMIN AGENCY_ADMIN STAFF"`
	AgencyID *uuid.UUID `json:"agency_id,omitempty"`
	IsActive *bool      `json:"is_active,omitempty"`
}

// LoginRequest authenticates a user
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the bearer token and the caller profile
type LoginResponse struct {
	AccessToken string  `json:"access_token"`
	User        *User   `json:"user"`
	Agency      *Agency `json:"agency,omitempty"`
}

// PasswordResetRequest asks for a reset link
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest redeems a reset token
type ResetPasswordRequest struct {
	UserID      uuid.UUID `json:"user_id" validate:"required"`
	Token       string    `json:"token" validate:"required"`
	NewPassword string    `json:"new_password" validate:"required,min=8"`
}

// VerifyProofRequest checks a ledger proof
type VerifyProofRequest struct {
	LeafHash string      `json:"leaf_hash" validate:"required"`
	Root     string      `json:"root" validate:"required"`
	Proof    []ProofStep `json:"proof"`
}
