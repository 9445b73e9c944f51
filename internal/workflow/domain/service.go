package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Service maintains the ordered workflow of each representing country.
// The organization is always taken from the context.
type Service interface {
	ListWorkflow(ctx context.Context, representingCountryID string, req ListWorkflowRequest) ([]StatusWithSubStatuses, error)
	SeedWorkflow(ctx context.Context, representingCountryID string) ([]StatusWithSubStatuses, error)
	AddStatus(ctx context.Context, req AddStatusRequest) (*StatusResponse, error)
	RenameStatus(ctx context.Context, req RenameStatusRequest) (*StatusResponse, error)
	UpdateStatusNotes(ctx context.Context, req UpdateStatusNotesRequest) (*StatusResponse, error)
	ToggleStatusActive(ctx context.Context, ref StatusRef) (*StatusResponse, error)
	DeleteStatus(ctx context.Context, ref StatusRef) error
	ReorderStatuses(ctx context.Context, req ReorderRequest) ([]StatusWithSubStatuses, error)

	AddSubStatus(ctx context.Context, req AddSubStatusRequest) (*SubStatusResponse, error)
	EditSubStatus(ctx context.Context, req EditSubStatusRequest) (*SubStatusResponse, error)
	ToggleSubStatusActive(ctx context.Context, ref SubStatusRef) (*SubStatusResponse, error)
	DeleteSubStatus(ctx context.Context, ref SubStatusRef) error

	// SeedInTx materializes the process-template catalog for a country using
	// the caller's transaction. Safe to repeat.
	SeedInTx(ctx context.Context, tx *gorm.DB, orgID, representingCountryID snowflake.ID) (SeedResult, error)
	// DeleteAllInTx soft-deletes every status and sub-status of a country.
	DeleteAllInTx(ctx context.Context, tx *gorm.DB, orgID, representingCountryID snowflake.ID) error
	// BackfillAll re-seeds every live representing country of every organization.
	BackfillAll(ctx context.Context) (BackfillResult, error)
}

type ListWorkflowRequest struct {
	WithTrashed bool
	ActiveOnly  bool
}

type StatusRef struct {
	RepresentingCountryID string
	StatusID              string
}

type SubStatusRef struct {
	RepresentingCountryID string
	StatusID              string
	SubStatusID           string
}

type AddStatusRequest struct {
	RepresentingCountryID string `json:"-"`
	StatusName            string `json:"status_name"`
}

type RenameStatusRequest struct {
	RepresentingCountryID string `json:"-"`
	StatusID              string `json:"-"`
	CustomName            string `json:"custom_name"`
}

type UpdateStatusNotesRequest struct {
	RepresentingCountryID string  `json:"-"`
	StatusID              string  `json:"-"`
	Notes                 *string `json:"notes"`
}

type StatusOrder struct {
	ID    string `json:"id"`
	Order int    `json:"order"`
}

type ReorderRequest struct {
	RepresentingCountryID string        `json:"-"`
	Orders                []StatusOrder `json:"orders"`
}

type AddSubStatusRequest struct {
	RepresentingCountryID string  `json:"-"`
	StatusID              string  `json:"-"`
	Name                  string  `json:"name"`
	Description           *string `json:"description"`
}

type EditSubStatusRequest struct {
	RepresentingCountryID string  `json:"-"`
	StatusID              string  `json:"-"`
	SubStatusID           string  `json:"-"`
	Name                  string  `json:"name"`
	Description           *string `json:"description"`
}

type StatusResponse struct {
	ID                    string     `json:"id"`
	RepresentingCountryID string     `json:"representing_country_id"`
	StatusName            string     `json:"status_name"`
	CustomName            *string    `json:"custom_name,omitempty"`
	DisplayName           string     `json:"display_name"`
	Notes                 *string    `json:"notes,omitempty"`
	Order                 int        `json:"order"`
	IsActive              bool       `json:"is_active"`
	IsSystem              bool       `json:"is_system"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
	DeletedAt             *time.Time `json:"deleted_at,omitempty"`
}

type SubStatusResponse struct {
	ID          string     `json:"id"`
	StatusID    string     `json:"status_id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	Order       int        `json:"order"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

type StatusWithSubStatuses struct {
	Status      StatusResponse      `json:"status"`
	SubStatuses []SubStatusResponse `json:"sub_statuses"`
}

type SeedResult struct {
	Created   int `json:"created"`
	Reordered int `json:"reordered"`
}

type BackfillResult struct {
	Countries int `json:"countries"`
	Created   int `json:"created"`
	Reordered int `json:"reordered"`
}

var (
	ErrInvalidOrganization         = errors.New("invalid_organization")
	ErrRepresentingCountryNotFound = errors.New("representing_country_not_found")
	ErrStatusNotFound              = errors.New("status_not_found")
	ErrSubStatusNotFound           = errors.New("sub_status_not_found")
	ErrInvalidStatusName           = errors.New("invalid_status_name")
	ErrInvalidCustomName           = errors.New("invalid_custom_name")
	ErrDuplicateStatusName         = errors.New("duplicate_status_name")
	ErrSystemStatusLocked          = errors.New("system_status_locked")
	ErrInvalidStatusOrders         = errors.New("invalid_status_orders")
	ErrInvalidOrder                = errors.New("invalid_order")
	ErrInvalidStatusID             = errors.New("invalid_status_id")
	ErrInvalidSubStatusName        = errors.New("invalid_sub_status_name")
	ErrDuplicateSubStatusName      = errors.New("duplicate_sub_status_name")
)
