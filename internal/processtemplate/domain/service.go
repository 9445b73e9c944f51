package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/pathway/internal/config"
)

const DefaultColor = "#6B7280"

type Service interface {
	List(ctx context.Context) ([]Response, error)
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, id string, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
	// UpdateNotes writes organization-wide descriptions keyed by template id.
	UpdateNotes(ctx context.Context, req UpdateNotesRequest) ([]Response, error)
	// EnsureCatalog inserts missing catalog entries and realigns color and
	// order of existing ones. It returns how many templates were created.
	EnsureCatalog(ctx context.Context, entries []config.CatalogEntry) (int, error)
}

type CreateRequest struct {
	Name        string  `json:"name"`
	Color       *string `json:"color"`
	Order       *int    `json:"order"`
	Description *string `json:"description"`
}

type UpdateRequest struct {
	Color       *string `json:"color"`
	Order       *int    `json:"order"`
	Description *string `json:"description"`
}

type UpdateNotesRequest struct {
	Notes map[string]string `json:"notes"`
}

type Response struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Color       string    `json:"color"`
	Description *string   `json:"description,omitempty"`
	Order       int       `json:"order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

var (
	ErrInvalidName   = errors.New("invalid_name")
	ErrInvalidColor  = errors.New("invalid_color")
	ErrInvalidOrder  = errors.New("invalid_order")
	ErrInvalidNotes  = errors.New("invalid_notes")
	ErrDuplicateName = errors.New("duplicate_name")
	ErrNotFound      = errors.New("process_template_not_found")
)
