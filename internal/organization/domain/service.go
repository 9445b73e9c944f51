package domain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	RoleOwner  = "OWNER"
	RoleAdmin  = "ADMIN"
	RoleMember = "MEMBER" // read-only
)

// NormalizeRole maps user input to a known role, or "" when unknown.
func NormalizeRole(raw string) string {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case RoleOwner:
		return RoleOwner
	case RoleAdmin:
		return RoleAdmin
	case RoleMember:
		return RoleMember
	default:
		return ""
	}
}

type Service interface {
	Create(ctx context.Context, userID snowflake.ID, req CreateOrganizationRequest) (*OrganizationResponse, error)
	// EnsureOrganization creates the organization with the given id when it
	// does not exist yet. Used for the platform organization at bootstrap.
	EnsureOrganization(ctx context.Context, id snowflake.ID, name string, isDefault bool) error
	Get(ctx context.Context) (*OrganizationResponse, error)
	ListMembers(ctx context.Context) ([]MemberResponse, error)
	AddMember(ctx context.Context, req AddMemberRequest) (*MemberResponse, error)
	UpdateMemberRole(ctx context.Context, req UpdateMemberRoleRequest) (*MemberResponse, error)
	RemoveMember(ctx context.Context, userID string) error
}

type CreateOrganizationRequest struct {
	Name string
}

type AddMemberRequest struct {
	UserID string
	Role   string
}

type UpdateMemberRoleRequest struct {
	UserID string
	Role   string
}

type OrganizationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
}

type MemberResponse struct {
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

var (
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidUser         = errors.New("invalid_user")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidRole         = errors.New("invalid_role")
	ErrDuplicateMember     = errors.New("duplicate_member")
	ErrDuplicateSlug       = errors.New("duplicate_slug")
	ErrLastOwner           = errors.New("last_owner")
	ErrNotFound            = errors.New("organization_not_found")
	ErrMemberNotFound      = errors.New("member_not_found")
)
