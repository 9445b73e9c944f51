package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/pathway/pkg/db/pagination"
)

// Target types recorded on audit entries.
const (
	TargetAuthorization       = "authorization"
	TargetOrganization        = "organization"
	TargetOrganizationMember  = "organization_member"
	TargetProcessTemplate     = "process_template"
	TargetRepresentingCountry = "representing_country"
	TargetWorkflowStatus      = "workflow_status"
	TargetWorkflowSubStatus   = "workflow_sub_status"
)

var knownTargets = map[string]struct{}{
	TargetAuthorization:       {},
	TargetOrganization:        {},
	TargetOrganizationMember:  {},
	TargetProcessTemplate:     {},
	TargetRepresentingCountry: {},
	TargetWorkflowStatus:      {},
	TargetWorkflowSubStatus:   {},
}

func IsKnownTarget(targetType string) bool {
	_, ok := knownTargets[targetType]
	return ok
}

// ListAuditLogRequest filters the organization's trail. Empty fields match
// everything.
type ListAuditLogRequest struct {
	pagination.Pagination
	ActorID    string
	Action     string
	TargetType string
	TargetID   string
	StartAt    *time.Time
	EndAt      *time.Time
}

type ListAuditLogResponse struct {
	pagination.PageInfo
	AuditLogs []AuditLog `json:"audit_logs"`
}

// Service writes and reads the audit trail. The organization and actor are
// taken from the context.
type Service interface {
	AuditLog(ctx context.Context, action string, targetType string, targetID *string, metadata map[string]any) error
	List(ctx context.Context, req ListAuditLogRequest) (ListAuditLogResponse, error)
}

var (
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidPageToken    = errors.New("invalid_page_token")
	ErrInvalidTimeRange    = errors.New("invalid_time_range")
	ErrInvalidAction       = errors.New("invalid_action")
	ErrInvalidTargetType   = errors.New("invalid_target_type")
)
