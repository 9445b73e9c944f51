package authorization

import (
	"context"
	"errors"
)

const (
	ObjectRepresentingCountry = "representing_country"
	ObjectWorkflow            = "workflow"
	ObjectProcessTemplate     = "process_template"
	ObjectAuditLog            = "audit_log"
	ObjectOrganizationMember  = "organization_member"
)

const (
	ActionRepresentingCountryView   = "representing_country.view"
	ActionRepresentingCountryCreate = "representing_country.create"
	ActionRepresentingCountryUpdate = "representing_country.update"
	ActionRepresentingCountryDelete = "representing_country.delete"

	ActionWorkflowView   = "workflow.view"
	ActionWorkflowManage = "workflow.manage"
	ActionWorkflowSeed   = "workflow.seed"

	ActionProcessTemplateView   = "process_template.view"
	ActionProcessTemplateManage = "process_template.manage"

	ActionAuditLogView = "audit_log.view"

	ActionOrganizationMemberView   = "organization_member.view"
	ActionOrganizationMemberManage = "organization_member.manage"
)

// Service decides whether an actor may perform an action inside an
// organization. Actors are "user:<id>" or "system".
type Service interface {
	Authorize(ctx context.Context, actor string, orgID string, object string, action string) error
}

var (
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidActor        = errors.New("invalid_actor")
	ErrInvalidOrganization = errors.New("invalid_organization")
	ErrInvalidObject       = errors.New("invalid_object")
	ErrInvalidAction       = errors.New("invalid_action")
)
