package authorization

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	auditdomain "github.com/smallbiznis/pathway/internal/audit/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
	AuditSvc auditdomain.Service `optional:"true"`
}

type ServiceImpl struct {
	db       *gorm.DB
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
	auditSvc auditdomain.Service
}

func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	enforcer.BuildRoleLinks()
	return enforcer, nil
}

func NewService(p Params) Service {
	return &ServiceImpl{
		db:       p.DB,
		log:      p.Log.Named("authorization.service"),
		enforcer: p.Enforcer,
		auditSvc: p.AuditSvc,
	}
}

func (s *ServiceImpl) Authorize(ctx context.Context, actor string, orgID string, object string, action string) error {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return ErrInvalidActor
	}
	orgID = strings.TrimSpace(orgID)
	if orgID == "" {
		return ErrInvalidOrganization
	}
	object = strings.TrimSpace(object)
	if object == "" {
		return ErrInvalidObject
	}
	action = strings.TrimSpace(action)
	if action == "" {
		return ErrInvalidAction
	}

	subject, roleName, err := s.resolveActor(ctx, actor, orgID)
	if err != nil {
		s.auditDenied(ctx, actor, orgID, object, action)
		return err
	}

	domain := fmt.Sprintf("org:%s", orgID)
	if err := s.ensureGrouping(subject, roleName, domain); err != nil {
		return err
	}

	allowed, err := s.enforcer.Enforce(subject, domain, object, action)
	if err != nil {
		return err
	}
	if !allowed {
		s.log.Debug("authorization denied",
			zap.String("subject", subject),
			zap.String("org_id", orgID),
			zap.String("action", action),
		)
		s.auditDenied(ctx, subject, orgID, object, action)
		return ErrForbidden
	}
	return nil
}

func (s *ServiceImpl) resolveActor(ctx context.Context, actor string, orgID string) (string, string, error) {
	if actor == "system" {
		return actor, "role:system", nil
	}
	if !strings.HasPrefix(actor, "user:") {
		return "", "", ErrInvalidActor
	}

	userID, err := snowflake.ParseString(strings.TrimPrefix(actor, "user:"))
	if err != nil || userID <= 0 {
		return "", "", ErrInvalidActor
	}
	parsedOrgID, err := snowflake.ParseString(orgID)
	if err != nil || parsedOrgID <= 0 {
		return "", "", ErrInvalidOrganization
	}

	role, err := s.roleForUser(ctx, parsedOrgID, userID)
	if err != nil {
		return "", "", err
	}
	return fmt.Sprintf("user:%s", userID.String()), fmt.Sprintf("role:%s", strings.ToLower(role)), nil
}

func (s *ServiceImpl) roleForUser(ctx context.Context, orgID snowflake.ID, userID snowflake.ID) (string, error) {
	var row struct {
		Role string `gorm:"column:role"`
	}
	if err := s.db.WithContext(ctx).Raw(
		`SELECT role
		 FROM organization_members
		 WHERE org_id = ? AND user_id = ?
		 LIMIT 1`,
		orgID,
		userID,
	).Scan(&row).Error; err != nil {
		return "", err
	}

	role := strings.TrimSpace(row.Role)
	if role == "" {
		return "", ErrForbidden
	}
	return role, nil
}

// ensureGrouping keeps exactly one role link per subject and domain, so a
// changed membership role takes effect on the next request.
func (s *ServiceImpl) ensureGrouping(subject string, roleName string, domain string) error {
	existing, err := s.enforcer.GetFilteredGroupingPolicy(0, subject, "", domain)
	if err != nil {
		return err
	}
	for _, rule := range existing {
		if len(rule) < 2 || rule[1] == roleName {
			continue
		}
		params := make([]interface{}, 0, len(rule))
		for _, value := range rule {
			params = append(params, value)
		}
		if _, err := s.enforcer.RemoveGroupingPolicy(params...); err != nil {
			return err
		}
	}

	has, err := s.enforcer.HasGroupingPolicy(subject, roleName, domain)
	if err != nil {
		return err
	}
	if has {
		return nil
	}
	_, err = s.enforcer.AddGroupingPolicy(subject, roleName, domain)
	return err
}

func (s *ServiceImpl) auditDenied(ctx context.Context, subject string, orgID string, object string, action string) {
	if s.auditSvc == nil {
		return
	}
	targetID := "capability"
	if err := s.auditSvc.AuditLog(ctx, "authorization.denied", "authorization", &targetID, map[string]any{
		"object":  object,
		"action":  action,
		"org_id":  orgID,
		"subject": subject,
	}); err != nil {
		s.log.Warn("failed to audit denied authorization", zap.Error(err))
	}
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	viewer := [][]string{
		{ObjectRepresentingCountry, ActionRepresentingCountryView},
		{ObjectWorkflow, ActionWorkflowView},
		{ObjectProcessTemplate, ActionProcessTemplateView},
		{ObjectOrganizationMember, ActionOrganizationMemberView},
	}
	manager := append([][]string{
		{ObjectRepresentingCountry, ActionRepresentingCountryCreate},
		{ObjectRepresentingCountry, ActionRepresentingCountryUpdate},
		{ObjectRepresentingCountry, ActionRepresentingCountryDelete},
		{ObjectWorkflow, ActionWorkflowManage},
		{ObjectWorkflow, ActionWorkflowSeed},
		{ObjectProcessTemplate, ActionProcessTemplateManage},
		{ObjectAuditLog, ActionAuditLogView},
	}, viewer...)

	policies := make([][]string, 0, 32)
	for _, rule := range viewer {
		policies = append(policies, []string{"role:member", rule[0], rule[1]})
	}
	for _, rule := range manager {
		policies = append(policies, []string{"role:admin", rule[0], rule[1]})
		policies = append(policies, []string{"role:owner", rule[0], rule[1]})
	}
	policies = append(policies,
		[]string{"role:owner", ObjectOrganizationMember, ActionOrganizationMemberManage},
		// Backfill and bootstrap jobs.
		[]string{"role:system", ObjectWorkflow, ActionWorkflowSeed},
		[]string{"role:system", ObjectProcessTemplate, ActionProcessTemplateManage},
	)

	for _, policy := range policies {
		has, err := enforcer.HasPolicy(policy)
		if err != nil {
			return err
		}
		if has {
			continue
		}
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}
	return nil
}
