package authorization

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	dbpkg "github.com/smallbiznis/pathway/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type memberRow struct {
	ID     snowflake.ID `gorm:"primaryKey"`
	OrgID  snowflake.ID
	UserID snowflake.ID
	Role   string
}

func (memberRow) TableName() string { return "organization_members" }

func newAuthorizationService(t *testing.T) (*ServiceImpl, *gorm.DB) {
	t.Helper()
	db, err := dbpkg.NewTest()
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&memberRow{}))

	enforcer, err := NewEnforcer(db)
	require.NoError(t, err)

	svc := NewService(Params{DB: db, Log: zap.NewNop(), Enforcer: enforcer}).(*ServiceImpl)
	return svc, db
}

func TestAuthorizeByMembershipRole(t *testing.T) {
	svc, db := newAuthorizationService(t)
	require.NoError(t, db.Create(&memberRow{ID: 1, OrgID: 10, UserID: 100, Role: "MEMBER"}).Error)
	require.NoError(t, db.Create(&memberRow{ID: 2, OrgID: 10, UserID: 200, Role: "ADMIN"}).Error)
	ctx := context.Background()

	require.NoError(t, svc.Authorize(ctx, "user:100", "10", ObjectWorkflow, ActionWorkflowView))
	assert.ErrorIs(t, svc.Authorize(ctx, "user:100", "10", ObjectWorkflow, ActionWorkflowManage), ErrForbidden)

	require.NoError(t, svc.Authorize(ctx, "user:200", "10", ObjectWorkflow, ActionWorkflowManage))
	assert.ErrorIs(t, svc.Authorize(ctx, "user:200", "10", ObjectOrganizationMember, ActionOrganizationMemberManage), ErrForbidden)
}

func TestAuthorizeRejectsNonMembers(t *testing.T) {
	svc, db := newAuthorizationService(t)
	require.NoError(t, db.Create(&memberRow{ID: 1, OrgID: 10, UserID: 100, Role: "OWNER"}).Error)

	err := svc.Authorize(context.Background(), "user:100", "11", ObjectWorkflow, ActionWorkflowView)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAuthorizeFollowsRoleChanges(t *testing.T) {
	svc, db := newAuthorizationService(t)
	require.NoError(t, db.Create(&memberRow{ID: 1, OrgID: 10, UserID: 100, Role: "OWNER"}).Error)
	ctx := context.Background()

	require.NoError(t, svc.Authorize(ctx, "user:100", "10", ObjectRepresentingCountry, ActionRepresentingCountryDelete))

	require.NoError(t, db.Model(&memberRow{}).Where("id = ?", 1).Update("role", "MEMBER").Error)
	assert.ErrorIs(t, svc.Authorize(ctx, "user:100", "10", ObjectRepresentingCountry, ActionRepresentingCountryDelete), ErrForbidden)
}

func TestAuthorizeSystemActor(t *testing.T) {
	svc, _ := newAuthorizationService(t)
	ctx := context.Background()

	require.NoError(t, svc.Authorize(ctx, "system", "10", ObjectWorkflow, ActionWorkflowSeed))
	assert.ErrorIs(t, svc.Authorize(ctx, "system", "10", ObjectRepresentingCountry, ActionRepresentingCountryDelete), ErrForbidden)
}

func TestAuthorizeValidatesInput(t *testing.T) {
	svc, _ := newAuthorizationService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Authorize(ctx, "", "10", ObjectWorkflow, ActionWorkflowView), ErrInvalidActor)
	assert.ErrorIs(t, svc.Authorize(ctx, "robot:1", "10", ObjectWorkflow, ActionWorkflowView), ErrInvalidActor)
	assert.ErrorIs(t, svc.Authorize(ctx, "user:1", "", ObjectWorkflow, ActionWorkflowView), ErrInvalidOrganization)
	assert.ErrorIs(t, svc.Authorize(ctx, "user:1", "abc", ObjectWorkflow, ActionWorkflowView), ErrInvalidOrganization)
	assert.ErrorIs(t, svc.Authorize(ctx, "user:1", "10", "", ActionWorkflowView), ErrInvalidObject)
	assert.ErrorIs(t, svc.Authorize(ctx, "user:1", "10", ObjectWorkflow, ""), ErrInvalidAction)
}

func TestNewEnforcerIsIdempotent(t *testing.T) {
	db, err := dbpkg.NewTest()
	require.NoError(t, err)

	first, err := NewEnforcer(db)
	require.NoError(t, err)
	before, err := first.GetPolicy()
	require.NoError(t, err)

	second, err := NewEnforcer(db)
	require.NoError(t, err)
	after, err := second.GetPolicy()
	require.NoError(t, err)

	assert.Len(t, after, len(before))
}
