package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/pathway/internal/clock"
	"github.com/smallbiznis/pathway/internal/organization/domain"
	"github.com/smallbiznis/pathway/internal/organization/repository"
	"github.com/smallbiznis/pathway/internal/orgcontext"
	dbpkg "github.com/smallbiznis/pathway/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newOrganizationService(t *testing.T) domain.Service {
	t.Helper()
	db, err := dbpkg.NewTest()
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Organization{}, &domain.OrganizationMember{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)),
		Repo:  repository.NewRepository(db),
	})
}

func TestCreateMakesCallerOwner(t *testing.T) {
	svc := newOrganizationService(t)
	owner := snowflake.ID(100)

	org, err := svc.Create(context.Background(), owner, domain.CreateOrganizationRequest{Name: "Maple Study Abroad"})
	require.NoError(t, err)
	assert.Equal(t, "maple-study-abroad", org.Slug)

	orgID, ok := orgcontext.ParseID(org.ID)
	require.True(t, ok)
	ctx := orgcontext.WithOrgID(context.Background(), orgID)

	members, err := svc.ListMembers(ctx)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, domain.RoleOwner, members[0].Role)
	assert.Equal(t, "100", members[0].UserID)
}

func TestCreateRejectsDuplicateSlug(t *testing.T) {
	svc := newOrganizationService(t)

	_, err := svc.Create(context.Background(), 1, domain.CreateOrganizationRequest{Name: "Maple"})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), 2, domain.CreateOrganizationRequest{Name: "maple"})
	assert.ErrorIs(t, err, domain.ErrDuplicateSlug)
}

func TestMembersLifecycle(t *testing.T) {
	svc := newOrganizationService(t)

	org, err := svc.Create(context.Background(), 1, domain.CreateOrganizationRequest{Name: "Harbour Education"})
	require.NoError(t, err)
	orgID, _ := orgcontext.ParseID(org.ID)
	ctx := orgcontext.WithOrgID(context.Background(), orgID)

	_, err = svc.AddMember(ctx, domain.AddMemberRequest{UserID: "2", Role: "admin"})
	require.NoError(t, err)

	_, err = svc.AddMember(ctx, domain.AddMemberRequest{UserID: "2", Role: "member"})
	assert.ErrorIs(t, err, domain.ErrDuplicateMember)

	_, err = svc.AddMember(ctx, domain.AddMemberRequest{UserID: "3", Role: "superuser"})
	assert.ErrorIs(t, err, domain.ErrInvalidRole)

	err = svc.RemoveMember(ctx, "1")
	assert.ErrorIs(t, err, domain.ErrLastOwner)

	updated, err := svc.UpdateMemberRole(ctx, domain.UpdateMemberRoleRequest{UserID: "2", Role: "owner"})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleOwner, updated.Role)

	require.NoError(t, svc.RemoveMember(ctx, "1"))

	members, err := svc.ListMembers(ctx)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "2", members[0].UserID)
}

func TestEnsureOrganizationIsIdempotent(t *testing.T) {
	svc := newOrganizationService(t)
	ctx := context.Background()

	require.NoError(t, svc.EnsureOrganization(ctx, 7, "Platform", true))
	require.NoError(t, svc.EnsureOrganization(ctx, 7, "Platform", true))

	org, err := svc.Get(orgcontext.WithOrgID(ctx, 7))
	require.NoError(t, err)
	assert.True(t, org.IsDefault)
}
