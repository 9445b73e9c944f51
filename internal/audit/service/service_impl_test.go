package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/pathway/internal/audit/domain"
	"github.com/smallbiznis/pathway/internal/audit/repository"
	"github.com/smallbiznis/pathway/internal/clock"
	obscontext "github.com/smallbiznis/pathway/internal/observability/context"
	"github.com/smallbiznis/pathway/internal/orgcontext"
	dbpkg "github.com/smallbiznis/pathway/pkg/db"
	"github.com/smallbiznis/pathway/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAuditService(t *testing.T) (*Service, *clock.FakeClock) {
	t.Helper()
	db, err := dbpkg.NewTest()
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&auditdomain.AuditLog{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fake := clock.NewFakeClock(time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC))

	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  repository.Provide(),
	}).(*Service)
	return svc, fake
}

func TestAuditLogTakesOrgAndActorFromContext(t *testing.T) {
	svc, _ := newAuditService(t)

	ctx := orgcontext.WithOrgID(context.Background(), snowflake.ID(10))
	ctx = orgcontext.WithActorID(ctx, snowflake.ID(20))
	ctx = obscontext.WithRequestID(ctx, "req-42")

	target := "555"
	require.NoError(t, svc.AuditLog(ctx, "workflow.status.add", "workflow_status", &target, map[string]any{"order": 13}))

	resp, err := svc.List(ctx, auditdomain.ListAuditLogRequest{})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)

	entry := resp.AuditLogs[0]
	assert.Equal(t, "user", entry.ActorType)
	require.NotNil(t, entry.ActorID)
	assert.Equal(t, "20", *entry.ActorID)
	assert.Equal(t, "req-42", entry.Metadata["request_id"])
	assert.Equal(t, "555", *entry.TargetID)
}

func TestAuditLogRequiresAction(t *testing.T) {
	svc, _ := newAuditService(t)
	err := svc.AuditLog(context.Background(), "  ", "workflow_status", nil, nil)
	assert.ErrorIs(t, err, auditdomain.ErrInvalidAction)
}

func TestListIsScopedAndPaged(t *testing.T) {
	svc, fake := newAuditService(t)

	orgA := orgcontext.WithOrgID(context.Background(), snowflake.ID(1))
	orgB := orgcontext.WithOrgID(context.Background(), snowflake.ID(2))
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.AuditLog(orgA, "representing_country.create", "representing_country", nil, nil))
		fake.Advance(time.Minute)
	}
	require.NoError(t, svc.AuditLog(orgB, "representing_country.create", "representing_country", nil, nil))

	first, err := svc.List(orgA, auditdomain.ListAuditLogRequest{Pagination: pagination.Pagination{PageSize: 2}})
	require.NoError(t, err)
	require.Len(t, first.AuditLogs, 2)
	require.True(t, first.HasMore)

	second, err := svc.List(orgA, auditdomain.ListAuditLogRequest{Pagination: pagination.Pagination{
		PageSize:  2,
		PageToken: first.NextPageToken,
	}})
	require.NoError(t, err)
	require.Len(t, second.AuditLogs, 1)
	assert.False(t, second.HasMore)
	assert.True(t, second.AuditLogs[0].CreatedAt.Before(first.AuditLogs[1].CreatedAt))
}

func TestListRejectsBadToken(t *testing.T) {
	svc, _ := newAuditService(t)
	ctx := orgcontext.WithOrgID(context.Background(), snowflake.ID(1))

	_, err := svc.List(ctx, auditdomain.ListAuditLogRequest{Pagination: pagination.Pagination{PageToken: "%%%"}})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidPageToken)
}

func TestAuditLogRejectsUnknownTarget(t *testing.T) {
	svc, _ := newAuditService(t)
	ctx := orgcontext.WithOrgID(context.Background(), snowflake.ID(1))

	err := svc.AuditLog(ctx, "invoice.created", "invoice", nil, nil)
	assert.ErrorIs(t, err, auditdomain.ErrInvalidTargetType)

	_, err = svc.List(ctx, auditdomain.ListAuditLogRequest{TargetType: "invoice"})
	assert.ErrorIs(t, err, auditdomain.ErrInvalidTargetType)
}

func TestListFiltersByActorAndTarget(t *testing.T) {
	svc, _ := newAuditService(t)
	org := orgcontext.WithOrgID(context.Background(), snowflake.ID(1))
	alice := orgcontext.WithActorID(org, snowflake.ID(100))
	bob := orgcontext.WithActorID(org, snowflake.ID(200))

	status := "7"
	require.NoError(t, svc.AuditLog(alice, "workflow.status_added", auditdomain.TargetWorkflowStatus, &status, nil))
	require.NoError(t, svc.AuditLog(bob, "workflow.status_renamed", auditdomain.TargetWorkflowStatus, &status, nil))
	require.NoError(t, svc.AuditLog(bob, "representing_country.created", auditdomain.TargetRepresentingCountry, nil, nil))

	resp, err := svc.List(org, auditdomain.ListAuditLogRequest{ActorID: "200"})
	require.NoError(t, err)
	assert.Len(t, resp.AuditLogs, 2)

	resp, err = svc.List(org, auditdomain.ListAuditLogRequest{ActorID: "200", TargetType: auditdomain.TargetWorkflowStatus, TargetID: status})
	require.NoError(t, err)
	require.Len(t, resp.AuditLogs, 1)
	assert.Equal(t, "workflow.status_renamed", resp.AuditLogs[0].Action)
}
