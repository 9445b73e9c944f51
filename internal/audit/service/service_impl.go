package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/pathway/internal/audit/domain"
	"github.com/smallbiznis/pathway/internal/clock"
	obscontext "github.com/smallbiznis/pathway/internal/observability/context"
	"github.com/smallbiznis/pathway/internal/orgcontext"
	"github.com/smallbiznis/pathway/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  auditdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  auditdomain.Repository
}

func NewService(p Params) auditdomain.Service {
	c := p.Clock
	if c == nil {
		c = clock.New()
	}
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("audit.service"),
		genID: p.GenID,
		clock: c,
		repo:  p.Repo,
	}
}

func (s *Service) AuditLog(ctx context.Context, action string, targetType string, targetID *string, metadata map[string]any) error {
	action = strings.TrimSpace(action)
	if action == "" {
		return auditdomain.ErrInvalidAction
	}

	targetType = strings.TrimSpace(targetType)
	if !auditdomain.IsKnownTarget(targetType) {
		return auditdomain.ErrInvalidTargetType
	}

	payload := map[string]any{}
	for key, value := range metadata {
		if key == "" {
			continue
		}
		payload[key] = value
	}
	if requestID := obscontext.RequestIDFromContext(ctx); requestID != "" {
		payload["request_id"] = requestID
	}

	entry := auditdomain.AuditLog{
		ID:         s.genID.Generate(),
		ActorType:  string(auditdomain.ActorTypeSystem),
		Action:     action,
		TargetType: targetType,
		TargetID:   normalizePointer(targetID),
		Metadata:   datatypes.JSONMap(payload),
		CreatedAt:  s.clock.Now(),
	}
	if orgID, ok := orgcontext.OrgIDFromContext(ctx); ok {
		entry.OrgID = &orgID
	}
	if actorID, ok := orgcontext.ActorIDFromContext(ctx); ok {
		id := actorID.String()
		entry.ActorType = string(auditdomain.ActorTypeUser)
		entry.ActorID = &id
	}
	if ip := obscontext.IPAddressFromContext(ctx); ip != "" {
		entry.IPAddress = &ip
	}
	if ua := obscontext.UserAgentFromContext(ctx); ua != "" {
		entry.UserAgent = &ua
	}

	if err := s.repo.Insert(ctx, s.db, &entry); err != nil {
		s.log.Warn("failed to write audit log", zap.String("action", action), zap.Error(err))
		return err
	}
	return nil
}

func (s *Service) List(ctx context.Context, req auditdomain.ListAuditLogRequest) (auditdomain.ListAuditLogResponse, error) {
	orgID, ok := orgcontext.OrgIDFromContext(ctx)
	if !ok {
		return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidOrganization
	}

	if targetType := strings.TrimSpace(req.TargetType); targetType != "" && !auditdomain.IsKnownTarget(targetType) {
		return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidTargetType
	}
	if req.StartAt != nil && req.EndAt != nil && req.StartAt.After(*req.EndAt) {
		return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidTimeRange
	}

	var cursor *auditdomain.AuditCursor
	if strings.TrimSpace(req.PageToken) != "" {
		decoded, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidPageToken
		}
		createdAt, err := time.Parse(time.RFC3339Nano, decoded.CreatedAt)
		if err != nil {
			return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidPageToken
		}
		id, ok := orgcontext.ParseID(decoded.ID)
		if !ok {
			return auditdomain.ListAuditLogResponse{}, auditdomain.ErrInvalidPageToken
		}
		cursor = &auditdomain.AuditCursor{ID: id, CreatedAt: createdAt}
	}

	pageSize := req.Size()
	items, err := s.repo.List(ctx, s.db, auditdomain.ListFilter{
		OrgID:      orgID,
		ActorID:    req.ActorID,
		Action:     req.Action,
		TargetType: req.TargetType,
		TargetID:   req.TargetID,
		StartAt:    req.StartAt,
		EndAt:      req.EndAt,
		Cursor:     cursor,
		Limit:      pageSize,
	})
	if err != nil {
		return auditdomain.ListAuditLogResponse{}, err
	}

	items, pageInfo := pagination.Page(items, pageSize, func(item auditdomain.AuditLog) pagination.Cursor {
		return pagination.Cursor{
			ID:        item.ID.String(),
			CreatedAt: item.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
	})

	return auditdomain.ListAuditLogResponse{PageInfo: pageInfo, AuditLogs: items}, nil
}

func normalizePointer(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
