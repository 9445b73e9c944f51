package orgcontext

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
)

type orgKey struct{}

type actorKey struct{}

// WithOrgID stores the active organization in the context.
func WithOrgID(ctx context.Context, orgID snowflake.ID) context.Context {
	return context.WithValue(ctx, orgKey{}, orgID)
}

// OrgIDFromContext returns the active organization, if set.
func OrgIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	if ctx == nil {
		return 0, false
	}
	id, ok := ctx.Value(orgKey{}).(snowflake.ID)
	if !ok || id == 0 {
		return 0, false
	}
	return id, true
}

// WithActorID stores the calling user in the context.
func WithActorID(ctx context.Context, userID snowflake.ID) context.Context {
	return context.WithValue(ctx, actorKey{}, userID)
}

// ActorIDFromContext returns the calling user, if set.
func ActorIDFromContext(ctx context.Context) (snowflake.ID, bool) {
	if ctx == nil {
		return 0, false
	}
	id, ok := ctx.Value(actorKey{}).(snowflake.ID)
	if !ok || id == 0 {
		return 0, false
	}
	return id, true
}

// ParseID parses a header or path value into a snowflake id.
func ParseID(raw string) (snowflake.ID, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	id, err := snowflake.ParseString(raw)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
