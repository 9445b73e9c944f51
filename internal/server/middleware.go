package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/pathway/internal/orgcontext"
)

// Identity headers are set by the upstream gateway after authentication.
const (
	HeaderOrg  = "X-Org-Id"
	HeaderUser = "X-User-Id"
)

// Identity copies the gateway identity headers into the request context.
// Malformed values are ignored and treated as absent.
func (s *Server) Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		if userID, ok := orgcontext.ParseID(c.GetHeader(HeaderUser)); ok {
			ctx = orgcontext.WithActorID(ctx, userID)
		}
		if orgID, ok := orgcontext.ParseID(c.GetHeader(HeaderOrg)); ok {
			ctx = orgcontext.WithOrgID(ctx, orgID)
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Server) ActorRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := orgcontext.ActorIDFromContext(c.Request.Context()); !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}

func (s *Server) OrgRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := orgcontext.OrgIDFromContext(c.Request.Context()); !ok {
			if strings.TrimSpace(c.GetHeader(HeaderOrg)) == "" {
				AbortWithError(c, newValidationError("org_id", "invalid_organization", "missing "+HeaderOrg+" header"))
				return
			}
			AbortWithError(c, newValidationError("org_id", "invalid_organization", "invalid "+HeaderOrg+" header"))
			return
		}
		c.Next()
	}
}
