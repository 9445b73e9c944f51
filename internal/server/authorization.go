package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/pathway/internal/authorization"
	"github.com/smallbiznis/pathway/internal/orgcontext"
)

// authorizeOrgAction checks the caller's role in the organization named by
// the request.
func (s *Server) authorizeOrgAction(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, _ := orgcontext.OrgIDFromContext(c.Request.Context())
		if err := s.authorizeForOrg(c, orgID, object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// authorizePlatformAction checks the caller's role in the platform
// organization. The shared process-template catalog is governed there.
func (s *Server) authorizePlatformAction(object string, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.DefaultOrgID <= 0 {
			AbortWithError(c, ErrForbidden)
			return
		}
		if err := s.authorizeForOrg(c, snowflake.ID(s.cfg.DefaultOrgID), object, action); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

func (s *Server) authorizeForOrg(c *gin.Context, orgID snowflake.ID, object string, action string) error {
	userID, ok := orgcontext.ActorIDFromContext(c.Request.Context())
	if !ok {
		return ErrUnauthorized
	}
	if orgID == 0 {
		return ErrForbidden
	}
	if s.authzSvc == nil {
		return ErrForbidden
	}

	err := s.authzSvc.Authorize(c.Request.Context(), actorSubject(userID), orgID.String(), strings.TrimSpace(object), strings.TrimSpace(action))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, authorization.ErrForbidden):
		return ErrForbidden
	case errors.Is(err, authorization.ErrInvalidActor):
		return ErrUnauthorized
	default:
		return err
	}
}

func actorSubject(userID snowflake.ID) string {
	return fmt.Sprintf("user:%s", userID.String())
}
