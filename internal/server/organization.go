package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/pathway/internal/audit/domain"
	organizationdomain "github.com/smallbiznis/pathway/internal/organization/domain"
	"github.com/smallbiznis/pathway/internal/orgcontext"
)

type createOrganizationRequest struct {
	Name string `json:"name"`
}

type addMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type updateMemberRoleRequest struct {
	Role string `json:"role"`
}

// CreateOrganization creates a tenant and makes the caller its owner. It
// needs no organization header.
func (s *Server) CreateOrganization(c *gin.Context) {
	userID, ok := orgcontext.ActorIDFromContext(c.Request.Context())
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.organizationSvc.Create(c.Request.Context(), userID, organizationdomain.CreateOrganizationRequest{
		Name: strings.TrimSpace(req.Name),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		targetID := resp.ID
		ctx := orgcontext.WithOrgID(c.Request.Context(), parseIDOrZero(resp.ID))
		_ = s.auditSvc.AuditLog(ctx, "organization.created", auditdomain.TargetOrganization, &targetID, map[string]any{
			"name": resp.Name,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetOrganization(c *gin.Context) {
	resp, err := s.organizationSvc.Get(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListOrganizationMembers(c *gin.Context) {
	members, err := s.organizationSvc.ListMembers(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": members})
}

func (s *Server) AddOrganizationMember(c *gin.Context) {
	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.organizationSvc.AddMember(c.Request.Context(), organizationdomain.AddMemberRequest{
		UserID: strings.TrimSpace(req.UserID),
		Role:   strings.TrimSpace(req.Role),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		targetID := resp.UserID
		_ = s.auditSvc.AuditLog(c.Request.Context(), "organization_member.added", auditdomain.TargetOrganizationMember, &targetID, map[string]any{
			"role": resp.Role,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateOrganizationMemberRole(c *gin.Context) {
	var req updateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	userID := strings.TrimSpace(c.Param("user_id"))
	resp, err := s.organizationSvc.UpdateMemberRole(c.Request.Context(), organizationdomain.UpdateMemberRoleRequest{
		UserID: userID,
		Role:   strings.TrimSpace(req.Role),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		_ = s.auditSvc.AuditLog(c.Request.Context(), "organization_member.role_updated", auditdomain.TargetOrganizationMember, &userID, map[string]any{
			"role": resp.Role,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RemoveOrganizationMember(c *gin.Context) {
	userID := strings.TrimSpace(c.Param("user_id"))
	if err := s.organizationSvc.RemoveMember(c.Request.Context(), userID); err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		_ = s.auditSvc.AuditLog(c.Request.Context(), "organization_member.removed", auditdomain.TargetOrganizationMember, &userID, nil)
	}

	c.Status(http.StatusNoContent)
}

func parseIDOrZero(raw string) snowflake.ID {
	id, _ := orgcontext.ParseID(raw)
	return id
}

func isOrganizationValidationError(err error) bool {
	switch {
	case errors.Is(err, organizationdomain.ErrInvalidName),
		errors.Is(err, organizationdomain.ErrInvalidUser),
		errors.Is(err, organizationdomain.ErrInvalidOrganization),
		errors.Is(err, organizationdomain.ErrInvalidRole),
		errors.Is(err, organizationdomain.ErrDuplicateMember),
		errors.Is(err, organizationdomain.ErrDuplicateSlug),
		errors.Is(err, organizationdomain.ErrLastOwner):
		return true
	default:
		return false
	}
}
