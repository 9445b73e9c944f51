package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/pathway/internal/audit/domain"
	workflowdomain "github.com/smallbiznis/pathway/internal/workflow/domain"
)

func (s *Server) ListWorkflow(c *gin.Context) {
	var query struct {
		WithTrashed string `form:"with_trashed"`
		ActiveOnly  string `form:"active_only"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	withTrashed, err := parseFlag(query.WithTrashed)
	if err != nil {
		AbortWithError(c, newValidationError("with_trashed", "invalid_with_trashed", "invalid with_trashed"))
		return
	}
	activeOnly, err := parseFlag(query.ActiveOnly)
	if err != nil {
		AbortWithError(c, newValidationError("active_only", "invalid_active_only", "invalid active_only"))
		return
	}

	resp, err := s.workflowSvc.ListWorkflow(c.Request.Context(), representingCountryParam(c), workflowdomain.ListWorkflowRequest{
		WithTrashed: withTrashed,
		ActiveOnly:  activeOnly,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SeedWorkflow(c *gin.Context) {
	rcID := representingCountryParam(c)
	resp, err := s.workflowSvc.SeedWorkflow(c.Request.Context(), rcID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditWorkflow(c, "workflow.seeded", auditdomain.TargetRepresentingCountry, rcID, map[string]any{
		"statuses": len(resp),
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AddStatus(c *gin.Context) {
	var req workflowdomain.AddStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.RepresentingCountryID = representingCountryParam(c)

	resp, err := s.workflowSvc.AddStatus(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditWorkflow(c, "workflow.status_added", auditdomain.TargetWorkflowStatus, resp.ID, map[string]any{
		"representing_country_id": resp.RepresentingCountryID,
		"status_name":             resp.StatusName,
		"order":                   resp.Order,
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) RenameStatus(c *gin.Context) {
	var req workflowdomain.RenameStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.RepresentingCountryID = representingCountryParam(c)
	req.StatusID = strings.TrimSpace(c.Param("status_id"))

	resp, err := s.workflowSvc.RenameStatus(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditWorkflow(c, "workflow.status_renamed", auditdomain.TargetWorkflowStatus, resp.ID, map[string]any{
		"representing_country_id": resp.RepresentingCountryID,
		"display_name":            resp.DisplayName,
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateStatusNotes(c *gin.Context) {
	var req workflowdomain.UpdateStatusNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.RepresentingCountryID = representingCountryParam(c)
	req.StatusID = strings.TrimSpace(c.Param("status_id"))

	resp, err := s.workflowSvc.UpdateStatusNotes(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditWorkflow(c, "workflow.status_notes_updated", auditdomain.TargetWorkflowStatus, resp.ID, map[string]any{
		"representing_country_id": resp.RepresentingCountryID,
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ToggleStatusActive(c *gin.Context) {
	resp, err := s.workflowSvc.ToggleStatusActive(c.Request.Context(), statusRefParams(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditWorkflow(c, "workflow.status_toggled", auditdomain.TargetWorkflowStatus, resp.ID, map[string]any{
		"representing_country_id": resp.RepresentingCountryID,
		"is_active":               resp.IsActive,
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteStatus(c *gin.Context) {
	ref := statusRefParams(c)
	if err := s.workflowSvc.DeleteStatus(c.Request.Context(), ref); err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditWorkflow(c, "workflow.status_deleted", auditdomain.TargetWorkflowStatus, ref.StatusID, map[string]any{
		"representing_country_id": ref.RepresentingCountryID,
	})

	c.Status(http.StatusNoContent)
}

func (s *Server) ReorderStatuses(c *gin.Context) {
	var req workflowdomain.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.RepresentingCountryID = representingCountryParam(c)

	resp, err := s.workflowSvc.ReorderStatuses(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditWorkflow(c, "workflow.statuses_reordered", auditdomain.TargetRepresentingCountry, req.RepresentingCountryID, map[string]any{
		"count": len(req.Orders),
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) AddSubStatus(c *gin.Context) {
	var req workflowdomain.AddSubStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.RepresentingCountryID = representingCountryParam(c)
	req.StatusID = strings.TrimSpace(c.Param("status_id"))

	resp, err := s.workflowSvc.AddSubStatus(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditWorkflow(c, "workflow.sub_status_added", auditdomain.TargetWorkflowSubStatus, resp.ID, map[string]any{
		"status_id": resp.StatusID,
		"name":      resp.Name,
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) EditSubStatus(c *gin.Context) {
	var req workflowdomain.EditSubStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.RepresentingCountryID = representingCountryParam(c)
	req.StatusID = strings.TrimSpace(c.Param("status_id"))
	req.SubStatusID = strings.TrimSpace(c.Param("sub_status_id"))

	resp, err := s.workflowSvc.EditSubStatus(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditWorkflow(c, "workflow.sub_status_updated", auditdomain.TargetWorkflowSubStatus, resp.ID, map[string]any{
		"status_id": resp.StatusID,
		"name":      resp.Name,
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ToggleSubStatusActive(c *gin.Context) {
	resp, err := s.workflowSvc.ToggleSubStatusActive(c.Request.Context(), subStatusRefParams(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditWorkflow(c, "workflow.sub_status_toggled", auditdomain.TargetWorkflowSubStatus, resp.ID, map[string]any{
		"status_id": resp.StatusID,
		"is_active": resp.IsActive,
	})

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteSubStatus(c *gin.Context) {
	ref := subStatusRefParams(c)
	if err := s.workflowSvc.DeleteSubStatus(c.Request.Context(), ref); err != nil {
		AbortWithError(c, err)
		return
	}

	s.auditWorkflow(c, "workflow.sub_status_deleted", auditdomain.TargetWorkflowSubStatus, ref.SubStatusID, map[string]any{
		"status_id": ref.StatusID,
	})

	c.Status(http.StatusNoContent)
}

func (s *Server) auditWorkflow(c *gin.Context, action, targetType, targetID string, metadata map[string]any) {
	if s.auditSvc == nil {
		return
	}
	_ = s.auditSvc.AuditLog(c.Request.Context(), action, targetType, &targetID, metadata)
}

func representingCountryParam(c *gin.Context) string {
	return strings.TrimSpace(c.Param("id"))
}

func statusRefParams(c *gin.Context) workflowdomain.StatusRef {
	return workflowdomain.StatusRef{
		RepresentingCountryID: representingCountryParam(c),
		StatusID:              strings.TrimSpace(c.Param("status_id")),
	}
}

func subStatusRefParams(c *gin.Context) workflowdomain.SubStatusRef {
	return workflowdomain.SubStatusRef{
		RepresentingCountryID: representingCountryParam(c),
		StatusID:              strings.TrimSpace(c.Param("status_id")),
		SubStatusID:           strings.TrimSpace(c.Param("sub_status_id")),
	}
}

func isWorkflowValidationError(err error) bool {
	switch {
	case errors.Is(err, workflowdomain.ErrInvalidOrganization),
		errors.Is(err, workflowdomain.ErrInvalidStatusName),
		errors.Is(err, workflowdomain.ErrInvalidCustomName),
		errors.Is(err, workflowdomain.ErrDuplicateStatusName),
		errors.Is(err, workflowdomain.ErrSystemStatusLocked),
		errors.Is(err, workflowdomain.ErrInvalidStatusOrders),
		errors.Is(err, workflowdomain.ErrInvalidOrder),
		errors.Is(err, workflowdomain.ErrInvalidStatusID),
		errors.Is(err, workflowdomain.ErrInvalidSubStatusName),
		errors.Is(err, workflowdomain.ErrDuplicateSubStatusName):
		return true
	default:
		return false
	}
}
