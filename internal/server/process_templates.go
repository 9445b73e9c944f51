package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/pathway/internal/audit/domain"
	processtemplatedomain "github.com/smallbiznis/pathway/internal/processtemplate/domain"
)

func (s *Server) ListProcessTemplates(c *gin.Context) {
	resp, err := s.processTemplateSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateProcessTemplate(c *gin.Context) {
	var req processtemplatedomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.Name = strings.TrimSpace(req.Name)

	resp, err := s.processTemplateSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		targetID := resp.ID
		_ = s.auditSvc.AuditLog(c.Request.Context(), "process_template.created", auditdomain.TargetProcessTemplate, &targetID, map[string]any{
			"name":  resp.Name,
			"order": resp.Order,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateProcessTemplate(c *gin.Context) {
	var req processtemplatedomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.processTemplateSvc.Update(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		_ = s.auditSvc.AuditLog(c.Request.Context(), "process_template.updated", auditdomain.TargetProcessTemplate, &id, map[string]any{
			"color": resp.Color,
			"order": resp.Order,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteProcessTemplate(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.processTemplateSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		_ = s.auditSvc.AuditLog(c.Request.Context(), "process_template.deleted", auditdomain.TargetProcessTemplate, &id, nil)
	}

	c.Status(http.StatusNoContent)
}

func (s *Server) UpdateProcessTemplateNotes(c *gin.Context) {
	var req processtemplatedomain.UpdateNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.processTemplateSvc.UpdateNotes(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		_ = s.auditSvc.AuditLog(c.Request.Context(), "process_template.notes_updated", auditdomain.TargetProcessTemplate, nil, map[string]any{
			"count": len(req.Notes),
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func isProcessTemplateValidationError(err error) bool {
	switch {
	case errors.Is(err, processtemplatedomain.ErrInvalidName),
		errors.Is(err, processtemplatedomain.ErrInvalidColor),
		errors.Is(err, processtemplatedomain.ErrInvalidOrder),
		errors.Is(err, processtemplatedomain.ErrInvalidNotes),
		errors.Is(err, processtemplatedomain.ErrDuplicateName):
		return true
	default:
		return false
	}
}
