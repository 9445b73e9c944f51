package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/pathway/internal/audit/domain"
	representingcountrydomain "github.com/smallbiznis/pathway/internal/representingcountry/domain"
)

func (s *Server) CreateRepresentingCountry(c *gin.Context) {
	var req representingcountrydomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.representingCountrySvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		targetID := resp.ID
		_ = s.auditSvc.AuditLog(c.Request.Context(), "representing_country.created", auditdomain.TargetRepresentingCountry, &targetID, map[string]any{
			"country_code": resp.CountryCode,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListRepresentingCountries(c *gin.Context) {
	var query struct {
		IsActive string `form:"is_active"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	isActive, err := parseOptionalBool(query.IsActive)
	if err != nil {
		AbortWithError(c, newValidationError("is_active", "invalid_is_active", "invalid is_active"))
		return
	}

	resp, err := s.representingCountrySvc.List(c.Request.Context(), representingcountrydomain.ListRequest{
		IsActive: isActive,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetRepresentingCountry(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.representingCountrySvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateRepresentingCountry(c *gin.Context) {
	var req representingcountrydomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.representingCountrySvc.Update(c.Request.Context(), id, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		_ = s.auditSvc.AuditLog(c.Request.Context(), "representing_country.updated", auditdomain.TargetRepresentingCountry, &id, map[string]any{
			"is_active": resp.IsActive,
		})
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteRepresentingCountry(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.representingCountrySvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	if s.auditSvc != nil {
		_ = s.auditSvc.AuditLog(c.Request.Context(), "representing_country.deleted", auditdomain.TargetRepresentingCountry, &id, nil)
	}

	c.Status(http.StatusNoContent)
}

func isRepresentingCountryValidationError(err error) bool {
	switch {
	case errors.Is(err, representingcountrydomain.ErrInvalidOrganization),
		errors.Is(err, representingcountrydomain.ErrInvalidCountryCode),
		errors.Is(err, representingcountrydomain.ErrInvalidCurrency),
		errors.Is(err, representingcountrydomain.ErrInvalidLivingCost),
		errors.Is(err, representingcountrydomain.ErrDuplicateCountry):
		return true
	default:
		return false
	}
}
