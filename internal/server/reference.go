package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListCountries backs the representing-country picker.
func (s *Server) ListCountries(c *gin.Context) {
	countries, err := s.refrepo.ListCountries(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": countries})
}

func (s *Server) GetCountry(c *gin.Context) {
	country, err := s.refrepo.FindCountry(c.Request.Context(), c.Param("code"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if country == nil {
		AbortWithError(c, ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": country})
}

// ListCurrencies omits retired currencies; they cannot be chosen for living
// costs.
func (s *Server) ListCurrencies(c *gin.Context) {
	currencies, err := s.refrepo.ListCurrencies(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": currencies})
}
