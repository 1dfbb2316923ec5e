package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	tierdomain "github.com/smallbiznis/affina/internal/commissiontier/domain"
)

func (s *Server) ListCommissionTiers(c *gin.Context) {
	tiers, err := s.tierSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tiers": tiers})
}

func (s *Server) CreateCommissionTier(c *gin.Context) {
	var req tierdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	tier, err := s.tierSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, tier)
}

func (s *Server) GetCommissionTier(c *gin.Context) {
	tier, err := s.tierSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, tier)
}

func (s *Server) UpdateCommissionTier(c *gin.Context) {
	var req tierdomain.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ID = c.Param("id")

	tier, err := s.tierSvc.Update(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, tier)
}

func (s *Server) DeleteCommissionTier(c *gin.Context) {
	if err := s.tierSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
