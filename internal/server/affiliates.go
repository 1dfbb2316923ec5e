package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	affiliatedomain "github.com/smallbiznis/affina/internal/affiliate/domain"
	commissiondomain "github.com/smallbiznis/affina/internal/commission/domain"
	"github.com/smallbiznis/affina/pkg/db/pagination"
)

func (s *Server) ListAffiliates(c *gin.Context) {
	var query pagination.Pagination
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	affiliates, err := s.affiliateSvc.List(c.Request.Context(), affiliatedomain.ListRequest{
		PageToken: query.PageToken,
		PageSize:  query.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, affiliates)
}

func (s *Server) GetAffiliate(c *gin.Context) {
	affiliate, err := s.affiliateSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, affiliate)
}

func (s *Server) InviteAffiliate(c *gin.Context) {
	var req affiliatedomain.InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	invite, err := s.affiliateSvc.Invite(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, invite)
}

func (s *Server) AcceptAffiliateInvite(c *gin.Context) {
	var req affiliatedomain.AcceptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.affiliateSvc.Accept(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) ListProductCommissions(c *gin.Context) {
	affiliateID := strings.TrimSpace(c.Query("affiliate_id"))
	if affiliateID == "" {
		AbortWithError(c, newValidationError("affiliate_id", "invalid_affiliate", "affiliate_id is required"))
		return
	}

	rows, err := s.commissionSvc.ListForAffiliate(c.Request.Context(), affiliateID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"product_commissions": rows})
}

func (s *Server) ToggleProductCommission(c *gin.Context) {
	var req commissiondomain.ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	row, err := s.commissionSvc.ToggleRateSource(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, row)
}

type UpdateAffiliateTierRequest struct {
	AffiliateID string `json:"affiliate_id"`
	NewTierID   string `json:"new_tier_id"`
}

func (s *Server) UpdateAffiliateTier(c *gin.Context) {
	var req UpdateAffiliateTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	rows, err := s.commissionSvc.ReassignTier(c.Request.Context(), commissiondomain.ReassignTierRequest{
		AffiliateID: req.AffiliateID,
		NewTierID:   req.NewTierID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"product_commissions": rows})
}
