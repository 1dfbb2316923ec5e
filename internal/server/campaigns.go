package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	campaigndomain "github.com/smallbiznis/affina/internal/campaign/domain"
	"github.com/smallbiznis/affina/pkg/db/pagination"
)

func (s *Server) ListCampaigns(c *gin.Context) {
	var query pagination.Pagination
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	campaigns, err := s.campaignSvc.List(c.Request.Context(), campaigndomain.ListRequest{
		PageToken: query.PageToken,
		PageSize:  query.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, campaigns)
}

func (s *Server) CreateCampaign(c *gin.Context) {
	var req campaigndomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	campaign, err := s.campaignSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, campaign)
}

func (s *Server) GetCampaign(c *gin.Context) {
	campaign, err := s.campaignSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, campaign)
}

type JoinCampaignRequest struct {
	InfluencerID string `json:"influencer_id"`
}

func (s *Server) JoinCampaign(c *gin.Context) {
	var req JoinCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	result, err := s.campaignSvc.Join(c.Request.Context(), campaigndomain.JoinRequest{
		CampaignID:   c.Param("id"),
		InfluencerID: req.InfluencerID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}
