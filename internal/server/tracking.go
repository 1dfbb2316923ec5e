package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	trackingdomain "github.com/smallbiznis/affina/internal/tracking/domain"
)

// RecordTrackingEvent is the public ingestion endpoint. It is deliberately
// unauthenticated: the tracking code itself is the capability.
func (s *Server) RecordTrackingEvent(c *gin.Context) {
	var req trackingdomain.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	event, err := s.trackingSvc.RecordEvent(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, event)
}

func (s *Server) TrackingMetrics(c *gin.Context) {
	metrics, err := s.trackingSvc.Metrics(c.Request.Context(), c.Param("trackingCode"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, metrics)
}
