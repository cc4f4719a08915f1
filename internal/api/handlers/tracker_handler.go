package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/legaltrack-ph/legaltrack/backend/internal/services"
)

// TrackerHandler serves the public tracking page. It exposes only the
// status timeline; actor identities and remarks never leave the building.
type TrackerHandler struct {
	cases *services.CaseService
}

func NewTrackerHandler(cases *services.CaseService) *TrackerHandler {
	return &TrackerHandler{cases: cases}
}

func (h *TrackerHandler) Track(c *gin.Context) {
	summary, err := h.cases.TrackCase(c.Param("trackingID"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No case found for that tracking number"})
		return
	}
	c.JSON(http.StatusOK, summary)
}
