package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/legaltrack-ph/legaltrack/backend/internal/services"
)

type ReportHandler struct {
	reports *services.ReportService
}

func NewReportHandler(reports *services.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func reportRange(c *gin.Context) services.ReportRange {
	var r services.ReportRange
	if from, err := time.Parse("2006-01-02", c.Query("date_from")); err == nil {
		r.From = from
	}
	if to, err := time.Parse("2006-01-02", c.Query("date_to")); err == nil {
		r.To = to
	}
	return r
}

func (h *ReportHandler) Summary(c *gin.Context) {
	summary, err := h.reports.BuildSummary(reportRange(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build summary"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *ReportHandler) StatusBreakdown(c *gin.Context) {
	breakdown, err := h.reports.StatusBreakdown(reportRange(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build breakdown"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"by_status": breakdown})
}

func (h *ReportHandler) Monthly(c *gin.Context) {
	months, _ := strconv.Atoi(c.DefaultQuery("months", "12"))
	monthly, err := h.reports.MonthlyAccomplishment(months)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build monthly report"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"monthly": monthly})
}

// ExportCSV streams the accomplishment report as a CSV download.
func (h *ReportHandler) ExportCSV(c *gin.Context) {
	filename := fmt.Sprintf("accomplishment-%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := h.reports.WriteCSV(c.Writer, reportRange(c)); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}
