package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/legaltrack-ph/legaltrack/backend/internal/services"
)

type AuditHandler struct {
	audit *services.AuditService
}

func NewAuditHandler(audit *services.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

func auditFilter(c *gin.Context) services.AuditFilter {
	filter := services.AuditFilter{
		Action: c.Query("action"),
		Query:  c.Query("q"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "25"))
	return filter
}

func (h *AuditHandler) List(c *gin.Context) {
	filter := auditFilter(c)
	logs, total, err := h.audit.List(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list audit logs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"logs":  logs,
		"total": total,
		"page":  filter.Page,
		"limit": filter.Limit,
	})
}

// ExportCSV streams the filtered audit trail as a CSV download.
func (h *AuditHandler) ExportCSV(c *gin.Context) {
	filename := fmt.Sprintf("audit-%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := h.audit.WriteCSV(c.Writer, auditFilter(c)); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}
