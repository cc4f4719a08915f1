package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/legaltrack-ph/legaltrack/backend/internal/api/middleware"
	"github.com/legaltrack-ph/legaltrack/backend/internal/models"
	"github.com/legaltrack-ph/legaltrack/backend/internal/services"
)

type CaseHandler struct {
	cases *services.CaseService
	audit *services.AuditService
}

func NewCaseHandler(cases *services.CaseService, audit *services.AuditService) *CaseHandler {
	return &CaseHandler{cases: cases, audit: audit}
}

// loadCase resolves the :key route param (tracking ID or draft UUID) and
// enforces the viewer's visibility. Writes the error response itself.
func (h *CaseHandler) loadCase(c *gin.Context) (*models.Case, *models.User, bool) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, nil, false
	}

	key := c.Param("key")
	kase, err := h.cases.GetByTrackingID(key)
	if err != nil {
		kase, err = h.cases.GetByDraftID(key)
	}
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Case not found"})
		return nil, nil, false
	}

	if !user.CanViewCase(kase) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Case not found"})
		return nil, nil, false
	}
	return kase, user, true
}

func (h *CaseHandler) CreateDraft(c *gin.Context) {
	user := middleware.CurrentUser(c)
	var req services.CaseDetailsInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kase, reused, err := h.cases.CreateDraft(req, user)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := http.StatusCreated
	if reused {
		status = http.StatusOK
	}
	c.JSON(status, kase)
}

func (h *CaseHandler) ListDrafts(c *gin.Context) {
	user := middleware.CurrentUser(c)
	drafts, err := h.cases.Drafts(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list drafts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"drafts": drafts})
}

func (h *CaseHandler) DeleteDraft(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if err := h.cases.DeleteDraft(c.Param("draftID"), user); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Draft not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Draft deleted"})
}

func (h *CaseHandler) Get(c *gin.Context) {
	kase, user, ok := h.loadCase(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"case":         kase,
		"capabilities": services.CapabilitiesFor(user, kase),
		"status_label": models.StatusLabel(kase.Status),
		"requirements": models.CaseTypeRequirements(kase.CaseType),
	})
}

func (h *CaseHandler) UpdateDetails(c *gin.Context) {
	kase, user, ok := h.loadCase(c)
	if !ok {
		return
	}
	var req services.CaseDetailsInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.cases.UpdateDetails(kase, req, user); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, services.ErrNotEditable) {
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, kase)
}

type ChecklistRequest struct {
	Items []services.ChecklistInput `json:"items" binding:"required"`
}

func (h *CaseHandler) UpdateChecklist(c *gin.Context) {
	kase, user, ok := h.loadCase(c)
	if !ok {
		return
	}
	var req ChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.cases.UpdateChecklist(kase, req.Items, user); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, services.ErrNotEditable) {
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, kase)
}

type RemarkRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *CaseHandler) AddRemark(c *gin.Context) {
	kase, user, ok := h.loadCase(c)
	if !ok {
		return
	}
	var req RemarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	remark, err := h.cases.AddRemark(kase, req.Text, user)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, services.ErrNotAuthorized) {
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, remark)
}

// History returns the staff-facing audit trail for a case.
func (h *CaseHandler) History(c *gin.Context) {
	kase, user, ok := h.loadCase(c)
	if !ok {
		return
	}
	if user.Role == models.RoleLGUAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
		return
	}

	history, err := h.audit.CaseHistory(models.CaseTarget(kase))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

func (h *CaseHandler) List(c *gin.Context) {
	user := middleware.CurrentUser(c)

	filter := services.SubmissionsFilter{
		Tab:      c.Query("tab"),
		Query:    c.Query("q"),
		CaseType: c.Query("case_type"),
		LGU:      c.Query("lgu"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "15"))
	if from, err := time.Parse("2006-01-02", c.Query("date_from")); err == nil {
		filter.DateFrom = &from
	}
	if to, err := time.Parse("2006-01-02", c.Query("date_to")); err == nil {
		filter.DateTo = &to
	}

	cases, total, err := h.cases.Submissions(user, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list cases"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cases": cases,
		"total": total,
		"page":  filter.Page,
		"limit": filter.Limit,
	})
}
