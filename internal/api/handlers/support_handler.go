package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/legaltrack-ph/legaltrack/backend/internal/api/middleware"
	"github.com/legaltrack-ph/legaltrack/backend/internal/services"
)

type SupportHandler struct {
	support *services.SupportService
}

func NewSupportHandler(support *services.SupportService) *SupportHandler {
	return &SupportHandler{support: support}
}

// PublicFAQs serves the public FAQ page.
func (h *SupportHandler) PublicFAQs(c *gin.Context) {
	items, err := h.support.PublishedFAQs()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list FAQs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"faqs": items})
}

func (h *SupportHandler) ListFAQs(c *gin.Context) {
	items, err := h.support.AllFAQs()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list FAQs"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"faqs": items})
}

func (h *SupportHandler) CreateFAQ(c *gin.Context) {
	var req services.FAQInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := h.support.CreateFAQ(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *SupportHandler) UpdateFAQ(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid FAQ ID"})
		return
	}
	var req services.FAQInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	item, err := h.support.UpdateFAQ(uint(id), req)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *SupportHandler) DeleteFAQ(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid FAQ ID"})
		return
	}
	if err := h.support.DeleteFAQ(uint(id)); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "FAQ deleted"})
}

type FeedbackRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message" binding:"required"`
}

// SubmitFeedback accepts feedback from visitors and signed-in users alike.
func (h *SupportHandler) SubmitFeedback(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var actorID *uint
	if user := middleware.CurrentUser(c); user != nil {
		actorID = &user.ID
		if req.Email == "" {
			req.Email = user.Email
		}
		if req.Name == "" {
			req.Name = user.FullName
		}
	}

	meta := services.RequestMeta{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
	fb, err := h.support.SubmitFeedback(req.Name, req.Email, req.Message, actorID, meta)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": fb.ID, "message": "Thank you for your feedback"})
}

func (h *SupportHandler) ListFeedback(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	items, total, err := h.support.ListFeedback(page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list feedback"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"feedback": items, "total": total, "page": page, "limit": limit})
}

type ResolveFeedbackRequest struct {
	Resolved bool `json:"resolved"`
}

func (h *SupportHandler) ResolveFeedback(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid feedback ID"})
		return
	}
	var req ResolveFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.support.ResolveFeedback(uint(id), req.Resolved); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Feedback updated"})
}
