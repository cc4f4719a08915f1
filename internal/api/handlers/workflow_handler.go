package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/legaltrack-ph/legaltrack/backend/internal/services"
)

type WorkflowHandler struct {
	workflow *services.WorkflowService
	cases    *CaseHandler
}

func NewWorkflowHandler(workflow *services.WorkflowService, cases *CaseHandler) *WorkflowHandler {
	return &WorkflowHandler{workflow: workflow, cases: cases}
}

func transitionStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrCaseAssigned):
		return http.StatusConflict
	case errors.Is(err, services.ErrNumberTaken):
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

func (h *WorkflowHandler) respond(c *gin.Context, err error, kase any) {
	if err != nil {
		c.JSON(transitionStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, kase)
}

// Finalize is the LGU submit step; the tracking ID appears in the response.
func (h *WorkflowHandler) Finalize(c *gin.Context) {
	kase, user, ok := h.cases.loadCase(c)
	if !ok {
		return
	}
	h.respond(c, h.workflow.Finalize(kase, user), kase)
}

func (h *WorkflowHandler) Receive(c *gin.Context) {
	kase, user, ok := h.cases.loadCase(c)
	if !ok {
		return
	}
	h.respond(c, h.workflow.Receive(kase, user), kase)
}

type ReasonRequest struct {
	Reason string `json:"reason"`
}

func (h *WorkflowHandler) ReturnToLGU(c *gin.Context) {
	kase, user, ok := h.cases.loadCase(c)
	if !ok {
		return
	}
	var req ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respond(c, h.workflow.ReturnToLGU(kase, req.Reason, user), kase)
}

type AssignRequest struct {
	ExaminerID uint `json:"examiner_id" binding:"required"`
}

func (h *WorkflowHandler) Assign(c *gin.Context) {
	kase, user, ok := h.cases.loadCase(c)
	if !ok {
		return
	}
	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respond(c, h.workflow.Assign(kase, req.ExaminerID, user), kase)
}

func (h *WorkflowHandler) SubmitForApproval(c *gin.Context) {
	kase, user, ok := h.cases.loadCase(c)
	if !ok {
		return
	}
	h.respond(c, h.workflow.SubmitForApproval(kase, user), kase)
}

func (h *WorkflowHandler) ReturnToReceiving(c *gin.Context) {
	kase, user, ok := h.cases.loadCase(c)
	if !ok {
		return
	}
	var req ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respond(c, h.workflow.ReturnToReceiving(kase, req.Reason, user), kase)
}

func (h *WorkflowHandler) Approve(c *gin.Context) {
	kase, user, ok := h.cases.loadCase(c)
	if !ok {
		return
	}
	h.respond(c, h.workflow.Approve(kase, user), kase)
}

func (h *WorkflowHandler) ReturnForCorrection(c *gin.Context) {
	kase, user, ok := h.cases.loadCase(c)
	if !ok {
		return
	}
	var req ReasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respond(c, h.workflow.ReturnForCorrection(kase, req.Reason, user), kase)
}

type NumberRequest struct {
	Number string `json:"number" binding:"required"`
}

func (h *WorkflowHandler) AssignNumber(c *gin.Context) {
	kase, user, ok := h.cases.loadCase(c)
	if !ok {
		return
	}
	var req NumberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.respond(c, h.workflow.AssignNumber(kase, req.Number, user), kase)
}

func (h *WorkflowHandler) Release(c *gin.Context) {
	kase, user, ok := h.cases.loadCase(c)
	if !ok {
		return
	}
	h.respond(c, h.workflow.Release(kase, user), kase)
}
