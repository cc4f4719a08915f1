package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/legaltrack-ph/legaltrack/backend/internal/api/middleware"
	"github.com/legaltrack-ph/legaltrack/backend/internal/services"
)

type UserHandler struct {
	users *services.UserService
}

func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

type CreateStaffRequest struct {
	Email           string `json:"email" binding:"required,email"`
	FullName        string `json:"full_name" binding:"required"`
	Designation     string `json:"designation"`
	Position        string `json:"position"`
	Role            string `json:"role" binding:"required"`
	LGUMunicipality string `json:"lgu_municipality"`
}

// Create provisions a staff account. The temporary password and activation
// link appear only in this response.
func (h *UserHandler) Create(c *gin.Context) {
	var req CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.users.CreateStaff(services.CreateStaffInput{
		Email:           req.Email,
		FullName:        req.FullName,
		Designation:     req.Designation,
		Position:        req.Position,
		Role:            req.Role,
		LGUMunicipality: req.LGUMunicipality,
	}, middleware.CurrentUser(c))
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, services.ErrEmailTaken) {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"user":            created.User,
		"temp_password":   created.TempPassword,
		"activation_link": created.ActivationLink,
	})
}

func (h *UserHandler) List(c *gin.Context) {
	filter := services.StaffFilter{
		Query: c.Query("q"),
		Role:  c.Query("role"),
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))
	if user := middleware.CurrentUser(c); user != nil {
		filter.ExcludeID = user.ID
	}

	users, total, err := h.users.List(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"users": users,
		"total": total,
		"page":  filter.Page,
		"limit": filter.Limit,
	})
}

type UpdateStaffRequest struct {
	FullName    string `json:"full_name"`
	Designation string `json:"designation"`
	Position    string `json:"position"`
}

func (h *UserHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}
	var req UpdateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.users.UpdateStaff(uint(id), services.UpdateStaffInput{
		FullName:    req.FullName,
		Designation: req.Designation,
		Position:    req.Position,
	}, middleware.CurrentUser(c))
	if err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, services.ErrAccountNotFound):
			status = http.StatusNotFound
		case errors.Is(err, services.ErrSelfEdit):
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, user)
}

// ToggleActive deactivates an active account or restores an inactive one.
func (h *UserHandler) ToggleActive(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	user, err := h.users.ToggleActive(uint(id), middleware.CurrentUser(c))
	if err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, services.ErrAccountNotFound):
			status = http.StatusNotFound
		case errors.Is(err, services.ErrSelfEdit):
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, user)
}

// ResendActivation rotates the temp password and reissues the link for a
// pending account.
func (h *UserHandler) ResendActivation(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	created, err := h.users.ResendActivation(uint(id), middleware.CurrentUser(c))
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, services.ErrAccountNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":            created.User,
		"temp_password":   created.TempPassword,
		"activation_link": created.ActivationLink,
	})
}

// Examiners lists active examiners with their in-review load, least loaded
// first, for the assignment picker.
func (h *UserHandler) Examiners(c *gin.Context) {
	examiners, err := h.users.Examiners()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list examiners"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"examiners": examiners})
}
