package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/legaltrack-ph/legaltrack/backend/internal/api/middleware"
	"github.com/legaltrack-ph/legaltrack/backend/internal/models"
	"github.com/legaltrack-ph/legaltrack/backend/internal/services"
)

type AuthHandler struct {
	authService *services.AuthService
	production  bool
}

func NewAuthHandler(authService *services.AuthService, production bool) *AuthHandler {
	return &AuthHandler{authService: authService, production: production}
}

// setSecureCookie sets an auth cookie with HttpOnly and SameSite=Strict;
// Secure is added in production.
func (h *AuthHandler) setSecureCookie(c *gin.Context, name, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(name, value, maxAge, "/", "", h.production, true)
}

func (h *AuthHandler) clearSecureCookie(c *gin.Context, name string) {
	h.setSecureCookie(c, name, "", -1)
}

func requestMeta(c *gin.Context) services.RequestMeta {
	return services.RequestMeta{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
}

func userPayload(u *models.User) gin.H {
	return gin.H{
		"id":                   u.ID,
		"staff_id":             u.StaffID,
		"email":                u.Email,
		"full_name":            u.FullName,
		"role":                 u.Role,
		"role_label":           models.RoleLabel(u.Role),
		"lgu_municipality":     u.LGUMunicipality,
		"must_change_password": u.MustChangePassword,
	}
}

type LoginRequest struct {
	StaffID  string `json:"staff_id" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, user, err := h.authService.Login(req.StaffID, req.Password, requestMeta(c))
	if err != nil {
		status := http.StatusUnauthorized
		if errors.Is(err, services.ErrAccountLocked) {
			status = http.StatusTooManyRequests
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	h.setSecureCookie(c, middleware.AuthCookie, token, 3600*24)
	c.JSON(http.StatusOK, gin.H{"token": token, "user": userPayload(user)})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	if user := middleware.CurrentUser(c); user != nil {
		h.authService.Logout(user, requestMeta(c))
	}
	h.clearSecureCookie(c, middleware.AuthCookie)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userPayload(user)})
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.authService.ChangePassword(user.ID, req.OldPassword, req.NewPassword); err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, services.ErrPasswordChangeLimit) {
			status = http.StatusTooManyRequests
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}

type ActivateRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// Activate is the public endpoint behind the emailed activation link.
func (h *AuthHandler) Activate(c *gin.Context) {
	var req ActivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authService.Activate(req.Token, req.NewPassword, requestMeta(c))
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, services.ErrActivationExpired) {
			status = http.StatusGone
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Account activated",
		"user":    userPayload(user),
	})
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ForgotPassword records a reset request. The response never reveals
// whether the email belongs to an account.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authService.RequestPasswordReset(req.Email, requestMeta(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Unable to process request"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "If the email belongs to an account, the administrator will be notified",
	})
}
