package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/legaltrack-ph/legaltrack/backend/internal/models"
	"github.com/legaltrack-ph/legaltrack/backend/internal/services"
)

const (
	UserIDKey  = "userID"
	RoleKey    = "role"
	UserKey    = "user"
	AuthCookie = "auth_token"
)

// AuthMiddleware validates the bearer token (or the auth cookie set for the
// web UI) and loads the account into the request context.
func AuthMiddleware(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if header := c.GetHeader("Authorization"); header != "" {
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
				return
			}
			token = parts[1]
		} else if cookie, err := c.Cookie(AuthCookie); err == nil {
			token = cookie
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		user, err := auth.GetUserByID(claims.UserID)
		if err != nil || !user.IsActive() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Account is not active"})
			return
		}

		c.Set(UserIDKey, user.ID)
		c.Set(RoleKey, user.Role)
		c.Set(UserKey, user)
		c.Next()
	}
}

// CurrentUser returns the authenticated account stored by AuthMiddleware.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(UserKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// RequireRole allows only the given role past.
func RequireRole(role string) gin.HandlerFunc {
	return RequireAnyRole(role)
}

// RequireAnyRole allows any of the given roles past.
func RequireAnyRole(roles ...string) gin.HandlerFunc {
	allowed := map[string]bool{}
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		role := c.GetString(RoleKey)
		if !allowed[role] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			return
		}
		c.Next()
	}
}

// ForcePasswordChange blocks accounts flagged must_change_password from
// everything except the password change and logout endpoints.
func ForcePasswordChange(exemptPaths ...string) gin.HandlerFunc {
	exempt := map[string]bool{}
	for _, p := range exemptPaths {
		exempt[p] = true
	}
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user != nil && user.MustChangePassword && !exempt[c.FullPath()] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Password change required",
				"code":  "password_change_required",
			})
			return
		}
		c.Next()
	}
}
