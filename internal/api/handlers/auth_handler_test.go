package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/legaltrack-ph/legaltrack/backend/internal/models"
	"github.com/legaltrack-ph/legaltrack/backend/internal/services"
	"gorm.io/gorm"
)

func setupAuthHandler(t *testing.T) (*AuthHandler, *gorm.DB) {
	db := openMigratedDB(t)
	authService := services.NewAuthService(db, testConfig())
	return NewAuthHandler(authService, false), db
}

func TestAuthHandler_Login(t *testing.T) {
	handler, db := setupAuthHandler(t)
	user := createUser(t, db, models.RoleCapitolExaminer, "exm@example.gov.ph", "password123")

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/login", handler.Login)

	w := doJSON(r, "POST", "/login", map[string]string{
		"staff_id": user.StaffID,
		"password": "password123",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "token")

	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	userObj := resp["user"].(map[string]any)
	assert.Equal(t, user.StaffID, userObj["staff_id"])
	assert.Equal(t, "Capitol Examiner", userObj["role_label"])

	// Session cookie for the web UI
	cookies := w.Result().Cookies()
	assert.NotEmpty(t, cookies)
	assert.Equal(t, "auth_token", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
}

func TestAuthHandler_Login_Errors(t *testing.T) {
	handler, db := setupAuthHandler(t)
	createUser(t, db, models.RoleCapitolExaminer, "exm2@example.gov.ph", "password123")

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/login", handler.Login)

	// 1. Invalid JSON
	req := httptest.NewRequest("POST", "/login", nil)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 2. Unknown staff ID
	w = doJSON(r, "POST", "/login", map[string]string{
		"staff_id": "25-EXM-9999",
		"password": "password123",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Login_Locked(t *testing.T) {
	handler, db := setupAuthHandler(t)
	user := createUser(t, db, models.RoleCapitolReceiving, "rec@example.gov.ph", "password123")

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/login", handler.Login)

	for i := 0; i < services.LockoutAfterFailedAttempts; i++ {
		w := doJSON(r, "POST", "/login", map[string]string{
			"staff_id": user.StaffID,
			"password": "wrong",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}

	// Locked now, even with the correct password.
	w := doJSON(r, "POST", "/login", map[string]string{
		"staff_id": user.StaffID,
		"password": "password123",
	})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestAuthHandler_Logout(t *testing.T) {
	handler, db := setupAuthHandler(t)
	user := createUser(t, db, models.RoleCapitolExaminer, "out@example.gov.ph", "password123")

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(asUser(user))
	r.POST("/logout", handler.Logout)

	w := doJSON(r, "POST", "/logout", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Logged out")
	cookie := w.Result().Cookies()[0]
	assert.Equal(t, "auth_token", cookie.Name)
	assert.Equal(t, -1, cookie.MaxAge)
}

func TestAuthHandler_Me(t *testing.T) {
	handler, db := setupAuthHandler(t)
	user := createUser(t, db, models.RoleLGUAdmin, "lgu@example.gov.ph", "password123")

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(asUser(user))
	r.GET("/me", handler.Me)

	req := httptest.NewRequest("GET", "/me", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	userObj := resp["user"].(map[string]any)
	assert.Equal(t, user.StaffID, userObj["staff_id"])
	assert.Equal(t, "Malolos", userObj["lgu_municipality"])
}

func TestAuthHandler_Me_Unauthenticated(t *testing.T) {
	handler, _ := setupAuthHandler(t)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", handler.Me)

	req := httptest.NewRequest("GET", "/me", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	handler, db := setupAuthHandler(t)
	user := createUser(t, db, models.RoleCapitolExaminer, "pw@example.gov.ph", "oldpassword")

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(asUser(user))
	r.POST("/change-password", handler.ChangePassword)

	w := doJSON(r, "POST", "/change-password", map[string]string{
		"old_password": "oldpassword",
		"new_password": "newpassword123",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Password updated successfully")

	var updated models.User
	db.First(&updated, user.ID)
	assert.True(t, updated.CheckPassword("newpassword123"))
}

func TestAuthHandler_ChangePassword_WrongOld(t *testing.T) {
	handler, db := setupAuthHandler(t)
	user := createUser(t, db, models.RoleCapitolExaminer, "pw2@example.gov.ph", "correctpassword")

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(asUser(user))
	r.POST("/change-password", handler.ChangePassword)

	w := doJSON(r, "POST", "/change-password", map[string]string{
		"old_password": "wrong",
		"new_password": "newpassword123",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_ChangePassword_ShortNewPassword(t *testing.T) {
	handler, db := setupAuthHandler(t)
	user := createUser(t, db, models.RoleCapitolExaminer, "pw3@example.gov.ph", "oldpassword")

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(asUser(user))
	r.POST("/change-password", handler.ChangePassword)

	w := doJSON(r, "POST", "/change-password", map[string]string{
		"old_password": "oldpassword",
		"new_password": "short",
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_Activate(t *testing.T) {
	handler, db := setupAuthHandler(t)
	admin := createUser(t, db, models.RoleSuperAdmin, "admin@gmail.com", "adminpassword")
	users := services.NewUserService(db, testConfig(), handler.authService)

	created, err := users.CreateStaff(services.CreateStaffInput{
		Email:    "newstaff@example.gov.ph",
		FullName: "New Staff",
		Role:     models.RoleCapitolNumberer,
	}, admin)
	assert.NoError(t, err)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/activate", handler.Activate)

	token := created.ActivationLink[len(testConfig().BaseURL+"/activate/"):]
	w := doJSON(r, "POST", "/activate", map[string]string{
		"token":        token,
		"new_password": "brandnewpassword",
	})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Account activated")

	// Token is single use.
	w = doJSON(r, "POST", "/activate", map[string]string{
		"token":        token,
		"new_password": "anotherpassword",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_ForgotPassword_EnumerationSafe(t *testing.T) {
	handler, db := setupAuthHandler(t)
	createUser(t, db, models.RoleCapitolExaminer, "known@example.gov.ph", "password123")

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/forgot-password", handler.ForgotPassword)

	for _, email := range []string{"known@example.gov.ph", "unknown@example.gov.ph"} {
		w := doJSON(r, "POST", "/forgot-password", map[string]string{"email": email})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "If the email belongs to an account")
	}
}
