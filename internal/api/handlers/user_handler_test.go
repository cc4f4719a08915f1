package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/legaltrack-ph/legaltrack/backend/internal/models"
	"github.com/legaltrack-ph/legaltrack/backend/internal/services"
)

func setupUserRouter(t *testing.T, admin *models.User, db *gorm.DB) *gin.Engine {
	t.Helper()
	cfg := testConfig()
	authService := services.NewAuthService(db, cfg)
	handler := NewUserHandler(services.NewUserService(db, cfg, authService))

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(asUser(admin))
	r.POST("/admin/users", handler.Create)
	r.GET("/admin/users", handler.List)
	r.PUT("/admin/users/:id", handler.Update)
	r.POST("/admin/users/:id/toggle-active", handler.ToggleActive)
	r.POST("/admin/users/:id/resend-activation", handler.ResendActivation)
	return r
}

func TestUserHandler_Create(t *testing.T) {
	db := openMigratedDB(t)
	admin := createUser(t, db, models.RoleSuperAdmin, "admin@gmail.com", "adminpassword")
	r := setupUserRouter(t, admin, db)

	w := doJSON(r, "POST", "/admin/users", map[string]string{
		"email":     "examiner@example.gov.ph",
		"full_name": "Jose Rizal",
		"role":      models.RoleCapitolExaminer,
	})

	require.Equal(t, http.StatusCreated, w.Code)
	var resp struct {
		User           models.User `json:"user"`
		TempPassword   string      `json:"temp_password"`
		ActivationLink string      `json:"activation_link"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.User.StaffID, "25-EXM-"))
	assert.Equal(t, models.AccountPending, resp.User.AccountStatus)
	assert.Len(t, resp.TempPassword, 12)
	assert.Contains(t, resp.ActivationLink, testConfig().BaseURL+"/activate/")
}

func TestUserHandler_Create_DuplicateEmail(t *testing.T) {
	db := openMigratedDB(t)
	admin := createUser(t, db, models.RoleSuperAdmin, "admin@gmail.com", "adminpassword")
	createUser(t, db, models.RoleCapitolExaminer, "taken@example.gov.ph", "password123")
	r := setupUserRouter(t, admin, db)

	w := doJSON(r, "POST", "/admin/users", map[string]string{
		"email":     "TAKEN@example.gov.ph",
		"full_name": "Duplicate",
		"role":      models.RoleCapitolExaminer,
	})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUserHandler_List_ExcludesSelf(t *testing.T) {
	db := openMigratedDB(t)
	admin := createUser(t, db, models.RoleSuperAdmin, "admin@gmail.com", "adminpassword")
	createUser(t, db, models.RoleCapitolExaminer, "exm@example.gov.ph", "password123")
	r := setupUserRouter(t, admin, db)

	req := httptest.NewRequest("GET", "/admin/users", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Users []models.User `json:"users"`
		Total int64         `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Total)
	for _, u := range resp.Users {
		assert.NotEqual(t, admin.ID, u.ID)
	}
}

func TestUserHandler_ToggleActive_SelfGuard(t *testing.T) {
	db := openMigratedDB(t)
	admin := createUser(t, db, models.RoleSuperAdmin, "admin@gmail.com", "adminpassword")
	r := setupUserRouter(t, admin, db)

	w := doJSON(r, "POST", "/admin/users/"+strconv.Itoa(int(admin.ID))+"/toggle-active", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUserHandler_ToggleActive(t *testing.T) {
	db := openMigratedDB(t)
	admin := createUser(t, db, models.RoleSuperAdmin, "admin@gmail.com", "adminpassword")
	staff := createUser(t, db, models.RoleCapitolReleaser, "rel@example.gov.ph", "password123")
	r := setupUserRouter(t, admin, db)

	w := doJSON(r, "POST", "/admin/users/"+strconv.Itoa(int(staff.ID))+"/toggle-active", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stored models.User
	require.NoError(t, db.First(&stored, staff.ID).Error)
	assert.Equal(t, models.AccountInactive, stored.AccountStatus)
}

func TestUserHandler_ResendActivation(t *testing.T) {
	db := openMigratedDB(t)
	admin := createUser(t, db, models.RoleSuperAdmin, "admin@gmail.com", "adminpassword")
	r := setupUserRouter(t, admin, db)

	w := doJSON(r, "POST", "/admin/users", map[string]string{
		"email":     "pending@example.gov.ph",
		"full_name": "Pending Staff",
		"role":      models.RoleCapitolNumberer,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		User           models.User `json:"user"`
		ActivationLink string      `json:"activation_link"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(r, "POST", "/admin/users/"+strconv.Itoa(int(created.User.ID))+"/resend-activation", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resent struct {
		ActivationLink string `json:"activation_link"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resent))
	assert.NotEqual(t, created.ActivationLink, resent.ActivationLink)
}
