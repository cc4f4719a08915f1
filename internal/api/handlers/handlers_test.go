package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/legaltrack-ph/legaltrack/backend/internal/api/middleware"
	"github.com/legaltrack-ph/legaltrack/backend/internal/config"
	"github.com/legaltrack-ph/legaltrack/backend/internal/database"
	"github.com/legaltrack-ph/legaltrack/backend/internal/models"
	"github.com/legaltrack-ph/legaltrack/backend/internal/services"
)

// openMigratedDB wraps OpenTestDB and applies the schema.
func openMigratedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := OpenTestDB(t)
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return db
}

func testConfig() config.Config {
	return config.Config{
		Environment:     "test",
		JWTSecret:       "test-secret",
		AdminEmailAlias: "admin@gmail.com",
		BaseURL:         "http://localhost:8080",
	}
}

func createUser(t *testing.T, db *gorm.DB, role, email, password string) *models.User {
	t.Helper()
	now := time.Now()
	user := &models.User{
		StaffID:       models.FormatStaffID(role, int(now.UnixNano()%9000)+1),
		Email:         email,
		FullName:      "Test " + models.RoleLabel(role),
		Role:          role,
		AccountStatus: models.AccountActive,
		ActivatedAt:   &now,
	}
	if role == models.RoleLGUAdmin {
		user.LGUMunicipality = "Malolos"
	}
	if err := user.SetPassword(password); err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func createDraftCase(t *testing.T, db *gorm.DB, owner *models.User) *models.Case {
	t.Helper()
	kase, _, err := services.NewCaseService(db).CreateDraft(services.CaseDetailsInput{
		ClientFirstName: "Juan",
		ClientLastName:  "Dela Cruz",
		ClientNumber:    "09171234567",
		CaseType:        models.CaseTypeTransferOwnership,
	}, owner)
	if err != nil {
		t.Fatalf("failed to create draft: %v", err)
	}
	return kase
}

// markChecklistUploaded flips every required checklist item so finalize
// passes its document gate.
func markChecklistUploaded(t *testing.T, db *gorm.DB, kase *models.Case) {
	t.Helper()
	for i := range kase.Checklist {
		kase.Checklist[i].Uploaded = true
	}
	if err := db.Model(kase).Select("checklist").Updates(kase).Error; err != nil {
		t.Fatalf("failed to update checklist: %v", err)
	}
}

// asUser simulates AuthMiddleware for a fixed account.
func asUser(user *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, user.ID)
		c.Set(middleware.RoleKey, user.Role)
		c.Set(middleware.UserKey, user)
		c.Next()
	}
}

func doJSON(r *gin.Engine, method, target string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
