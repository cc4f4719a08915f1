package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/legaltrack-ph/legaltrack/backend/internal/config"
	"github.com/legaltrack-ph/legaltrack/backend/internal/database"
	"github.com/legaltrack-ph/legaltrack/backend/internal/models"
)

// openTestDB creates a SQLite in-memory DB unique per test and runs the
// migrations. WAL and a busy timeout reduce locking during parallel tests.
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsnName := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_journal_mode=WAL&_busy_timeout=5000", dsnName)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
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
	kase, _, err := NewCaseService(db).CreateDraft(CaseDetailsInput{
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

func auditCount(t *testing.T, db *gorm.DB, action string) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.AuditLog{}).Where("action = ?", action).Count(&n).Error; err != nil {
		t.Fatalf("failed to count audit records: %v", err)
	}
	return n
}
