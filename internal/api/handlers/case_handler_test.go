package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/legaltrack-ph/legaltrack/backend/internal/models"
	"github.com/legaltrack-ph/legaltrack/backend/internal/services"
)

func setupCaseRouter(t *testing.T, user *models.User, db *gorm.DB) *gin.Engine {
	t.Helper()
	handler := NewCaseHandler(services.NewCaseService(db), services.NewAuditService(db))

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(asUser(user))
	r.POST("/cases", handler.CreateDraft)
	r.GET("/cases", handler.List)
	r.GET("/cases/drafts", handler.ListDrafts)
	r.GET("/cases/:key", handler.Get)
	r.PUT("/cases/:key/details", handler.UpdateDetails)
	r.POST("/cases/:key/remarks", handler.AddRemark)
	r.GET("/cases/:key/history", handler.History)
	return r
}

func TestCaseHandler_CreateDraftAndGet(t *testing.T) {
	db := openMigratedDB(t)
	lgu := createUser(t, db, models.RoleLGUAdmin, "lgu@example.gov.ph", "password123")
	r := setupCaseRouter(t, lgu, db)

	w := doJSON(r, "POST", "/cases", map[string]string{
		"client_first_name": "Juan",
		"client_last_name":  "Dela Cruz",
		"client_number":     "09171234567",
		"case_type":         models.CaseTypeTransferOwnership,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created models.Case
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.DraftID)
	assert.Equal(t, models.StatusDraft, created.Status)

	req := httptest.NewRequest("GET", "/cases/"+created.DraftID, nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]any
	json.Unmarshal(w.Body.Bytes(), &resp)
	assert.Equal(t, "Draft", resp["status_label"])
	caps := resp["capabilities"].(map[string]any)
	assert.Equal(t, true, caps["can_edit"])
	reqs := resp["requirements"].([]any)
	assert.Equal(t, models.EndorsementLetterDocType, reqs[0])
}

func TestCaseHandler_CreateDraft_UnknownCaseType(t *testing.T) {
	db := openMigratedDB(t)
	lgu := createUser(t, db, models.RoleLGUAdmin, "lgu@example.gov.ph", "password123")
	r := setupCaseRouter(t, lgu, db)

	w := doJSON(r, "POST", "/cases", map[string]string{
		"client_last_name": "Dela Cruz",
		"case_type":        "bogus",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCaseHandler_Get_HiddenFromOtherLGU(t *testing.T) {
	db := openMigratedDB(t)
	owner := createUser(t, db, models.RoleLGUAdmin, "owner@example.gov.ph", "password123")
	other := createUser(t, db, models.RoleLGUAdmin, "other@example.gov.ph", "password123")
	kase := createDraftCase(t, db, owner)

	r := setupCaseRouter(t, other, db)
	req := httptest.NewRequest("GET", "/cases/"+kase.DraftID, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// Invisible cases read as missing, not forbidden.
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCaseHandler_UpdateDetails_LockedOnceReceived(t *testing.T) {
	db := openMigratedDB(t)
	owner := createUser(t, db, models.RoleLGUAdmin, "owner@example.gov.ph", "password123")
	kase := createDraftCase(t, db, owner)
	require.NoError(t, db.Model(kase).Update("status", models.StatusReceived).Error)

	r := setupCaseRouter(t, owner, db)
	w := doJSON(r, "PUT", "/cases/"+kase.DraftID+"/details", map[string]string{
		"client_first_name": "Pedro",
		"client_last_name":  "Dela Cruz",
		"case_type":         models.CaseTypeTransferOwnership,
	})

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCaseHandler_AddRemark_RejectedForLGU(t *testing.T) {
	db := openMigratedDB(t)
	owner := createUser(t, db, models.RoleLGUAdmin, "owner@example.gov.ph", "password123")
	kase := createDraftCase(t, db, owner)

	r := setupCaseRouter(t, owner, db)
	w := doJSON(r, "POST", "/cases/"+kase.DraftID+"/remarks", map[string]string{
		"text": "Please expedite",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCaseHandler_AddRemark_CapitolStaff(t *testing.T) {
	db := openMigratedDB(t)
	owner := createUser(t, db, models.RoleLGUAdmin, "owner@example.gov.ph", "password123")
	examiner := createUser(t, db, models.RoleCapitolExaminer, "exm@example.gov.ph", "password123")
	kase := createDraftCase(t, db, owner)

	r := setupCaseRouter(t, examiner, db)
	w := doJSON(r, "POST", "/cases/"+kase.DraftID+"/remarks", map[string]string{
		"text": "Missing tax clearance",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), "Missing tax clearance")
}

func TestCaseHandler_History_ForbiddenForLGU(t *testing.T) {
	db := openMigratedDB(t)
	owner := createUser(t, db, models.RoleLGUAdmin, "owner@example.gov.ph", "password123")
	kase := createDraftCase(t, db, owner)

	r := setupCaseRouter(t, owner, db)
	req := httptest.NewRequest("GET", "/cases/"+kase.DraftID+"/history", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCaseHandler_List_ScopedToOwnLGU(t *testing.T) {
	db := openMigratedDB(t)
	owner := createUser(t, db, models.RoleLGUAdmin, "owner@example.gov.ph", "password123")
	other := createUser(t, db, models.RoleLGUAdmin, "other@example.gov.ph", "password123")
	now := time.Now()
	for _, u := range []*models.User{owner, other} {
		kase := createDraftCase(t, db, u)
		require.NoError(t, db.Model(kase).Updates(map[string]any{
			"submitted_at": now,
			"status":       models.StatusNotReceived,
		}).Error)
	}

	r := setupCaseRouter(t, owner, db)
	req := httptest.NewRequest("GET", "/cases", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Cases []models.Case `json:"cases"`
		Total int64         `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Total)
	require.Len(t, resp.Cases, 1)
	assert.Equal(t, owner.ID, *resp.Cases[0].SubmittedByID)
}
