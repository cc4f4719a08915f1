package services

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/legaltrack-ph/legaltrack/backend/internal/models"
)

// releasedCase plants a case that went through the whole pipeline n days ago.
func releasedCase(t *testing.T, db *gorm.DB, lgu *models.User, tracking string, daysAgo int) {
	t.Helper()
	submitted := time.Now().AddDate(0, 0, -daysAgo)
	released := submitted.Add(72 * time.Hour)
	number := "TD-" + tracking
	kase := models.Case{
		TrackingID:      &tracking,
		DraftID:         "draft-" + tracking,
		Status:          models.StatusReleased,
		ClientLastName:  "Reyes",
		ClientFirstName: "Ana",
		CaseType:        models.CaseTypeSubdivision,
		NumberingNumber: &number,
		SubmittedByID:   &lgu.ID,
		SubmittedAt:     &submitted,
		ReleasedAt:      &released,
	}
	require.NoError(t, db.Create(&kase).Error)
}

func TestStatusBreakdownCoversPipelineOrder(t *testing.T) {
	db := openTestDB(t)
	svc := NewReportService(db)
	lgu := createUser(t, db, models.RoleLGUAdmin, "lgu@example.gov.ph", "secret123!")

	releasedCase(t, db, lgu, "PAS2608007", 10)
	releasedCase(t, db, lgu, "PAS2608008", 5)

	breakdown, err := svc.StatusBreakdown(ReportRange{})
	require.NoError(t, err)
	require.Len(t, breakdown, 8)
	assert.Equal(t, models.StatusNotReceived, breakdown[0].Status)
	assert.Equal(t, models.StatusReleased, breakdown[6].Status)
	assert.EqualValues(t, 2, breakdown[6].Count)
	assert.EqualValues(t, 0, breakdown[0].Count)
}

func TestBuildSummaryAveragesProcessingDays(t *testing.T) {
	db := openTestDB(t)
	svc := NewReportService(db)
	lgu := createUser(t, db, models.RoleLGUAdmin, "lgu@example.gov.ph", "secret123!")

	releasedCase(t, db, lgu, "PAS2608001", 30)
	releasedCase(t, db, lgu, "PAS2608002", 20)
	createDraftCase(t, db, lgu) // drafts are excluded

	summary, err := svc.BuildSummary(ReportRange{})
	require.NoError(t, err)

	assert.EqualValues(t, 2, summary.TotalCases)
	assert.EqualValues(t, 2, summary.ReleasedCases)
	assert.EqualValues(t, 0, summary.PendingCases)
	assert.EqualValues(t, 1, summary.ActiveUsers)
	assert.InDelta(t, 3.0, summary.AvgProcessingDays, 0.01)
}

func TestSummaryRangeFilter(t *testing.T) {
	db := openTestDB(t)
	svc := NewReportService(db)
	lgu := createUser(t, db, models.RoleLGUAdmin, "lgu@example.gov.ph", "secret123!")

	releasedCase(t, db, lgu, "PAS2601001", 200)
	releasedCase(t, db, lgu, "PAS2608001", 2)

	summary, err := svc.BuildSummary(ReportRange{From: time.Now().AddDate(0, 0, -7)})
	require.NoError(t, err)
	assert.EqualValues(t, 1, summary.TotalCases)
}

func TestMonthlyAccomplishmentBuckets(t *testing.T) {
	db := openTestDB(t)
	svc := NewReportService(db)
	lgu := createUser(t, db, models.RoleLGUAdmin, "lgu@example.gov.ph", "secret123!")

	releasedCase(t, db, lgu, "PAS2608003", 1)

	monthly, err := svc.MonthlyAccomplishment(3)
	require.NoError(t, err)
	require.Len(t, monthly, 3)

	last := monthly[len(monthly)-1]
	assert.Equal(t, time.Now().Format("2006-01"), last.Month)
	assert.EqualValues(t, 1, last.Submitted)
}

func TestReportCSVExport(t *testing.T) {
	db := openTestDB(t)
	svc := NewReportService(db)
	lgu := createUser(t, db, models.RoleLGUAdmin, "lgu@example.gov.ph", "secret123!")

	releasedCase(t, db, lgu, "PAS2608004", 3)

	var buf bytes.Buffer
	require.NoError(t, svc.WriteCSV(&buf, ReportRange{}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "tracking_id", rows[0][0])
	assert.Equal(t, "PAS2608004", rows[1][0])
	assert.Equal(t, "Reyes, Ana", rows[1][1])
	assert.Equal(t, "Malolos", rows[1][4])
	assert.Equal(t, "TD-PAS2608004", rows[1][7])
}
