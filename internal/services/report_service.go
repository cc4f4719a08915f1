package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"gorm.io/gorm"

	"github.com/legaltrack-ph/legaltrack/backend/internal/models"
)

// ReportService computes the dashboard analytics and the accomplishment
// report exports. All queries cover submitted cases only.
type ReportService struct {
	DB *gorm.DB
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{DB: db}
}

// StatusCount is one slice of the status breakdown.
type StatusCount struct {
	Status string `json:"status"`
	Label  string `json:"label"`
	Count  int64  `json:"count"`
}

// ReportRange bounds a report period; zero values mean unbounded.
type ReportRange struct {
	From time.Time
	To   time.Time
}

func (s *ReportService) submitted(r ReportRange) *gorm.DB {
	q := s.DB.Model(&models.Case{}).Where("submitted_at IS NOT NULL")
	if !r.From.IsZero() {
		q = q.Where("submitted_at >= ?", r.From)
	}
	if !r.To.IsZero() {
		q = q.Where("submitted_at < ?", r.To.AddDate(0, 0, 1))
	}
	return q
}

// StatusBreakdown counts submitted cases per status, in pipeline order.
func (s *ReportService) StatusBreakdown(r ReportRange) ([]StatusCount, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := s.submitted(r).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("status breakdown: %w", err)
	}

	counts := map[string]int64{}
	for _, rw := range rows {
		counts[rw.Status] = rw.Count
	}

	order := []string{
		models.StatusNotReceived, models.StatusReceived, models.StatusInReview,
		models.StatusForApproval, models.StatusForNumbering, models.StatusForRelease,
		models.StatusReleased, models.StatusReturned,
	}
	out := make([]StatusCount, 0, len(order))
	for _, st := range order {
		out = append(out, StatusCount{Status: st, Label: models.StatusLabel(st), Count: counts[st]})
	}
	return out, nil
}

// MonthlyCount is one month of submission and release volume.
type MonthlyCount struct {
	Month     string `json:"month"`
	Submitted int64  `json:"submitted"`
	Released  int64  `json:"released"`
}

// MonthlyAccomplishment tallies submissions and releases for the trailing
// N months, oldest first.
func (s *ReportService) MonthlyAccomplishment(months int) ([]MonthlyCount, error) {
	if months <= 0 {
		months = 12
	}
	now := time.Now()
	out := make([]MonthlyCount, 0, months)

	for i := months - 1; i >= 0; i-- {
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -i, 0)
		end := start.AddDate(0, 1, 0)

		var submitted, released int64
		err := s.DB.Model(&models.Case{}).
			Where("submitted_at >= ? AND submitted_at < ?", start, end).
			Count(&submitted).Error
		if err != nil {
			return nil, fmt.Errorf("monthly submissions: %w", err)
		}
		err = s.DB.Model(&models.Case{}).
			Where("released_at >= ? AND released_at < ?", start, end).
			Count(&released).Error
		if err != nil {
			return nil, fmt.Errorf("monthly releases: %w", err)
		}

		out = append(out, MonthlyCount{
			Month:     start.Format("2006-01"),
			Submitted: submitted,
			Released:  released,
		})
	}
	return out, nil
}

// Summary is the admin dashboard headline block.
type Summary struct {
	TotalCases        int64         `json:"total_cases"`
	ReleasedCases     int64         `json:"released_cases"`
	PendingCases      int64         `json:"pending_cases"`
	ActiveUsers       int64         `json:"active_users"`
	AvgProcessingDays float64       `json:"avg_processing_days"`
	ByStatus          []StatusCount `json:"by_status"`
}

// BuildSummary assembles the dashboard summary for the given range.
func (s *ReportService) BuildSummary(r ReportRange) (*Summary, error) {
	out := &Summary{}

	if err := s.submitted(r).Count(&out.TotalCases).Error; err != nil {
		return nil, fmt.Errorf("count cases: %w", err)
	}
	if err := s.submitted(r).Where("status = ?", models.StatusReleased).Count(&out.ReleasedCases).Error; err != nil {
		return nil, fmt.Errorf("count released: %w", err)
	}
	out.PendingCases = out.TotalCases - out.ReleasedCases

	if err := s.DB.Model(&models.User{}).
		Where("account_status = ?", models.AccountActive).
		Count(&out.ActiveUsers).Error; err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}

	avg, err := s.avgProcessingDays(r)
	if err != nil {
		return nil, err
	}
	out.AvgProcessingDays = avg

	out.ByStatus, err = s.StatusBreakdown(r)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// avgProcessingDays averages submit-to-release duration over released cases.
// Computed in Go to stay portable across sqlite date handling.
func (s *ReportService) avgProcessingDays(r ReportRange) (float64, error) {
	var cases []models.Case
	err := s.submitted(r).
		Where("status = ? AND released_at IS NOT NULL", models.StatusReleased).
		Select("submitted_at", "released_at").
		Find(&cases).Error
	if err != nil {
		return 0, fmt.Errorf("processing times: %w", err)
	}
	if len(cases) == 0 {
		return 0, nil
	}

	var total time.Duration
	for _, c := range cases {
		total += c.ReleasedAt.Sub(*c.SubmittedAt)
	}
	days := total.Hours() / 24 / float64(len(cases))
	return days, nil
}

// WriteCSV streams the accomplishment report for the range: one row per
// submitted case with its pipeline milestones.
func (s *ReportService) WriteCSV(w io.Writer, r ReportRange) error {
	var cases []models.Case
	err := s.submitted(r).
		Preload("SubmittedBy").
		Order("submitted_at ASC").
		Find(&cases).Error
	if err != nil {
		return fmt.Errorf("export cases: %w", err)
	}

	cw := csv.NewWriter(w)
	header := []string{
		"tracking_id", "client", "case_type", "status", "lgu",
		"submitted_at", "received_at", "numbering_number", "released_at",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	fmtTime := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("2006-01-02 15:04")
	}
	for _, c := range cases {
		tracking := ""
		if c.TrackingID != nil {
			tracking = *c.TrackingID
		}
		lgu := ""
		if c.SubmittedBy != nil {
			lgu = c.SubmittedBy.LGUMunicipality
		}
		number := ""
		if c.NumberingNumber != nil {
			number = *c.NumberingNumber
		}
		row := []string{
			tracking,
			c.ClientDisplayName(),
			models.CaseTypeLabel(c.CaseType),
			models.StatusLabel(c.Status),
			lgu,
			fmtTime(c.SubmittedAt),
			fmtTime(c.ReceivedAt),
			number,
			fmtTime(c.ReleasedAt),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
