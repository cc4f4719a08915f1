package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"gorm.io/gorm"

	"github.com/legaltrack-ph/legaltrack/backend/internal/models"
)

// AuditService appends and queries the audit trail.
type AuditService struct {
	DB *gorm.DB
}

func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{DB: db}
}

// Record appends one audit entry using the given handle, which may be a
// transaction so the entry commits or rolls back with the change it
// describes.
func Record(db *gorm.DB, entry *models.AuditLog) error {
	if err := db.Create(entry).Error; err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}

// AuditFilter narrows audit listings and exports.
type AuditFilter struct {
	Action string
	Query  string // matches target object, actor email or target user email
	Page   int
	Limit  int
}

func (s *AuditService) query(filter AuditFilter) *gorm.DB {
	q := s.DB.Model(&models.AuditLog{}).
		Preload("Actor").
		Preload("TargetUser")

	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		q = q.Where(
			"target_object LIKE ? OR actor_id IN (?) OR target_user_id IN (?)",
			like,
			s.DB.Model(&models.User{}).Select("id").Where("email LIKE ?", like),
			s.DB.Model(&models.User{}).Select("id").Where("email LIKE ?", like),
		)
	}
	return q
}

// List returns a page of audit entries, newest first, plus the total count.
func (s *AuditService) List(filter AuditFilter) ([]models.AuditLog, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = 25
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	q := s.query(filter)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	var entries []models.AuditLog
	err := q.Order("created_at DESC, id DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&entries).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	return entries, total, nil
}

// CaseHistory returns every audit entry recorded against a case target,
// oldest first.
func (s *AuditService) CaseHistory(target string) ([]models.AuditLog, error) {
	var entries []models.AuditLog
	err := s.DB.Preload("Actor").
		Where("target_object = ?", target).
		Order("created_at ASC, id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("load case history: %w", err)
	}
	return entries, nil
}

// WriteCSV streams the filtered audit trail as CSV, newest first.
func (s *AuditService) WriteCSV(w io.Writer, filter AuditFilter) error {
	var entries []models.AuditLog
	if err := s.query(filter).Order("created_at DESC, id DESC").Find(&entries).Error; err != nil {
		return fmt.Errorf("export audit logs: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"created_at", "action", "actor_email", "target_user_email", "target_object", "ip_address"}); err != nil {
		return err
	}
	for _, e := range entries {
		actor, target := "", ""
		if e.Actor != nil {
			actor = e.Actor.Email
		}
		if e.TargetUser != nil {
			target = e.TargetUser.Email
		}
		if err := cw.Write([]string{
			e.CreatedAt.Format(time.RFC3339),
			e.Action,
			actor,
			target,
			e.TargetObject,
			e.IPAddress,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
