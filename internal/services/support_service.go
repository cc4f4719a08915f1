package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/legaltrack-ph/legaltrack/backend/internal/models"
)

// SupportService backs the public FAQ page and the feedback form.
type SupportService struct {
	DB *gorm.DB
}

func NewSupportService(db *gorm.DB) *SupportService {
	return &SupportService{DB: db}
}

// PublishedFAQs returns the FAQ entries shown on the public page.
func (s *SupportService) PublishedFAQs() ([]models.FAQItem, error) {
	var items []models.FAQItem
	err := s.DB.Where("is_published = ?", true).
		Order("sort_order ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list faqs: %w", err)
	}
	return items, nil
}

// AllFAQs returns every entry for the admin editor.
func (s *SupportService) AllFAQs() ([]models.FAQItem, error) {
	var items []models.FAQItem
	if err := s.DB.Order("sort_order ASC, id ASC").Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list faqs: %w", err)
	}
	return items, nil
}

// FAQInput is the admin create/update payload.
type FAQInput struct {
	Question    string `json:"question"`
	Answer      string `json:"answer"`
	IsPublished *bool  `json:"is_published"`
	SortOrder   int    `json:"sort_order"`
}

func (s *SupportService) CreateFAQ(input FAQInput) (*models.FAQItem, error) {
	question := strings.TrimSpace(input.Question)
	answer := strings.TrimSpace(input.Answer)
	if question == "" || answer == "" {
		return nil, errors.New("question and answer are required")
	}

	item := &models.FAQItem{
		Question:    question,
		Answer:      answer,
		IsPublished: true,
		SortOrder:   input.SortOrder,
	}
	if input.IsPublished != nil {
		item.IsPublished = *input.IsPublished
	}
	if err := s.DB.Create(item).Error; err != nil {
		return nil, fmt.Errorf("create faq: %w", err)
	}
	return item, nil
}

func (s *SupportService) UpdateFAQ(id uint, input FAQInput) (*models.FAQItem, error) {
	var item models.FAQItem
	if err := s.DB.First(&item, id).Error; err != nil {
		return nil, errors.New("faq not found")
	}

	if q := strings.TrimSpace(input.Question); q != "" {
		item.Question = q
	}
	if a := strings.TrimSpace(input.Answer); a != "" {
		item.Answer = a
	}
	if input.IsPublished != nil {
		item.IsPublished = *input.IsPublished
	}
	item.SortOrder = input.SortOrder

	if err := s.DB.Save(&item).Error; err != nil {
		return nil, fmt.Errorf("update faq: %w", err)
	}
	return &item, nil
}

func (s *SupportService) DeleteFAQ(id uint) error {
	res := s.DB.Delete(&models.FAQItem{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete faq: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.New("faq not found")
	}
	return nil
}

// SubmitFeedback stores a public feedback message and audits it. The actor
// is nil for anonymous visitors.
func (s *SupportService) SubmitFeedback(name, email, message string, actorID *uint, meta RequestMeta) (*models.SupportFeedback, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, errors.New("message is required")
	}

	fb := &models.SupportFeedback{
		Name:    strings.TrimSpace(name),
		Email:   strings.TrimSpace(email),
		Message: message,
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(fb).Error; err != nil {
			return fmt.Errorf("create feedback: %w", err)
		}
		return Record(tx, &models.AuditLog{
			ActorID:      actorID,
			Action:       models.AuditSupportFeedback,
			TargetObject: fmt.Sprintf("Feedback: %d", fb.ID),
			IPAddress:    meta.IP,
			UserAgent:    meta.UserAgent,
		})
	})
	if err != nil {
		return nil, err
	}
	return fb, nil
}

// ListFeedback pages feedback for the admin inbox, unresolved first.
func (s *SupportService) ListFeedback(page, limit int) ([]models.SupportFeedback, int64, error) {
	if limit <= 0 {
		limit = 20
	}
	if page <= 0 {
		page = 1
	}

	var total int64
	if err := s.DB.Model(&models.SupportFeedback{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count feedback: %w", err)
	}

	var items []models.SupportFeedback
	err := s.DB.Order("resolved ASC, created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list feedback: %w", err)
	}
	return items, total, nil
}

// ResolveFeedback flips the resolved flag.
func (s *SupportService) ResolveFeedback(id uint, resolved bool) error {
	res := s.DB.Model(&models.SupportFeedback{}).Where("id = ?", id).Update("resolved", resolved)
	if res.Error != nil {
		return fmt.Errorf("resolve feedback: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.New("feedback not found")
	}
	return nil
}
