package services

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/legaltrack-ph/legaltrack/backend/internal/logger"
	"github.com/legaltrack-ph/legaltrack/backend/internal/metrics"
	"github.com/legaltrack-ph/legaltrack/backend/internal/models"
)

var (
	ErrInvalidTransition = errors.New("action not allowed for the current case status")
	ErrReasonRequired    = errors.New("a reason is required")
	ErrNumberTaken       = errors.New("numbering number already in use")
	ErrCaseAssigned      = errors.New("case is already assigned")
	ErrNotAnExaminer     = errors.New("assignee must be an active examiner")
)

const trackingIDAttempts = 10

// WorkflowService moves cases through the processing pipeline. Every
// transition runs in a transaction and writes exactly one audit record.
type WorkflowService struct {
	DB       *gorm.DB
	notifier *NotificationService
}

func NewWorkflowService(db *gorm.DB, notifier *NotificationService) *WorkflowService {
	return &WorkflowService{DB: db, notifier: notifier}
}

// generateTrackingID builds PAS[YY][MM][serial] where serial is the
// zero-padded next number within the current month. The unique index on
// tracking_id backstops concurrent finalizes; on collision we rescan.
func generateTrackingID(tx *gorm.DB, now time.Time) (string, error) {
	prefix := fmt.Sprintf("PAS%02d%02d", now.Year()%100, int(now.Month()))

	for attempt := 0; attempt < trackingIDAttempts; attempt++ {
		var last string
		err := tx.Model(&models.Case{}).
			Where("tracking_id LIKE ?", prefix+"%").
			Order("tracking_id DESC").
			Limit(1).
			Pluck("tracking_id", &last).Error
		if err != nil {
			return "", fmt.Errorf("scan tracking ids: %w", err)
		}

		serial := 1
		if last != "" {
			fmt.Sscanf(last[len(prefix):], "%d", &serial)
			serial++
		}
		serial += attempt // skip ahead on retry

		candidate := fmt.Sprintf("%s%04d", prefix, serial)
		var count int64
		if err := tx.Model(&models.Case{}).Where("tracking_id = ?", candidate).Count(&count).Error; err != nil {
			return "", fmt.Errorf("check tracking id: %w", err)
		}
		if count == 0 {
			return candidate, nil
		}
	}

	// Pathological contention; fall back to a random suffix in range.
	return fmt.Sprintf("%s%04d", prefix, 1000+rand.Intn(9000)), nil
}

func (s *WorkflowService) transition(c *models.Case, actor *models.User, action string, details models.AuditDetails, mutate func(tx *gorm.DB) error) error {
	oldStatus := c.Status
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := mutate(tx); err != nil {
			return err
		}
		if details == nil {
			details = models.AuditDetails{}
		}
		details["old_status"] = oldStatus
		details["new_status"] = c.Status
		return Record(tx, &models.AuditLog{
			ActorID:      &actor.ID,
			Action:       action,
			TargetObject: models.CaseTarget(c),
			Details:      details,
		})
	})
	if err != nil {
		return err
	}
	metrics.IncCaseTransition(c.Status)
	logger.WithFields(map[string]interface{}{
		"case":   c.Key(),
		"from":   oldStatus,
		"to":     c.Status,
		"action": action,
	}).Info("Case transition")
	return nil
}

// Finalize is the LGU submit step. It verifies required documents, assigns
// a tracking ID on first submission and queues the case for receiving.
func (s *WorkflowService) Finalize(c *models.Case, actor *models.User) error {
	if !CanFinalize(actor, c) {
		return ErrInvalidTransition
	}
	if missing := c.MissingRequiredDocuments(); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingRequired, strings.Join(missing, ", "))
	}

	now := time.Now()
	return s.transition(c, actor, models.AuditCaseStatusChange, models.AuditDetails{"event": "finalized"}, func(tx *gorm.DB) error {
		if c.TrackingID == nil || *c.TrackingID == "" {
			tid, err := generateTrackingID(tx, now)
			if err != nil {
				return err
			}
			c.TrackingID = &tid
		}
		c.Status = models.StatusNotReceived
		c.SubmittedAt = &now
		if err := tx.Save(c).Error; err != nil {
			return fmt.Errorf("finalize case: %w", err)
		}
		return nil
	})
}

// Receive records physical receipt at the capitol.
func (s *WorkflowService) Receive(c *models.Case, actor *models.User) error {
	if actor.Role != models.RoleCapitolReceiving {
		return ErrNotAuthorized
	}
	if c.Status != models.StatusNotReceived && c.Status != models.StatusReturned {
		return ErrInvalidTransition
	}

	now := time.Now()
	return s.transition(c, actor, models.AuditCaseReceipt, nil, func(tx *gorm.DB) error {
		c.Status = models.StatusReceived
		c.ReceivedByID = &actor.ID
		c.ReceivedAt = &now
		if err := tx.Save(c).Error; err != nil {
			return fmt.Errorf("receive case: %w", err)
		}
		return nil
	})
}

// ReturnToLGU sends an unassigned case back to the submitter for correction.
func (s *WorkflowService) ReturnToLGU(c *models.Case, reason string, actor *models.User) error {
	if actor.Role != models.RoleCapitolReceiving {
		return ErrNotAuthorized
	}
	if c.Status != models.StatusNotReceived && c.Status != models.StatusReceived {
		return ErrInvalidTransition
	}
	if c.AssignedToID != nil {
		return ErrCaseAssigned
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}

	now := time.Now()
	err := s.transition(c, actor, models.AuditCaseRejection, models.AuditDetails{"reason": reason}, func(tx *gorm.DB) error {
		c.Status = models.StatusReturned
		c.ReturnedByID = &actor.ID
		c.ReturnedAt = &now
		c.ReturnReason = reason
		// Clearing submitted_at hides the case from the public tracker
		// and the submissions list until the LGU resubmits.
		c.SubmittedAt = nil
		if err := tx.Save(c).Error; err != nil {
			return fmt.Errorf("return case: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.notifier.CaseReturned(c, reason)
	return nil
}

// Assign hands a received case to an examiner and starts the review.
func (s *WorkflowService) Assign(c *models.Case, examinerID uint, actor *models.User) error {
	if actor.Role != models.RoleCapitolReceiving {
		return ErrNotAuthorized
	}
	if c.Status != models.StatusReceived {
		return ErrInvalidTransition
	}
	if c.AssignedToID != nil {
		return ErrCaseAssigned
	}

	var examiner models.User
	if err := s.DB.First(&examiner, examinerID).Error; err != nil {
		return ErrNotAnExaminer
	}
	if examiner.Role != models.RoleCapitolExaminer || !examiner.IsActive() {
		return ErrNotAnExaminer
	}

	now := time.Now()
	return s.transition(c, actor, models.AuditCaseAssignment,
		models.AuditDetails{"assigned_to": examiner.Email}, func(tx *gorm.DB) error {
			c.Status = models.StatusInReview
			c.AssignedToID = &examiner.ID
			c.AssignedAt = &now
			if err := tx.Save(c).Error; err != nil {
				return fmt.Errorf("assign case: %w", err)
			}
			return nil
		})
}

// SubmitForApproval forwards the examiner's own case to the approver queue.
func (s *WorkflowService) SubmitForApproval(c *models.Case, actor *models.User) error {
	if err := s.requireAssignedExaminer(c, actor); err != nil {
		return err
	}

	return s.transition(c, actor, models.AuditCaseStatusChange, nil, func(tx *gorm.DB) error {
		c.Status = models.StatusForApproval
		if err := tx.Save(c).Error; err != nil {
			return fmt.Errorf("submit for approval: %w", err)
		}
		return nil
	})
}

// ReturnToReceiving sends an in-review case back and clears the assignment.
func (s *WorkflowService) ReturnToReceiving(c *models.Case, reason string, actor *models.User) error {
	if err := s.requireAssignedExaminer(c, actor); err != nil {
		return err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}

	now := time.Now()
	return s.transition(c, actor, models.AuditCaseStatusChange,
		models.AuditDetails{"reason": reason, "to": "capitol_receiving"}, func(tx *gorm.DB) error {
			c.Status = models.StatusReceived
			c.ReturnedByID = &actor.ID
			c.ReturnedAt = &now
			c.ReturnReason = reason
			c.AssignedToID = nil
			c.AssignedAt = nil
			if err := tx.Model(c).
				Updates(map[string]any{
					"status":         c.Status,
					"returned_by_id": c.ReturnedByID,
					"returned_at":    c.ReturnedAt,
					"return_reason":  c.ReturnReason,
					"assigned_to_id": nil,
					"assigned_at":    nil,
				}).Error; err != nil {
				return fmt.Errorf("return to receiving: %w", err)
			}
			return nil
		})
}

func (s *WorkflowService) requireAssignedExaminer(c *models.Case, actor *models.User) error {
	if actor.Role != models.RoleCapitolExaminer {
		return ErrNotAuthorized
	}
	if c.AssignedToID == nil || *c.AssignedToID != actor.ID {
		return ErrNotAuthorized
	}
	if c.Status != models.StatusInReview {
		return ErrInvalidTransition
	}
	return nil
}

// Approve moves an approved case on to numbering.
func (s *WorkflowService) Approve(c *models.Case, actor *models.User) error {
	if actor.Role != models.RoleCapitolApprover {
		return ErrNotAuthorized
	}
	if c.Status != models.StatusForApproval {
		return ErrInvalidTransition
	}

	return s.transition(c, actor, models.AuditCaseApproval, nil, func(tx *gorm.DB) error {
		c.Status = models.StatusForNumbering
		if err := tx.Save(c).Error; err != nil {
			return fmt.Errorf("approve case: %w", err)
		}
		return nil
	})
}

// ReturnForCorrection rejects at the approval stage; the case goes straight
// back to the LGU and loses its examiner.
func (s *WorkflowService) ReturnForCorrection(c *models.Case, reason string, actor *models.User) error {
	if actor.Role != models.RoleCapitolApprover {
		return ErrNotAuthorized
	}
	if c.Status != models.StatusForApproval {
		return ErrInvalidTransition
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrReasonRequired
	}

	now := time.Now()
	err := s.transition(c, actor, models.AuditCaseRejection, models.AuditDetails{"reason": reason}, func(tx *gorm.DB) error {
		c.Status = models.StatusReturned
		c.ReturnedByID = &actor.ID
		c.ReturnedAt = &now
		c.ReturnReason = reason
		c.AssignedToID = nil
		c.AssignedAt = nil
		if err := tx.Model(c).
			Updates(map[string]any{
				"status":         c.Status,
				"returned_by_id": c.ReturnedByID,
				"returned_at":    c.ReturnedAt,
				"return_reason":  c.ReturnReason,
				"assigned_to_id": nil,
				"assigned_at":    nil,
			}).Error; err != nil {
			return fmt.Errorf("return for correction: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.notifier.CaseReturned(c, reason)
	return nil
}

// AssignNumber records the manual numbering number; duplicates are rejected
// case-insensitively.
func (s *WorkflowService) AssignNumber(c *models.Case, number string, actor *models.User) error {
	if actor.Role != models.RoleCapitolNumberer {
		return ErrNotAuthorized
	}
	if c.Status != models.StatusForNumbering {
		return ErrInvalidTransition
	}
	number = strings.TrimSpace(number)
	if number == "" {
		return errors.New("numbering number is required")
	}

	return s.transition(c, actor, models.AuditCaseStatusChange,
		models.AuditDetails{"numbering_number": number}, func(tx *gorm.DB) error {
			var count int64
			if err := tx.Model(&models.Case{}).
				Where("LOWER(numbering_number) = LOWER(?) AND id <> ?", number, c.ID).
				Count(&count).Error; err != nil {
				return fmt.Errorf("check numbering number: %w", err)
			}
			if count > 0 {
				return ErrNumberTaken
			}
			c.NumberingNumber = &number
			c.Status = models.StatusForRelease
			if err := tx.Save(c).Error; err != nil {
				return fmt.Errorf("assign number: %w", err)
			}
			return nil
		})
}

// Release completes the pipeline and stamps the release time.
func (s *WorkflowService) Release(c *models.Case, actor *models.User) error {
	if actor.Role != models.RoleCapitolReleaser {
		return ErrNotAuthorized
	}
	if c.Status != models.StatusForRelease {
		return ErrInvalidTransition
	}

	now := time.Now()
	err := s.transition(c, actor, models.AuditCaseRelease, nil, func(tx *gorm.DB) error {
		c.Status = models.StatusReleased
		c.ReleasedAt = &now
		if err := tx.Save(c).Error; err != nil {
			return fmt.Errorf("release case: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.notifier.CaseReleased(c)
	return nil
}
