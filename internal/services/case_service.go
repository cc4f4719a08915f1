package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/legaltrack-ph/legaltrack/backend/internal/models"
)

var (
	ErrCaseNotFound    = errors.New("case not found")
	ErrNotEditable     = errors.New("case can no longer be edited")
	ErrDuplicateDoc    = errors.New("duplicate document type")
	ErrNotAuthorized   = errors.New("not authorized")
	ErrMissingRequired = errors.New("required documents are missing")
)

// draftDedupeWindow guards against browser back + resubmit creating twin drafts.
const draftDedupeWindow = 2 * time.Minute

// CaseService owns draft lifecycle, detail and checklist edits, listings and
// the public tracker view. Status transitions live in WorkflowService.
type CaseService struct {
	DB    *gorm.DB
	audit *AuditService
}

func NewCaseService(db *gorm.DB) *CaseService {
	return &CaseService{DB: db, audit: NewAuditService(db)}
}

// CaseDetailsInput is the step-one form payload.
type CaseDetailsInput struct {
	ClientName       string `json:"client_name"`
	ClientFirstName  string `json:"client_first_name"`
	ClientLastName   string `json:"client_last_name"`
	ClientMiddleName string `json:"client_middle_name"`
	ClientSuffix     string `json:"client_suffix"`
	ClientNumber     string `json:"client_number"`
	ClientEmail      string `json:"client_email"`
	CaseType         string `json:"case_type"`
}

func (in *CaseDetailsInput) apply(c *models.Case) {
	c.ClientName = strings.TrimSpace(in.ClientName)
	c.ClientFirstName = strings.TrimSpace(in.ClientFirstName)
	c.ClientLastName = strings.TrimSpace(in.ClientLastName)
	c.ClientMiddleName = strings.TrimSpace(in.ClientMiddleName)
	c.ClientSuffix = strings.TrimSpace(in.ClientSuffix)
	c.ClientNumber = strings.TrimSpace(in.ClientNumber)
	c.ClientEmail = strings.TrimSpace(in.ClientEmail)
	c.CaseType = strings.TrimSpace(in.CaseType)
	if c.ClientName == "" {
		c.ClientName = c.ClientDisplayName()
	}
}

// CanEditDetails applies the LGU editability rule: the submitter may edit
// drafts, unsubmitted cases and cases returned for correction.
func CanEditDetails(user *models.User, c *models.Case) bool {
	if user.Role != models.RoleLGUAdmin && user.Role != models.RoleCapitolReceiving {
		return false
	}
	if c.SubmittedByID == nil || *c.SubmittedByID != user.ID {
		return false
	}
	switch c.Status {
	case models.StatusDraft, models.StatusNotReceived, models.StatusReturned:
		return true
	}
	return false
}

// CanEditDocuments allows upload changes only pre-submission or after return.
func CanEditDocuments(user *models.User, c *models.Case) bool {
	if !CanEditDetails(user, c) {
		return false
	}
	return c.Status == models.StatusReturned || c.SubmittedAt == nil
}

// CanFinalize reports whether the owner may run the finalize step.
func CanFinalize(user *models.User, c *models.Case) bool {
	return CanEditDetails(user, c) && (c.SubmittedAt == nil || c.Status == models.StatusReturned)
}

// CreateDraft stores a new draft with a checklist seeded from the case type.
// A matching draft created within the last two minutes is reused instead.
func (s *CaseService) CreateDraft(input CaseDetailsInput, actor *models.User) (*models.Case, bool, error) {
	if !models.ValidCaseType(input.CaseType) {
		return nil, false, fmt.Errorf("unknown case type %q", input.CaseType)
	}

	var existing models.Case
	err := s.DB.Where(
		"submitted_by_id = ? AND created_at >= ? AND submitted_at IS NULL AND status IN ? AND client_first_name = ? AND client_last_name = ? AND case_type = ?",
		actor.ID,
		time.Now().Add(-draftDedupeWindow),
		[]string{models.StatusDraft, models.StatusNotReceived, models.StatusReturned},
		strings.TrimSpace(input.ClientFirstName),
		strings.TrimSpace(input.ClientLastName),
		strings.TrimSpace(input.CaseType),
	).Order("created_at DESC").First(&existing).Error
	if err == nil {
		input.apply(&existing)
		existing.Status = models.StatusDraft
		existing.SubmittedAt = nil
		if err := s.DB.Save(&existing).Error; err != nil {
			return nil, false, fmt.Errorf("reuse draft: %w", err)
		}
		return &existing, true, nil
	}

	c := &models.Case{
		DraftID:       uuid.New().String(),
		Status:        models.StatusDraft,
		SubmittedByID: &actor.ID,
	}
	input.apply(c)

	for _, req := range models.CaseTypeRequirements(c.CaseType) {
		c.Checklist = append(c.Checklist, models.ChecklistItem{DocType: req, Required: true})
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(c).Error; err != nil {
			return fmt.Errorf("create draft: %w", err)
		}
		return Record(tx, &models.AuditLog{
			ActorID:      &actor.ID,
			Action:       models.AuditCaseCreate,
			TargetObject: models.CaseTarget(c),
			Details:      models.AuditDetails{"client": c.ClientName, "case_type": c.CaseType},
		})
	})
	if err != nil {
		return nil, false, err
	}
	return c, false, nil
}

// UpdateDetails applies a step-one edit on an editable case.
func (s *CaseService) UpdateDetails(c *models.Case, input CaseDetailsInput, actor *models.User) error {
	if !CanEditDetails(actor, c) {
		return ErrNotEditable
	}
	if !models.ValidCaseType(input.CaseType) {
		return fmt.Errorf("unknown case type %q", input.CaseType)
	}
	input.apply(c)

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(c).Error; err != nil {
			return fmt.Errorf("update case details: %w", err)
		}
		return Record(tx, &models.AuditLog{
			ActorID:      &actor.ID,
			Action:       models.AuditCaseUpdate,
			TargetObject: models.CaseTarget(c),
			Details:      models.AuditDetails{"step": 1},
		})
	})
}

// ChecklistInput is one checklist row from the step-two form.
type ChecklistInput struct {
	DocType  string `json:"doc_type"`
	Required bool   `json:"required"`
}

// UpdateChecklist replaces the checklist, recomputing uploaded flags from
// stored documents. The endorsement letter row is always kept. A case that
// was returned goes back to not_received and must be finalized again.
func (s *CaseService) UpdateChecklist(c *models.Case, items []ChecklistInput, actor *models.User) error {
	if !CanEditDocuments(actor, c) {
		return ErrNotEditable
	}

	seen := map[string]bool{}
	var checklist models.Checklist
	for _, item := range items {
		docType := strings.TrimSpace(item.DocType)
		if docType == "" {
			continue
		}
		key := strings.ToLower(docType)
		if seen[key] {
			return fmt.Errorf("%w: %s", ErrDuplicateDoc, docType)
		}
		seen[key] = true

		uploaded, err := s.documentExists(c.ID, docType)
		if err != nil {
			return err
		}
		checklist = append(checklist, models.ChecklistItem{
			DocType:  docType,
			Required: item.Required,
			Uploaded: uploaded,
		})
	}

	if !seen[strings.ToLower(models.EndorsementLetterDocType)] {
		uploaded, err := s.documentExists(c.ID, models.EndorsementLetterDocType)
		if err != nil {
			return err
		}
		checklist = append(models.Checklist{{
			DocType:  models.EndorsementLetterDocType,
			Uploaded: uploaded,
		}}, checklist...)
	}

	c.Checklist = checklist
	if c.Status == models.StatusReturned {
		c.Status = models.StatusNotReceived
	}
	c.SubmittedAt = nil

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(c).
			Select("checklist", "status", "submitted_at").
			Updates(c).Error; err != nil {
			return fmt.Errorf("update checklist: %w", err)
		}
		return Record(tx, &models.AuditLog{
			ActorID:      &actor.ID,
			Action:       models.AuditCaseUpdate,
			TargetObject: models.CaseTarget(c),
			Details:      models.AuditDetails{"step": 2, "items": len(c.Checklist)},
		})
	})
}

func (s *CaseService) documentExists(caseID uint, docType string) (bool, error) {
	var count int64
	err := s.DB.Model(&models.CaseDocument{}).
		Where("case_id = ? AND LOWER(doc_type) = LOWER(?)", caseID, docType).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check document: %w", err)
	}
	return count > 0, nil
}

// RefreshChecklistUpload flips the uploaded flag for one checklist row,
// inserting the row when the doc type is new.
func (s *CaseService) RefreshChecklistUpload(c *models.Case, docType string) error {
	found := false
	for i := range c.Checklist {
		if strings.EqualFold(c.Checklist[i].DocType, docType) {
			c.Checklist[i].Uploaded = true
			found = true
		}
	}
	if !found {
		c.Checklist = append(c.Checklist, models.ChecklistItem{DocType: docType, Uploaded: true})
	}
	// Column updates skip the json serializer; persist through the struct.
	if err := s.DB.Model(c).Select("checklist").Updates(c).Error; err != nil {
		return fmt.Errorf("refresh checklist: %w", err)
	}
	return nil
}

// GetByTrackingID loads a submitted case with its associations.
func (s *CaseService) GetByTrackingID(trackingID string) (*models.Case, error) {
	var c models.Case
	err := s.preloaded().
		Where("tracking_id = ? COLLATE NOCASE", strings.TrimSpace(trackingID)).
		First(&c).Error
	if err != nil {
		return nil, ErrCaseNotFound
	}
	return &c, nil
}

// GetByDraftID loads a case by its internal draft UUID.
func (s *CaseService) GetByDraftID(draftID string) (*models.Case, error) {
	var c models.Case
	if err := s.preloaded().Where("draft_id = ?", draftID).First(&c).Error; err != nil {
		return nil, ErrCaseNotFound
	}
	return &c, nil
}

func (s *CaseService) preloaded() *gorm.DB {
	return s.DB.
		Preload("Documents").
		Preload("Remarks", func(db *gorm.DB) *gorm.DB { return db.Order("created_at DESC") }).
		Preload("Remarks.CreatedBy").
		Preload("SubmittedBy").
		Preload("AssignedTo").
		Preload("ReceivedBy").
		Preload("ReturnedBy")
}

// Drafts lists the actor's unsubmitted drafts, most recently edited first.
func (s *CaseService) Drafts(actor *models.User) ([]models.Case, error) {
	var drafts []models.Case
	err := s.DB.Where("submitted_by_id = ? AND status = ? AND submitted_at IS NULL", actor.ID, models.StatusDraft).
		Order("updated_at DESC").
		Find(&drafts).Error
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	return drafts, nil
}

// DeleteDraft removes one of the actor's own drafts and its documents.
func (s *CaseService) DeleteDraft(draftID string, actor *models.User) error {
	var c models.Case
	err := s.DB.Where("draft_id = ? AND submitted_by_id = ? AND status = ? AND submitted_at IS NULL",
		draftID, actor.ID, models.StatusDraft).First(&c).Error
	if err != nil {
		return ErrCaseNotFound
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("case_id = ?", c.ID).Delete(&models.CaseDocument{}).Error; err != nil {
			return fmt.Errorf("delete draft documents: %w", err)
		}
		if err := tx.Delete(&c).Error; err != nil {
			return fmt.Errorf("delete draft: %w", err)
		}
		return nil
	})
}

// AddRemark stores an internal remark; capitol staff and super admin only.
func (s *CaseService) AddRemark(c *models.Case, text string, actor *models.User) (*models.CaseRemark, error) {
	if !actor.IsCapitolStaff() && actor.Role != models.RoleSuperAdmin {
		return nil, ErrNotAuthorized
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("remark text is required")
	}

	remark := &models.CaseRemark{CaseID: c.ID, Text: text, CreatedByID: &actor.ID}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(remark).Error; err != nil {
			return fmt.Errorf("create remark: %w", err)
		}
		detail := text
		if len(detail) > 2000 {
			detail = detail[:2000]
		}
		return Record(tx, &models.AuditLog{
			ActorID:      &actor.ID,
			Action:       models.AuditCaseRemark,
			TargetObject: models.CaseTarget(c),
			Details:      models.AuditDetails{"text": detail},
		})
	})
	if err != nil {
		return nil, err
	}
	return remark, nil
}

// SubmissionsFilter narrows the staff submissions listing.
type SubmissionsFilter struct {
	Tab      string
	Query    string
	CaseType string
	LGU      string
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	Limit    int
}

var submissionTabs = map[string][]string{
	"pending":       {models.StatusNotReceived, models.StatusReturned},
	"received":      {models.StatusReceived},
	"under_review":  {models.StatusInReview},
	"for_approval":  {models.StatusForApproval},
	"for_numbering": {models.StatusForNumbering},
	"for_release":   {models.StatusForRelease},
	"released":      {models.StatusReleased},
}

// Submissions lists submitted cases scoped to the viewer's role: examiners
// see their assignments, approver/numberer/releaser their stage queue, LGU
// admins their own submissions.
func (s *CaseService) Submissions(viewer *models.User, filter SubmissionsFilter) ([]models.Case, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = 15
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	q := s.DB.Model(&models.Case{}).
		Preload("SubmittedBy").
		Preload("AssignedTo").
		Where("submitted_at IS NOT NULL")

	switch viewer.Role {
	case models.RoleLGUAdmin:
		q = q.Where("submitted_by_id = ?", viewer.ID)
	case models.RoleCapitolExaminer:
		q = q.Where("assigned_to_id = ?", viewer.ID)
	case models.RoleCapitolApprover:
		q = q.Where("status = ?", models.StatusForApproval)
	case models.RoleCapitolNumberer:
		q = q.Where("status = ?", models.StatusForNumbering)
	case models.RoleCapitolReleaser:
		q = q.Where("status = ?", models.StatusForRelease)
	}

	if statuses, ok := submissionTabs[filter.Tab]; ok {
		q = q.Where("status IN ?", statuses)
	}
	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		q = q.Where(
			"tracking_id LIKE ? OR client_name LIKE ? OR client_first_name LIKE ? OR client_last_name LIKE ? OR client_email LIKE ? OR client_number LIKE ?",
			like, like, like, like, like, like)
	}
	if filter.CaseType != "" {
		q = q.Where("case_type = ?", filter.CaseType)
	}
	if filter.LGU != "" {
		q = q.Where("submitted_by_id IN (?)",
			s.DB.Model(&models.User{}).Select("id").Where("lgu_municipality = ?", filter.LGU))
	}
	if filter.DateFrom != nil {
		q = q.Where("created_at >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		q = q.Where("created_at < ?", filter.DateTo.AddDate(0, 0, 1))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count submissions: %w", err)
	}

	var cases []models.Case
	err := q.Order("created_at DESC, id DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&cases).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list submissions: %w", err)
	}
	return cases, total, nil
}

// Capabilities are the per-viewer action flags shown on the case detail page.
type Capabilities struct {
	CanEdit               bool `json:"can_edit"`
	CanReceive            bool `json:"can_receive"`
	CanReturn             bool `json:"can_return"`
	CanAssign             bool `json:"can_assign"`
	CanSubmitForApproval  bool `json:"can_submit_for_approval"`
	CanReturnToReceiving  bool `json:"can_return_to_receiving"`
	CanApprove            bool `json:"can_approve"`
	CanNumber             bool `json:"can_number"`
	CanRelease            bool `json:"can_release"`
	CanRemark             bool `json:"can_remark"`
}

// CapabilitiesFor computes the action flags for a viewer and case.
func CapabilitiesFor(user *models.User, c *models.Case) Capabilities {
	unassigned := c.AssignedToID == nil
	mine := c.AssignedToID != nil && *c.AssignedToID == user.ID

	return Capabilities{
		CanEdit: CanEditDetails(user, c),
		CanReceive: user.Role == models.RoleCapitolReceiving &&
			(c.Status == models.StatusNotReceived || c.Status == models.StatusReturned),
		CanReturn: user.Role == models.RoleCapitolReceiving && unassigned &&
			(c.Status == models.StatusNotReceived || c.Status == models.StatusReceived),
		CanAssign: user.Role == models.RoleCapitolReceiving && unassigned &&
			c.Status == models.StatusReceived,
		CanSubmitForApproval: user.Role == models.RoleCapitolExaminer && mine &&
			c.Status == models.StatusInReview,
		CanReturnToReceiving: user.Role == models.RoleCapitolExaminer && mine &&
			c.Status == models.StatusInReview,
		CanApprove: user.Role == models.RoleCapitolApprover && c.Status == models.StatusForApproval,
		CanNumber:  user.Role == models.RoleCapitolNumberer && c.Status == models.StatusForNumbering,
		CanRelease: user.Role == models.RoleCapitolReleaser && c.Status == models.StatusForRelease,
		CanRemark:  user.IsCapitolStaff() || user.Role == models.RoleSuperAdmin,
	}
}

// TimelineEvent is one public tracker entry; no actor identities.
type TimelineEvent struct {
	Label string    `json:"label"`
	When  time.Time `json:"when"`
}

// PublicSummary is the tracker payload for a tracking ID. Remarks,
// documents and submitter identity are deliberately absent.
type PublicSummary struct {
	TrackingID   string          `json:"tracking_id"`
	PublicStatus string          `json:"public_status"`
	UpdatedAt    time.Time       `json:"updated_at"`
	Timeline     []TimelineEvent `json:"timeline"`
}

// TrackCase resolves a tracking ID to its public summary. Only finalized
// submissions are trackable.
func (s *CaseService) TrackCase(trackingID string) (*PublicSummary, error) {
	var c models.Case
	err := s.DB.Where("tracking_id = ? COLLATE NOCASE AND submitted_at IS NOT NULL",
		strings.TrimSpace(trackingID)).First(&c).Error
	if err != nil {
		return nil, ErrCaseNotFound
	}

	timeline := []TimelineEvent{{Label: "Request Created", When: c.CreatedAt}}
	if c.ReceivedAt != nil {
		timeline = append(timeline, TimelineEvent{Label: "Physically Received", When: *c.ReceivedAt})
	}
	if c.AssignedAt != nil {
		timeline = append(timeline, TimelineEvent{Label: "Assigned for Review", When: *c.AssignedAt})
	}

	history, err := s.audit.CaseHistory(models.CaseTarget(&c))
	if err != nil {
		return nil, err
	}
	for _, h := range history {
		switch h.Action {
		case models.AuditCaseStatusChange, models.AuditCaseApproval, models.AuditCaseRejection, models.AuditCaseRelease:
			label := "Status Updated"
			if ns, ok := h.Details["new_status"].(string); ok && ns != "" {
				label = "Status: " + models.PublicStatusLabel(ns)
			}
			timeline = append(timeline, TimelineEvent{Label: label, When: h.CreatedAt})
		case models.AuditCaseReceipt:
			timeline = append(timeline, TimelineEvent{Label: "Physically Received", When: h.CreatedAt})
		case models.AuditCaseAssignment:
			timeline = append(timeline, TimelineEvent{Label: "Assigned for Review", When: h.CreatedAt})
		}
	}

	// De-dup by (label, second).
	seen := map[string]bool{}
	uniq := timeline[:0]
	for _, e := range timeline {
		key := e.Label + "|" + e.When.Format(time.RFC3339)
		if seen[key] {
			continue
		}
		seen[key] = true
		uniq = append(uniq, e)
	}

	return &PublicSummary{
		TrackingID:   *c.TrackingID,
		PublicStatus: models.PublicStatusLabel(c.Status),
		UpdatedAt:    c.UpdatedAt,
		Timeline:     uniq,
	}, nil
}
