package models

import (
	"fmt"
	"strings"
	"time"
)

// Case statuses. The pipeline runs not_received → received → in_review →
// for_approval → for_numbering → for_release → released, with returned
// reachable from receiving and approval. Drafts have no tracking ID yet.
const (
	StatusDraft        = "draft"
	StatusNotReceived  = "not_received"
	StatusReceived     = "received"
	StatusInReview     = "in_review"
	StatusForApproval  = "for_approval"
	StatusForNumbering = "for_numbering"
	StatusForRelease   = "for_release"
	StatusReleased     = "released"
	StatusReturned     = "returned"
)

var statusLabels = map[string]string{
	StatusDraft:        "Draft",
	StatusNotReceived:  "Not Received",
	StatusReceived:     "Received",
	StatusInReview:     "In Review",
	StatusForApproval:  "For Approval",
	StatusForNumbering: "For Numbering",
	StatusForRelease:   "For Release",
	StatusReleased:     "Released",
	StatusReturned:     "Returned for Correction",
}

// StatusLabel returns the staff-facing display name for a status.
func StatusLabel(status string) string {
	if l, ok := statusLabels[status]; ok {
		return l
	}
	return status
}

// PublicStatusLabel maps internal statuses to the simplified wording shown
// on the public tracker.
func PublicStatusLabel(status string) string {
	switch status {
	case StatusNotReceived:
		return "Pending"
	case StatusInReview:
		return "Under Review"
	case StatusDraft:
		return "In Progress"
	}
	return StatusLabel(status)
}

// Case types accepted from LGUs.
const (
	CaseTypeLandFirstTime          = "land_first_time"
	CaseTypeBuildingImprovements   = "building_improvements"
	CaseTypeSubdivision            = "subdivision_consolidation"
	CaseTypeReassessment           = "reassessment_reclassification"
	CaseTypeAreaChange             = "area_increase_decrease"
	CaseTypeTransferOwnership      = "transfer_ownership_tax_decl"
)

var caseTypeLabels = map[string]string{
	CaseTypeLandFirstTime:        "Land declared for the first-time",
	CaseTypeBuildingImprovements: "Building and other improvements / Machineries",
	CaseTypeSubdivision:          "Subdivision or Consolidation",
	CaseTypeReassessment:         "Re-assessment / Re-classification",
	CaseTypeAreaChange:           "Increase / Decrease of Area",
	CaseTypeTransferOwnership:    "Transfer of Ownership of Tax Declaration",
}

// CaseTypeLabel returns the display name for a case type.
func CaseTypeLabel(caseType string) string {
	if l, ok := caseTypeLabels[caseType]; ok {
		return l
	}
	return caseType
}

// ValidCaseType reports whether caseType is a recognized case type, or empty.
func ValidCaseType(caseType string) bool {
	if caseType == "" {
		return true
	}
	_, ok := caseTypeLabels[caseType]
	return ok
}

// ChecklistItem is one entry of a case's document checklist.
type ChecklistItem struct {
	DocType  string `json:"doc_type"`
	Required bool   `json:"required"`
	Uploaded bool   `json:"uploaded"`
}

// Checklist is stored as a JSON column on the case row.
type Checklist []ChecklistItem

// Case is a legal case submission routed from an LGU through the capitol
// processing pipeline. Drafts carry only a DraftID; the public tracking ID
// is generated when the LGU finalizes the submission.
type Case struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	TrackingID *string `json:"tracking_id,omitempty" gorm:"uniqueIndex"`
	DraftID    string  `json:"draft_id" gorm:"uniqueIndex"`
	Status     string  `json:"status" gorm:"index;default:'draft'"`

	ClientName       string `json:"client_name"`
	ClientFirstName  string `json:"client_first_name"`
	ClientLastName   string `json:"client_last_name"`
	ClientMiddleName string `json:"client_middle_name"`
	ClientSuffix     string `json:"client_suffix"`
	ClientNumber     string `json:"client_number"`
	ClientEmail      string `json:"client_email"`

	CaseType string `json:"case_type"`

	// NumberingNumber is the manual number assigned by the capitol numberer.
	NumberingNumber *string `json:"numbering_number,omitempty" gorm:"uniqueIndex"`

	Checklist Checklist `json:"checklist" gorm:"serializer:json"`

	SubmittedByID *uint `json:"submitted_by_id,omitempty"`
	SubmittedBy   *User `json:"submitted_by,omitempty" gorm:"foreignKey:SubmittedByID"`

	ReceivedByID *uint      `json:"received_by_id,omitempty"`
	ReceivedBy   *User      `json:"received_by,omitempty" gorm:"foreignKey:ReceivedByID"`
	ReceivedAt   *time.Time `json:"received_at,omitempty"`

	ReturnedByID *uint      `json:"returned_by_id,omitempty"`
	ReturnedBy   *User      `json:"returned_by,omitempty" gorm:"foreignKey:ReturnedByID"`
	ReturnedAt   *time.Time `json:"returned_at,omitempty"`
	ReturnReason string     `json:"return_reason,omitempty"`

	AssignedToID *uint      `json:"assigned_to_id,omitempty"`
	AssignedTo   *User      `json:"assigned_to,omitempty" gorm:"foreignKey:AssignedToID"`
	AssignedAt   *time.Time `json:"assigned_at,omitempty"`

	ReleasedAt *time.Time `json:"released_at,omitempty"`

	// SubmittedAt marks the LGU's finalize step; nil while the case is a
	// draft or after it has been returned for correction.
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
	UpdatedAt time.Time `json:"updated_at" gorm:"index"`

	Documents []CaseDocument `json:"documents,omitempty" gorm:"foreignKey:CaseID"`
	Remarks   []CaseRemark   `json:"remarks,omitempty" gorm:"foreignKey:CaseID"`
}

// Key returns the identifier shown in audit targets: the tracking ID when
// assigned, otherwise the draft UUID.
func (c *Case) Key() string {
	if c.TrackingID != nil && *c.TrackingID != "" {
		return *c.TrackingID
	}
	return c.DraftID
}

// IsSubmitted reports whether the LGU has finalized the submission.
func (c *Case) IsSubmitted() bool {
	return c.SubmittedAt != nil
}

// ClientDisplayName prefers the structured name fields, formatted as
// "Last, First Middle Suffix", and falls back to the legacy single field.
func (c *Case) ClientDisplayName() string {
	last := strings.TrimSpace(c.ClientLastName)
	first := strings.TrimSpace(c.ClientFirstName)
	middle := strings.TrimSpace(c.ClientMiddleName)
	suffix := strings.TrimSpace(c.ClientSuffix)

	if last == "" && first == "" && middle == "" && suffix == "" {
		return strings.TrimSpace(c.ClientName)
	}

	main := last
	if first != "" {
		if main != "" {
			main += ", "
		}
		main += first
	}
	rest := strings.TrimSpace(strings.Join([]string{middle, suffix}, " "))
	if rest != "" {
		main = strings.TrimSpace(main + " " + rest)
	}
	return strings.Trim(main, ", ")
}

// ClientDisplayContact joins the contact number and email when both exist.
func (c *Case) ClientDisplayContact() string {
	email := strings.TrimSpace(c.ClientEmail)
	number := strings.TrimSpace(c.ClientNumber)
	if email != "" && number != "" {
		return fmt.Sprintf("%s / %s", number, email)
	}
	if number != "" {
		return number
	}
	return email
}

// MissingRequiredDocuments lists checklist items flagged required that have
// no upload yet. Finalize is blocked while this is non-empty.
func (c *Case) MissingRequiredDocuments() []string {
	var missing []string
	for _, item := range c.Checklist {
		if item.Required && !item.Uploaded {
			missing = append(missing, item.DocType)
		}
	}
	return missing
}

// EndorsementLetterDocType heads every checklist regardless of case type.
const EndorsementLetterDocType = "Endorsement Letter"

var caseTypeRequirements = map[string][]string{
	CaseTypeLandFirstTime: {
		"Letter-request (Municipal/Provincial Assessor)",
		"Technical Description / Sketch Plan (GE) and DENR-approved Survey Plan",
		"CENRO Certification (alienable and disposable area)",
		"Affidavit of Ownership (long, continuous possession)",
		"Barangay Captain Certification (possession/occupancy, no controversy)",
		"Affidavit of adjoining owners",
		"Ocular inspection/investigation report (Assessor/Staff)",
	},
	CaseTypeBuildingImprovements: {
		"Letter-request (Municipal/Provincial Assessor)",
		"Approved building permit + building plan / Certificate of Completion / Occupancy permit",
		"Affidavit of Ownership / Sworn Statement of Market Value (if no building permit)",
		"Affidavit of Consent from land owner (if land owned by another)",
		"Inspection report / FAAS of building/structure (Assessor/Staff)",
		"Registration from Municipal Engineer (machineries)",
	},
	CaseTypeSubdivision: {
		"Letter request (subdivision/consolidation)",
		"Inspection report + endorsement (Assessor/Staff)",
		"Approved subdivision / survey plan",
		"Tax Clearance (current)",
	},
	CaseTypeReassessment: {
		"Letter request (re-assessment/re-classification)",
		"Inspection report + endorsement (Assessor/Staff)",
		"DAR Clearance / MARO Certification (as applicable)",
		"Tax Clearance (current)",
		"Tax Declaration (photocopy)",
	},
	CaseTypeAreaChange: {
		"Letter request (correction of area)",
		"Inspection report + endorsement (Assessor/Staff)",
		"Approved Survey Plan / Technical Description",
		"Affidavit of adjoining owners (if increase)",
		"Tax Clearance (current)",
		"DENR Certification (alienable and disposable area)",
	},
	CaseTypeTransferOwnership: {
		"Letter request (transfer of ownership of tax declaration)",
		"Endorsement from Municipal Assessor",
		"Deed of Conveyance (Registry of Deeds)",
		"Tax Clearance (current)",
		"Certificate Authorizing Registration (CAR)",
		"Subdivision / Consolidation Plan",
		"Transfer Tax / Transfer Fee Receipt",
		"Certified true copy / machine copy of title (if titled)",
	},
}

// CaseTypeRequirements returns the suggested document types for a case type,
// always headed by the endorsement letter.
func CaseTypeRequirements(caseType string) []string {
	reqs := []string{EndorsementLetterDocType}
	seen := map[string]bool{strings.ToLower(EndorsementLetterDocType): true}
	for _, r := range caseTypeRequirements[strings.TrimSpace(caseType)] {
		key := strings.ToLower(r)
		if seen[key] {
			continue
		}
		seen[key] = true
		reqs = append(reqs, r)
	}
	return reqs
}
