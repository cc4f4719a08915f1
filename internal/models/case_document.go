package models

import "time"

// CaseDocument is one uploaded file per checklist document type. The
// (case, doc type) pair is unique; re-uploading a type overwrites the file.
type CaseDocument struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	CaseID uint `json:"case_id" gorm:"uniqueIndex:uniq_case_doc_type"`

	DocType string `json:"doc_type" gorm:"uniqueIndex:uniq_case_doc_type"`

	// FilePath is relative to the configured media directory.
	FilePath    string `json:"-"`
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`

	UploadedByID *uint `json:"uploaded_by_id,omitempty"`
	UploadedBy   *User `json:"uploaded_by,omitempty" gorm:"foreignKey:UploadedByID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
