package models

import "time"

// CaseRemark is an internal note left by capitol staff. Remarks are never
// exposed on the public tracker.
type CaseRemark struct {
	ID     uint `json:"id" gorm:"primaryKey"`
	CaseID uint `json:"case_id" gorm:"index"`

	Text string `json:"text" gorm:"type:text"`

	CreatedByID *uint `json:"created_by_id,omitempty"`
	CreatedBy   *User `json:"created_by,omitempty" gorm:"foreignKey:CreatedByID"`

	CreatedAt time.Time `json:"created_at"`
}
