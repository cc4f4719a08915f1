package models

import "time"

// FAQItem is a published question/answer pair on the public support page.
type FAQItem struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Question    string    `json:"question"`
	Answer      string    `json:"answer" gorm:"type:text"`
	IsPublished bool      `json:"is_published" gorm:"default:true"`
	SortOrder   int       `json:"sort_order" gorm:"default:0"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SupportFeedback is a public feedback submission; no account required.
type SupportFeedback struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message" gorm:"type:text"`
	Resolved  bool      `json:"resolved" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PasswordResetRequest logs every reset request for per-email throttling.
type PasswordResetRequest struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Email       string    `json:"email" gorm:"index"`
	IPAddress   string    `json:"ip_address,omitempty"`
	RequestedAt time.Time `json:"requested_at" gorm:"index;autoCreateTime"`
}
