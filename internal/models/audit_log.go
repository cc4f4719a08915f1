package models

import "time"

// Audit action tags. Every workflow transition, login event and account
// admin action appends exactly one record.
const (
	AuditLogin                 = "login"
	AuditLoginFailed           = "login_failed"
	AuditLogout                = "logout"
	AuditCreateUser            = "create_user"
	AuditUpdateUser            = "update_user"
	AuditDeactivateUser        = "deactivate_user"
	AuditReactivateUser        = "reactivate_user"
	AuditResetPassword         = "reset_password"
	AuditActivationEmailSent   = "activation_email_sent"
	AuditActivateAccount       = "activate_account"
	AuditPasswordResetRequest  = "password_reset_request"
	AuditPasswordResetComplete = "password_reset_complete"
	AuditCaseCreate            = "case_create"
	AuditCaseUpdate            = "case_update"
	AuditCaseRemark            = "case_remark"
	AuditCaseStatusChange      = "case_status_change"
	AuditCaseReceipt           = "case_receipt"
	AuditCaseAssignment        = "case_assignment"
	AuditCaseApproval          = "case_approval"
	AuditCaseRejection         = "case_rejection"
	AuditCaseRelease           = "case_release"
	AuditSupportFeedback       = "support_feedback"
)

// AuditDetails is the free-form JSON payload attached to a record.
type AuditDetails map[string]any

// AuditLog records who did what to which object. TargetObject is a display
// string such as "Case: PAS26010001" so records survive row deletion.
type AuditLog struct {
	ID uint `json:"id" gorm:"primaryKey"`

	ActorID *uint `json:"actor_id,omitempty" gorm:"index"`
	Actor   *User `json:"actor,omitempty" gorm:"foreignKey:ActorID"`

	Action string `json:"action" gorm:"index"`

	TargetUserID *uint `json:"target_user_id,omitempty"`
	TargetUser   *User `json:"target_user,omitempty" gorm:"foreignKey:TargetUserID"`

	TargetObject string       `json:"target_object" gorm:"index"`
	Details      AuditDetails `json:"details" gorm:"serializer:json"`

	IPAddress string `json:"ip_address,omitempty"`
	UserAgent string `json:"user_agent,omitempty" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// CaseTarget formats the audit target string for a case.
func CaseTarget(c *Case) string {
	if c.TrackingID != nil && *c.TrackingID != "" {
		return "Case: " + *c.TrackingID
	}
	return "Draft: " + c.DraftID
}

// UserTarget formats the audit target string for a user account.
func UserTarget(u *User) string {
	return "User: " + u.Email
}
