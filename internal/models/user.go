package models

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Roles recognized by the workflow. LGU admins submit cases; the capitol
// roles each own one stage of the processing pipeline.
const (
	RoleSuperAdmin       = "super_admin"
	RoleLGUAdmin         = "lgu_admin"
	RoleCapitolReceiving = "capitol_receiving"
	RoleCapitolExaminer  = "capitol_examiner"
	RoleCapitolApprover  = "capitol_approver"
	RoleCapitolNumberer  = "capitol_numberer"
	RoleCapitolReleaser  = "capitol_releaser"
)

// Account lifecycle states. New staff accounts start pending until the
// activation link is used to set a permanent password.
const (
	AccountPending  = "pending"
	AccountActive   = "active"
	AccountInactive = "inactive"
)

var roleLabels = map[string]string{
	RoleSuperAdmin:       "Super Admin",
	RoleLGUAdmin:         "LGU Admin",
	RoleCapitolReceiving: "Capitol Receiver",
	RoleCapitolExaminer:  "Capitol Examiner",
	RoleCapitolApprover:  "Capitol Approver",
	RoleCapitolNumberer:  "Capitol Numberer",
	RoleCapitolReleaser:  "Capitol Releaser",
}

// RoleLabel returns the display name for a role constant.
func RoleLabel(role string) string {
	if l, ok := roleLabels[role]; ok {
		return l
	}
	return role
}

// ValidRole reports whether role is one of the recognized role constants.
func ValidRole(role string) bool {
	_, ok := roleLabels[role]
	return ok
}

var staffIDPrefixes = map[string]string{
	RoleSuperAdmin:       "ADM",
	RoleLGUAdmin:         "LGU",
	RoleCapitolReceiving: "REC",
	RoleCapitolExaminer:  "EXM",
	RoleCapitolApprover:  "APR",
	RoleCapitolNumberer:  "NUM",
	RoleCapitolReleaser:  "REL",
}

// StaffIDPrefix maps a role to its three-letter staff ID segment.
func StaffIDPrefix(role string) string {
	if p, ok := staffIDPrefixes[role]; ok {
		return p
	}
	return "USR"
}

// FormatStaffID builds a staff ID such as 25-EXM-0004.
func FormatStaffID(role string, seq int) string {
	return fmt.Sprintf("25-%s-%04d", StaffIDPrefix(role), seq)
}

// User represents a LegalTrack account: either an LGU submitter or a
// provincial capitol staff member. Staff log in with their generated staff
// ID rather than their email address.
type User struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	StaffID      string `json:"staff_id" gorm:"uniqueIndex"`
	Email        string `json:"email" gorm:"uniqueIndex"`
	PasswordHash string `json:"-"` // Never serialize password hash
	FullName     string `json:"full_name"`
	Designation  string `json:"designation"`
	Position     string `json:"position"`
	Role         string `json:"role"`

	// LGUMunicipality is set for lgu_admin accounts only.
	LGUMunicipality string `json:"lgu_municipality,omitempty"`

	AccountStatus      string `json:"account_status" gorm:"default:'pending'"`
	MustChangePassword bool   `json:"must_change_password" gorm:"default:false"`

	// Activation fields mirror the temp-password onboarding flow: the
	// activation link expires after an hour, the temp password after 7 days.
	ActivationNonce        string     `json:"-" gorm:"index"`
	ActivationSentAt       *time.Time `json:"activation_sent_at,omitempty"`
	ActivatedAt            *time.Time `json:"activated_at,omitempty"`
	TempPasswordCreatedAt  *time.Time `json:"-"`

	FailedLoginAttempts int        `json:"-" gorm:"default:0"`
	LockedUntil         *time.Time `json:"-"`
	LastLogin           *time.Time `json:"last_login,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SetPassword hashes and sets the user's password.
func (u *User) SetPassword(password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword compares the provided password with the stored hash.
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	return err == nil
}

// IsActive reports whether the account may authenticate at all.
func (u *User) IsActive() bool {
	return u.AccountStatus == AccountActive
}

// IsCapitolStaff reports whether the user holds one of the capitol pipeline roles.
func (u *User) IsCapitolStaff() bool {
	switch u.Role {
	case RoleCapitolReceiving, RoleCapitolExaminer, RoleCapitolApprover,
		RoleCapitolNumberer, RoleCapitolReleaser:
		return true
	}
	return false
}

// CanViewCase applies the visibility rule: capitol staff and the super admin
// see everything, LGU admins see only their own submissions.
func (u *User) CanViewCase(c *Case) bool {
	if u.Role == RoleSuperAdmin || u.IsCapitolStaff() {
		return true
	}
	if u.Role == RoleLGUAdmin && c.SubmittedByID != nil {
		return *c.SubmittedByID == u.ID
	}
	return false
}

const tempPasswordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*"

// GenerateTempPassword returns a strong 12-character temporary password.
func GenerateTempPassword() (string, error) {
	buf := make([]byte, 12)
	max := big.NewInt(int64(len(tempPasswordAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate temp password: %w", err)
		}
		buf[i] = tempPasswordAlphabet[n.Int64()]
	}
	return string(buf), nil
}
