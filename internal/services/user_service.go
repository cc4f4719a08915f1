package services

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/legaltrack-ph/legaltrack/backend/internal/config"
	"github.com/legaltrack-ph/legaltrack/backend/internal/logger"
	"github.com/legaltrack-ph/legaltrack/backend/internal/models"
)

var (
	ErrEmailTaken      = errors.New("email already in use")
	ErrSelfEdit        = errors.New("cannot modify your own account here")
	ErrAccountNotFound = errors.New("account not found")
)

// UserService owns staff account administration: creation with generated
// staff IDs and temporary passwords, activation issuance and the
// active/inactive toggle.
type UserService struct {
	DB   *gorm.DB
	cfg  config.Config
	auth *AuthService
}

func NewUserService(db *gorm.DB, cfg config.Config, auth *AuthService) *UserService {
	return &UserService{DB: db, cfg: cfg, auth: auth}
}

// CreateStaffInput is the admin-facing account creation payload.
type CreateStaffInput struct {
	Email           string
	FullName        string
	Designation     string
	Position        string
	Role            string
	LGUMunicipality string
}

// CreatedStaff bundles the new account with its onboarding material. The
// temp password is returned once and never stored in clear.
type CreatedStaff struct {
	User           *models.User
	TempPassword   string
	ActivationLink string
}

// CreateStaff provisions a pending account: staff ID from the role prefix,
// strong temporary password, one-hour activation link.
func (s *UserService) CreateStaff(input CreateStaffInput, actor *models.User) (*CreatedStaff, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" {
		return nil, errors.New("email is required")
	}
	if !models.ValidRole(input.Role) {
		return nil, fmt.Errorf("unknown role %q", input.Role)
	}

	var count int64
	if err := s.DB.Model(&models.User{}).Where("LOWER(email) = ?", email).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if count > 0 {
		return nil, ErrEmailTaken
	}

	tempPassword, err := models.GenerateTempPassword()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &models.User{
		Email:           email,
		FullName:        strings.TrimSpace(input.FullName),
		Designation:     strings.TrimSpace(input.Designation),
		Position:        strings.TrimSpace(input.Position),
		Role:            input.Role,
		LGUMunicipality: strings.TrimSpace(input.LGUMunicipality),
		AccountStatus:   models.AccountPending,
	}
	if err := user.SetPassword(tempPassword); err != nil {
		return nil, fmt.Errorf("hash temp password: %w", err)
	}
	user.TempPasswordCreatedAt = &now

	var actorID *uint
	if actor != nil {
		actorID = &actor.ID
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		staffID, err := s.nextStaffID(tx, input.Role)
		if err != nil {
			return err
		}
		user.StaffID = staffID

		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		return Record(tx, &models.AuditLog{
			ActorID:      actorID,
			Action:       models.AuditCreateUser,
			TargetUserID: &user.ID,
			TargetObject: models.UserTarget(user),
			Details: models.AuditDetails{
				"staff_id":       user.StaffID,
				"role":           models.RoleLabel(user.Role),
				"account_status": user.AccountStatus,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	link, err := s.issueActivation(user, actorID, false)
	if err != nil {
		return nil, err
	}

	return &CreatedStaff{User: user, TempPassword: tempPassword, ActivationLink: link}, nil
}

// nextStaffID scans existing staff IDs for the role prefix and takes the
// next serial, mirroring how tracking IDs advance.
func (s *UserService) nextStaffID(tx *gorm.DB, role string) (string, error) {
	prefix := "25-" + models.StaffIDPrefix(role) + "-"

	var ids []string
	if err := tx.Model(&models.User{}).
		Where("staff_id LIKE ?", prefix+"%").
		Pluck("staff_id", &ids).Error; err != nil {
		return "", fmt.Errorf("scan staff ids: %w", err)
	}

	maxSeq := 0
	for _, id := range ids {
		tail := strings.TrimPrefix(id, prefix)
		if n, err := strconv.Atoi(tail); err == nil && n > maxSeq {
			maxSeq = n
		}
	}
	return models.FormatStaffID(role, maxSeq+1), nil
}

func (s *UserService) issueActivation(user *models.User, actorID *uint, resend bool) (string, error) {
	now := time.Now()
	user.ActivationNonce = uuid.New().String()
	user.ActivationSentAt = &now
	if user.TempPasswordCreatedAt == nil {
		user.TempPasswordCreatedAt = &now
	}
	if err := s.DB.Model(user).
		Select("activation_nonce", "activation_sent_at", "temp_password_created_at").
		Updates(user).Error; err != nil {
		return "", fmt.Errorf("store activation nonce: %w", err)
	}

	token, err := s.auth.SignActivationToken(user, now)
	if err != nil {
		return "", err
	}
	link := strings.TrimRight(s.cfg.BaseURL, "/") + "/activate/" + token

	if err := Record(s.DB, &models.AuditLog{
		ActorID:      actorID,
		Action:       models.AuditActivationEmailSent,
		TargetUserID: &user.ID,
		TargetObject: models.UserTarget(user),
		Details:      models.AuditDetails{"resend": resend, "account_status": user.AccountStatus},
	}); err != nil {
		return "", err
	}
	return link, nil
}

// ResendActivation rotates the temp password and link for a pending account.
func (s *UserService) ResendActivation(userID uint, actor *models.User) (*CreatedStaff, error) {
	var user models.User
	if err := s.DB.First(&user, userID).Error; err != nil {
		return nil, ErrAccountNotFound
	}
	if user.AccountStatus != models.AccountPending {
		return nil, ErrNotPending
	}

	tempPassword, err := models.GenerateTempPassword()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	if err := user.SetPassword(tempPassword); err != nil {
		return nil, fmt.Errorf("hash temp password: %w", err)
	}
	user.TempPasswordCreatedAt = &now
	if err := s.DB.Model(&user).
		Select("password_hash", "temp_password_created_at").
		Updates(&user).Error; err != nil {
		return nil, fmt.Errorf("rotate temp password: %w", err)
	}

	link, err := s.issueActivation(&user, &actor.ID, true)
	if err != nil {
		return nil, err
	}
	return &CreatedStaff{User: &user, TempPassword: tempPassword, ActivationLink: link}, nil
}

// UpdateStaffInput covers the editable profile fields.
type UpdateStaffInput struct {
	FullName    string
	Designation string
	Position    string
}

// UpdateStaff edits a staff profile and audits the before/after values.
func (s *UserService) UpdateStaff(userID uint, input UpdateStaffInput, actor *models.User) (*models.User, error) {
	if actor != nil && actor.ID == userID {
		return nil, ErrSelfEdit
	}

	var user models.User
	if err := s.DB.First(&user, userID).Error; err != nil {
		return nil, ErrAccountNotFound
	}

	before := models.AuditDetails{
		"full_name":   user.FullName,
		"designation": user.Designation,
		"position":    user.Position,
	}
	user.FullName = strings.TrimSpace(input.FullName)
	user.Designation = strings.TrimSpace(input.Designation)
	user.Position = strings.TrimSpace(input.Position)
	after := models.AuditDetails{
		"full_name":   user.FullName,
		"designation": user.Designation,
		"position":    user.Position,
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Select("full_name", "designation", "position").Updates(&user).Error; err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		return Record(tx, &models.AuditLog{
			ActorID:      &actor.ID,
			Action:       models.AuditUpdateUser,
			TargetUserID: &user.ID,
			TargetObject: models.UserTarget(&user),
			Details:      models.AuditDetails{"before": before, "after": after},
		})
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// ToggleActive flips an account between active and inactive. Accounts that
// were never activated fall back to pending so the activation flow restarts.
func (s *UserService) ToggleActive(userID uint, actor *models.User) (*models.User, error) {
	if actor != nil && actor.ID == userID {
		return nil, ErrSelfEdit
	}

	var user models.User
	if err := s.DB.First(&user, userID).Error; err != nil {
		return nil, ErrAccountNotFound
	}

	var action string
	switch user.AccountStatus {
	case models.AccountActive:
		user.AccountStatus = models.AccountInactive
		action = models.AuditDeactivateUser
	case models.AccountInactive:
		if user.ActivatedAt == nil {
			user.AccountStatus = models.AccountPending
		} else {
			user.AccountStatus = models.AccountActive
		}
		action = models.AuditReactivateUser
	default:
		return nil, ErrNotPending
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).Select("account_status").Updates(&user).Error; err != nil {
			return fmt.Errorf("toggle account: %w", err)
		}
		return Record(tx, &models.AuditLog{
			ActorID:      &actor.ID,
			Action:       action,
			TargetUserID: &user.ID,
			TargetObject: models.UserTarget(&user),
			Details:      models.AuditDetails{"account_status": user.AccountStatus},
		})
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// StaffFilter narrows the user management listing.
type StaffFilter struct {
	Query     string
	Role      string
	ExcludeID uint
	Page      int
	Limit     int
}

// List returns a page of accounts, newest first, plus the total count.
func (s *UserService) List(filter StaffFilter) ([]models.User, int64, error) {
	if filter.Limit <= 0 {
		filter.Limit = 10
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	q := s.DB.Model(&models.User{})
	if filter.ExcludeID != 0 {
		q = q.Where("id <> ?", filter.ExcludeID)
	}
	if filter.Role != "" {
		q = q.Where("role = ?", filter.Role)
	}
	if filter.Query != "" {
		like := "%" + filter.Query + "%"
		q = q.Where("email LIKE ? OR full_name LIKE ? OR staff_id LIKE ?", like, like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	var users []models.User
	err := q.Order("created_at DESC, id DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

// Examiners lists active examiners ordered by current review load so the
// receiver can balance assignments.
type ExaminerLoad struct {
	models.User
	ActiveLoad int64 `json:"active_load"`
}

func (s *UserService) Examiners() ([]ExaminerLoad, error) {
	var examiners []models.User
	err := s.DB.Where("role = ? AND account_status = ?", models.RoleCapitolExaminer, models.AccountActive).
		Order("full_name, email").
		Find(&examiners).Error
	if err != nil {
		return nil, fmt.Errorf("list examiners: %w", err)
	}

	out := make([]ExaminerLoad, 0, len(examiners))
	for _, e := range examiners {
		var load int64
		if err := s.DB.Model(&models.Case{}).
			Where("assigned_to_id = ? AND status = ?", e.ID, models.StatusInReview).
			Count(&load).Error; err != nil {
			return nil, fmt.Errorf("count examiner load: %w", err)
		}
		out = append(out, ExaminerLoad{User: e, ActiveLoad: load})
	}

	// Stable small-n sort by load, keeping name order within equal loads.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].ActiveLoad < out[j-1].ActiveLoad; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

// ExpireStaleActivations clears activation nonces for pending accounts whose
// temp password is older than seven days; the link dies with the nonce.
func (s *UserService) ExpireStaleActivations(now time.Time) (int64, error) {
	cutoff := now.Add(-TempPasswordMaxAge)
	res := s.DB.Model(&models.User{}).
		Where("account_status = ? AND activation_nonce <> '' AND temp_password_created_at < ?", models.AccountPending, cutoff).
		Update("activation_nonce", "")
	if res.Error != nil {
		return 0, fmt.Errorf("expire stale activations: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		logger.WithFields(map[string]interface{}{"expired": res.RowsAffected}).Info("expired stale activation links")
	}
	return res.RowsAffected, nil
}

// ClearElapsedLockouts resets lockout counters once the lockout window passed.
func (s *UserService) ClearElapsedLockouts(now time.Time) (int64, error) {
	res := s.DB.Model(&models.User{}).
		Where("locked_until IS NOT NULL AND locked_until < ?", now).
		Updates(map[string]any{"locked_until": nil, "failed_login_attempts": 0})
	if res.Error != nil {
		return 0, fmt.Errorf("clear elapsed lockouts: %w", res.Error)
	}
	return res.RowsAffected, nil
}
