package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/legaltrack-ph/legaltrack/backend/internal/config"
	"github.com/legaltrack-ph/legaltrack/backend/internal/metrics"
	"github.com/legaltrack-ph/legaltrack/backend/internal/models"
)

const (
	// LockoutAfterFailedAttempts locks the account after this many
	// consecutive failures.
	LockoutAfterFailedAttempts = 5
	// LockoutDuration is how long a locked account stays locked.
	LockoutDuration = 30 * time.Minute

	// PasswordChangeLimit caps password changes per window for non-admins.
	PasswordChangeLimit  = 2
	PasswordChangeWindow = 30 * 24 * time.Hour

	// PasswordResetThrottleLimit caps reset requests per email per window.
	PasswordResetThrottleLimit  = 3
	PasswordResetThrottleWindow = time.Hour

	// ActivationLinkMaxAge bounds the signed activation token.
	ActivationLinkMaxAge = time.Hour
	// TempPasswordMaxAge bounds the temporary password issued with it.
	TempPasswordMaxAge = 7 * 24 * time.Hour

	sessionTokenMaxAge = 24 * time.Hour
)

var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrAccountLocked       = errors.New("account locked")
	ErrAccountInactive     = errors.New("account is not active")
	ErrPasswordChangeLimit = errors.New("password change limit reached")
	ErrActivationInvalid   = errors.New("activation link is not valid")
	ErrActivationExpired   = errors.New("activation link expired")
	ErrNotPending          = errors.New("account is not pending activation")
)

// RequestMeta carries per-request client details into audit records.
type RequestMeta struct {
	IP        string
	UserAgent string
}

// Claims is the JWT payload for an authenticated session.
type Claims struct {
	UserID  uint   `json:"uid"`
	Role    string `json:"role"`
	StaffID string `json:"staff_id"`
	jwt.RegisteredClaims
}

type activationClaims struct {
	UserID uint   `json:"uid"`
	Nonce  string `json:"nonce"`
	jwt.RegisteredClaims
}

// AuthService owns credential checks, lockout counters, session tokens and
// the activation/reset token flows.
type AuthService struct {
	DB  *gorm.DB
	cfg config.Config
}

func NewAuthService(db *gorm.DB, cfg config.Config) *AuthService {
	return &AuthService{DB: db, cfg: cfg}
}

// Login authenticates by staff ID. The configured admin email alias may be
// typed in place of a staff ID and resolves to that account. Five
// consecutive failures lock the account for thirty minutes.
func (s *AuthService) Login(identifier, password string, meta RequestMeta) (string, *models.User, error) {
	identifier = strings.TrimSpace(identifier)
	now := time.Now()

	var user models.User
	var err error
	if strings.EqualFold(identifier, s.cfg.AdminEmailAlias) {
		err = s.DB.Where("LOWER(email) = LOWER(?)", identifier).First(&user).Error
	} else {
		err = s.DB.Where("LOWER(staff_id) = LOWER(?)", identifier).First(&user).Error
	}
	if err != nil {
		metrics.IncLoginFailure()
		_ = Record(s.DB, &models.AuditLog{
			Action:       models.AuditLoginFailed,
			TargetObject: "Identifier: " + identifier,
			Details:      models.AuditDetails{"reason": "unknown_identifier"},
			IPAddress:    meta.IP,
			UserAgent:    meta.UserAgent,
		})
		return "", nil, ErrInvalidCredentials
	}

	if user.LockedUntil != nil && user.LockedUntil.After(now) {
		metrics.IncLoginFailure()
		_ = Record(s.DB, &models.AuditLog{
			ActorID:      &user.ID,
			Action:       models.AuditLoginFailed,
			TargetUserID: &user.ID,
			TargetObject: models.UserTarget(&user),
			Details:      models.AuditDetails{"reason": "locked"},
			IPAddress:    meta.IP,
			UserAgent:    meta.UserAgent,
		})
		return "", nil, ErrAccountLocked
	}

	if !user.CheckPassword(password) {
		user.FailedLoginAttempts++
		details := models.AuditDetails{"reason": "invalid_credentials", "attempts": user.FailedLoginAttempts}
		if user.FailedLoginAttempts >= LockoutAfterFailedAttempts {
			until := now.Add(LockoutDuration)
			user.LockedUntil = &until
			details["reason"] = "locked"
			details["lockout_until"] = until.Format(time.RFC3339)
		}
		if err := s.DB.Model(&user).Select("failed_login_attempts", "locked_until").Updates(&user).Error; err != nil {
			return "", nil, fmt.Errorf("record failed attempt: %w", err)
		}
		metrics.IncLoginFailure()
		_ = Record(s.DB, &models.AuditLog{
			ActorID:      &user.ID,
			Action:       models.AuditLoginFailed,
			TargetUserID: &user.ID,
			TargetObject: models.UserTarget(&user),
			Details:      details,
			IPAddress:    meta.IP,
			UserAgent:    meta.UserAgent,
		})
		return "", nil, ErrInvalidCredentials
	}

	if !user.IsActive() {
		metrics.IncLoginFailure()
		_ = Record(s.DB, &models.AuditLog{
			ActorID:      &user.ID,
			Action:       models.AuditLoginFailed,
			TargetUserID: &user.ID,
			TargetObject: models.UserTarget(&user),
			Details:      models.AuditDetails{"reason": "account_" + user.AccountStatus},
			IPAddress:    meta.IP,
			UserAgent:    meta.UserAgent,
		})
		return "", nil, ErrAccountInactive
	}

	// Successful login resets counters.
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.LastLogin = &now
	if err := s.DB.Model(&user).Select("failed_login_attempts", "locked_until", "last_login").Updates(&user).Error; err != nil {
		return "", nil, fmt.Errorf("reset lockout counters: %w", err)
	}

	token, err := s.issueSessionToken(&user, now)
	if err != nil {
		return "", nil, err
	}

	metrics.IncLogin()
	_ = Record(s.DB, &models.AuditLog{
		ActorID:      &user.ID,
		Action:       models.AuditLogin,
		TargetUserID: &user.ID,
		TargetObject: models.UserTarget(&user),
		IPAddress:    meta.IP,
		UserAgent:    meta.UserAgent,
	})

	return token, &user, nil
}

func (s *AuthService) issueSessionToken(user *models.User, now time.Time) (string, error) {
	claims := Claims{
		UserID:  user.ID,
		Role:    user.Role,
		StaffID: user.StaffID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(sessionTokenMaxAge)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}
	return token, nil
}

// ValidateToken parses and verifies a session token.
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidCredentials
	}
	return claims, nil
}

// GetUserByID loads one user.
func (s *AuthService) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.DB.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout only audits; token invalidation is client-side cookie clearing.
func (s *AuthService) Logout(user *models.User, meta RequestMeta) {
	_ = Record(s.DB, &models.AuditLog{
		ActorID:      &user.ID,
		Action:       models.AuditLogout,
		TargetUserID: &user.ID,
		TargetObject: models.UserTarget(user),
		IPAddress:    meta.IP,
		UserAgent:    meta.UserAgent,
	})
}

// ChangePassword verifies the old password and applies the new one.
// Non-admin accounts are limited to two changes per thirty days.
func (s *AuthService) ChangePassword(userID uint, oldPassword, newPassword string) error {
	var user models.User
	if err := s.DB.First(&user, userID).Error; err != nil {
		return err
	}

	if !user.CheckPassword(oldPassword) {
		return ErrInvalidCredentials
	}

	if user.Role != models.RoleSuperAdmin {
		cutoff := time.Now().Add(-PasswordChangeWindow)
		var recent int64
		err := s.DB.Model(&models.AuditLog{}).
			Where("actor_id = ? AND action IN ? AND created_at >= ?",
				user.ID,
				[]string{models.AuditResetPassword, models.AuditPasswordResetComplete},
				cutoff,
			).Count(&recent).Error
		if err != nil {
			return fmt.Errorf("count recent password changes: %w", err)
		}
		if recent >= PasswordChangeLimit {
			return ErrPasswordChangeLimit
		}
	}

	if err := user.SetPassword(newPassword); err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.MustChangePassword = false
	if err := s.DB.Model(&user).Select("password_hash", "must_change_password").Updates(&user).Error; err != nil {
		return fmt.Errorf("save password: %w", err)
	}

	return Record(s.DB, &models.AuditLog{
		ActorID:      &user.ID,
		Action:       models.AuditResetPassword,
		TargetUserID: &user.ID,
		TargetObject: models.UserTarget(&user),
		Details:      models.AuditDetails{"self_service": true},
	})
}

// SignActivationToken issues the one-hour activation link token bound to the
// user's current nonce, so resending invalidates older links.
func (s *AuthService) SignActivationToken(user *models.User, now time.Time) (string, error) {
	claims := activationClaims{
		UserID: user.ID,
		Nonce:  user.ActivationNonce,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ActivationLinkMaxAge)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign activation token: %w", err)
	}
	return token, nil
}

// Activate consumes an activation token and sets the permanent password,
// turning the account active.
func (s *AuthService) Activate(tokenString, newPassword string, meta RequestMeta) (*models.User, error) {
	claims := &activationClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrActivationExpired
		}
		return nil, ErrActivationInvalid
	}
	if !token.Valid {
		return nil, ErrActivationInvalid
	}

	var user models.User
	if err := s.DB.First(&user, claims.UserID).Error; err != nil {
		return nil, ErrActivationInvalid
	}
	if user.AccountStatus != models.AccountPending {
		return nil, ErrNotPending
	}
	if user.ActivationNonce == "" || claims.Nonce != user.ActivationNonce {
		return nil, ErrActivationInvalid
	}

	now := time.Now()
	if err := user.SetPassword(newPassword); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user.AccountStatus = models.AccountActive
	user.ActivatedAt = &now
	user.ActivationNonce = ""
	user.MustChangePassword = false

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&user).
			Select("password_hash", "account_status", "activated_at", "activation_nonce", "must_change_password").
			Updates(&user).Error; err != nil {
			return fmt.Errorf("activate account: %w", err)
		}
		return Record(tx, &models.AuditLog{
			ActorID:      &user.ID,
			Action:       models.AuditActivateAccount,
			TargetUserID: &user.ID,
			TargetObject: models.UserTarget(&user),
			Details:      models.AuditDetails{"method": "activation_link"},
			IPAddress:    meta.IP,
			UserAgent:    meta.UserAgent,
		})
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// RequestPasswordReset records a reset request. More than three requests per
// email per hour are silently dropped so callers cannot probe for accounts.
func (s *AuthService) RequestPasswordReset(email string, meta RequestMeta) error {
	email = strings.ToLower(strings.TrimSpace(email))
	now := time.Now()

	if err := s.DB.Create(&models.PasswordResetRequest{Email: email, IPAddress: meta.IP}).Error; err != nil {
		return fmt.Errorf("record reset request: %w", err)
	}

	var recent int64
	cutoff := now.Add(-PasswordResetThrottleWindow)
	if err := s.DB.Model(&models.PasswordResetRequest{}).
		Where("email = ? AND requested_at >= ?", email, cutoff).
		Count(&recent).Error; err != nil {
		return fmt.Errorf("count reset requests: %w", err)
	}

	throttled := recent > PasswordResetThrottleLimit
	return Record(s.DB, &models.AuditLog{
		Action:       models.AuditPasswordResetRequest,
		TargetObject: "Email: " + email,
		Details:      models.AuditDetails{"throttled": throttled, "count_last_hour": recent},
		IPAddress:    meta.IP,
		UserAgent:    meta.UserAgent,
	})
}
