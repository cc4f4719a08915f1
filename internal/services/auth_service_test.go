package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legaltrack-ph/legaltrack/backend/internal/models"
)

func TestLoginSuccessByStaffID(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, testConfig())
	user := createUser(t, db, models.RoleCapitolReceiving, "rec@example.gov.ph", "secret123!")

	token, got, err := svc.Login(user.StaffID, "secret123!", RequestMeta{IP: "127.0.0.1"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, user.ID, got.ID)
	assert.NotNil(t, got.LastLogin)
	assert.EqualValues(t, 1, auditCount(t, db, models.AuditLogin))

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Role, claims.Role)
}

func TestLoginStaffIDIsCaseInsensitive(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, testConfig())
	user := createUser(t, db, models.RoleCapitolExaminer, "exm@example.gov.ph", "secret123!")

	_, _, err := svc.Login("25-exm-"+user.StaffID[7:], "secret123!", RequestMeta{})
	require.NoError(t, err)
}

func TestLoginAdminEmailAlias(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, testConfig())
	createUser(t, db, models.RoleSuperAdmin, "admin@gmail.com", "secret123!")

	_, got, err := svc.Login("admin@gmail.com", "secret123!", RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperAdmin, got.Role)

	// Other emails do not work in the staff ID field.
	other := createUser(t, db, models.RoleCapitolApprover, "apr@example.gov.ph", "secret123!")
	_, _, err = svc.Login(other.Email, "secret123!", RequestMeta{})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginLockoutAfterFiveFailures(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, testConfig())
	user := createUser(t, db, models.RoleCapitolReceiving, "rec@example.gov.ph", "secret123!")

	for i := 0; i < LockoutAfterFailedAttempts; i++ {
		_, _, err := svc.Login(user.StaffID, "wrong", RequestMeta{})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	}

	// Locked now, even with the correct password.
	_, _, err := svc.Login(user.StaffID, "secret123!", RequestMeta{})
	assert.ErrorIs(t, err, ErrAccountLocked)

	var stored models.User
	require.NoError(t, db.First(&stored, user.ID).Error)
	require.NotNil(t, stored.LockedUntil)
	assert.True(t, stored.LockedUntil.After(time.Now()))
}

func TestLoginAfterLockoutElapses(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, testConfig())
	user := createUser(t, db, models.RoleCapitolReceiving, "rec@example.gov.ph", "secret123!")

	past := time.Now().Add(-time.Minute)
	require.NoError(t, db.Model(user).Updates(map[string]any{
		"failed_login_attempts": LockoutAfterFailedAttempts,
		"locked_until":          past,
	}).Error)

	_, got, err := svc.Login(user.StaffID, "secret123!", RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, 0, got.FailedLoginAttempts)
	assert.Nil(t, got.LockedUntil)
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, testConfig())
	user := createUser(t, db, models.RoleCapitolReceiving, "rec@example.gov.ph", "secret123!")
	require.NoError(t, db.Model(user).Update("account_status", models.AccountInactive).Error)

	_, _, err := svc.Login(user.StaffID, "secret123!", RequestMeta{})
	assert.ErrorIs(t, err, ErrAccountInactive)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, testConfig())
	user := createUser(t, db, models.RoleCapitolReceiving, "rec@example.gov.ph", "secret123!")

	token, _, err := svc.Login(user.StaffID, "secret123!", RequestMeta{})
	require.NoError(t, err)

	otherCfg := testConfig()
	otherCfg.JWTSecret = "different-secret"
	other := NewAuthService(db, otherCfg)
	_, err = other.ValidateToken(token)
	assert.Error(t, err)

	_, err = svc.ValidateToken(token + "x")
	assert.Error(t, err)
}

func TestChangePasswordThrottleForNonAdmins(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, testConfig())
	user := createUser(t, db, models.RoleCapitolExaminer, "exm@example.gov.ph", "secret123!")

	require.NoError(t, svc.ChangePassword(user.ID, "secret123!", "newpass456!"))
	require.NoError(t, svc.ChangePassword(user.ID, "newpass456!", "newpass789!"))

	err := svc.ChangePassword(user.ID, "newpass789!", "another000!")
	assert.ErrorIs(t, err, ErrPasswordChangeLimit)

	// The super admin is exempt from the throttle.
	admin := createUser(t, db, models.RoleSuperAdmin, "admin@gmail.com", "secret123!")
	require.NoError(t, svc.ChangePassword(admin.ID, "secret123!", "adminpass1!"))
	require.NoError(t, svc.ChangePassword(admin.ID, "adminpass1!", "adminpass2!"))
	require.NoError(t, svc.ChangePassword(admin.ID, "adminpass2!", "adminpass3!"))
}

func TestChangePasswordRequiresOldPassword(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, testConfig())
	user := createUser(t, db, models.RoleCapitolExaminer, "exm@example.gov.ph", "secret123!")

	err := svc.ChangePassword(user.ID, "wrong", "newpass456!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestActivationFlow(t *testing.T) {
	db := openTestDB(t)
	cfg := testConfig()
	svc := NewAuthService(db, cfg)
	users := NewUserService(db, cfg, svc)
	admin := createUser(t, db, models.RoleSuperAdmin, "admin@gmail.com", "secret123!")

	created, err := users.CreateStaff(CreateStaffInput{
		Email:    "new.staff@example.gov.ph",
		FullName: "New Staff",
		Role:     models.RoleCapitolNumberer,
	}, admin)
	require.NoError(t, err)
	require.NotEmpty(t, created.ActivationLink)
	token := created.ActivationLink[len(cfg.BaseURL+"/activate/"):]

	got, err := svc.Activate(token, "permanent123!", RequestMeta{})
	require.NoError(t, err)
	assert.Equal(t, models.AccountActive, got.AccountStatus)
	assert.Empty(t, got.ActivationNonce)

	// The link is single-use.
	_, err = svc.Activate(token, "permanent123!", RequestMeta{})
	assert.ErrorIs(t, err, ErrNotPending)

	// And the new password logs in.
	_, _, err = svc.Login(got.StaffID, "permanent123!", RequestMeta{})
	require.NoError(t, err)
}

func TestActivateRejectsRotatedNonce(t *testing.T) {
	db := openTestDB(t)
	cfg := testConfig()
	svc := NewAuthService(db, cfg)
	users := NewUserService(db, cfg, svc)
	admin := createUser(t, db, models.RoleSuperAdmin, "admin@gmail.com", "secret123!")

	created, err := users.CreateStaff(CreateStaffInput{
		Email:    "new.staff@example.gov.ph",
		FullName: "New Staff",
		Role:     models.RoleCapitolReleaser,
	}, admin)
	require.NoError(t, err)
	oldToken := created.ActivationLink[len(cfg.BaseURL+"/activate/"):]

	// Resending rotates the nonce and kills the old link.
	_, err = users.ResendActivation(created.User.ID, admin)
	require.NoError(t, err)

	_, err = svc.Activate(oldToken, "permanent123!", RequestMeta{})
	assert.ErrorIs(t, err, ErrActivationInvalid)
}

func TestPasswordResetRequestIsEnumerationSafe(t *testing.T) {
	db := openTestDB(t)
	svc := NewAuthService(db, testConfig())

	// Unknown emails get the same treatment as known ones.
	require.NoError(t, svc.RequestPasswordReset("nobody@example.gov.ph", RequestMeta{IP: "10.0.0.1"}))

	var requests int64
	require.NoError(t, db.Model(&models.PasswordResetRequest{}).Count(&requests).Error)
	assert.EqualValues(t, 1, requests)
	assert.EqualValues(t, 1, auditCount(t, db, models.AuditPasswordResetRequest))
}
