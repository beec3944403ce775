package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/npg-labs/neuroguard/backend/internal/models"
)

func setupPermissionTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.App{}, &models.PermissionGrant{}, &models.AuditEntry{}))
	return db
}

func newPermissionService(t *testing.T) (*PermissionService, *AuditService) {
	db := setupPermissionTestDB(t)
	audit := NewAuditService(db)
	return NewPermissionService(db, audit), audit
}

func TestPermissionService_GrantCheckRevokeAll(t *testing.T) {
	svc, audit := newPermissionService(t)

	// Grant registers the app on first contact.
	assert.NoError(t, svc.Grant("app-x", "App X", models.PermissionMotorIntent, "dashboard"))
	assert.True(t, svc.CheckPermission("app-x", models.PermissionMotorIntent))
	assert.False(t, svc.CheckPermission("app-x", models.PermissionFocusLevel))

	assert.NoError(t, svc.RevokeAll("app-x", "dashboard"))
	assert.False(t, svc.CheckPermission("app-x", models.PermissionMotorIntent))

	// Audit carries the grant and then the revoke-all, in order.
	entries, err := audit.Query("app-x", 1, 50)
	assert.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, models.AuditActionRevokeAll, entries[0].Action)
	assert.Equal(t, models.AuditActionGrant, entries[1].Action)
}

func TestPermissionService_GrantIsIdempotent(t *testing.T) {
	svc, audit := newPermissionService(t)

	assert.NoError(t, svc.Grant("app-x", "App X", models.PermissionFocusLevel, "dashboard"))
	assert.NoError(t, svc.Grant("app-x", "App X", models.PermissionFocusLevel, "dashboard"))

	granted, err := svc.GrantedPermissions("app-x")
	assert.NoError(t, err)
	assert.Equal(t, []models.PermissionType{models.PermissionFocusLevel}, granted)

	// Both attempts are audited even though the state changed once.
	count, err := audit.Count("")
	assert.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestPermissionService_RevokeAllIsIdempotent(t *testing.T) {
	svc, _ := newPermissionService(t)

	assert.NoError(t, svc.Grant("app-x", "App X", models.PermissionEmotionalState, "dashboard"))
	assert.NoError(t, svc.RevokeAll("app-x", "dashboard"))
	assert.NoError(t, svc.RevokeAll("app-x", "dashboard"))

	granted, err := svc.GrantedPermissions("app-x")
	assert.NoError(t, err)
	assert.Empty(t, granted)
}

func TestPermissionService_RevokeSinglePermission(t *testing.T) {
	svc, _ := newPermissionService(t)

	assert.NoError(t, svc.Grant("app-x", "App X", models.PermissionMotorIntent, "dashboard"))
	assert.NoError(t, svc.Grant("app-x", "App X", models.PermissionFocusLevel, "dashboard"))

	assert.NoError(t, svc.Revoke("app-x", models.PermissionMotorIntent, "dashboard"))

	assert.False(t, svc.CheckPermission("app-x", models.PermissionMotorIntent))
	assert.True(t, svc.CheckPermission("app-x", models.PermissionFocusLevel))

	// Regranting after a revoke works.
	assert.NoError(t, svc.Grant("app-x", "App X", models.PermissionMotorIntent, "dashboard"))
	assert.True(t, svc.CheckPermission("app-x", models.PermissionMotorIntent))
}

func TestPermissionService_UnknownPermissionRejected(t *testing.T) {
	svc, _ := newPermissionService(t)

	err := svc.Grant("app-x", "App X", "telepathy", "dashboard")
	assert.ErrorIs(t, err, ErrInvalidPermission)

	err = svc.Revoke("app-x", "telepathy", "dashboard")
	assert.ErrorIs(t, err, ErrInvalidPermission)
}

func TestPermissionService_RawSignalAliasNormalized(t *testing.T) {
	svc, _ := newPermissionService(t)

	assert.NoError(t, svc.Grant("app-x", "App X", "raw_signal", "dashboard"))
	assert.True(t, svc.CheckPermission("app-x", models.PermissionFullSpectrum))
}

func TestPermissionService_UnknownAppErrors(t *testing.T) {
	svc, _ := newPermissionService(t)

	assert.ErrorIs(t, svc.RevokeAll("ghost", "dashboard"), ErrAppNotFound)
	assert.ErrorIs(t, svc.Revoke("ghost", models.PermissionMotorIntent, "dashboard"), ErrAppNotFound)
	_, err := svc.IssueToken("ghost")
	assert.ErrorIs(t, err, ErrAppNotFound)
}

func TestPermissionService_TokenLifecycle(t *testing.T) {
	svc, _ := newPermissionService(t)

	_, err := svc.EnsureApp("app-x", "App X")
	assert.NoError(t, err)

	// No issued token: any value passes.
	assert.NoError(t, svc.VerifyToken("app-x", ""))

	token, err := svc.IssueToken("app-x")
	assert.NoError(t, err)
	assert.NotEmpty(t, token)

	assert.NoError(t, svc.VerifyToken("app-x", token))
	assert.ErrorIs(t, svc.VerifyToken("app-x", "wrong"), ErrTokenInvalid)
}

func TestPermissionService_RevokeAllFiresHooks(t *testing.T) {
	svc, _ := newPermissionService(t)

	var cleared []string
	svc.OnRevokeAll(func(appID string) { cleared = append(cleared, appID) })

	assert.NoError(t, svc.Grant("app-x", "App X", models.PermissionMotorIntent, "dashboard"))
	assert.NoError(t, svc.RevokeAll("app-x", "dashboard"))

	assert.Equal(t, []string{"app-x"}, cleared)
}

func TestPermissionService_List(t *testing.T) {
	svc, _ := newPermissionService(t)

	assert.NoError(t, svc.Grant("beta-app", "Beta", models.PermissionFocusLevel, "dashboard"))
	assert.NoError(t, svc.Grant("alpha-app", "Alpha", models.PermissionMotorIntent, "dashboard"))

	apps, err := svc.List()
	assert.NoError(t, err)
	assert.Len(t, apps, 2)
	assert.Equal(t, "alpha-app", apps[0].AppID)
	assert.Equal(t, "beta-app", apps[1].AppID)
	assert.Equal(t, []models.PermissionType{models.PermissionMotorIntent}, apps[0].GrantedPermissions)
}
