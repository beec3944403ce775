package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/npg-labs/neuroguard/backend/internal/models"
)

var (
	// ErrAppNotFound is returned for app ids that have never been observed.
	ErrAppNotFound = errors.New("app not found")
	// ErrInvalidPermission is returned for permission types outside the closed set.
	ErrInvalidPermission = errors.New("unknown permission type")
	// ErrTokenInvalid is returned when an app token fails verification.
	ErrTokenInvalid = errors.New("app token invalid")
)

const lockShards = 16

// AppPermissions is the registry list view: one app with its currently
// granted permission set.
type AppPermissions struct {
	AppID              string                  `json:"app_id"`
	AppName            string                  `json:"app_name"`
	GrantedPermissions []models.PermissionType `json:"granted_permissions"`
}

// PermissionService owns live grant state. Mutations for the same app are
// serialized through sharded locks; different apps proceed independently.
// Reads never take the write locks.
type PermissionService struct {
	db    *gorm.DB
	audit *AuditService
	locks [lockShards]sync.Mutex

	hookMu      sync.Mutex
	onRevokeAll []func(appID string)
}

// NewPermissionService returns a PermissionService using the provided DB
// and audit trail.
func NewPermissionService(db *gorm.DB, audit *AuditService) *PermissionService {
	return &PermissionService{db: db, audit: audit}
}

// OnRevokeAll registers a hook invoked after a successful RevokeAll. The
// threat monitor uses this to clear a blocked app when the operator acts
// through the registry.
func (s *PermissionService) OnRevokeAll(hook func(appID string)) {
	s.hookMu.Lock()
	s.onRevokeAll = append(s.onRevokeAll, hook)
	s.hookMu.Unlock()
}

func (s *PermissionService) lockFor(appID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(appID))
	return &s.locks[h.Sum32()%lockShards]
}

// EnsureApp registers the app on first contact and returns it. Known apps
// are returned as-is; an empty appName is only applied on creation.
func (s *PermissionService) EnsureApp(appID, appName string) (*models.App, error) {
	var app models.App
	err := s.db.Where("app_id = ?", appID).First(&app).Error
	if err == nil {
		return &app, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	mu := s.lockFor(appID)
	mu.Lock()
	defer mu.Unlock()

	// re-check under the lock in case of a racing registration
	if err := s.db.Where("app_id = ?", appID).First(&app).Error; err == nil {
		return &app, nil
	}
	if appName == "" {
		appName = appID
	}
	app = models.App{UUID: uuid.NewString(), AppID: appID, AppName: appName}
	if err := s.db.Create(&app).Error; err != nil {
		return nil, fmt.Errorf("register app: %w", err)
	}
	return &app, nil
}

// IssueToken generates an API token for the app, stores only its bcrypt
// hash, and returns the plaintext token once.
func (s *PermissionService) IssueToken(appID string) (string, error) {
	app, err := s.findApp(appID)
	if err != nil {
		return "", err
	}

	tokenBytes := make([]byte, 24)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	token := hex.EncodeToString(tokenBytes)

	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	mu := s.lockFor(appID)
	mu.Lock()
	defer mu.Unlock()
	if err := s.db.Model(app).Update("token_hash", string(hash)).Error; err != nil {
		return "", err
	}
	return token, nil
}

// VerifyToken validates a provided token against the stored hash. Apps
// without an issued token pass (auto-registered demo apps have none).
func (s *PermissionService) VerifyToken(appID, token string) error {
	app, err := s.findApp(appID)
	if err != nil {
		return err
	}
	if app.TokenHash == "" {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword([]byte(app.TokenHash), []byte(token)); err != nil {
		return ErrTokenInvalid
	}
	return nil
}

// Grant transitions (app, permission) to granted. The app is auto
// registered on first contact. Granting an already-granted permission is
// idempotent; every call appends one audit entry, and the grant and its
// audit record commit atomically.
func (s *PermissionService) Grant(appID, appName string, permission models.PermissionType, actor string) error {
	if !permission.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidPermission, permission)
	}
	permission = permission.Normalize()

	app, err := s.EnsureApp(appID, appName)
	if err != nil {
		return err
	}

	mu := s.lockFor(appID)
	mu.Lock()
	defer mu.Unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		grant := models.PermissionGrant{
			AppID:      appID,
			Permission: permission,
			State:      models.GrantStateGranted,
		}
		if err := tx.Where(models.PermissionGrant{AppID: appID, Permission: permission}).
			Assign(models.PermissionGrant{State: models.GrantStateGranted}).
			FirstOrCreate(&grant).Error; err != nil {
			return fmt.Errorf("save grant: %w", err)
		}

		return s.audit.AppendTx(tx, &models.AuditEntry{
			AppID:      appID,
			AppName:    app.AppName,
			Permission: permission,
			Action:     models.AuditActionGrant,
			Actor:      actor,
			Details:    fmt.Sprintf("granted %s to %s", permission, app.AppName),
		})
	})
}

// Revoke transitions a single (app, permission) pair to revoked.
func (s *PermissionService) Revoke(appID string, permission models.PermissionType, actor string) error {
	if !permission.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidPermission, permission)
	}
	permission = permission.Normalize()

	app, err := s.findApp(appID)
	if err != nil {
		return err
	}

	mu := s.lockFor(appID)
	mu.Lock()
	defer mu.Unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.PermissionGrant{}).
			Where("app_id = ? AND permission = ?", appID, permission).
			Update("state", models.GrantStateRevoked).Error; err != nil {
			return fmt.Errorf("revoke grant: %w", err)
		}
		return s.audit.AppendTx(tx, &models.AuditEntry{
			AppID:      appID,
			AppName:    app.AppName,
			Permission: permission,
			Action:     models.AuditActionRevoke,
			Actor:      actor,
			Details:    fmt.Sprintf("revoked %s from %s", permission, app.AppName),
		})
	})
}

// RevokeAll atomically transitions every granted permission for the app to
// revoked. It is idempotent: with no active grants the live state is
// untouched but the attempt is still audited. Fails with ErrAppNotFound
// only for apps never observed.
func (s *PermissionService) RevokeAll(appID, actor string) error {
	app, err := s.findApp(appID)
	if err != nil {
		return err
	}

	mu := s.lockFor(appID)
	mu.Lock()

	var revoked int64
	err = s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.PermissionGrant{}).
			Where("app_id = ? AND state = ?", appID, models.GrantStateGranted).
			Update("state", models.GrantStateRevoked)
		if res.Error != nil {
			return fmt.Errorf("revoke grants: %w", res.Error)
		}
		revoked = res.RowsAffected

		return s.audit.AppendTx(tx, &models.AuditEntry{
			AppID:   appID,
			AppName: app.AppName,
			Action:  models.AuditActionRevokeAll,
			Actor:   actor,
			Details: fmt.Sprintf("revoked all permissions from %s (%d active)", app.AppName, revoked),
		})
	})
	mu.Unlock()
	if err != nil {
		return err
	}

	s.hookMu.Lock()
	hooks := append([]func(string){}, s.onRevokeAll...)
	s.hookMu.Unlock()
	for _, hook := range hooks {
		hook(appID)
	}
	return nil
}

// CheckPermission is a pure read: true iff the pair is currently granted.
func (s *PermissionService) CheckPermission(appID string, permission models.PermissionType) bool {
	var grant models.PermissionGrant
	err := s.db.Where("app_id = ? AND permission = ? AND state = ?",
		appID, permission.Normalize(), models.GrantStateGranted).First(&grant).Error
	return err == nil
}

// GrantedPermissions returns the currently granted set for one app.
func (s *PermissionService) GrantedPermissions(appID string) ([]models.PermissionType, error) {
	var grants []models.PermissionGrant
	if err := s.db.Where("app_id = ? AND state = ?", appID, models.GrantStateGranted).
		Order("permission").Find(&grants).Error; err != nil {
		return nil, err
	}
	out := make([]models.PermissionType, len(grants))
	for i, g := range grants {
		out[i] = g.Permission
	}
	return out, nil
}

// List returns every known app with its granted permission set, ordered by
// app id.
func (s *PermissionService) List() ([]AppPermissions, error) {
	var apps []models.App
	if err := s.db.Order("app_id").Find(&apps).Error; err != nil {
		return nil, err
	}

	out := make([]AppPermissions, 0, len(apps))
	for _, app := range apps {
		granted, err := s.GrantedPermissions(app.AppID)
		if err != nil {
			return nil, err
		}
		out = append(out, AppPermissions{
			AppID:              app.AppID,
			AppName:            app.AppName,
			GrantedPermissions: granted,
		})
	}
	return out, nil
}

func (s *PermissionService) findApp(appID string) (*models.App, error) {
	var app models.App
	if err := s.db.Where("app_id = ?", appID).First(&app).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAppNotFound, appID)
		}
		return nil, err
	}
	return &app, nil
}
