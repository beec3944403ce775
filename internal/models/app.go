package models

import (
	"time"
)

// PermissionType is a named category of derived neural feature an
// application may be granted access to.
type PermissionType string

const (
	PermissionMotorIntent    PermissionType = "motor_intent"
	PermissionFocusLevel     PermissionType = "focus_level"
	PermissionEmotionalState PermissionType = "emotional_state"
	// PermissionFullSpectrum is the raw capability: without it an app never
	// receives un-noised values or raw channel samples.
	PermissionFullSpectrum PermissionType = "full_spectrum"
)

// KnownPermissions lists every valid permission type.
var KnownPermissions = []PermissionType{
	PermissionMotorIntent,
	PermissionFocusLevel,
	PermissionEmotionalState,
	PermissionFullSpectrum,
}

// Valid reports whether p is one of the defined permission types.
// "raw_signal" is accepted as a legacy alias for full_spectrum.
func (p PermissionType) Valid() bool {
	if p == "raw_signal" {
		return true
	}
	for _, k := range KnownPermissions {
		if p == k {
			return true
		}
	}
	return false
}

// Normalize folds aliases onto their canonical permission type.
func (p PermissionType) Normalize() PermissionType {
	if p == "raw_signal" {
		return PermissionFullSpectrum
	}
	return p
}

// App is a third-party application known to the registry. Apps are created
// on first observed request or explicit registration and never deleted; only
// their grants change.
type App struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UUID      string    `json:"uuid" gorm:"uniqueIndex"`
	AppID     string    `json:"app_id" gorm:"uniqueIndex;not null"`
	AppName   string    `json:"app_name"`
	TokenHash string    `json:"-"` // bcrypt hash of the issued API token
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GrantState is the live state of one (app, permission) pair.
type GrantState string

const (
	GrantStateGranted GrantState = "granted"
	GrantStateRevoked GrantState = "revoked"
)

// PermissionGrant holds the current state of one (app, permission) pair.
// History lives in the audit log, not here.
type PermissionGrant struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	AppID      string         `json:"app_id" gorm:"index:idx_app_permission,unique"`
	Permission PermissionType `json:"permission" gorm:"index:idx_app_permission,unique"`
	State      GrantState     `json:"state"`
	UpdatedAt  time.Time      `json:"updated_at"`
}
