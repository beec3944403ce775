package models

import (
	"time"
)

// AuditAction identifies what kind of event an audit entry records.
type AuditAction string

const (
	AuditActionGrant            AuditAction = "grant"
	AuditActionRevoke           AuditAction = "revoke"
	AuditActionRevokeAll        AuditAction = "revoke_all"
	AuditActionPrivacyRelease   AuditAction = "privacy_release"
	AuditActionPrivacySetLevel  AuditAction = "privacy_set_level"
	AuditActionThreatAlert      AuditAction = "threat_alert"
	AuditActionThreatTransition AuditAction = "threat_transition"
)

// AuditEntry is an immutable record of a registry mutation, privacy
// intervention, or threat alert. Entries are only ever appended.
type AuditEntry struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	UUID       string         `json:"uuid" gorm:"uniqueIndex"`
	AppID      string         `json:"app_id" gorm:"index"`
	AppName    string         `json:"app_name"`
	Permission PermissionType `json:"permission"`
	Action     AuditAction    `json:"action" gorm:"index"`
	Actor      string         `json:"actor"`
	Details    string         `json:"details" gorm:"type:text"`
	CreatedAt  time.Time      `json:"created_at" gorm:"index"`
}
