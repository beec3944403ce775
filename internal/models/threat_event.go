package models

import (
	"time"
)

// ThreatSeverity grades a threat event. Severities are totally ordered
// low < medium < high < critical via Rank.
type ThreatSeverity string

const (
	SeverityLow      ThreatSeverity = "low"
	SeverityMedium   ThreatSeverity = "medium"
	SeverityHigh     ThreatSeverity = "high"
	SeverityCritical ThreatSeverity = "critical"
)

// Rank returns the position of the severity in the total order, with
// unknown severities ranking below low.
func (s ThreatSeverity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	default:
		return 0
	}
}

// ThreatType names a detected access pattern.
type ThreatType string

const (
	ThreatExcessivePermissions  ThreatType = "excessive_permissions"
	ThreatDataHarvesting        ThreatType = "data_harvesting"
	ThreatEmotionalSurveillance ThreatType = "emotional_surveillance"
	ThreatBrainJacking          ThreatType = "brain_jacking"
)

// ThreatEvent is a graded alert emitted when access-pattern heuristics cross
// a configured threshold. Events are retained in the audit trail and in a
// bounded recent-alerts view.
type ThreatEvent struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	UUID        string         `json:"uuid" gorm:"uniqueIndex"`
	AppID       string         `json:"app_id" gorm:"index"`
	ThreatType  ThreatType     `json:"threat_type" gorm:"index"`
	Severity    ThreatSeverity `json:"severity"`
	Description string         `json:"description" gorm:"type:text"`
	Mitigated   bool           `json:"mitigated"`
	CreatedAt   time.Time      `json:"created_at" gorm:"index"`
}
