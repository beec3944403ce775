package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/npg-labs/neuroguard/backend/internal/config"
	"github.com/npg-labs/neuroguard/backend/internal/logger"
	"github.com/npg-labs/neuroguard/backend/internal/metrics"
	"github.com/npg-labs/neuroguard/backend/internal/models"
)

// ErrAppBlocked classifies access attempts from an app the monitor has
// blocked. The block holds until an operator clears it through the
// permission registry.
var ErrAppBlocked = errors.New("app blocked by threat monitor")

// MonitorState is the per-app detection state.
type MonitorState string

const (
	StateNormal     MonitorState = "normal"
	StateSuspicious MonitorState = "suspicious"
	StateBlocked    MonitorState = "blocked"
)

// appMonitor holds transient detection state for one app. It is not
// persisted; it rebuilds from traffic after a restart.
type appMonitor struct {
	mu        sync.Mutex
	state     MonitorState
	attempts  []time.Time
	lastAlert map[models.ThreatType]time.Time
	lastSeen  time.Time
}

// ThreatStats aggregates the persisted threat history.
type ThreatStats struct {
	Total      int64                           `json:"total"`
	Last24h    int64                           `json:"last_24h"`
	BySeverity map[models.ThreatSeverity]int64 `json:"by_severity"`
	ByType     map[models.ThreatType]int64     `json:"by_type"`
	MostCommon models.ThreatType               `json:"most_common"`
}

// ThreatService watches the stream of feature-access requests per app and
// raises graded alerts on threshold crossings. Updates for the same app are
// serialized; different apps proceed independently.
type ThreatService struct {
	db       *gorm.DB
	cfg      config.ThreatConfig
	audit    *AuditService
	notifier *NotificationService

	mu   sync.Mutex
	apps map[string]*appMonitor

	recentMu sync.Mutex
	recent   []models.ThreatEvent
}

// NewThreatService returns a monitor using the configured thresholds.
func NewThreatService(db *gorm.DB, cfg config.ThreatConfig, audit *AuditService, notifier *NotificationService) *ThreatService {
	return &ThreatService{
		db:       db,
		cfg:      cfg,
		audit:    audit,
		notifier: notifier,
		apps:     make(map[string]*appMonitor),
	}
}

func (s *ThreatService) monitorFor(appID string) *appMonitor {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.apps[appID]
	if !ok {
		m = &appMonitor{state: StateNormal, lastAlert: make(map[models.ThreatType]time.Time)}
		s.apps[appID] = m
	}
	return m
}

// pendingAlert is a detection awaiting persistence.
type pendingAlert struct {
	threatType  models.ThreatType
	severity    models.ThreatSeverity
	description string
	mitigated   bool
	// transition alerts accompany a state change and bypass the cool-down
	transition bool
}

// ObserveAccess records one feature-access attempt for appID carrying the
// given requested permission set, runs the pattern and rate detectors, and
// returns ErrAppBlocked while the app is blocked. Alerts are deduplicated
// per (app, threat type) within the cool-down window.
func (s *ThreatService) ObserveAccess(appID string, requested []models.PermissionType) error {
	m := s.monitorFor(appID)
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.lastSeen = now

	if m.state == StateBlocked {
		metrics.IncBlockedRequest()
		return fmt.Errorf("%w: %s", ErrAppBlocked, appID)
	}

	// slide the window
	cutoff := now.Add(-s.cfg.Window)
	kept := m.attempts[:0]
	for _, t := range m.attempts {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	m.attempts = append(kept, now)
	rate := len(m.attempts)

	var alerts []pendingAlert
	prevState := m.state

	// pattern detectors
	hasFull, hasEmotional, hasMotor := false, false, false
	for _, p := range requested {
		switch p.Normalize() {
		case models.PermissionFullSpectrum:
			hasFull = true
		case models.PermissionEmotionalState:
			hasEmotional = true
		case models.PermissionMotorIntent:
			hasMotor = true
		}
	}
	if hasFull {
		alerts = append(alerts, pendingAlert{
			threatType:  models.ThreatExcessivePermissions,
			severity:    models.SeverityHigh,
			description: fmt.Sprintf("app %s requesting full neural spectrum access", appID),
		})
	}
	if hasEmotional && !hasMotor {
		alerts = append(alerts, pendingAlert{
			threatType:  models.ThreatEmotionalSurveillance,
			severity:    models.SeverityCritical,
			description: fmt.Sprintf("app %s accessing emotional data without primary functionality need", appID),
		})
	}

	// rate detectors drive the state machine
	blockedNow := false
	switch {
	case m.state == StateSuspicious && rate > s.cfg.BlockThreshold:
		m.state = StateBlocked
		blockedNow = true
		alerts = append(alerts, pendingAlert{
			threatType: models.ThreatDataHarvesting,
			severity:   models.SeverityCritical,
			description: fmt.Sprintf("app %s blocked: %d requests in %s exceeded block threshold %d",
				appID, rate, s.cfg.Window, s.cfg.BlockThreshold),
			mitigated:  true,
			transition: true,
		})
	case m.state == StateNormal && rate > s.cfg.BurstThreshold:
		m.state = StateSuspicious
		alerts = append(alerts, pendingAlert{
			threatType: models.ThreatDataHarvesting,
			severity:   models.SeverityMedium,
			description: fmt.Sprintf("app %s suspicious: %d requests in %s exceeded burst threshold %d",
				appID, rate, s.cfg.Window, s.cfg.BurstThreshold),
			transition: true,
		})
	}

	for _, a := range alerts {
		if last, ok := m.lastAlert[a.threatType]; ok && !a.transition && now.Sub(last) < s.cfg.Cooldown {
			continue
		}
		if err := s.emit(appID, a); err != nil {
			// an unrecorded alert never changes live state
			m.state = prevState
			return err
		}
		m.lastAlert[a.threatType] = now
	}

	if blockedNow {
		metrics.IncBlockedRequest()
		return fmt.Errorf("%w: %s", ErrAppBlocked, appID)
	}
	return nil
}

// emit persists one threat event together with its audit entry, pushes it
// into the bounded recent buffer, and fans out notifications.
func (s *ThreatService) emit(appID string, a pendingAlert) error {
	event := models.ThreatEvent{
		UUID:        uuid.NewString(),
		AppID:       appID,
		ThreatType:  a.threatType,
		Severity:    a.severity,
		Description: a.description,
		Mitigated:   a.mitigated,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&event).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrStorageFault, err)
		}
		return s.audit.AppendTx(tx, &models.AuditEntry{
			AppID:   appID,
			Action:  models.AuditActionThreatAlert,
			Actor:   "threat_monitor",
			Details: fmt.Sprintf("[%s] %s: %s", a.severity, a.threatType, a.description),
		})
	})
	if err != nil {
		return err
	}

	s.pushRecent(event)
	metrics.IncThreatEvent(string(a.severity))

	logger.WithFields(map[string]interface{}{
		"app_id":      appID,
		"threat_type": a.threatType,
		"severity":    a.severity,
	}).Warn(a.description)

	if _, err := s.notifier.Create(models.NotificationTypeWarning, fmt.Sprintf("Threat detected: %s", a.threatType), a.description); err != nil {
		logger.Log().WithError(err).Warn("failed to store threat notification")
	}
	if a.severity.Rank() >= models.SeverityHigh.Rank() {
		s.notifier.SendExternal(EventThreat,
			fmt.Sprintf("NeuroGuard threat alert (%s)", a.severity),
			a.description,
			map[string]interface{}{"AppID": appID, "ThreatType": string(a.threatType)})
	}
	return nil
}

func (s *ThreatService) pushRecent(event models.ThreatEvent) {
	s.recentMu.Lock()
	defer s.recentMu.Unlock()
	s.recent = append(s.recent, event)
	if limit := s.cfg.RecentAlertsCap; limit > 0 && len(s.recent) > limit {
		s.recent = s.recent[len(s.recent)-limit:]
	}
}

// Recent returns the bounded recent-alerts view, newest first.
func (s *ThreatService) Recent() []models.ThreatEvent {
	s.recentMu.Lock()
	defer s.recentMu.Unlock()
	out := make([]models.ThreatEvent, len(s.recent))
	for i, e := range s.recent {
		out[len(s.recent)-1-i] = e
	}
	return out
}

// IsBlocked reports whether the app is currently blocked.
func (s *ThreatService) IsBlocked(appID string) bool {
	s.mu.Lock()
	m, ok := s.apps[appID]
	s.mu.Unlock()
	if !ok {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StateBlocked
}

// State returns the current monitor state for an app.
func (s *ThreatService) State(appID string) MonitorState {
	s.mu.Lock()
	m, ok := s.apps[appID]
	s.mu.Unlock()
	if !ok {
		return StateNormal
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Clear resets the app's detection state. It is wired to the registry's
// RevokeAll hook so clearing a block is always an explicit operator action.
func (s *ThreatService) Clear(appID string) {
	s.mu.Lock()
	m, ok := s.apps[appID]
	s.mu.Unlock()
	if !ok {
		return
	}

	m.mu.Lock()
	prev := m.state
	m.state = StateNormal
	m.attempts = nil
	m.lastAlert = make(map[models.ThreatType]time.Time)
	m.mu.Unlock()

	if prev == StateNormal {
		return
	}
	entry := &models.AuditEntry{
		AppID:   appID,
		Action:  models.AuditActionThreatTransition,
		Actor:   "threat_monitor",
		Details: fmt.Sprintf("monitor state %s -> %s (cleared via registry)", prev, StateNormal),
	}
	if err := s.audit.Append(entry); err != nil {
		logger.Log().WithError(err).Error("failed to audit monitor clear")
	}
}

// Sweep decays idle suspicious apps back to normal after the quiet period
// and drops idle normal-state monitors. Run periodically by the scheduler.
func (s *ThreatService) Sweep() {
	now := time.Now()

	s.mu.Lock()
	monitors := make(map[string]*appMonitor, len(s.apps))
	for id, m := range s.apps {
		monitors[id] = m
	}
	s.mu.Unlock()

	for appID, m := range monitors {
		m.mu.Lock()
		idle := now.Sub(m.lastSeen)
		switch {
		case m.state == StateSuspicious && idle >= s.cfg.QuietPeriod:
			m.state = StateNormal
			m.attempts = nil
			m.mu.Unlock()
			entry := &models.AuditEntry{
				AppID:   appID,
				Action:  models.AuditActionThreatTransition,
				Actor:   "threat_monitor",
				Details: fmt.Sprintf("monitor state %s -> %s after %s quiet period", StateSuspicious, StateNormal, s.cfg.QuietPeriod),
			}
			if err := s.audit.Append(entry); err != nil {
				logger.Log().WithError(err).Error("failed to audit monitor decay")
			}
		case m.state == StateNormal && idle >= s.cfg.QuietPeriod:
			m.mu.Unlock()
			s.mu.Lock()
			delete(s.apps, appID)
			s.mu.Unlock()
		default:
			m.mu.Unlock()
		}
	}
}

// Stats aggregates the persisted threat history.
func (s *ThreatService) Stats() (ThreatStats, error) {
	stats := ThreatStats{
		BySeverity: make(map[models.ThreatSeverity]int64),
		ByType:     make(map[models.ThreatType]int64),
	}

	if err := s.db.Model(&models.ThreatEvent{}).Count(&stats.Total).Error; err != nil {
		return stats, err
	}
	if err := s.db.Model(&models.ThreatEvent{}).
		Where("created_at > ?", time.Now().Add(-24*time.Hour)).
		Count(&stats.Last24h).Error; err != nil {
		return stats, err
	}

	type sevRow struct {
		Severity models.ThreatSeverity
		N        int64
	}
	var sevRows []sevRow
	if err := s.db.Model(&models.ThreatEvent{}).
		Select("severity, count(*) as n").Group("severity").Scan(&sevRows).Error; err != nil {
		return stats, err
	}
	for _, r := range sevRows {
		stats.BySeverity[r.Severity] = r.N
	}

	type typeRow struct {
		ThreatType models.ThreatType
		N          int64
	}
	var typeRows []typeRow
	if err := s.db.Model(&models.ThreatEvent{}).
		Select("threat_type, count(*) as n").Group("threat_type").Scan(&typeRows).Error; err != nil {
		return stats, err
	}
	var best int64
	for _, r := range typeRows {
		stats.ByType[r.ThreatType] = r.N
		if r.N > best {
			best = r.N
			stats.MostCommon = r.ThreatType
		}
	}
	return stats, nil
}
