package privacy

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"sync/atomic"

	"gorm.io/gorm"

	"github.com/npg-labs/neuroguard/backend/internal/models"
)

// ErrInvalidLevel flags a privacy level outside [0,1].
var ErrInvalidLevel = errors.New("privacy level out of [0,1]")

const levelSettingKey = "privacy.level"

// TxAuditor extends Auditor with transactional appends so a level change
// and its audit entry commit or roll back together.
type TxAuditor interface {
	Auditor
	AppendTx(tx *gorm.DB, entry *models.AuditEntry) error
}

// LevelStore owns the process-wide privacy level. Reads are lock-free
// atomic snapshots; writes are serialized and persisted as a Setting row so
// the level survives restarts.
type LevelStore struct {
	db    *gorm.DB
	audit TxAuditor

	bits    atomic.Uint64
	writeMu sync.Mutex
}

// NewLevelStore loads the persisted level or seeds the default.
func NewLevelStore(db *gorm.DB, audit TxAuditor, defaultLevel float64) (*LevelStore, error) {
	s := &LevelStore{db: db, audit: audit}

	var setting models.Setting
	err := db.Where("key = ?", levelSettingKey).First(&setting).Error
	switch {
	case err == nil:
		if v, perr := strconv.ParseFloat(setting.Value, 64); perr == nil && v >= 0 && v <= 1 {
			s.bits.Store(math.Float64bits(v))
			return s, nil
		}
		// unreadable persisted value: fall through and reseed
		fallthrough
	case errors.Is(err, gorm.ErrRecordNotFound):
		if defaultLevel < 0 || defaultLevel > 1 {
			return nil, fmt.Errorf("%w: default %g", ErrInvalidLevel, defaultLevel)
		}
		seed := models.Setting{
			Key:      levelSettingKey,
			Value:    strconv.FormatFloat(defaultLevel, 'f', -1, 64),
			Category: "privacy",
			Type:     "number",
		}
		if err := db.Where(models.Setting{Key: levelSettingKey}).Assign(seed).FirstOrCreate(&seed).Error; err != nil {
			return nil, fmt.Errorf("seed privacy level: %w", err)
		}
		s.bits.Store(math.Float64bits(defaultLevel))
		return s, nil
	default:
		return nil, fmt.Errorf("load privacy level: %w", err)
	}
}

// Level returns the current level as an atomic snapshot.
func (s *LevelStore) Level() float64 {
	return math.Float64frombits(s.bits.Load())
}

// Tier returns the discrete tier label for the current level.
func (s *LevelStore) Tier() Tier {
	return TierFor(s.Level())
}

// Set validates, persists, audits, and publishes a new level. The change
// takes effect for all subsequent reads immediately. A failed audit append
// rolls the level back and fails the call.
func (s *LevelStore) Set(level float64, actor string) error {
	if level < 0 || level > 1 || math.IsNaN(level) {
		return fmt.Errorf("%w: %g", ErrInvalidLevel, level)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	prev := s.Level()
	setting := models.Setting{
		Key:      levelSettingKey,
		Value:    strconv.FormatFloat(level, 'f', -1, 64),
		Category: "privacy",
		Type:     "number",
	}
	// one transaction: an un-audited level change must never persist
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(models.Setting{Key: levelSettingKey}).Assign(setting).FirstOrCreate(&setting).Error; err != nil {
			return fmt.Errorf("persist privacy level: %w", err)
		}
		entry := &models.AuditEntry{
			Action:  models.AuditActionPrivacySetLevel,
			Actor:   actor,
			Details: fmt.Sprintf("privacy level %.2f -> %.2f (tier %s)", prev, level, TierFor(level)),
		}
		if err := s.audit.AppendTx(tx, entry); err != nil {
			return fmt.Errorf("%w: %v", ErrStorageFault, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.bits.Store(math.Float64bits(level))
	return nil
}
