package services

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/npg-labs/neuroguard/backend/internal/models"
)

// ErrStorageFault signals an audit append that could not be made durable.
// Callers must treat this as fatal to the triggering operation.
var ErrStorageFault = errors.New("audit storage fault")

// AuditService owns the append-only audit trail. Appends are serialized
// globally so entries form a single, strictly time-ordered stream; reads
// never hold the append lock.
type AuditService struct {
	db *gorm.DB

	mu     sync.Mutex
	lastTS time.Time
}

// NewAuditService returns an AuditService using the provided DB.
func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Append records one entry. The UUID and timestamp are filled here; the
// timestamp never decreases relative to the previous append even across
// clock adjustments.
func (s *AuditService) Append(entry *models.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp(entry)
	if err := s.db.Create(entry).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFault, err)
	}
	return nil
}

// AppendTx records one entry inside an existing transaction so registry
// mutations and their audit record commit or roll back together. The
// ordering lock is still taken.
func (s *AuditService) AppendTx(tx *gorm.DB, entry *models.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp(entry)
	if err := tx.Create(entry).Error; err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFault, err)
	}
	return nil
}

// stamp fills identity and enforces non-decreasing timestamps.
// Caller holds s.mu.
func (s *AuditService) stamp(entry *models.AuditEntry) {
	if entry.UUID == "" {
		entry.UUID = uuid.NewString()
	}
	now := time.Now()
	if now.Before(s.lastTS) {
		now = s.lastTS
	}
	s.lastTS = now
	entry.CreatedAt = now
}

// Query returns entries matching the case-insensitive substring filter
// across all textual fields, newest first, paged. page is 1-based; a
// non-positive pageSize falls back to 50.
func (s *AuditService) Query(filter string, page, pageSize int) ([]models.AuditEntry, error) {
	if pageSize <= 0 {
		pageSize = 50
	}
	if page <= 0 {
		page = 1
	}

	q := s.db.Model(&models.AuditEntry{})
	if filter != "" {
		pattern := "%" + filter + "%"
		q = q.Where(
			s.db.Where("app_id LIKE ? COLLATE NOCASE", pattern).
				Or("app_name LIKE ? COLLATE NOCASE", pattern).
				Or("permission LIKE ? COLLATE NOCASE", pattern).
				Or("action LIKE ? COLLATE NOCASE", pattern).
				Or("actor LIKE ? COLLATE NOCASE", pattern).
				Or("details LIKE ? COLLATE NOCASE", pattern),
		)
	}

	var entries []models.AuditEntry
	if err := q.Order("created_at desc, id desc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Count returns the number of entries matching the filter.
func (s *AuditService) Count(filter string) (int64, error) {
	q := s.db.Model(&models.AuditEntry{})
	if filter != "" {
		pattern := "%" + filter + "%"
		q = q.Where(
			s.db.Where("app_id LIKE ? COLLATE NOCASE", pattern).
				Or("app_name LIKE ? COLLATE NOCASE", pattern).
				Or("permission LIKE ? COLLATE NOCASE", pattern).
				Or("action LIKE ? COLLATE NOCASE", pattern).
				Or("actor LIKE ? COLLATE NOCASE", pattern).
				Or("details LIKE ? COLLATE NOCASE", pattern),
		)
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}
