package services

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/npg-labs/neuroguard/backend/internal/models"
)

func setupAuditTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.AuditEntry{}))
	return db
}

func TestAuditService_AppendStampsEntries(t *testing.T) {
	svc := NewAuditService(setupAuditTestDB(t))

	entry := &models.AuditEntry{
		AppID:  "app-1",
		Action: models.AuditActionGrant,
		Actor:  "dashboard",
	}
	assert.NoError(t, svc.Append(entry))
	assert.NotEmpty(t, entry.UUID)
	assert.False(t, entry.CreatedAt.IsZero())
}

func TestAuditService_TimestampsNeverDecrease(t *testing.T) {
	svc := NewAuditService(setupAuditTestDB(t))

	var last *models.AuditEntry
	for i := 0; i < 100; i++ {
		entry := &models.AuditEntry{AppID: "app-1", Action: models.AuditActionGrant, Actor: "t"}
		assert.NoError(t, svc.Append(entry))
		if last != nil {
			assert.False(t, entry.CreatedAt.Before(last.CreatedAt),
				"entry %d predates its predecessor", i)
		}
		last = entry
	}
}

func TestAuditService_ConcurrentAppends(t *testing.T) {
	// Shared-cache DSN: the pool must see one database across connections.
	db, err := gorm.Open(sqlite.Open("file:audit_concurrent?mode=memory&cache=shared&_busy_timeout=5000"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.AuditEntry{}))
	svc := NewAuditService(db)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				entry := &models.AuditEntry{
					AppID:  fmt.Sprintf("app-%d", n),
					Action: models.AuditActionRevoke,
					Actor:  "t",
				}
				assert.NoError(t, svc.Append(entry))
			}
		}(i)
	}
	wg.Wait()

	count, err := svc.Count("")
	assert.NoError(t, err)
	assert.Equal(t, int64(80), count)
}

func TestAuditService_QueryNewestFirst(t *testing.T) {
	svc := NewAuditService(setupAuditTestDB(t))

	for i := 0; i < 5; i++ {
		assert.NoError(t, svc.Append(&models.AuditEntry{
			AppID:   fmt.Sprintf("app-%d", i),
			Action:  models.AuditActionGrant,
			Actor:   "t",
			Details: fmt.Sprintf("entry %d", i),
		}))
	}

	entries, err := svc.Query("", 1, 50)
	assert.NoError(t, err)
	assert.Len(t, entries, 5)
	assert.Equal(t, "app-4", entries[0].AppID)
	assert.Equal(t, "app-0", entries[4].AppID)
	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i-1].CreatedAt.Before(entries[i].CreatedAt))
	}
}

func TestAuditService_QueryFilterAndPaging(t *testing.T) {
	svc := NewAuditService(setupAuditTestDB(t))

	for i := 0; i < 12; i++ {
		action := models.AuditActionGrant
		if i%2 == 0 {
			action = models.AuditActionRevoke
		}
		assert.NoError(t, svc.Append(&models.AuditEntry{
			AppID:  "mindwave-games",
			Action: action,
			Actor:  "dashboard",
		}))
	}

	t.Run("filter is case-insensitive", func(t *testing.T) {
		entries, err := svc.Query("MINDWAVE", 1, 50)
		assert.NoError(t, err)
		assert.Len(t, entries, 12)
	})

	t.Run("filter by action", func(t *testing.T) {
		entries, err := svc.Query("revoke", 1, 50)
		assert.NoError(t, err)
		assert.Len(t, entries, 6)
	})

	t.Run("paging", func(t *testing.T) {
		page1, err := svc.Query("", 1, 5)
		assert.NoError(t, err)
		assert.Len(t, page1, 5)

		page3, err := svc.Query("", 3, 5)
		assert.NoError(t, err)
		assert.Len(t, page3, 2)

		count, err := svc.Count("")
		assert.NoError(t, err)
		assert.Equal(t, int64(12), count)
	})

	t.Run("no matches", func(t *testing.T) {
		entries, err := svc.Query("does-not-exist", 1, 50)
		assert.NoError(t, err)
		assert.Empty(t, entries)
	})
}
