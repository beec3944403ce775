package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/npg-labs/neuroguard/backend/internal/models"
)

func setupNotificationTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	assert.NoError(t, err)
	assert.NoError(t, db.AutoMigrate(&models.Notification{}, &models.NotificationProvider{}))
	return db
}

func TestNotificationService_CreateAndList(t *testing.T) {
	svc := NewNotificationService(setupNotificationTestDB(t))

	n, err := svc.Create(models.NotificationTypeWarning, "Threat detected", "details")
	assert.NoError(t, err)
	assert.NotEmpty(t, n.ID)
	assert.False(t, n.Read)

	all, err := svc.List(false)
	assert.NoError(t, err)
	assert.Len(t, all, 1)

	unread, err := svc.List(true)
	assert.NoError(t, err)
	assert.Len(t, unread, 1)
}

func TestNotificationService_MarkAsRead(t *testing.T) {
	svc := NewNotificationService(setupNotificationTestDB(t))

	n, err := svc.Create(models.NotificationTypeInfo, "a", "b")
	assert.NoError(t, err)
	assert.NoError(t, svc.MarkAsRead(n.ID))

	unread, err := svc.List(true)
	assert.NoError(t, err)
	assert.Empty(t, unread)
}

func TestNotificationService_MarkAllAsRead(t *testing.T) {
	svc := NewNotificationService(setupNotificationTestDB(t))

	for i := 0; i < 3; i++ {
		_, err := svc.Create(models.NotificationTypeInfo, "a", "b")
		assert.NoError(t, err)
	}
	assert.NoError(t, svc.MarkAllAsRead())

	unread, err := svc.List(true)
	assert.NoError(t, err)
	assert.Empty(t, unread)
}

func TestNormalizeURL_DiscordWebhook(t *testing.T) {
	url := normalizeURL("discord", "https://discord.com/api/webhooks/123456/abcDEF_-")
	assert.Equal(t, "discord://abcDEF_-@123456", url)

	// Non-discord URLs pass through untouched.
	url = normalizeURL("slack", "slack://token-a/token-b/token-c")
	assert.Equal(t, "slack://token-a/token-b/token-c", url)

	// A shoutrrr-style discord URL is already normalized.
	url = normalizeURL("discord", "discord://token@channel")
	assert.Equal(t, "discord://token@channel", url)
}

func TestValidateWebhookURL(t *testing.T) {
	t.Run("rejects non-http schemes", func(t *testing.T) {
		_, err := validateWebhookURL("ftp://example.com/hook")
		assert.Error(t, err)
	})

	t.Run("rejects missing host", func(t *testing.T) {
		_, err := validateWebhookURL("http:///hook")
		assert.Error(t, err)
	})

	t.Run("allows loopback for local testing", func(t *testing.T) {
		u, err := validateWebhookURL("http://127.0.0.1:9000/hook")
		assert.NoError(t, err)
		assert.Equal(t, "127.0.0.1", u.Hostname())

		_, err = validateWebhookURL("http://localhost:9000/hook")
		assert.NoError(t, err)
	})
}
