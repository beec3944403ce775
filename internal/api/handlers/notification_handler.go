package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/npg-labs/neuroguard/backend/internal/models"
	"github.com/npg-labs/neuroguard/backend/internal/services"
)

// NotificationHandler exposes internal notifications and provider config.
type NotificationHandler struct {
	DB      *gorm.DB
	service *services.NotificationService
}

func NewNotificationHandler(db *gorm.DB, service *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{DB: db, service: service}
}

// List returns notifications, optionally unread only (?unread=true).
func (h *NotificationHandler) List(c *gin.Context) {
	unreadOnly := c.Query("unread") == "true"
	notifications, err := h.service.List(unreadOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch notifications"})
		return
	}
	c.JSON(http.StatusOK, notifications)
}

// MarkRead marks a single notification as read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.service.MarkAsRead(c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark notification"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "marked as read"})
}

// MarkAllRead marks every unread notification as read.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	if err := h.service.MarkAllAsRead(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to mark notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "all marked as read"})
}

// ListProviders returns configured notification providers.
func (h *NotificationHandler) ListProviders(c *gin.Context) {
	var providers []models.NotificationProvider
	if err := h.DB.Order("created_at desc").Find(&providers).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch providers"})
		return
	}
	c.JSON(http.StatusOK, providers)
}

// CreateProvider registers an external notification destination.
func (h *NotificationHandler) CreateProvider(c *gin.Context) {
	var provider models.NotificationProvider
	if err := c.ShouldBindJSON(&provider); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if provider.Name == "" || provider.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and url are required"})
		return
	}
	if err := h.DB.Create(&provider).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create provider"})
		return
	}
	c.JSON(http.StatusCreated, provider)
}

// DeleteProvider removes a provider.
func (h *NotificationHandler) DeleteProvider(c *gin.Context) {
	if err := h.DB.Delete(&models.NotificationProvider{}, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete provider"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "provider deleted"})
}

// TestProvider sends a test notification through every enabled provider.
func (h *NotificationHandler) TestProvider(c *gin.Context) {
	h.service.SendExternal(services.EventTest, "NeuroGuard test", "Test notification from NeuroGuard", nil)
	c.JSON(http.StatusOK, gin.H{"message": "test notification dispatched"})
}
