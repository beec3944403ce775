package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/npg-labs/neuroguard/backend/internal/models"
	"github.com/npg-labs/neuroguard/backend/internal/services"
)

// PermissionHandler exposes the registry operations.
type PermissionHandler struct {
	perms    *services.PermissionService
	notifier *services.NotificationService
}

// NewPermissionHandler creates a new PermissionHandler.
func NewPermissionHandler(perms *services.PermissionService, notifier *services.NotificationService) *PermissionHandler {
	return &PermissionHandler{perms: perms, notifier: notifier}
}

// List returns every known app with its granted permission set, ordered by
// app id.
func (h *PermissionHandler) List(c *gin.Context) {
	apps, err := h.perms.List()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list permissions"})
		return
	}
	c.JSON(http.StatusOK, apps)
}

type grantRequest struct {
	AppID      string                `json:"app_id" binding:"required"`
	AppName    string                `json:"app_name"`
	Permission models.PermissionType `json:"permission" binding:"required"`
}

// Grant grants one permission to an app, registering the app on first
// contact.
func (h *PermissionHandler) Grant(c *gin.Context) {
	var req grantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.perms.Grant(req.AppID, req.AppName, req.Permission, "dashboard"); err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidPermission):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, services.ErrStorageFault):
			c.JSON(http.StatusInternalServerError, gin.H{"error": "audit write failed, grant not applied"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to grant permission"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    fmt.Sprintf("granted %s to %s", req.Permission, req.AppID),
		"app_id":     req.AppID,
		"permission": req.Permission,
	})
}

type revokeRequest struct {
	AppID      string                `json:"app_id" binding:"required"`
	Permission models.PermissionType `json:"permission" binding:"required"`
}

// Revoke revokes one permission from an app.
func (h *PermissionHandler) Revoke(c *gin.Context) {
	var req revokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.perms.Revoke(req.AppID, req.Permission, "dashboard"); err != nil {
		respondRegistryError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    fmt.Sprintf("revoked %s from %s", req.Permission, req.AppID),
		"app_id":     req.AppID,
		"permission": req.Permission,
	})
}

type revokeAllRequest struct {
	AppID string `json:"app_id" binding:"required"`
}

// RevokeAll atomically revokes every granted permission for an app and
// clears its threat-monitor state.
func (h *PermissionHandler) RevokeAll(c *gin.Context) {
	var req revokeAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.perms.RevokeAll(req.AppID, "dashboard"); err != nil {
		respondRegistryError(c, err)
		return
	}

	h.notifier.SendExternal(services.EventPermission,
		"Permissions revoked",
		fmt.Sprintf("All permissions revoked from %s", req.AppID),
		nil)

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("revoked all permissions from %s", req.AppID),
		"app_id":  req.AppID,
	})
}

type issueTokenRequest struct {
	AppID string `json:"app_id" binding:"required"`
}

// IssueToken generates an API token for an app. The plaintext is returned
// once; only its hash is stored.
func (h *PermissionHandler) IssueToken(c *gin.Context) {
	var req issueTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.perms.IssueToken(req.AppID)
	if err != nil {
		respondRegistryError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"app_id": req.AppID, "token": token})
}

func respondRegistryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrAppNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidPermission):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrStorageFault):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "audit write failed, operation not applied"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registry operation failed"})
	}
}
