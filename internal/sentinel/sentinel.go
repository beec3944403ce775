package sentinel

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/npg-labs/neuroguard/backend/internal/logger"
	"github.com/npg-labs/neuroguard/backend/internal/models"
	"github.com/npg-labs/neuroguard/backend/internal/services"
)

// Request headers identifying the calling application.
const (
	AppIDHeader    = "X-App-ID"
	AppNameHeader  = "X-App-Name"
	AppTokenHeader = "X-App-Token"
)

// Context keys set for downstream handlers.
const (
	ContextAppKey    = "sentinelApp"
	ContextGrantsKey = "sentinelGrants"
)

// DefaultAppID identifies requests arriving without an explicit app header
// (the dashboard itself).
const DefaultAppID = "dashboard"

// Sentinel gates every feature-access route: it resolves the calling app,
// auto-registers unknown apps, verifies issued tokens, rejects blocked apps,
// and feeds each attempt to the threat monitor.
type Sentinel struct {
	perms   *services.PermissionService
	threats *services.ThreatService
}

// New creates a Sentinel over the registry and monitor.
func New(perms *services.PermissionService, threats *services.ThreatService) *Sentinel {
	return &Sentinel{perms: perms, threats: threats}
}

// Middleware returns the gin middleware enforcing the gate.
func (s *Sentinel) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		appID := c.GetHeader(AppIDHeader)
		if appID == "" {
			appID = DefaultAppID
		}

		app, err := s.perms.EnsureApp(appID, c.GetHeader(AppNameHeader))
		if err != nil {
			logger.Log().WithError(err).Error("sentinel: app registration failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "app registration failed"})
			return
		}

		if err := s.perms.VerifyToken(appID, c.GetHeader(AppTokenHeader)); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid app token"})
			return
		}

		granted, err := s.perms.GrantedPermissions(appID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load permissions"})
			return
		}

		if err := s.threats.ObserveAccess(appID, granted); err != nil {
			if errors.Is(err, services.ErrAppBlocked) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "app blocked by threat monitor"})
				return
			}
			logger.Log().WithError(err).Error("sentinel: threat observation failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "threat monitor unavailable"})
			return
		}

		c.Set(ContextAppKey, app)
		c.Set(ContextGrantsKey, granted)
		c.Next()
	}
}

// AppFrom retrieves the resolved app from the request context.
func AppFrom(c *gin.Context) (*models.App, bool) {
	v, ok := c.Get(ContextAppKey)
	if !ok {
		return nil, false
	}
	app, ok := v.(*models.App)
	return app, ok
}

// GrantsFrom retrieves the caller's granted permission set.
func GrantsFrom(c *gin.Context) []models.PermissionType {
	v, ok := c.Get(ContextGrantsKey)
	if !ok {
		return nil
	}
	grants, _ := v.([]models.PermissionType)
	return grants
}
