package routes

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/npg-labs/neuroguard/backend/internal/api/handlers"
	"github.com/npg-labs/neuroguard/backend/internal/api/middleware"
	"github.com/npg-labs/neuroguard/backend/internal/config"
	"github.com/npg-labs/neuroguard/backend/internal/intent"
	"github.com/npg-labs/neuroguard/backend/internal/logger"
	"github.com/npg-labs/neuroguard/backend/internal/metrics"
	"github.com/npg-labs/neuroguard/backend/internal/models"
	"github.com/npg-labs/neuroguard/backend/internal/privacy"
	"github.com/npg-labs/neuroguard/backend/internal/sentinel"
	"github.com/npg-labs/neuroguard/backend/internal/services"
	"github.com/npg-labs/neuroguard/backend/internal/signal"
)

// Register wires up API routes and performs automatic migrations. The
// returned threat service feeds the periodic sweep scheduler.
func Register(router *gin.Engine, db *gorm.DB, cfg config.Config) (*services.ThreatService, error) {
	if err := db.AutoMigrate(
		&models.App{},
		&models.PermissionGrant{},
		&models.AuditEntry{},
		&models.ThreatEvent{},
		&models.Setting{},
		&models.Notification{},
		&models.NotificationProvider{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	// Stores and services
	audit := services.NewAuditService(db)
	notifier := services.NewNotificationService(db)
	perms := services.NewPermissionService(db, audit)
	threats := services.NewThreatService(db, cfg.Threat, audit, notifier)
	// clearing a blocked app is always an explicit registry action
	perms.OnRevokeAll(threats.Clear)

	levels, err := privacy.NewLevelStore(db, audit, cfg.Privacy.DefaultLevel)
	if err != nil {
		return nil, fmt.Errorf("privacy level store: %w", err)
	}
	engine := privacy.NewEngine(levels, audit, cfg.Privacy.Epsilon, cfg.Privacy.Delta, nil)

	// Signal pipeline
	processor := signal.NewProcessor(cfg.Signal.MaxChannels)
	generator := signal.NewGenerator(cfg.Signal.SamplingRate, cfg.Signal.NumChannels,
		rand.New(rand.NewSource(time.Now().UnixNano())))

	var classifier intent.Classifier = intent.NewHeuristicClassifier()
	if cfg.IntentModelPath != "" {
		model, err := intent.LoadModelClassifier(cfg.IntentModelPath)
		if err != nil {
			logger.Log().WithError(err).Warn("could not load intent model, using rule-based classification")
		} else {
			logger.WithFields(map[string]interface{}{"path": cfg.IntentModelPath}).Info("loaded intent classifier model")
			classifier = model
		}
	}

	// Metrics
	registry := prometheus.NewRegistry()
	metrics.Register(registry)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	router.GET("/api/v1/health", handlers.HealthHandler)

	api := router.Group("/api/v1")
	api.Use(middleware.RequestID(), middleware.RequestLogger())

	signalHandler := handlers.NewSignalHandler(cfg.Signal, processor, generator, classifier, engine)
	privacyHandler := handlers.NewPrivacyHandler(levels, engine, notifier, cfg.Privacy.TierLevels)
	permissionHandler := handlers.NewPermissionHandler(perms, notifier)
	auditHandler := handlers.NewAuditHandler(audit)
	threatHandler := handlers.NewThreatHandler(threats)
	settingsHandler := handlers.NewSettingsHandler(db)
	notificationHandler := handlers.NewNotificationHandler(db, notifier)

	// Signal routes; processing passes the sentinel gate
	sent := sentinel.New(perms, threats)
	api.POST("/signal/synthetic", signalHandler.GenerateSynthetic)
	api.GET("/signal/bands", signalHandler.BandsInfo)
	api.POST("/signal/process", sent.Middleware(), signalHandler.ProcessSignal)

	api.GET("/privacy/status", privacyHandler.GetStatus)
	api.POST("/privacy/level", privacyHandler.SetLevel)
	api.POST("/privacy/tier", privacyHandler.SetTier)
	api.GET("/privacy/info", privacyHandler.GetInfo)

	api.GET("/permissions", permissionHandler.List)
	api.POST("/permissions/grant", permissionHandler.Grant)
	api.POST("/permissions/revoke", permissionHandler.Revoke)
	api.POST("/permissions/revoke-all", permissionHandler.RevokeAll)
	api.POST("/permissions/token", permissionHandler.IssueToken)

	api.GET("/audit", auditHandler.List)

	api.GET("/threats/recent", threatHandler.Recent)
	api.GET("/threats/stats", threatHandler.Stats)
	api.GET("/threats/types", threatHandler.Types)

	api.GET("/settings", settingsHandler.GetSettings)
	api.PUT("/settings", settingsHandler.UpdateSetting)

	api.GET("/notifications", notificationHandler.List)
	api.POST("/notifications/:id/read", notificationHandler.MarkRead)
	api.POST("/notifications/read-all", notificationHandler.MarkAllRead)
	api.GET("/notifications/providers", notificationHandler.ListProviders)
	api.POST("/notifications/providers", notificationHandler.CreateProvider)
	api.DELETE("/notifications/providers/:id", notificationHandler.DeleteProvider)
	api.POST("/notifications/providers/test", notificationHandler.TestProvider)

	return threats, nil
}
