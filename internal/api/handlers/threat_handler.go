package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/npg-labs/neuroguard/backend/internal/models"
	"github.com/npg-labs/neuroguard/backend/internal/services"
)

// ThreatHandler serves the monitor's recent alerts and aggregates.
type ThreatHandler struct {
	threats *services.ThreatService
}

// NewThreatHandler creates a new ThreatHandler.
func NewThreatHandler(threats *services.ThreatService) *ThreatHandler {
	return &ThreatHandler{threats: threats}
}

// Recent returns the bounded recent-alerts buffer, newest first.
func (h *ThreatHandler) Recent(c *gin.Context) {
	c.JSON(http.StatusOK, h.threats.Recent())
}

// Stats returns aggregated threat statistics.
func (h *ThreatHandler) Stats(c *gin.Context) {
	stats, err := h.threats.Stats()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to aggregate threats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// threatCatalog describes every pattern the monitor knows, with its grade
// and the mitigation the engine applies.
var threatCatalog = map[models.ThreatType]gin.H{
	models.ThreatExcessivePermissions: {
		"description": "App requesting more data than needed",
		"severity":    models.SeverityHigh,
		"mitigation":  "Deny full_spectrum permission, grant minimal access",
	},
	models.ThreatDataHarvesting: {
		"description": "Unusually high request frequency",
		"severity":    models.SeverityMedium,
		"mitigation":  "Rate limiting, suspicious app flagging",
	},
	models.ThreatEmotionalSurveillance: {
		"description": "Accessing emotional data without justification",
		"severity":    models.SeverityCritical,
		"mitigation":  "Block emotional_state permission, alert user",
	},
	models.ThreatBrainJacking: {
		"description": "Attempting to inject malicious neural patterns",
		"severity":    models.SeverityCritical,
		"mitigation":  "Immediate connection termination, quarantine app",
	},
}

// Types returns the catalog of known threat patterns.
func (h *ThreatHandler) Types(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"threats": threatCatalog})
}
