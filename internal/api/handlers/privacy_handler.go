package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/npg-labs/neuroguard/backend/internal/privacy"
	"github.com/npg-labs/neuroguard/backend/internal/services"
)

// PrivacyHandler exposes the privacy level and mechanism information.
type PrivacyHandler struct {
	levels     *privacy.LevelStore
	engine     *privacy.Engine
	notifier   *services.NotificationService
	tierLevels [3]float64
}

// NewPrivacyHandler creates a new PrivacyHandler. tierLevels is the
// configured tier-name-to-level policy, ordered strict, balanced,
// performance.
func NewPrivacyHandler(levels *privacy.LevelStore, engine *privacy.Engine, notifier *services.NotificationService, tierLevels [3]float64) *PrivacyHandler {
	return &PrivacyHandler{levels: levels, engine: engine, notifier: notifier, tierLevels: tierLevels}
}

// GetStatus returns the current privacy configuration.
func (h *PrivacyHandler) GetStatus(c *gin.Context) {
	level := h.levels.Level()
	c.JSON(http.StatusOK, gin.H{
		"current_level": level,
		"tier":          privacy.TierFor(level),
		"epsilon":       h.engine.EffectiveEpsilon(level),
		"delta":         h.engine.Delta(),
		"noise_applied": true,
	})
}

type setLevelRequest struct {
	Level *float64 `json:"level" binding:"required"`
}

// SetLevel updates the process-wide privacy level. The change is audited
// and takes effect for all subsequent releases immediately.
func (h *PrivacyHandler) SetLevel(c *gin.Context) {
	var req setLevelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.levels.Set(*req.Level, "dashboard"); err != nil {
		if errors.Is(err, privacy.ErrInvalidLevel) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update privacy level"})
		return
	}

	h.notifier.SendExternal(services.EventPrivacy,
		"Privacy level changed",
		fmt.Sprintf("Privacy level set to %.2f (%s)", *req.Level, privacy.TierFor(*req.Level)),
		nil)

	c.JSON(http.StatusOK, gin.H{
		"message":       fmt.Sprintf("privacy level updated to %.2f", *req.Level),
		"current_level": h.levels.Level(),
		"tier":          h.levels.Tier(),
	})
}

// GetInfo describes the privacy mechanism and its tiers.
func (h *PrivacyHandler) GetInfo(c *gin.Context) {
	level := h.levels.Level()
	c.JSON(http.StatusOK, gin.H{
		"mechanism":     "Differential Privacy (Laplace noise)",
		"current_level": level,
		"tiers": gin.H{
			"strict":      "level <= 0.3: heavy noise, strong protection, reduced utility",
			"balanced":    "0.3 < level < 0.7: moderate noise, good protection, decent utility",
			"performance": "level >= 0.7: light noise, basic protection, high utility",
		},
		"parameters": gin.H{
			"epsilon": gin.H{
				"current":     h.engine.EffectiveEpsilon(level),
				"description": "Privacy budget - lower means more privacy",
			},
			"delta": gin.H{
				"current":     h.engine.Delta(),
				"description": "Probability of privacy breach",
			},
		},
		"what_is_protected": []string{
			"Individual brain signatures (fingerprinting prevention)",
			"Subconscious emotional states",
			"Memory and cognitive patterns",
			"Sensitive frequency band data",
		},
	})
}

type setTierRequest struct {
	Tier privacy.Tier `json:"tier" binding:"required"`
}

// SetTier updates the privacy level through the coarse tier policy. The
// dashboard slider uses SetLevel; this is the one-click variant.
func (h *PrivacyHandler) SetTier(c *gin.Context) {
	var req setTierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var level float64
	switch req.Tier {
	case privacy.TierStrict:
		level = h.tierLevels[0]
	case privacy.TierBalanced:
		level = h.tierLevels[1]
	case privacy.TierPerformance:
		level = h.tierLevels[2]
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown tier %q", req.Tier)})
		return
	}

	if err := h.levels.Set(level, "dashboard"); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update privacy level"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       fmt.Sprintf("privacy tier set to %s", req.Tier),
		"current_level": h.levels.Level(),
		"tier":          h.levels.Tier(),
	})
}
