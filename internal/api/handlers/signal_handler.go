package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/npg-labs/neuroguard/backend/internal/config"
	"github.com/npg-labs/neuroguard/backend/internal/intent"
	"github.com/npg-labs/neuroguard/backend/internal/metrics"
	"github.com/npg-labs/neuroguard/backend/internal/privacy"
	"github.com/npg-labs/neuroguard/backend/internal/sentinel"
	"github.com/npg-labs/neuroguard/backend/internal/signal"
)

// SignalHandler serves signal ingestion, the processing pipeline, and the
// synthetic generator.
type SignalHandler struct {
	cfg        config.SignalConfig
	processor  *signal.Processor
	generator  *signal.Generator
	classifier intent.Classifier
	engine     *privacy.Engine
}

// NewSignalHandler creates a new SignalHandler.
func NewSignalHandler(cfg config.SignalConfig, processor *signal.Processor, generator *signal.Generator, classifier intent.Classifier, engine *privacy.Engine) *SignalHandler {
	return &SignalHandler{
		cfg:        cfg,
		processor:  processor,
		generator:  generator,
		classifier: classifier,
		engine:     engine,
	}
}

type processSignalRequest struct {
	Channels     map[string][]float64 `json:"channels" binding:"required"`
	SamplingRate int                  `json:"sampling_rate"`
}

// ProcessSignal runs one signal through the full pipeline: validation, band
// extraction, intent classification, permission filtering and the privacy
// gate. Raw channel samples never appear in the response unless the caller
// holds the full-spectrum capability.
func (h *SignalHandler) ProcessSignal(c *gin.Context) {
	var req processSignalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.SamplingRate == 0 {
		req.SamplingRate = h.cfg.SamplingRate
	}

	app, ok := sentinel.AppFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unidentified app"})
		return
	}
	grants := sentinel.GrantsFrom(c)

	sig := signal.Signal{Channels: req.Channels, SamplingRate: req.SamplingRate}
	features, err := h.processor.Features(sig)
	if err != nil {
		if errors.Is(err, signal.ErrInvalidSignal) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "signal processing failed"})
		return
	}

	result, err := h.classifier.Classify(features)
	if err != nil {
		if errors.Is(err, intent.ErrInvalidFeatures) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "classification failed"})
		return
	}

	released := privacy.FilterByGrants(features, result.IntentType, grants)
	hasRaw := privacy.HasRawCapability(grants)
	noised, err := h.engine.Release(app.AppID, released, hasRaw)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "privacy gate unavailable"})
		return
	}

	metrics.IncSignalProcessed()

	c.JSON(http.StatusOK, gin.H{
		"app_id":                app.AppID,
		"original_channels":     len(req.Channels),
		"sampling_rate":         req.SamplingRate,
		"frequency_bands":       noised,
		"intent_classification": result,
		"privacy_applied":       !hasRaw,
		"timestamp":             time.Now().UTC(),
	})
}

type syntheticRequest struct {
	Duration   float64 `json:"duration"`
	BrainState string  `json:"brain_state"`
}

// GenerateSynthetic produces demo EEG data so the dashboard can run without
// real device input.
func (h *SignalHandler) GenerateSynthetic(c *gin.Context) {
	var req syntheticRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Duration == 0 {
		req.Duration = h.cfg.DefaultDuration
	}
	if req.Duration < 0 || req.Duration > h.cfg.MaxDuration {
		c.JSON(http.StatusBadRequest, gin.H{"error": "duration out of range"})
		return
	}
	if req.BrainState == "" {
		req.BrainState = string(signal.StateNeutral)
	}

	sig, err := h.generator.Generate(req.Duration, signal.BrainState(req.BrainState))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"channels":      sig.Channels,
		"sampling_rate": sig.SamplingRate,
		"num_channels":  len(sig.Channels),
		"brain_state":   req.BrainState,
		"duration":      req.Duration,
	})
}

// BandsInfo describes the frequency bands the processor extracts.
func (h *SignalHandler) BandsInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"bands": gin.H{
			"delta": gin.H{"range": "0.5-4 Hz", "description": "Deep sleep, unconscious processes"},
			"theta": gin.H{"range": "4-8 Hz", "description": "Drowsiness, meditation, memory, emotion"},
			"alpha": gin.H{"range": "8-13 Hz", "description": "Relaxation, calm, closed eyes"},
			"beta":  gin.H{"range": "13-30 Hz", "description": "Active thinking, focus, motor planning"},
			"gamma": gin.H{"range": "30-100 Hz", "description": "High-level cognition, perception"},
		},
		"sampling_rate": h.cfg.SamplingRate,
	})
}
