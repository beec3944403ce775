package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/npg-labs/neuroguard/backend/internal/services"
)

// AuditHandler serves the append-only audit trail.
type AuditHandler struct {
	audit *services.AuditService
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(audit *services.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List returns audit entries newest first, filterable case-insensitively
// across all textual fields and paged via ?filter=&page=&page_size=.
func (h *AuditHandler) List(c *gin.Context) {
	filter := c.Query("filter")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))

	entries, err := h.audit.Query(filter, page, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query audit log"})
		return
	}
	total, err := h.audit.Count(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count audit log"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries":   entries,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}
