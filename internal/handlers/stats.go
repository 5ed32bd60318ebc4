package handlers

import (
	"errors"
	"net/http"

	"linkgate/internal/repository"

	"github.com/gin-gonic/gin"
)

// ShowStats returns the click analytics of a link as JSON. Protected links
// need a verified session, the same as the redirect itself.
func (h *Handler) ShowStats(c *gin.Context) {
	shortCode := c.Param("short_code")
	ctx := c.Request.Context()

	link, err := h.links.FindByCode(ctx, shortCode)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to load link", "short_code", shortCode, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load link"})
		return
	}

	if link.HasPassword() && !verifications(c).Verified(shortCode) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Password required"})
		return
	}

	stats, err := h.analyticsService.LinkStats(ctx, link)
	if err != nil {
		h.logger.Error("Failed to compute stats", "short_code", shortCode, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not compute stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
