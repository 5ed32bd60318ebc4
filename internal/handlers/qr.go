package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"linkgate/internal/repository"
	"linkgate/internal/services"

	"github.com/gin-gonic/gin"
)

// ShowQRCode renders a PNG QR code pointing at the short link. Optional
// query parameters: size (pixels), fg and bg (hex colours).
func (h *Handler) ShowQRCode(c *gin.Context) {
	shortCode := c.Param("short_code")

	_, err := h.links.FindByCode(c.Request.Context(), shortCode)
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Link not found"})
		return
	}
	if err != nil {
		h.logger.Error("Failed to load link", "short_code", shortCode, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load link"})
		return
	}

	size, _ := strconv.Atoi(c.Query("size"))
	png, err := h.qrService.GeneratePNG(services.QROptions{
		Content: h.shortURL(c, shortCode),
		Size:    size,
		FgColor: c.Query("fg"),
		BgColor: c.Query("bg"),
	})
	if err != nil {
		h.logger.Error("Failed to generate QR code", "short_code", shortCode, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate QR code"})
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, "image/png", png)
}
