package handlers

import (
	"errors"
	"net/http"

	"linkgate/internal/services"
	"linkgate/pkg/utils"

	"github.com/gin-gonic/gin"
)

type ShortenRequest struct {
	URL            string `json:"url" binding:"required"`
	CustomCode     string `json:"custom_code,omitempty"`
	Title          string `json:"title,omitempty"`
	Password       string `json:"password,omitempty"`
	ExpiresInHours *int   `json:"expires_in_hours,omitempty" binding:"omitempty,min=1"`
	MaxClicks      *int64 `json:"max_clicks,omitempty" binding:"omitempty,min=1"`
}

// ShortenURL handles the API request to shorten a URL
func (h *Handler) ShortenURL(c *gin.Context) {
	var req ShortenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dto := services.ShortenDTO{
		OriginalURL: req.URL,
		CustomCode:  req.CustomCode,
		Title:       req.Title,
		Password:    req.Password,
		ExpiryHours: req.ExpiresInHours,
		MaxClicks:   req.MaxClicks,
		IPAddress:   utils.ClientIP(c.Request),
	}

	newURL, err := h.shortenerService.CreateShortURL(c.Request.Context(), dto)
	switch {
	case errors.Is(err, services.ErrInvalidURL), errors.Is(err, services.ErrInvalidCode):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case errors.Is(err, services.ErrCodeTaken):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.logger.Error("Failed to create short URL", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create short URL"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"short_code":   newURL.ShortCode,
		"short_url":    h.shortURL(c, newURL.ShortCode),
		"original_url": newURL.OriginalURL,
	})
}
