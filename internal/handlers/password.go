package handlers

import (
	"errors"
	"net/http"

	"linkgate/internal/services"
	"linkgate/pkg/utils"

	"github.com/gin-gonic/gin"
)

const incorrectPasswordMessage = "Incorrect password. Please try again."

func (h *Handler) ShowPasswordPrompt(c *gin.Context) {
	shortCode := c.Param("short_code")

	res, err := h.resolver.Resolve(c.Request.Context(), shortCode, verifications(c))
	if err != nil {
		h.logger.Error("Failed to resolve link", "short_code", shortCode, "error", err)
		h.renderServerError(c, err)
		return
	}

	switch res.Outcome {
	case services.OutcomeNotFound:
		h.renderNotFound(c, shortCode)
	case services.OutcomeDenied:
		h.renderUnavailable(c, res)
	case services.OutcomeAllowed:
		c.Redirect(http.StatusFound, "/"+shortCode)
	default:
		c.HTML(http.StatusOK, "password.html", gin.H{"ShortCode": shortCode})
	}
}

func (h *Handler) HandlePasswordPrompt(c *gin.Context) {
	shortCode := c.Param("short_code")
	password := c.PostForm("password")

	res, err := h.resolver.VerifyPassword(c.Request.Context(), shortCode, password, verifications(c))
	if errors.Is(err, services.ErrIncorrectPassword) {
		if h.auditService != nil {
			h.auditService.LogAction(services.ActionPasswordFailed, shortCode, nil, utils.ClientIP(c.Request))
		}
		c.HTML(http.StatusOK, "password.html", gin.H{
			"ShortCode": shortCode,
			"Error":     incorrectPasswordMessage,
		})
		return
	}
	if err != nil {
		h.logger.Error("Failed to verify password", "short_code", shortCode, "error", err)
		h.renderServerError(c, err)
		return
	}

	switch res.Outcome {
	case services.OutcomeNotFound:
		h.renderNotFound(c, shortCode)
	case services.OutcomeDenied:
		h.renderUnavailable(c, res)
	default:
		c.Redirect(http.StatusFound, "/"+shortCode)
	}
}
