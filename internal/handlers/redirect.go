package handlers

import (
	"errors"
	"net/http"

	"linkgate/internal/repository"
	"linkgate/internal/services"

	"github.com/gin-gonic/gin"
)

// RedirectToURL resolves the short code, records the click for allowed
// accesses and redirects to the destination.
func (h *Handler) RedirectToURL(c *gin.Context) {
	shortCode := c.Param("short_code")
	ctx := c.Request.Context()

	res, err := h.resolver.Resolve(ctx, shortCode, verifications(c))
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
	case services.OutcomeRequiresPassword:
		c.Redirect(http.StatusFound, "/password/"+shortCode+"/")
	case services.OutcomeAllowed:
		_, err := h.recorder.Record(ctx, res.Link, requestMeta(c))
		if errors.Is(err, repository.ErrQuotaExhausted) {
			h.logger.Info("Click quota reached concurrently", "short_code", shortCode)
			res.Outcome, res.Reason = services.OutcomeDenied, services.DenyQuota
			h.renderUnavailable(c, res)
			return
		}
		if err != nil {
			h.logger.Error("Failed to record click", "short_code", shortCode, "error", err)
			h.renderServerError(c, err)
			return
		}
		c.Redirect(http.StatusFound, res.Link.OriginalURL)
	}
}
