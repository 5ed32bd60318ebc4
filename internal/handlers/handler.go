package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"linkgate/internal/config"
	"linkgate/internal/services"
	"linkgate/pkg/utils"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	cfg              config.Config
	logger           *slog.Logger
	links            services.LinkStore
	resolver         *services.LinkResolver
	recorder         *services.ClickRecorder
	shortenerService *services.ShortenerService
	analyticsService *services.AnalyticsService
	auditService     *services.AuditService
	qrService        *services.QRService
}

func NewHandler(
	cfg config.Config,
	logger *slog.Logger,
	links services.LinkStore,
	resolver *services.LinkResolver,
	recorder *services.ClickRecorder,
	shortenerService *services.ShortenerService,
	analyticsService *services.AnalyticsService,
	auditService *services.AuditService,
	qrService *services.QRService,
) *Handler {
	return &Handler{
		cfg:              cfg,
		logger:           logger,
		links:            links,
		resolver:         resolver,
		recorder:         recorder,
		shortenerService: shortenerService,
		analyticsService: analyticsService,
		auditService:     auditService,
		qrService:        qrService,
	}
}

func requestMeta(c *gin.Context) services.RequestMeta {
	return services.RequestMeta{
		IPAddress: utils.ClientIP(c.Request),
		UserAgent: c.Request.UserAgent(),
		Referer:   c.Request.Referer(),
	}
}

// shortURL prefers the configured BASE_URL over the request host.
func (h *Handler) shortURL(c *gin.Context, code string) string {
	base := strings.TrimRight(h.cfg.BaseURL, "/")
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
			scheme = "https"
		}
		base = scheme + "://" + c.Request.Host
	}
	return base + "/" + code
}

func (h *Handler) renderNotFound(c *gin.Context, code string) {
	c.HTML(http.StatusNotFound, "404.html", gin.H{"ShortCode": code})
}

func (h *Handler) renderServerError(c *gin.Context, err error) {
	c.Error(err)
	c.HTML(http.StatusInternalServerError, "500.html", nil)
}

var unavailableMessages = map[services.DenyReason]string{
	services.DenyInactive: "This link has been deactivated.",
	services.DenyExpired:  "This link has expired.",
	services.DenyQuota:    "This link has reached its maximum number of clicks.",
}

func (h *Handler) renderUnavailable(c *gin.Context, res services.Resolution) {
	c.HTML(http.StatusGone, "unavailable.html", gin.H{
		"ShortCode": res.Link.ShortCode,
		"Reason":    string(res.Reason),
		"Message":   unavailableMessages[res.Reason],
	})
}
