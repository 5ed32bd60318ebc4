package handlers

import (
	"net/http"

	"linkgate/internal/middleware"
	"linkgate/internal/services"
	"linkgate/web"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

const sessionName = "linkgate_session"

func (h *Handler) SetupRouter(rateLimiter *services.IPRateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(h.logger))
	r.SetHTMLTemplate(web.Templates())

	store := cookie.NewStore([]byte(h.cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(h.cfg.PasswordVerifyTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.cfg.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	api := r.Group("/api")
	if rateLimiter != nil {
		api.Use(middleware.RateLimit(rateLimiter))
	}
	api.POST("/shorten", h.ShortenURL)

	r.GET("/password/:short_code/", h.ShowPasswordPrompt)
	r.POST("/password/:short_code/", h.HandlePasswordPrompt)

	r.GET("/:short_code", h.RedirectToURL)
	r.GET("/:short_code/stats", h.ShowStats)
	r.GET("/:short_code/qr.png", h.ShowQRCode)

	r.NoRoute(func(c *gin.Context) {
		h.renderNotFound(c, "")
	})

	return r
}
