package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"linkgate/internal/config"
	"linkgate/internal/models"
	"linkgate/internal/repository"
	"linkgate/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

type stubGeo struct{}

func (stubGeo) Name() string { return "stub" }

func (stubGeo) Lookup(context.Context, string) (services.Location, error) {
	return services.Location{Country: "Germany", City: "Berlin"}, nil
}

type testEnv struct {
	h    *Handler
	r    *gin.Engine
	db   *gorm.DB
	repo *repository.LinkRepository
}

func setupTestHandler(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := config.Config{
		DatabaseURL:       fmt.Sprintf("sqlite://file:%s?mode=memory&cache=shared", uuid.NewString()),
		SessionSecret:     "test-secret-12345678901234567890123456789012",
		PasswordVerifyTTL: time.Hour,
		BaseURL:           "https://sho.rt",
	}
	db, err := repository.InitDB(cfg)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	repo := repository.NewLinkRepository(db)
	locator := services.NewGeoLocator(logger, time.Second, nil, stubGeo{})
	recorder := services.NewClickRecorder(repo, services.NewUAClassifier(logger), locator, logger)
	resolver := services.NewLinkResolver(repo, cfg.PasswordVerifyTTL)
	audit := services.NewAuditService(db, logger)
	shortener := services.NewShortenerService(repo, audit, 6)

	h := NewHandler(cfg, logger, repo, resolver, recorder, shortener,
		services.NewAnalyticsService(repo), audit, services.NewQRService())
	limiter := services.NewIPRateLimiter(rate.Limit(100), 100, logger)

	return &testEnv{h: h, r: h.SetupRouter(limiter), db: db, repo: repo}
}

func (e *testEnv) createLink(t *testing.T, u *models.URL, password string) *models.URL {
	t.Helper()
	if u.OriginalURL == "" {
		u.OriginalURL = "https://example.com/" + u.ShortCode
	}
	require.NoError(t, u.SetPassword(password))
	require.NoError(t, e.repo.Create(context.Background(), u))
	return u
}

func (e *testEnv) clicks(t *testing.T, code string) (counter int64, rows int64) {
	t.Helper()
	link, err := e.repo.FindByCode(context.Background(), code)
	require.NoError(t, err)
	require.NoError(t, e.db.Model(&models.Click{}).Where("url_id = ?", link.ID).Count(&rows).Error)
	return link.ClicksCount, rows
}

func (e *testEnv) get(path string, cookies []*http.Cookie, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func (e *testEnv) postForm(path string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}

func (e *testEnv) postJSON(path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.r.ServeHTTP(w, req)
	return w
}
