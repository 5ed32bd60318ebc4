package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"linkgate/internal/models"
)

type RequestMeta struct {
	IPAddress string
	UserAgent string
	Referer   string
}

type ClickStore interface {
	RecordClick(ctx context.Context, click *models.Click) error
}

// ClickRecorder is the single place where clicks are enriched. Enrichment
// runs once, before the insert; nothing re-derives the fields afterwards.
type ClickRecorder struct {
	store      ClickStore
	classifier *UAClassifier
	locator    Locator
	logger     *slog.Logger
	now        func() time.Time
}

func NewClickRecorder(store ClickStore, classifier *UAClassifier, locator Locator, logger *slog.Logger) *ClickRecorder {
	return &ClickRecorder{
		store:      store,
		classifier: classifier,
		locator:    locator,
		logger:     logger,
		now:        time.Now,
	}
}

// Record persists one click for link and increments its counter in the same
// transaction. Analytics lookups cannot make it fail; storage errors do.
func (r *ClickRecorder) Record(ctx context.Context, link *models.URL, meta RequestMeta) (*models.Click, error) {
	click := &models.Click{
		URLID:     link.ID,
		ClickedAt: r.now(),
		IPAddress: truncate(strings.TrimSpace(meta.IPAddress), 45),
		UserAgent: meta.UserAgent,
		Referer:   truncate(meta.Referer, 2048),
	}

	r.enrich(ctx, click)

	if err := r.store.RecordClick(ctx, click); err != nil {
		return nil, fmt.Errorf("record click for %s: %w", link.ShortCode, err)
	}
	return click, nil
}

func (r *ClickRecorder) enrich(ctx context.Context, click *models.Click) {
	device := r.classifier.Classify(click.UserAgent)
	click.DeviceType = device.DeviceType
	click.Browser = device.Browser
	click.OperatingSystem = device.OperatingSystem

	loc := r.locator.Locate(ctx, click.IPAddress)
	click.Country = loc.Country
	click.City = loc.City

	r.logger.Debug("Click enriched",
		"url_id", click.URLID,
		"device", click.DeviceType,
		"browser", click.Browser,
		"country", click.Country,
	)
}
