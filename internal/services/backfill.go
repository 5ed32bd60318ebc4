package services

import (
	"context"
	"fmt"
	"log/slog"

	"linkgate/internal/models"
)

const backfillProgressEvery = 10

type BackfillStore interface {
	ClicksForBackfill(ctx context.Context, force bool, limit int) ([]models.Click, error)
	UpdateClickAnalytics(ctx context.Context, click *models.Click) error
}

type BackfillReport struct {
	Processed int
	Updated   int
	Errors    int
}

// BackfillService fills analytics fields on clicks recorded before the
// classifier or locator could answer. Rows are written with direct column
// updates.
type BackfillService struct {
	store      BackfillStore
	classifier *UAClassifier
	locator    Locator
	logger     *slog.Logger
}

func NewBackfillService(store BackfillStore, classifier *UAClassifier, locator Locator, logger *slog.Logger) *BackfillService {
	return &BackfillService{
		store:      store,
		classifier: classifier,
		locator:    locator,
		logger:     logger,
	}
}

// Run processes clicks missing device type, browser or country, or every
// click when force is set. A non-positive limit processes all candidates.
// Per-row failures are counted, not returned.
func (s *BackfillService) Run(ctx context.Context, force bool, limit int) (BackfillReport, error) {
	var report BackfillReport

	clicks, err := s.store.ClicksForBackfill(ctx, force, limit)
	if err != nil {
		return report, fmt.Errorf("load clicks: %w", err)
	}
	s.logger.Info("Backfill starting", "candidates", len(clicks), "force", force)

	for i := range clicks {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		click := &clicks[i]
		report.Processed++

		if s.fill(ctx, click, force) {
			if err := s.store.UpdateClickAnalytics(ctx, click); err != nil {
				report.Errors++
				s.logger.Error("Backfill: update failed", "click_id", click.ID, "error", err)
			} else {
				report.Updated++
			}
		}

		if report.Processed%backfillProgressEvery == 0 {
			s.logger.Info("Backfill progress", "processed", report.Processed, "total", len(clicks))
		}
	}

	s.logger.Info("Backfill finished",
		"processed", report.Processed,
		"updated", report.Updated,
		"errors", report.Errors,
	)
	return report, nil
}

// fill recomputes the missing fields of click and reports whether any
// field changed.
func (s *BackfillService) fill(ctx context.Context, click *models.Click, force bool) bool {
	before := *click

	if force || click.DeviceType == "" || click.Browser == "" {
		device := s.classifier.Classify(click.UserAgent)
		click.DeviceType = device.DeviceType
		click.Browser = device.Browser
		click.OperatingSystem = device.OperatingSystem
	}

	if force || click.Country == "" {
		loc := s.locator.Locate(ctx, click.IPAddress)
		click.Country = loc.Country
		click.City = loc.City
	}

	return *click != before
}
