package repository

import (
	"context"
	"errors"
	"fmt"

	"linkgate/internal/models"

	"gorm.io/gorm"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrQuotaExhausted = errors.New("click quota exhausted")
)

type LinkRepository struct {
	db *gorm.DB
}

func NewLinkRepository(db *gorm.DB) *LinkRepository {
	return &LinkRepository{db: db}
}

func (r *LinkRepository) FindByCode(ctx context.Context, code string) (*models.URL, error) {
	var u models.URL
	err := r.db.WithContext(ctx).Where("short_code = ?", code).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find link %q: %w", code, err)
	}
	return &u, nil
}

func (r *LinkRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.URL{}).Where("short_code = ?", code).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *LinkRepository) Create(ctx context.Context, u *models.URL) error {
	return r.db.WithContext(ctx).Create(u).Error
}

// RecordClick inserts the click and bumps the link counter in one
// transaction. The counter is incremented in place, never read-modify-write,
// and only while the link is under its quota; otherwise nothing is written
// and ErrQuotaExhausted is returned.
func (r *LinkRepository) RecordClick(ctx context.Context, click *models.Click) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.URL{}).
			Where("id = ?", click.URLID).
			Where("(max_clicks IS NULL OR max_clicks = 0 OR clicks < max_clicks)").
			UpdateColumn("clicks", gorm.Expr("clicks + ?", 1))
		if res.Error != nil {
			return fmt.Errorf("increment clicks: %w", res.Error)
		}
		if res.RowsAffected != 1 {
			var count int64
			if err := tx.Model(&models.URL{}).Where("id = ?", click.URLID).Count(&count).Error; err != nil {
				return fmt.Errorf("increment clicks: %w", err)
			}
			if count == 0 {
				return fmt.Errorf("increment clicks: link %d: %w", click.URLID, ErrNotFound)
			}
			return fmt.Errorf("increment clicks: link %d: %w", click.URLID, ErrQuotaExhausted)
		}

		if err := tx.Create(click).Error; err != nil {
			return fmt.Errorf("insert click: %w", err)
		}
		return nil
	})
}

// ClicksForBackfill returns clicks lacking analytics fields, or every click
// when force is set. A non-positive limit means no limit.
func (r *LinkRepository) ClicksForBackfill(ctx context.Context, force bool, limit int) ([]models.Click, error) {
	q := r.db.WithContext(ctx).Model(&models.Click{})
	if !force {
		q = q.Where("device_type = '' OR device_type IS NULL OR browser = '' OR browser IS NULL OR country = '' OR country IS NULL")
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var clicks []models.Click
	if err := q.Order("id").Find(&clicks).Error; err != nil {
		return nil, err
	}
	return clicks, nil
}

// UpdateClickAnalytics writes the derived columns directly, without
// re-running enrichment.
func (r *LinkRepository) UpdateClickAnalytics(ctx context.Context, click *models.Click) error {
	return r.db.WithContext(ctx).Model(&models.Click{}).
		Where("id = ?", click.ID).
		UpdateColumns(map[string]interface{}{
			"device_type":      click.DeviceType,
			"browser":          click.Browser,
			"operating_system": click.OperatingSystem,
			"country":          click.Country,
			"city":             click.City,
		}).Error
}
