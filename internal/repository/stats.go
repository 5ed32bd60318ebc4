package repository

import (
	"context"
	"fmt"

	"linkgate/internal/models"
)

type BreakdownRow struct {
	Value string
	Count int64
}

var breakdownColumns = map[string]bool{
	"country":          true,
	"city":             true,
	"device_type":      true,
	"browser":          true,
	"operating_system": true,
	"referer":          true,
}

func (r *LinkRepository) CountClicks(ctx context.Context, urlID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Click{}).Where("url_id = ?", urlID).Count(&n).Error
	return n, err
}

func (r *LinkRepository) CountUniqueVisitors(ctx context.Context, urlID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Click{}).
		Where("url_id = ?", urlID).
		Distinct("ip_address").
		Count(&n).Error
	return n, err
}

func (r *LinkRepository) CountDirect(ctx context.Context, urlID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Click{}).
		Where("url_id = ? AND (referer = '' OR referer IS NULL)", urlID).
		Count(&n).Error
	return n, err
}

// Breakdown groups a link's clicks by column, skipping blank values, most
// frequent first. A non-positive limit returns every group.
func (r *LinkRepository) Breakdown(ctx context.Context, urlID uint, column string, limit int) ([]BreakdownRow, error) {
	if !breakdownColumns[column] {
		return nil, fmt.Errorf("unsupported breakdown column %q", column)
	}

	q := r.db.WithContext(ctx).Model(&models.Click{}).
		Select(column+" AS value, COUNT(*) AS count").
		Where("url_id = ? AND "+column+" <> ''", urlID).
		Group(column).
		Order("count DESC, value ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []BreakdownRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *LinkRepository) RecentClicks(ctx context.Context, urlID uint, limit int) ([]models.Click, error) {
	var clicks []models.Click
	err := r.db.WithContext(ctx).
		Where("url_id = ?", urlID).
		Order("clicked_at DESC, id DESC").
		Limit(limit).
		Find(&clicks).Error
	return clicks, err
}
