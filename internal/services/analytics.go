package services

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"linkgate/internal/models"
	"linkgate/internal/repository"
)

const (
	topBreakdownRows  = 5
	recentClicksLimit = 10
)

type Share struct {
	Value      string  `json:"value"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
	Flag       string  `json:"flag,omitempty"`
	Domain     string  `json:"domain,omitempty"`
}

type LinkStats struct {
	ShortCode        string         `json:"short_code"`
	OriginalURL      string         `json:"original_url"`
	TotalClicks      int64          `json:"total_clicks"`
	RecordedClicks   int64          `json:"recorded_clicks"`
	UniqueVisitors   int64          `json:"unique_visitors"`
	DirectTraffic    int64          `json:"direct_traffic"`
	DirectPercentage float64        `json:"direct_percentage"`
	Countries        []Share        `json:"countries"`
	Devices          []Share        `json:"devices"`
	Browsers         []Share        `json:"browsers"`
	OperatingSystems []Share        `json:"operating_systems"`
	Referrers        []Share        `json:"referrers"`
	RecentClicks     []RecentClick  `json:"recent_clicks"`
}

// RecentClick is the public view of a click. The visitor's address and raw
// user agent stay private.
type RecentClick struct {
	ID              uint      `json:"id"`
	ClickedAt       time.Time `json:"clicked_at"`
	DeviceType      string    `json:"device_type"`
	Browser         string    `json:"browser"`
	OperatingSystem string    `json:"operating_system"`
	Country         string    `json:"country"`
	City            string    `json:"city"`
	RefererDomain   string    `json:"referer_domain,omitempty"`
}

func newRecentClick(c models.Click) RecentClick {
	rc := RecentClick{
		ID:              c.ID,
		ClickedAt:       c.ClickedAt,
		DeviceType:      c.DeviceType,
		Browser:         c.Browser,
		OperatingSystem: c.OperatingSystem,
		Country:         c.Country,
		City:            c.City,
	}
	if c.Referer != "" {
		rc.RefererDomain = referrerDomain(c.Referer)
	}
	return rc
}

type StatsStore interface {
	CountClicks(ctx context.Context, urlID uint) (int64, error)
	CountUniqueVisitors(ctx context.Context, urlID uint) (int64, error)
	CountDirect(ctx context.Context, urlID uint) (int64, error)
	Breakdown(ctx context.Context, urlID uint, column string, limit int) ([]repository.BreakdownRow, error)
	RecentClicks(ctx context.Context, urlID uint, limit int) ([]models.Click, error)
}

type AnalyticsService struct {
	store StatsStore
}

func NewAnalyticsService(store StatsStore) *AnalyticsService {
	return &AnalyticsService{store: store}
}

// LinkStats aggregates the recorded clicks of link. Percentages are relative
// to the rows shown; referrer shares also count direct traffic.
func (s *AnalyticsService) LinkStats(ctx context.Context, link *models.URL) (*LinkStats, error) {
	stats := &LinkStats{
		ShortCode:   link.ShortCode,
		OriginalURL: link.OriginalURL,
		TotalClicks: link.ClicksCount,
	}

	var err error
	if stats.RecordedClicks, err = s.store.CountClicks(ctx, link.ID); err != nil {
		return nil, fmt.Errorf("count clicks: %w", err)
	}
	if stats.UniqueVisitors, err = s.store.CountUniqueVisitors(ctx, link.ID); err != nil {
		return nil, fmt.Errorf("count visitors: %w", err)
	}
	if stats.DirectTraffic, err = s.store.CountDirect(ctx, link.ID); err != nil {
		return nil, fmt.Errorf("count direct: %w", err)
	}

	breakdowns := []struct {
		column string
		limit  int
		dst    *[]Share
	}{
		{"country", topBreakdownRows, &stats.Countries},
		{"device_type", 0, &stats.Devices},
		{"browser", topBreakdownRows, &stats.Browsers},
		{"operating_system", topBreakdownRows, &stats.OperatingSystems},
		{"referer", topBreakdownRows, &stats.Referrers},
	}
	for _, b := range breakdowns {
		rows, err := s.store.Breakdown(ctx, link.ID, b.column, b.limit)
		if err != nil {
			return nil, fmt.Errorf("breakdown by %s: %w", b.column, err)
		}
		extra := int64(0)
		if b.column == "referer" {
			extra = stats.DirectTraffic
		}
		*b.dst = toShares(rows, extra)
	}

	for i := range stats.Countries {
		stats.Countries[i].Flag = CountryFlag(stats.Countries[i].Value)
	}
	for i := range stats.Referrers {
		stats.Referrers[i].Domain = referrerDomain(stats.Referrers[i].Value)
	}

	referrerTotal := stats.DirectTraffic
	for _, r := range stats.Referrers {
		referrerTotal += r.Count
	}
	stats.DirectPercentage = percentage(stats.DirectTraffic, referrerTotal)

	recent, err := s.store.RecentClicks(ctx, link.ID, recentClicksLimit)
	if err != nil {
		return nil, fmt.Errorf("recent clicks: %w", err)
	}
	stats.RecentClicks = make([]RecentClick, 0, len(recent))
	for _, c := range recent {
		stats.RecentClicks = append(stats.RecentClicks, newRecentClick(c))
	}
	return stats, nil
}

func toShares(rows []repository.BreakdownRow, extra int64) []Share {
	total := extra
	for _, r := range rows {
		total += r.Count
	}

	shares := make([]Share, 0, len(rows))
	for _, r := range rows {
		shares = append(shares, Share{
			Value:      r.Value,
			Count:      r.Count,
			Percentage: percentage(r.Count, total),
		})
	}
	return shares
}

// percentage rounds to one decimal place; a zero total yields 0.
func percentage(n, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*1000) / 10
}

func referrerDomain(ref string) string {
	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return ref
	}
	return strings.ReplaceAll(u.Host, "www.", "")
}

var countryFlags = map[string]string{
	"United States":        "🇺🇸",
	"United Kingdom":       "🇬🇧",
	"Canada":               "🇨🇦",
	"Germany":              "🇩🇪",
	"France":               "🇫🇷",
	"Japan":                "🇯🇵",
	"China":                "🇨🇳",
	"India":                "🇮🇳",
	"Brazil":               "🇧🇷",
	"Australia":            "🇦🇺",
	"Russia":               "🇷🇺",
	"South Korea":          "🇰🇷",
	"Italy":                "🇮🇹",
	"Spain":                "🇪🇸",
	"Netherlands":          "🇳🇱",
	"Sweden":               "🇸🇪",
	"Norway":               "🇳🇴",
	"Denmark":              "🇩🇰",
	"Finland":              "🇫🇮",
	"Switzerland":          "🇨🇭",
	"Austria":              "🇦🇹",
	"Belgium":              "🇧🇪",
	"Portugal":             "🇵🇹",
	"Poland":               "🇵🇱",
	"Turkey":               "🇹🇷",
	"Mexico":               "🇲🇽",
	"Argentina":            "🇦🇷",
	"Chile":                "🇨🇱",
	"Colombia":             "🇨🇴",
	"Peru":                 "🇵🇪",
	"South Africa":         "🇿🇦",
	"Egypt":                "🇪🇬",
	"Nigeria":              "🇳🇬",
	"Kenya":                "🇰🇪",
	"Thailand":             "🇹🇭",
	"Indonesia":            "🇮🇩",
	"Malaysia":             "🇲🇾",
	"Singapore":            "🇸🇬",
	"Philippines":          "🇵🇭",
	"Vietnam":              "🇻🇳",
	"Bangladesh":           "🇧🇩",
	"Pakistan":             "🇵🇰",
	"Israel":               "🇮🇱",
	"Saudi Arabia":         "🇸🇦",
	"United Arab Emirates": "🇦🇪",
	"Local":                "🏠",
	Unknown:                "🌍",
}

// CountryFlag maps a country name to its flag emoji, or a globe when the
// name is not known.
func CountryFlag(country string) string {
	if flag, ok := countryFlags[country]; ok {
		return flag
	}
	return "🌍"
}
