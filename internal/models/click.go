package models

import (
	"time"
)

// Click is a single recorded access. The analytics fields are derived from
// the raw request fields when the row is inserted and are not recomputed.
type Click struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	URLID     uint      `gorm:"not null;index" json:"url_id"`
	ClickedAt time.Time `gorm:"not null;index" json:"clicked_at"`

	IPAddress string `gorm:"size:45" json:"ip_address"`
	UserAgent string `gorm:"type:text" json:"user_agent"`
	Referer   string `gorm:"size:2048" json:"referer"`

	DeviceType      string `gorm:"size:50" json:"device_type"`
	Browser         string `gorm:"size:100" json:"browser"`
	OperatingSystem string `gorm:"size:100" json:"operating_system"`
	Country         string `gorm:"size:100" json:"country"`
	City            string `gorm:"size:100" json:"city"`
}

// MissingAnalytics reports whether a backfill pass should look at this click.
func (c *Click) MissingAnalytics() bool {
	return c.DeviceType == "" || c.Browser == "" || c.Country == ""
}
