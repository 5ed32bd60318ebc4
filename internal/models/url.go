package models

import (
	"time"

	"linkgate/pkg/utils"
)

type URL struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	ShortCode    string     `gorm:"unique;not null;size:10;index" json:"short_code"`
	OriginalURL  string     `gorm:"not null;size:2048" json:"original_url"`
	Title        string     `gorm:"size:255" json:"title,omitempty"`
	PasswordHash string     `gorm:"column:password;size:255" json:"-"`
	IsActive     bool       `gorm:"not null;index" json:"is_active"`
	ClicksCount  int64      `gorm:"column:clicks;not null;default:0" json:"clicks"`
	MaxClicks    *int64     `json:"max_clicks,omitempty"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	Clicks []Click `gorm:"foreignKey:URLID;constraint:OnDelete:CASCADE" json:"-"`
}

func (URL) TableName() string {
	return "urls"
}

// IsExpired reports whether now is past ExpiresAt. Links without an expiry never expire.
func (u *URL) IsExpired(now time.Time) bool {
	return u.ExpiresAt != nil && now.After(*u.ExpiresAt)
}

// QuotaExhausted is evaluated before the current click is counted, so the
// link allows exactly MaxClicks accesses. A zero quota means unlimited.
func (u *URL) QuotaExhausted() bool {
	return u.MaxClicks != nil && *u.MaxClicks > 0 && u.ClicksCount >= *u.MaxClicks
}

func (u *URL) CanBeAccessed(now time.Time) bool {
	return u.IsActive && !u.IsExpired(now) && !u.QuotaExhausted()
}

func (u *URL) HasPassword() bool {
	return u.PasswordHash != ""
}

// SetPassword stores a bcrypt hash of raw. An empty raw password removes protection.
func (u *URL) SetPassword(raw string) error {
	if raw == "" {
		u.PasswordHash = ""
		return nil
	}
	hash, err := utils.HashPassword(raw)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

// CheckPassword returns true for any input when the link has no password.
func (u *URL) CheckPassword(raw string) bool {
	if !u.HasPassword() {
		return true
	}
	return utils.CheckPasswordHash(raw, u.PasswordHash)
}
