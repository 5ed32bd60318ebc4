package models

import (
	"time"
)

type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Action    string    `gorm:"size:50;not null" json:"action"` // e.g. "CREATE_LINK", "PASSWORD_FAILED"
	EntityID  string    `gorm:"size:50" json:"entity_id"`       // short code of the affected link
	Details   string    `gorm:"type:text" json:"details"`       // JSON
	IPAddress string    `gorm:"size:45" json:"ip_address"`
	Timestamp time.Time `gorm:"not null" json:"timestamp"`
}
