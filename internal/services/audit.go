package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"linkgate/internal/models"

	"gorm.io/gorm"
)

const (
	ActionCreateLink     = "CREATE_LINK"
	ActionPasswordFailed = "PASSWORD_FAILED"
)

// AuditService writes audit entries from a buffered channel so request
// handlers never wait on the insert. Entries are dropped when it is full.
type AuditService struct {
	db      *gorm.DB
	logger  *slog.Logger
	entries chan models.AuditLog
}

func NewAuditService(db *gorm.DB, logger *slog.Logger) *AuditService {
	return &AuditService{
		db:      db,
		logger:  logger,
		entries: make(chan models.AuditLog, 100),
	}
}

func (s *AuditService) Start(ctx context.Context) {
	s.logger.Info("Audit worker starting")
	for {
		select {
		case entry := <-s.entries:
			if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
				s.logger.Error("Failed to write audit log", "action", entry.Action, "error", err)
			}
		case <-ctx.Done():
			s.logger.Info("Audit worker stopping")
			return
		}
	}
}

func (s *AuditService) LogAction(action, entityID string, details interface{}, ip string) {
	detailBytes, err := json.Marshal(details)
	if err != nil {
		s.logger.Warn("Audit details not serializable", "action", action, "error", err)
	}

	entry := models.AuditLog{
		Action:    action,
		EntityID:  entityID,
		Details:   string(detailBytes),
		IPAddress: ip,
		Timestamp: time.Now(),
	}

	select {
	case s.entries <- entry:
	default:
		s.logger.Warn("Audit channel full, dropping log", "action", action)
	}
}
