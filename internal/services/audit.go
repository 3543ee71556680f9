package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"shortlify/internal/models"

	"gorm.io/gorm"
)

const auditQueueSize = 100

// AuditService writes audit entries off the request path. Entries are
// dropped, not blocked on, when the queue is full.
type AuditService struct {
	db     *gorm.DB
	logger *slog.Logger
	queue  chan models.AuditLog
}

func NewAuditService(db *gorm.DB, logger *slog.Logger) *AuditService {
	return &AuditService{
		db:     db,
		logger: logger,
		queue:  make(chan models.AuditLog, auditQueueSize),
	}
}

// Start drains the queue until ctx is cancelled, flushing what is left.
func (s *AuditService) Start(ctx context.Context) {
	for {
		select {
		case entry := <-s.queue:
			s.write(entry)
		case <-ctx.Done():
			for {
				select {
				case entry := <-s.queue:
					s.write(entry)
				default:
					return
				}
			}
		}
	}
}

func (s *AuditService) write(entry models.AuditLog) {
	if err := s.db.Create(&entry).Error; err != nil {
		s.logger.Error("Failed to write audit log", "action", entry.Action, "error", err)
	}
}

// LogAction is safe to call on a nil service.
func (s *AuditService) LogAction(userID, action, entityID string, details interface{}, ip string) {
	if s == nil {
		return
	}

	var detailStr string
	if details != nil {
		detailBytes, err := json.Marshal(details)
		if err != nil {
			s.logger.Warn("Failed to encode audit details", "action", action, "error", err)
		}
		detailStr = string(detailBytes)
	}

	entry := models.AuditLog{
		UserID:    userID,
		Action:    action,
		EntityID:  entityID,
		Details:   detailStr,
		IPAddress: ip,
		Timestamp: time.Now(),
	}

	select {
	case s.queue <- entry:
	default:
		s.logger.Warn("Audit queue full, dropping entry", "action", action)
	}
}
