package moderation

import (
	"context"

	"github.com/google/uuid"
	"github.com/sajal/assesshub/internal/database/models"
	"gorm.io/gorm"
)

// Moderable is any record carrying a moderation status. Organizations,
// projects and member requests all qualify.
type Moderable interface {
	GetStatus() models.Status
	SetStatus(models.Status)
	StampUpdatedBy(uuid.UUID)
}

// Service applies accept/reject transitions. A transition to the state the
// record is already in is a no-op: no write, no attribution stamp.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Accept moves the record to accepted, stamping the acting user. Returns
// whether a write happened.
func (s *Service) Accept(ctx context.Context, record Moderable, actor uuid.UUID) (bool, error) {
	return s.setStatus(ctx, record, models.StatusAccepted, actor)
}

// Reject moves the record to rejected, stamping the acting user.
func (s *Service) Reject(ctx context.Context, record Moderable, actor uuid.UUID) (bool, error) {
	return s.setStatus(ctx, record, models.StatusRejected, actor)
}

func (s *Service) setStatus(ctx context.Context, record Moderable, target models.Status, actor uuid.UUID) (bool, error) {
	if record.GetStatus() == target {
		return false, nil
	}
	record.SetStatus(target)
	record.StampUpdatedBy(actor)
	err := s.db.WithContext(ctx).Model(record).Updates(map[string]interface{}{
		"status":        target,
		"updated_by_id": actor,
	}).Error
	if err != nil {
		return false, err
	}
	return true, nil
}
