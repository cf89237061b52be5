package outbox

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/biztrackhq/biztrack-backend/pkg/db/models"
	"github.com/biztrackhq/biztrack-backend/pkg/enums"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert stages an event inside the caller's transaction so the event only
// exists if the surrounding write commits.
func (r *Repository) Insert(tx *gorm.DB, event models.OutboxEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(&event).Error
}

func (r *Repository) FetchUnpublished(limit int) ([]models.OutboxEvent, error) {
	var rows []models.OutboxEvent
	err := r.db.Where("published_at IS NULL").
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// FetchPublishable returns unpublished events that still have publish attempts
// left, oldest first so consumers see aggregate history in order.
func (r *Repository) FetchPublishable(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	var rows []models.OutboxEvent
	err := r.db.Where("published_at IS NULL AND attempts < ?", maxAttempts).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *Repository) MarkPublished(id uuid.UUID) error {
	return r.db.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"published_at": time.Now(),
		}).Error
}

func (r *Repository) MarkFailed(id uuid.UUID, err error) error {
	return r.db.Model(&models.OutboxEvent{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_error": err.Error(),
			"attempts":   gorm.Expr("attempts + 1"),
		}).Error
}

// DeletePublishedBeforeTx purges events published before the cutoff, plus
// unpublished rows that exhausted their attempts and are older than the cutoff.
func (r *Repository) DeletePublishedBeforeTx(tx *gorm.DB, cutoff time.Time, minAttempts int) (int64, error) {
	if tx == nil {
		return 0, errors.New("transaction required")
	}
	result := tx.Where(
		"(published_at IS NOT NULL AND published_at < ?) OR (published_at IS NULL AND attempts >= ? AND created_at < ?)",
		cutoff, minAttempts, cutoff,
	).Delete(&models.OutboxEvent{})
	return result.RowsAffected, result.Error
}

// ExistsTx reports whether an event of this type already exists for the
// aggregate within the caller's transaction.
func (r *Repository) ExistsTx(tx *gorm.DB, eventType enums.OutboxEventType, aggregateType enums.OutboxAggregateType, aggregateID uuid.UUID) (bool, error) {
	if tx == nil {
		return false, errors.New("transaction required")
	}
	var count int64
	err := tx.Model(&models.OutboxEvent{}).
		Where("event_type = ? AND aggregate_type = ? AND aggregate_id = ?", eventType, aggregateType, aggregateID).
		Count(&count).Error
	return count > 0, err
}
