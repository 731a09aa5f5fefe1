package repository

import (
	"context"

	"mdla-platform/internal/model"

	"gorm.io/gorm"
)

type MessageRepository interface {
	Create(ctx context.Context, message *model.Message) error
	FindByID(ctx context.Context, id uint) (*model.Message, error)
	DirectBetween(ctx context.Context, userA, userB uint) ([]model.Message, error)
	ByRoom(ctx context.Context, roomID string) ([]model.Message, error)
	ListDirectInvolving(ctx context.Context, userID uint) ([]model.Message, error)
	MarkRead(ctx context.Context, userID, counterpartID uint) error
}

type messageRepoImpl struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepoImpl{db: db}
}

func (r *messageRepoImpl) Create(ctx context.Context, message *model.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *messageRepoImpl) FindByID(ctx context.Context, id uint) (*model.Message, error) {
	var message model.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Receiver").
		First(&message, id).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (r *messageRepoImpl) DirectBetween(ctx context.Context, userA, userB uint) ([]model.Message, error) {
	var messages []model.Message
	err := r.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userA, userB, userB, userA).
		Order("created_at ASC").
		Find(&messages).Error
	return messages, err
}

func (r *messageRepoImpl) ByRoom(ctx context.Context, roomID string) ([]model.Message, error) {
	var messages []model.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Where("room_id = ?", roomID).
		Order("created_at ASC").
		Find(&messages).Error
	return messages, err
}

// ListDirectInvolving returns every direct message the user sent or
// received, oldest first, with both parties preloaded. Conversation
// summaries are derived from this in one pass instead of a query per
// counterpart.
func (r *messageRepoImpl) ListDirectInvolving(ctx context.Context, userID uint) ([]model.Message, error) {
	var messages []model.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Receiver").
		Where("receiver_id IS NOT NULL").
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at ASC").
		Find(&messages).Error
	return messages, err
}

func (r *messageRepoImpl) MarkRead(ctx context.Context, userID, counterpartID uint) error {
	return r.db.WithContext(ctx).Model(&model.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = ?", counterpartID, userID, false).
		Update("is_read", true).Error
}
