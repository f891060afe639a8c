package repository

import (
	"context"

	"github.com/shinyyama/cakemarket-backend/internal/model"
	"gorm.io/gorm"
)

const (
	DefaultNotificationLimit = 20
	MaxNotificationLimit     = 50
)

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	ListByRecipient(ctx context.Context, recipientID uint64, limit int) ([]model.Notification, error)
	CountFailed(ctx context.Context, recipientID uint64) (int64, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, recipientID uint64, limit int) ([]model.Notification, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Notification
	switch {
	case limit <= 0:
		limit = DefaultNotificationLimit
	case limit > MaxNotificationLimit:
		limit = MaxNotificationLimit
	}
	if err := r.db.WithContext(ctx).
		Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *notificationRepository) CountFailed(ctx context.Context, recipientID uint64) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Notification{}).
		Where("recipient_id = ? AND status <> ?", recipientID, model.NotificationStatusSent).
		Count(&cnt).Error; err != nil {
		return 0, err
	}
	return cnt, nil
}
