package service

import (
	"context"

	"github.com/shinyyama/cakemarket-backend/internal/model"
	"github.com/shinyyama/cakemarket-backend/internal/repository"
)

type NotificationService interface {
	// List returns the recipient's latest SMS delivery attempts and how many of all
	// their attempts did not go out.
	List(ctx context.Context, recipientID uint64, limit int) ([]model.Notification, int64, error)
}

type notificationService struct {
	repo repository.NotificationRepository
}

func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

func (s *notificationService) List(ctx context.Context, recipientID uint64, limit int) ([]model.Notification, int64, error) {
	list, err := s.repo.ListByRecipient(ctx, recipientID, limit)
	if err != nil {
		return nil, 0, err
	}
	failed, err := s.repo.CountFailed(ctx, recipientID)
	if err != nil {
		return list, 0, err
	}
	return list, failed, nil
}
