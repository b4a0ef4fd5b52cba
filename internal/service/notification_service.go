package service

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/domain"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/logger"
	"github.com/wearedev-studio/preskillbitbacket-sub001/internal/repository"
)

// Pusher доставляет уведомление вне приложения (телеграм)
type Pusher interface {
	Push(ctx context.Context, userID int64, title, message, link string) error
}

// NotificationService - domain.Notifier: сохраняет уведомление и, если
// настроен Pusher, отправляет его асинхронно
type NotificationService struct {
	repo   *repository.NotificationRepository
	pusher Pusher
}

func NewNotificationService(db *pgxpool.Pool) *NotificationService {
	return &NotificationService{repo: repository.NewNotificationRepository(db)}
}

var _ domain.Notifier = (*NotificationService)(nil)

func (s *NotificationService) SetPusher(p Pusher) {
	s.pusher = p
}

func (s *NotificationService) Notify(ctx context.Context, userID int64, title, message, link string) error {
	n := &domain.Notification{UserID: userID, Title: title, Message: message, Link: link}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	if s.pusher != nil {
		go func() {
			if err := s.pusher.Push(context.Background(), userID, title, message, link); err != nil {
				logger.Warn("notification push failed", "error", err, "user_id", userID)
			}
		}()
	}
	return nil
}

func (s *NotificationService) List(ctx context.Context, userID int64, limit int) ([]*domain.Notification, error) {
	return s.repo.GetByUser(ctx, userID, limit)
}

func (s *NotificationService) MarkRead(ctx context.Context, userID int64) error {
	return s.repo.MarkRead(ctx, userID)
}
