package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/pkordes/group-trips/backend/internal/domain"
	"github.com/pkordes/group-trips/backend/internal/repo"
)

// NotificationService serves a user's in-app inbox.
type NotificationService struct {
	store repo.Store
	now   Clock
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(store repo.Store, now Clock) *NotificationService {
	return &NotificationService{store: store, now: now}
}

// ListNotifications returns one page of the user's inbox, newest first, and
// the total number of notifications.
func (s *NotificationService) ListNotifications(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Notification, int64, error) {
	items, total, err := s.store.Repos().Notifications.ListByUser(ctx, userID, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.NotificationService.ListNotifications: %w", err)
	}
	if items == nil {
		items = []domain.Notification{}
	}
	return items, total, nil
}

// MarkRead marks a notification of userID as read.
// Returns domain.ErrNotFound if the user has no such notification.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id uuid.UUID) error {
	if err := s.store.Repos().Notifications.MarkRead(ctx, userID, id, s.now()); err != nil {
		return fmt.Errorf("service.NotificationService.MarkRead: %w", err)
	}
	return nil
}

// UnreadCount returns how many notifications of userID are still unread.
func (s *NotificationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.store.Repos().Notifications.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("service.NotificationService.UnreadCount: %w", err)
	}
	return n, nil
}

// MarkAllRead marks every unread notification of userID as read and returns
// how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.store.Repos().Notifications.MarkAllRead(ctx, userID, s.now())
	if err != nil {
		return 0, fmt.Errorf("service.NotificationService.MarkAllRead: %w", err)
	}
	return n, nil
}
