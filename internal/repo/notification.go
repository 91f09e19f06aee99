package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/group-trips/backend/internal/domain"
)

// NotificationRepo stores the in-app inbox.
type NotificationRepo interface {
	// Create inserts a notification and returns it with id and created_at set.
	// A trip_id whose trip no longer exists is stored as NULL.
	Create(ctx context.Context, n domain.Notification) (domain.Notification, error)

	// ListByUser returns one page of a user's inbox, newest first, and the
	// total number of notifications the user has.
	ListByUser(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Notification, int64, error)

	// MarkRead stamps read_at on a notification owned by userID. Marking an
	// already read notification keeps the first timestamp.
	// Returns domain.ErrNotFound if the user has no such notification.
	MarkRead(ctx context.Context, userID, id uuid.UUID, at time.Time) error

	// CountUnread returns how many of the user's notifications have no read_at.
	CountUnread(ctx context.Context, userID uuid.UUID) (int64, error)

	// MarkAllRead stamps read_at on every unread notification of userID and
	// returns how many were updated.
	MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error)
}

type pgNotificationRepo struct {
	db db
}

// NewNotificationRepo constructs a NotificationRepo backed by the provided db connection.
func NewNotificationRepo(db db) NotificationRepo {
	return &pgNotificationRepo{db: db}
}

const notificationColumns = `id, user_id, trip_id, kind, title, message, read_at, created_at`

func (r *pgNotificationRepo) Create(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	const q = `
		INSERT INTO notifications (user_id, trip_id, kind, title, message)
		VALUES (@user_id, (SELECT id FROM trips WHERE id = @trip_id), @kind, @title, @message)
		RETURNING ` + notificationColumns

	args := pgx.NamedArgs{
		"user_id": n.UserID,
		"trip_id": n.TripID, // nil becomes NULL
		"kind":    n.Kind,
		"title":   n.Title,
		"message": n.Message,
	}
	result, err := scanNotification(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Notification{}, fmt.Errorf("repo.NotificationRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgNotificationRepo) ListByUser(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Notification, int64, error) {
	const countQ = `SELECT count(*) FROM notifications WHERE user_id = @user_id`
	const q = `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE user_id = @user_id
		ORDER BY created_at DESC
		LIMIT @limit OFFSET @offset`

	var total int64
	if err := r.db.QueryRow(ctx, countQ, pgx.NamedArgs{"user_id": userID}).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.NotificationRepo.ListByUser: count: %w", err)
	}

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID, "limit": p.Limit, "offset": p.Offset()})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.NotificationRepo.ListByUser: %w", err)
	}
	items, err := collect(rows, scanNotification)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.NotificationRepo.ListByUser: %w", err)
	}
	return items, total, nil
}

func (r *pgNotificationRepo) MarkRead(ctx context.Context, userID, id uuid.UUID, at time.Time) error {
	const q = `
		UPDATE notifications
		SET read_at = COALESCE(read_at, @at)
		WHERE id = @id AND user_id = @user_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "user_id": userID, "at": at})
	if err != nil {
		return fmt.Errorf("repo.NotificationRepo.MarkRead: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.NotificationRepo.MarkRead: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgNotificationRepo) CountUnread(ctx context.Context, userID uuid.UUID) (int64, error) {
	const q = `SELECT count(*) FROM notifications WHERE user_id = @user_id AND read_at IS NULL`

	var n int64
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID}).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo.NotificationRepo.CountUnread: %w", err)
	}
	return n, nil
}

func (r *pgNotificationRepo) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	const q = `
		UPDATE notifications
		SET read_at = @at
		WHERE user_id = @user_id AND read_at IS NULL`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"user_id": userID, "at": at})
	if err != nil {
		return 0, fmt.Errorf("repo.NotificationRepo.MarkAllRead: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanNotification(s scanner) (domain.Notification, error) {
	var (
		n          domain.Notification
		id, userID pgtype.UUID
		tripID     pgtype.UUID
	)
	if err := s.Scan(&id, &userID, &tripID, &n.Kind, &n.Title, &n.Message, &n.ReadAt, &n.CreatedAt); err != nil {
		return domain.Notification{}, notFound(err)
	}
	n.ID, n.UserID = fromPgUUID(id), fromPgUUID(userID)
	if tripID.Valid {
		t := fromPgUUID(tripID)
		n.TripID = &t
	}
	return n, nil
}
