package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/group-trips/backend/internal/domain"
)

func TestNotificationRepo_CreateAndList(t *testing.T) {
	r, tx := newTestRepos(t)
	ctx := context.Background()
	alice := insertUser(t, tx, "alice")
	trip := insertTrip(t, r, insertUser(t, tx, "olena").ID)
	for i := 0; i < 3; i++ {
		_, err := r.Notifications.Create(ctx, domain.NewNotification(alice.ID, trip.ID, domain.KindDeadlineChanged, "Payment terms updated", "msg"))
		require.NoError(t, err)
	}

	page1, total, err := r.Notifications.ListByUser(ctx, alice.ID, domain.PaginationParams{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, page1, 2)
	assert.Equal(t, domain.KindDeadlineChanged, page1[0].Kind)
	require.NotNil(t, page1[0].TripID)
	assert.Equal(t, trip.ID, *page1[0].TripID)
	assert.Nil(t, page1[0].ReadAt)

	page2, _, err := r.Notifications.ListByUser(ctx, alice.ID, domain.PaginationParams{Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page2, 1)

	empty, total, err := r.Notifications.ListByUser(ctx, uuid.New(), domain.PaginationParams{Page: 1, Limit: 20})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestNotificationRepo_Create_tripGone(t *testing.T) {
	r, tx := newTestRepos(t)
	alice := insertUser(t, tx, "alice")

	n, err := r.Notifications.Create(context.Background(), domain.NewNotification(alice.ID, uuid.New(), domain.KindPaymentConfirmed, "Confirmed", "msg"))
	require.NoError(t, err)
	assert.Nil(t, n.TripID)
	assert.Equal(t, "Confirmed", n.Title)
}

func TestNotificationRepo_MarkRead(t *testing.T) {
	r, tx := newTestRepos(t)
	ctx := context.Background()
	alice := insertUser(t, tx, "alice")
	bob := insertUser(t, tx, "bob")
	trip := insertTrip(t, r, insertUser(t, tx, "olena").ID)
	n, err := r.Notifications.Create(ctx, domain.NewNotification(alice.ID, trip.ID, domain.KindJoinApproved, "Approved", "Welcome"))
	require.NoError(t, err)

	err = r.Notifications.MarkRead(ctx, bob.ID, n.ID, deadline)
	require.ErrorIs(t, err, domain.ErrNotFound, "only the recipient can mark it")

	require.NoError(t, r.Notifications.MarkRead(ctx, alice.ID, n.ID, deadline))
	require.NoError(t, r.Notifications.MarkRead(ctx, alice.ID, n.ID, deadline.Add(time.Hour)))

	items, _, err := r.Notifications.ListByUser(ctx, alice.ID, domain.PaginationParams{Page: 1, Limit: 20})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].ReadAt)
	assert.True(t, deadline.Equal(*items[0].ReadAt), "first read timestamp is kept")
}

func TestNotificationRepo_CountUnreadAndMarkAllRead(t *testing.T) {
	r, tx := newTestRepos(t)
	ctx := context.Background()
	alice := insertUser(t, tx, "alice")
	bob := insertUser(t, tx, "bob")
	trip := insertTrip(t, r, insertUser(t, tx, "olena").ID)
	var first domain.Notification
	for i := 0; i < 3; i++ {
		n, err := r.Notifications.Create(ctx, domain.NewNotification(alice.ID, trip.ID, domain.KindDeadlineReminder, "Reminder", "msg"))
		require.NoError(t, err)
		if i == 0 {
			first = n
		}
	}
	_, err := r.Notifications.Create(ctx, domain.NewNotification(bob.ID, trip.ID, domain.KindDeadlineReminder, "Reminder", "msg"))
	require.NoError(t, err)
	require.NoError(t, r.Notifications.MarkRead(ctx, alice.ID, first.ID, deadline))

	unread, err := r.Notifications.CountUnread(ctx, alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread)

	updated, err := r.Notifications.MarkAllRead(ctx, alice.ID, deadline.Add(time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 2, updated)

	unread, err = r.Notifications.CountUnread(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)

	unread, err = r.Notifications.CountUnread(ctx, bob.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, unread)
}
