package notify_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/group-trips/backend/internal/domain"
	"github.com/pkordes/group-trips/backend/internal/notify"
	"github.com/pkordes/group-trips/backend/internal/repo"
	"github.com/pkordes/group-trips/backend/internal/repo/repotest"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// mockChannel records deliveries and optionally fails.
type mockChannel struct {
	mu   sync.Mutex
	got  []domain.Notification
	fail error
}

func (c *mockChannel) Deliver(_ context.Context, n domain.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, n)
	return c.fail
}

// compile-time check: mockChannel must satisfy notify.Channel.
var _ notify.Channel = (*mockChannel)(nil)

// failingInbox is a repo.NotificationRepo whose Create always fails.
type failingInbox struct {
	repo.NotificationRepo
}

func (failingInbox) Create(context.Context, domain.Notification) (domain.Notification, error) {
	return domain.Notification{}, errors.New("insert failed")
}

// cancelSensitiveInbox fails every insert made under a cancelled context.
type cancelSensitiveInbox struct {
	repo.NotificationRepo
	mu     sync.Mutex
	failed int
}

func (i *cancelSensitiveInbox) Create(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	if err := ctx.Err(); err != nil {
		i.mu.Lock()
		i.failed++
		i.mu.Unlock()
		return domain.Notification{}, err
	}
	return i.NotificationRepo.Create(ctx, n)
}

func message(userID uuid.UUID, title string) domain.Notification {
	return domain.NewNotification(userID, uuid.New(), domain.KindPaymentConfirmed, title, "body")
}

func TestDispatcher_PersistsAndForwards(t *testing.T) {
	store := repotest.New()
	broken := &mockChannel{fail: errors.New("telegram down")}
	ok := &mockChannel{}
	d := notify.NewDispatcher(store.Repos().Notifications, 8, discard(), broken, ok)
	d.Start()
	user := uuid.New()

	d.Notify(message(user, "first"))
	d.Notify(message(user, "second"))
	d.Shutdown()

	inbox := store.Notifications()
	require.Len(t, inbox, 2)
	assert.Equal(t, "first", inbox[0].Title)
	assert.NotEqual(t, uuid.Nil, inbox[0].ID)

	require.Len(t, ok.got, 2, "a failing channel must not stop the others")
	assert.Equal(t, inbox[0].ID, ok.got[0].ID, "channels receive the stored row")
	assert.Len(t, broken.got, 2)
}

func TestDispatcher_DropsWhenQueueIsFull(t *testing.T) {
	store := repotest.New()
	d := notify.NewDispatcher(store.Repos().Notifications, 1, discard())
	user := uuid.New()

	// the worker is not running yet, so the second message has nowhere to go
	d.Notify(message(user, "kept"))
	done := make(chan struct{})
	go func() {
		d.Notify(message(user, "dropped"))
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a full queue")
	}

	d.Start()
	d.Shutdown()

	inbox := store.Notifications()
	require.Len(t, inbox, 1)
	assert.Equal(t, "kept", inbox[0].Title)
}

func TestDispatcher_StoreFailureSkipsChannels(t *testing.T) {
	ch := &mockChannel{}
	d := notify.NewDispatcher(failingInbox{}, 4, discard(), ch)
	d.Start()

	d.Notify(message(uuid.New(), "lost"))
	d.Shutdown()

	assert.Empty(t, ch.got)
}

func TestDispatcher_ShutdownDeliversEverythingQueued(t *testing.T) {
	const queued = 500
	store := repotest.New()
	inbox := &cancelSensitiveInbox{NotificationRepo: store.Repos().Notifications}
	d := notify.NewDispatcher(inbox, queued, discard())
	user := uuid.New()
	for i := 0; i < queued; i++ {
		d.Notify(message(user, "queued"))
	}

	d.Start()
	d.Shutdown()

	assert.Zero(t, inbox.failed, "no delivery may run under the shutdown context")
	assert.Len(t, store.Notifications(), queued)
}

func TestDispatcher_DetachesDeletedTrip(t *testing.T) {
	store := repotest.New()
	d := notify.NewDispatcher(store.Repos().Notifications, 4, discard())
	d.Start()

	// the trip in message() does not exist in the store
	d.Notify(message(uuid.New(), "after delete"))
	d.Shutdown()

	inbox := store.Notifications()
	require.Len(t, inbox, 1)
	assert.Nil(t, inbox[0].TripID)
	assert.Equal(t, "after delete", inbox[0].Title)
}
