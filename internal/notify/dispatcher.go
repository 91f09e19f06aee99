// Package notify delivers user-facing notifications off the request path.
// The Dispatcher queues messages in memory, persists each one to the in-app
// inbox and then forwards it to the configured external channels.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pkordes/group-trips/backend/internal/domain"
	"github.com/pkordes/group-trips/backend/internal/repo"
)

// deliverTimeout bounds the inbox insert and channel fan-out of one
// notification.
const deliverTimeout = 10 * time.Second

// Channel forwards a stored notification outside the application.
type Channel interface {
	Deliver(ctx context.Context, n domain.Notification) error
}

// Dispatcher is a single background worker fed by a buffered channel.
// ctx only signals shutdown; deliveries never run under it.
type Dispatcher struct {
	queue    chan domain.Notification
	inbox    repo.NotificationRepo
	channels []Channel
	log      *slog.Logger
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewDispatcher constructs a Dispatcher holding up to buffer queued
// notifications. Call Start before use and Shutdown on exit.
func NewDispatcher(inbox repo.NotificationRepo, buffer int, log *slog.Logger, channels ...Channel) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		queue:    make(chan domain.Notification, buffer),
		inbox:    inbox,
		channels: channels,
		log:      log,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start launches the worker.
func (d *Dispatcher) Start() {
	d.wg.Go(func() {
		for {
			select {
			case <-d.ctx.Done():
				if n := len(d.queue); n > 0 {
					d.log.Info("draining notifications before shutdown", "remaining", n)
				}
				for len(d.queue) > 0 {
					d.deliver(<-d.queue)
				}
				return
			case n := <-d.queue:
				d.deliver(n)
			}
		}
	})
}

// Notify enqueues n without blocking. When the queue is full the
// notification is dropped and a warning logged.
func (d *Dispatcher) Notify(n domain.Notification) {
	select {
	case d.queue <- n:
	default:
		d.log.Warn("notification queue full, dropping notification",
			"user_id", n.UserID, "kind", n.Kind)
	}
}

// Shutdown stops the worker after the queue has drained.
func (d *Dispatcher) Shutdown() {
	d.cancel()
	d.wg.Wait()
}

// deliver stores n and fans it out. A channel failure is logged and does not
// affect the other channels; the inbox row is the record of truth.
func (d *Dispatcher) deliver(n domain.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()

	stored, err := d.inbox.Create(ctx, n)
	if err != nil {
		d.log.Error("failed to store notification", "error", err, "user_id", n.UserID, "kind", n.Kind)
		return
	}
	for _, ch := range d.channels {
		if err := ch.Deliver(ctx, stored); err != nil {
			d.log.Error("failed to forward notification", "error", err, "notification_id", stored.ID)
		}
	}
}
