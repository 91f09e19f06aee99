// Package service contains the business logic of the group trips backend.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here; services depend on repo interfaces, not implementations.
//
// Every multi-row write runs inside repo.Store.InTx. Notifications produced
// while a transaction is open are buffered and handed to the Notifier only
// after the commit succeeds, so a rolled back operation never notifies.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/group-trips/backend/internal/domain"
	"github.com/pkordes/group-trips/backend/internal/repo"
)

// Notifier accepts user-facing messages. Implementations must not block.
type Notifier interface {
	Notify(n domain.Notification)
}

// Clock returns the current time.
type Clock func() time.Time

// outbox buffers notifications until the surrounding transaction commits.
type outbox []domain.Notification

func (o *outbox) add(n domain.Notification) {
	*o = append(*o, n)
}

// reset drops anything buffered by a previous attempt of the same callback.
func (o *outbox) reset() {
	*o = (*o)[:0]
}

func (o outbox) flush(n Notifier) {
	for _, msg := range o {
		n.Notify(msg)
	}
}

// organizerOf loads the trip and checks that actorID organizes it.
// Returns domain.ErrNotFound if the trip does not exist and
// domain.ErrForbidden if actorID is someone else.
func organizerOf(ctx context.Context, r repo.Repos, tripID, actorID uuid.UUID) (domain.Trip, error) {
	trip, err := r.Trips.GetByID(ctx, tripID)
	if err != nil {
		return domain.Trip{}, err
	}
	if !trip.IsOrganizer(actorID) {
		return domain.Trip{}, fmt.Errorf("%w: only the organizer may do this", domain.ErrForbidden)
	}
	return trip, nil
}

// displayName resolves a user for message text. Accounts missing from the
// identity tables fall back to a generic label.
func displayName(ctx context.Context, users repo.UserRepo, id uuid.UUID) (string, error) {
	u, err := users.GetByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		return "A participant", nil
	}
	if err != nil {
		return "", err
	}
	return u.DisplayName(), nil
}

// formatDeadline renders a deadline for notification text.
func formatDeadline(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04 UTC")
}
