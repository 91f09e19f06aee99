package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/group-trips/backend/internal/domain"
	"github.com/pkordes/group-trips/backend/internal/repo"
)

// reminderMarks are the distances before the participant deadline at which
// the organizer is warned.
var reminderMarks = []time.Duration{2 * time.Hour, time.Hour, 30 * time.Minute}

// DeadlineService implements the two scheduled passes: reminders before the
// participant deadline and enforcement after the organizer deadline.
type DeadlineService struct {
	store    repo.Store
	notifier Notifier
	band     time.Duration
	log      *slog.Logger
}

// NewDeadlineService constructs a DeadlineService. band is the reminder
// tolerance and must be at least the interval between ticks, otherwise a
// mark can fall between two ticks and never fire.
func NewDeadlineService(store repo.Store, notifier Notifier, band time.Duration, log *slog.Logger) *DeadlineService {
	return &DeadlineService{store: store, notifier: notifier, band: band, log: log}
}

// Tick runs the reminder pass and then the enforcement pass. A failing pass
// does not prevent the other from running.
func (s *DeadlineService) Tick(ctx context.Context, now time.Time) error {
	return errors.Join(
		s.RemindOrganizers(ctx, now),
		s.EnforceDeadlines(ctx, now),
	)
}

// RemindOrganizers warns the organizer of every trip whose participant
// deadline is 2h, 1h or 30m away. A mark fires when the remaining time is
// within (mark-band, mark], so each mark fires on exactly one tick.
func (s *DeadlineService) RemindOrganizers(ctx context.Context, now time.Time) error {
	schedules, err := s.store.Repos().Finances.ListSchedules(ctx)
	if err != nil {
		return fmt.Errorf("service.DeadlineService.RemindOrganizers: %w", err)
	}
	for _, sc := range schedules {
		remaining := sc.ParticipantDeadline.Sub(now)
		for _, mark := range reminderMarks {
			if remaining > mark || remaining <= mark-s.band {
				continue
			}
			s.notifier.Notify(domain.NewNotification(sc.OrganizerID, sc.TripID, domain.KindDeadlineReminder,
				"Payment deadline approaching",
				fmt.Sprintf("%s left until the payment deadline of %q. Check the reported payments.",
					formatMark(mark), sc.TripTitle)))
			s.log.Info("deadline reminder sent", "trip_id", sc.TripID, "mark", mark.String())
		}
	}
	return nil
}

// EnforceDeadlines enforces every trip whose organizer deadline has passed.
// A failure on one trip is logged and the pass moves on to the next.
func (s *DeadlineService) EnforceDeadlines(ctx context.Context, now time.Time) error {
	schedules, err := s.store.Repos().Finances.ListSchedules(ctx)
	if err != nil {
		return fmt.Errorf("service.DeadlineService.EnforceDeadlines: %w", err)
	}
	for _, sc := range schedules {
		if !sc.EnforcementDue(now) {
			continue
		}
		removed, err := s.EnforceTrip(ctx, sc.TripID, now)
		if err != nil {
			s.log.Error("deadline enforcement failed", "trip_id", sc.TripID, "error", err)
			continue
		}
		if len(removed) > 0 {
			s.log.Info("unpaid participants removed", "trip_id", sc.TripID, "removed", len(removed))
		}
	}
	return nil
}

// EnforceTrip removes every ACTIVE participant of tripID whose payment is not
// CONFIRMED. Memberships are deleted and payments soft-deleted in one
// transaction; then each removed user and the organizer are notified.
// Running it again with nothing left to remove is a no-op.
//
// Returns the removed user IDs, or domain.ErrState before the organizer
// deadline.
func (s *DeadlineService) EnforceTrip(ctx context.Context, tripID uuid.UUID, now time.Time) ([]uuid.UUID, error) {
	var (
		removed []uuid.UUID
		sent    outbox
	)
	err := s.store.InTx(ctx, func(r repo.Repos) error {
		sent.reset()
		removed = nil
		f, err := r.Finances.Get(ctx, tripID)
		if err != nil {
			return err
		}
		if !f.EnforcementDue(now) {
			return fmt.Errorf("%w: organizer deadline %s has not passed", domain.ErrState, formatDeadline(f.OrganizerDeadline))
		}
		trip, err := r.Trips.GetByID(ctx, tripID)
		if err != nil {
			return err
		}
		unpaid, err := r.Payments.ListUnpaid(ctx, tripID)
		if err != nil {
			return err
		}
		if len(unpaid) == 0 {
			return nil
		}

		for _, p := range unpaid {
			removed = append(removed, p.UserID)
		}
		if _, err := r.Members.DeleteParticipants(ctx, tripID, removed); err != nil {
			return err
		}
		if _, err := r.Payments.MarkRemoved(ctx, tripID, removed, now); err != nil {
			return err
		}

		for _, id := range removed {
			sent.add(domain.NewNotification(id, tripID, domain.KindExcluded,
				"Removed from trip",
				fmt.Sprintf("You were removed from %q because your payment was not confirmed by the deadline.", trip.Title)))
		}
		sent.add(domain.NewNotification(trip.OrganizerID, tripID, domain.KindEnforcementSummary,
			"Unpaid participants removed",
			fmt.Sprintf("%d participant(s) were removed from %q for not paying by the deadline.", len(removed), trip.Title)))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("service.DeadlineService.EnforceTrip: %w", err)
	}
	sent.flush(s.notifier)
	return removed, nil
}

// formatMark renders 2h0m0s as "2h" and 30m0s as "30m".
func formatMark(d time.Duration) string {
	if d%time.Hour == 0 {
		return fmt.Sprintf("%dh", int64(d/time.Hour))
	}
	return fmt.Sprintf("%dm", int64(d/time.Minute))
}
