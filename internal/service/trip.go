package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/pkordes/group-trips/backend/internal/domain"
	"github.com/pkordes/group-trips/backend/internal/repo"
)

const maxTitleLength = 200

// CreateTripInput is the payload of CreateTrip.
type CreateTripInput struct {
	Title       string
	Public      bool
	OrganizerID uuid.UUID
}

// TripService implements the trip and membership workflow: creating trips,
// join requests and their approval, lifecycle status, and deletion.
type TripService struct {
	store    repo.Store
	notifier Notifier
}

// NewTripService constructs a TripService backed by the provided store.
func NewTripService(store repo.Store, notifier Notifier) *TripService {
	return &TripService{store: store, notifier: notifier}
}

// CreateTrip persists a new PLANNED trip and makes its creator the ACTIVE
// organizer member in the same transaction.
// Returns domain.ErrValidation if the title is blank or too long.
func (s *TripService) CreateTrip(ctx context.Context, in CreateTripInput) (domain.Trip, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return domain.Trip{}, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return domain.Trip{}, fmt.Errorf("%w: title must be at most %d characters", domain.ErrValidation, maxTitleLength)
	}
	visibility := domain.VisibilityPrivate
	if in.Public {
		visibility = domain.VisibilityPublic
	}

	var trip domain.Trip
	err := s.store.InTx(ctx, func(r repo.Repos) error {
		var err error
		trip, err = r.Trips.Create(ctx, domain.Trip{
			Title:       title,
			OrganizerID: in.OrganizerID,
			Visibility:  visibility,
			Status:      domain.TripPlanned,
		})
		if err != nil {
			return err
		}
		_, err = r.Members.Upsert(ctx, domain.Membership{
			TripID: trip.ID,
			UserID: in.OrganizerID,
			Role:   domain.RoleOrganizer,
			Status: domain.MemberActive,
		})
		return err
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.CreateTrip: %w", err)
	}
	return trip, nil
}

// GetTrip returns a trip. Public trips are visible to everybody; private
// trips only to their members.
// Returns domain.ErrNotFound if the trip does not exist.
func (s *TripService) GetTrip(ctx context.Context, tripID, viewerID uuid.UUID) (domain.Trip, error) {
	r := s.store.Repos()
	trip, err := r.Trips.GetByID(ctx, tripID)
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.GetTrip: %w", err)
	}
	if trip.IsPublic() || trip.IsOrganizer(viewerID) {
		return trip, nil
	}
	if _, err := r.Members.Get(ctx, tripID, viewerID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Trip{}, fmt.Errorf("service.TripService.GetTrip: %w: trip is private", domain.ErrForbidden)
		}
		return domain.Trip{}, fmt.Errorf("service.TripService.GetTrip: %w", err)
	}
	return trip, nil
}

// ListPublicTrips returns every public trip, newest first.
// Always returns a non-nil slice so callers can safely range over it.
func (s *TripService) ListPublicTrips(ctx context.Context) ([]domain.Trip, error) {
	trips, err := s.store.Repos().Trips.ListPublic(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.ListPublicTrips: %w", err)
	}
	if trips == nil {
		return []domain.Trip{}, nil
	}
	return trips, nil
}

// RequestJoin files (or re-files) a PENDING join request and tells the
// organizer who asked.
// Returns domain.ErrForbidden for private trips and domain.ErrConflict when
// the requester organizes the trip or is already a member.
func (s *TripService) RequestJoin(ctx context.Context, tripID, userID uuid.UUID) (domain.JoinRequest, error) {
	var (
		jr   domain.JoinRequest
		sent outbox
	)
	err := s.store.InTx(ctx, func(r repo.Repos) error {
		sent.reset()
		trip, err := r.Trips.GetByID(ctx, tripID)
		if err != nil {
			return err
		}
		if !trip.IsPublic() {
			return fmt.Errorf("%w: trip is private", domain.ErrForbidden)
		}
		if trip.IsOrganizer(userID) {
			return fmt.Errorf("%w: organizer cannot join their own trip", domain.ErrConflict)
		}
		_, err = r.Members.Get(ctx, tripID, userID)
		switch {
		case err == nil:
			return fmt.Errorf("%w: already a member of this trip", domain.ErrConflict)
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}

		jr, err = r.JoinRequests.Upsert(ctx, tripID, userID)
		if err != nil {
			return err
		}
		name, err := displayName(ctx, r.Users, userID)
		if err != nil {
			return err
		}
		sent.add(domain.NewNotification(trip.OrganizerID, tripID, domain.KindJoinRequested,
			"New join request",
			fmt.Sprintf("%s asked to join %q.", name, trip.Title)))
		return nil
	})
	if err != nil {
		return domain.JoinRequest{}, fmt.Errorf("service.TripService.RequestJoin: %w", err)
	}
	sent.flush(s.notifier)
	return jr, nil
}

// ListJoinRequests returns the PENDING requests of a trip, oldest first.
// Only the organizer may list them.
func (s *TripService) ListJoinRequests(ctx context.Context, tripID, organizerID uuid.UUID) ([]domain.JoinRequestView, error) {
	r := s.store.Repos()
	if _, err := organizerOf(ctx, r, tripID, organizerID); err != nil {
		return nil, fmt.Errorf("service.TripService.ListJoinRequests: %w", err)
	}
	views, err := r.JoinRequests.ListPending(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.ListJoinRequests: %w", err)
	}
	if views == nil {
		return []domain.JoinRequestView{}, nil
	}
	return views, nil
}

// ApproveJoinRequest accepts a request: the requester becomes an ACTIVE
// participant and, when payment terms exist, gets a PENDING payment row.
// Approving somebody who is already a member leaves their payment untouched.
func (s *TripService) ApproveJoinRequest(ctx context.Context, tripID, requestID, organizerID uuid.UUID) error {
	var sent outbox
	err := s.store.InTx(ctx, func(r repo.Repos) error {
		sent.reset()
		trip, jr, err := s.decide(ctx, r, tripID, requestID, organizerID, domain.JoinApproved)
		if err != nil {
			return err
		}

		_, err = r.Members.Get(ctx, tripID, jr.UserID)
		switch {
		case err == nil:
			// already a member; nothing to seed
		case errors.Is(err, domain.ErrNotFound):
			if _, err := r.Members.Upsert(ctx, domain.Membership{
				TripID: tripID,
				UserID: jr.UserID,
				Role:   domain.RoleParticipant,
				Status: domain.MemberActive,
			}); err != nil {
				return err
			}
			if err := seedIfConfigured(ctx, r, tripID, jr.UserID); err != nil {
				return err
			}
		default:
			return err
		}

		sent.add(domain.NewNotification(jr.UserID, tripID, domain.KindJoinApproved,
			"Join request approved",
			fmt.Sprintf("You are now a participant of %q.", trip.Title)))
		return nil
	})
	if err != nil {
		return fmt.Errorf("service.TripService.ApproveJoinRequest: %w", err)
	}
	sent.flush(s.notifier)
	return nil
}

// RejectJoinRequest declines a request. Membership is not affected.
func (s *TripService) RejectJoinRequest(ctx context.Context, tripID, requestID, organizerID uuid.UUID) error {
	var sent outbox
	err := s.store.InTx(ctx, func(r repo.Repos) error {
		sent.reset()
		trip, jr, err := s.decide(ctx, r, tripID, requestID, organizerID, domain.JoinRejected)
		if err != nil {
			return err
		}
		sent.add(domain.NewNotification(jr.UserID, tripID, domain.KindJoinRejected,
			"Join request declined",
			fmt.Sprintf("The organizer of %q declined your request.", trip.Title)))
		return nil
	})
	if err != nil {
		return fmt.Errorf("service.TripService.RejectJoinRequest: %w", err)
	}
	sent.flush(s.notifier)
	return nil
}

// decide checks that organizerID may rule on requestID within tripID and
// records the outcome.
func (s *TripService) decide(ctx context.Context, r repo.Repos, tripID, requestID, organizerID uuid.UUID, status domain.JoinStatus) (domain.Trip, domain.JoinRequest, error) {
	trip, err := organizerOf(ctx, r, tripID, organizerID)
	if err != nil {
		return domain.Trip{}, domain.JoinRequest{}, err
	}
	jr, err := r.JoinRequests.GetByID(ctx, requestID)
	if err != nil {
		return domain.Trip{}, domain.JoinRequest{}, err
	}
	if jr.TripID != tripID {
		return domain.Trip{}, domain.JoinRequest{}, fmt.Errorf("%w: join request does not belong to this trip", domain.ErrNotFound)
	}
	jr, err = r.JoinRequests.SetStatus(ctx, requestID, status)
	if err != nil {
		return domain.Trip{}, domain.JoinRequest{}, err
	}
	return trip, jr, nil
}

// seedIfConfigured assigns the current amount due to a new participant.
func seedIfConfigured(ctx context.Context, r repo.Repos, tripID, userID uuid.UUID) error {
	f, err := r.Finances.Get(ctx, tripID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = r.Payments.Seed(ctx, tripID, userID, f.AmountDue())
	return err
}

// UpdateTripStatus advances the trip lifecycle by exactly one step.
// Returns domain.ErrState if status is not the next stage.
func (s *TripService) UpdateTripStatus(ctx context.Context, tripID, organizerID uuid.UUID, status domain.TripStatus) (domain.Trip, error) {
	var trip domain.Trip
	err := s.store.InTx(ctx, func(r repo.Repos) error {
		current, err := organizerOf(ctx, r, tripID, organizerID)
		if err != nil {
			return err
		}
		next, ok := current.Status.Next()
		if !ok || next != status {
			return fmt.Errorf("%w: trip cannot move from %s to %s", domain.ErrState, current.Status, status)
		}
		trip, err = r.Trips.UpdateStatus(ctx, tripID, status)
		return err
	})
	if err != nil {
		return domain.Trip{}, fmt.Errorf("service.TripService.UpdateTripStatus: %w", err)
	}
	return trip, nil
}

// DeleteTrip removes the trip and everything that references it as one
// atomic unit, following repo.TripDeletionPlan.
func (s *TripService) DeleteTrip(ctx context.Context, tripID, organizerID uuid.UUID) error {
	err := s.store.InTx(ctx, func(r repo.Repos) error {
		if _, err := organizerOf(ctx, r, tripID, organizerID); err != nil {
			return err
		}
		return r.Trips.Delete(ctx, tripID)
	})
	if err != nil {
		return fmt.Errorf("service.TripService.DeleteTrip: %w", err)
	}
	return nil
}
