package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/group-trips/backend/internal/domain"
	"github.com/pkordes/group-trips/backend/internal/repo"
)

// SetFinanceInput is the payload of SetFinance. ParticipantDeadline is an
// RFC 3339 timestamp as received from the client.
type SetFinanceInput struct {
	TripID              uuid.UUID
	ActorID             uuid.UUID
	BaseAmount          int64
	Deposit             int64
	ParticipantDeadline string
}

// FinanceOverview is what a member sees on the trip finance page.
// Finance is nil until the organizer configures payment terms. Payments is
// only filled for the organizer.
type FinanceOverview struct {
	Finance              *domain.Finance
	OrganizerPaymentLink string
	ViewerPayment        *domain.Payment
	Payments             []domain.PaymentView
}

// FinanceService manages per-trip payment terms.
type FinanceService struct {
	store    repo.Store
	notifier Notifier
	now      Clock
	prod     bool
}

// NewFinanceService constructs a FinanceService. When prod is true, terms
// whose deadline is less than domain.LockWindow away can no longer change.
func NewFinanceService(store repo.Store, notifier Notifier, now Clock, prod bool) *FinanceService {
	return &FinanceService{store: store, notifier: notifier, now: now, prod: prod}
}

// SetFinance creates or replaces the payment terms of a trip and re-syncs
// the payment row of every ACTIVE participant to the new amount. CONFIRMED
// rows are settled and keep their amount and status.
//
// Returns domain.ErrValidation for bad amounts or deadlines,
// domain.ErrForbidden if actor is not the organizer, and domain.ErrConflict
// when the existing terms are inside the lock window.
func (s *FinanceService) SetFinance(ctx context.Context, in SetFinanceInput) (domain.Finance, error) {
	now := s.now()
	deadline, err := validateFinance(in, now)
	if err != nil {
		return domain.Finance{}, fmt.Errorf("service.FinanceService.SetFinance: %w", err)
	}

	var (
		saved domain.Finance
		sent  outbox
	)
	err = s.store.InTx(ctx, func(r repo.Repos) error {
		sent.reset()
		trip, err := organizerOf(ctx, r, in.TripID, in.ActorID)
		if err != nil {
			return err
		}

		existing, err := r.Finances.Get(ctx, in.TripID)
		switch {
		case err == nil:
			if s.prod && existing.Locked(now) {
				return fmt.Errorf("%w: payment terms are locked within %s of the deadline", domain.ErrConflict, domain.LockWindow)
			}
		case !errors.Is(err, domain.ErrNotFound):
			return err
		}

		saved, err = r.Finances.Upsert(ctx, domain.NewFinance(in.TripID, in.BaseAmount, in.Deposit, deadline))
		if err != nil {
			return err
		}

		participants, err := r.Members.ListActiveParticipants(ctx, in.TripID)
		if err != nil {
			return err
		}
		for _, m := range participants {
			current, err := r.Payments.GetForUpdate(ctx, in.TripID, m.UserID)
			switch {
			case err == nil:
				if current.Status == domain.PaymentConfirmed && !current.Removed() {
					continue
				}
			case !errors.Is(err, domain.ErrNotFound):
				return err
			}
			if _, err := r.Payments.Seed(ctx, in.TripID, m.UserID, saved.AmountDue()); err != nil {
				return err
			}
			sent.add(domain.NewNotification(m.UserID, in.TripID, domain.KindDeadlineChanged,
				"Payment terms updated",
				fmt.Sprintf("%q now asks %d per participant, due by %s.",
					trip.Title, saved.AmountDue(), formatDeadline(saved.ParticipantDeadline))))
		}
		return nil
	})
	if err != nil {
		return domain.Finance{}, fmt.Errorf("service.FinanceService.SetFinance: %w", err)
	}
	sent.flush(s.notifier)
	return saved, nil
}

// validateFinance checks input before anything is read or written and
// returns the parsed participant deadline.
func validateFinance(in SetFinanceInput, now time.Time) (time.Time, error) {
	if in.BaseAmount <= 0 {
		return time.Time{}, fmt.Errorf("%w: base amount must be greater than zero", domain.ErrValidation)
	}
	if in.Deposit < 0 {
		return time.Time{}, fmt.Errorf("%w: deposit must not be negative", domain.ErrValidation)
	}
	if in.Deposit > math.MaxInt64-in.BaseAmount {
		return time.Time{}, fmt.Errorf("%w: base amount plus deposit is too large", domain.ErrValidation)
	}
	deadline, err := time.Parse(time.RFC3339, in.ParticipantDeadline)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: participant deadline must be an RFC 3339 timestamp", domain.ErrValidation)
	}
	if !deadline.After(now) {
		return time.Time{}, fmt.Errorf("%w: participant deadline must be in the future", domain.ErrValidation)
	}
	return deadline.UTC(), nil
}

// GetFinance returns the payment terms of a trip as seen by viewerID.
// Returns domain.ErrForbidden if the viewer is not an ACTIVE member.
func (s *FinanceService) GetFinance(ctx context.Context, tripID, viewerID uuid.UUID) (FinanceOverview, error) {
	r := s.store.Repos()
	trip, err := r.Trips.GetByID(ctx, tripID)
	if err != nil {
		return FinanceOverview{}, fmt.Errorf("service.FinanceService.GetFinance: %w", err)
	}
	organizer := trip.IsOrganizer(viewerID)
	if !organizer {
		m, err := r.Members.Get(ctx, tripID, viewerID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return FinanceOverview{}, fmt.Errorf("service.FinanceService.GetFinance: %w", err)
		}
		if err != nil || m.Status != domain.MemberActive {
			return FinanceOverview{}, fmt.Errorf("service.FinanceService.GetFinance: %w: not a member of this trip", domain.ErrForbidden)
		}
	}

	var out FinanceOverview
	owner, err := r.Users.GetByID(ctx, trip.OrganizerID)
	switch {
	case err == nil:
		out.OrganizerPaymentLink = owner.PaymentLink
	case !errors.Is(err, domain.ErrNotFound):
		return FinanceOverview{}, fmt.Errorf("service.FinanceService.GetFinance: %w", err)
	}

	f, err := r.Finances.Get(ctx, tripID)
	if errors.Is(err, domain.ErrNotFound) {
		return out, nil
	}
	if err != nil {
		return FinanceOverview{}, fmt.Errorf("service.FinanceService.GetFinance: %w", err)
	}
	out.Finance = &f

	if !organizer {
		p, err := r.Payments.Get(ctx, tripID, viewerID)
		switch {
		case err == nil:
			if !p.Removed() {
				out.ViewerPayment = &p
			}
		case !errors.Is(err, domain.ErrNotFound):
			return FinanceOverview{}, fmt.Errorf("service.FinanceService.GetFinance: %w", err)
		}
		return out, nil
	}

	out.Payments, err = r.Payments.ListByTrip(ctx, tripID)
	if err != nil {
		return FinanceOverview{}, fmt.Errorf("service.FinanceService.GetFinance: %w", err)
	}
	return out, nil
}
