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

const (
	maxNoteLength   = 500
	maxReasonLength = 500
)

// ReportPaymentInput is the payload of ReportPayment.
type ReportPaymentInput struct {
	TripID   uuid.UUID
	UserID   uuid.UUID
	Evidence domain.Evidence
	Note     string
}

// PaymentService drives the payment ledger state machine.
type PaymentService struct {
	store    repo.Store
	notifier Notifier
	now      Clock
}

// NewPaymentService constructs a PaymentService backed by the provided store.
func NewPaymentService(store repo.Store, notifier Notifier, now Clock) *PaymentService {
	return &PaymentService{store: store, notifier: notifier, now: now}
}

// ReportPayment records a participant's evidence of payment and tells the
// organizer. Reporting an already CONFIRMED payment returns it unchanged.
//
// Returns domain.ErrValidation without evidence, domain.ErrForbidden if the
// caller is not an ACTIVE participant, and domain.ErrState when no payment
// terms exist or the participant deadline has passed.
func (s *PaymentService) ReportPayment(ctx context.Context, in ReportPaymentInput) (domain.Payment, error) {
	in.Evidence.URL = strings.TrimSpace(in.Evidence.URL)
	if in.Evidence.URL == "" {
		return domain.Payment{}, fmt.Errorf("service.PaymentService.ReportPayment: %w: evidence is required", domain.ErrValidation)
	}
	if utf8.RuneCountInString(in.Note) > maxNoteLength {
		return domain.Payment{}, fmt.Errorf("service.PaymentService.ReportPayment: %w: note must be at most %d characters", domain.ErrValidation, maxNoteLength)
	}
	now := s.now()

	var (
		out  domain.Payment
		sent outbox
	)
	err := s.store.InTx(ctx, func(r repo.Repos) error {
		sent.reset()
		trip, err := r.Trips.GetByID(ctx, in.TripID)
		if err != nil {
			return err
		}
		if trip.IsOrganizer(in.UserID) {
			return fmt.Errorf("%w: the organizer does not pay", domain.ErrForbidden)
		}
		m, err := r.Members.Get(ctx, in.TripID, in.UserID)
		if errors.Is(err, domain.ErrNotFound) || (err == nil && !m.IsActiveParticipant()) {
			return fmt.Errorf("%w: not a participant of this trip", domain.ErrForbidden)
		}
		if err != nil {
			return err
		}

		f, err := r.Finances.Get(ctx, in.TripID)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: payment terms are not configured", domain.ErrState)
		}
		if err != nil {
			return err
		}
		if !f.ReportingOpen(now) {
			return fmt.Errorf("%w: the payment deadline has passed", domain.ErrState)
		}

		p, err := r.Payments.GetForUpdate(ctx, in.TripID, in.UserID)
		if errors.Is(err, domain.ErrNotFound) {
			p, err = r.Payments.Seed(ctx, in.TripID, in.UserID, f.AmountDue())
		}
		if err != nil {
			return err
		}
		if p.Status == domain.PaymentConfirmed {
			out = p
			return nil
		}
		if !p.Status.CanTransition(domain.PaymentReported) {
			return fmt.Errorf("%w: payment is %s", domain.ErrState, p.Status)
		}

		reportedAt := now
		p.Status = domain.PaymentReported
		p.Evidence = in.Evidence
		p.Note = strings.TrimSpace(in.Note)
		p.RejectReason = ""
		p.ReportedAt = &reportedAt
		out, err = r.Payments.Update(ctx, p)
		if err != nil {
			return err
		}

		name, err := displayName(ctx, r.Users, in.UserID)
		if err != nil {
			return err
		}
		sent.add(domain.NewNotification(trip.OrganizerID, in.TripID, domain.KindPaymentReported,
			"Payment reported",
			fmt.Sprintf("%s reported a payment of %d for %q.", name, out.AmountDue, trip.Title)))
		return nil
	})
	if err != nil {
		return domain.Payment{}, fmt.Errorf("service.PaymentService.ReportPayment: %w", err)
	}
	sent.flush(s.notifier)
	return out, nil
}

// ConfirmPayment settles a REPORTED payment. Confirming a CONFIRMED payment
// returns it unchanged.
//
// Returns domain.ErrState if the payment was never reported, was rejected,
// or belongs to a participant removed by deadline enforcement.
func (s *PaymentService) ConfirmPayment(ctx context.Context, tripID, organizerID, userID uuid.UUID) (domain.Payment, error) {
	var (
		out  domain.Payment
		sent outbox
	)
	err := s.store.InTx(ctx, func(r repo.Repos) error {
		sent.reset()
		trip, p, err := s.lockForDecision(ctx, r, tripID, organizerID, userID)
		if err != nil {
			return err
		}
		if p.Status == domain.PaymentConfirmed {
			out = p
			return nil
		}
		if !p.Status.CanTransition(domain.PaymentConfirmed) {
			return fmt.Errorf("%w: only reported payments can be confirmed, this one is %s", domain.ErrState, p.Status)
		}
		p.Status = domain.PaymentConfirmed
		out, err = r.Payments.Update(ctx, p)
		if err != nil {
			return err
		}
		sent.add(domain.NewNotification(userID, tripID, domain.KindPaymentConfirmed,
			"Payment confirmed",
			fmt.Sprintf("The organizer confirmed your payment for %q.", trip.Title)))
		return nil
	})
	if err != nil {
		return domain.Payment{}, fmt.Errorf("service.PaymentService.ConfirmPayment: %w", err)
	}
	sent.flush(s.notifier)
	return out, nil
}

// RejectPayment sends a REPORTED payment back to the participant with an
// optional reason. The participant may report again.
//
// Returns domain.ErrState unless the payment is REPORTED and still live.
func (s *PaymentService) RejectPayment(ctx context.Context, tripID, organizerID, userID uuid.UUID, reason string) (domain.Payment, error) {
	reason = strings.TrimSpace(reason)
	if utf8.RuneCountInString(reason) > maxReasonLength {
		return domain.Payment{}, fmt.Errorf("service.PaymentService.RejectPayment: %w: reason must be at most %d characters", domain.ErrValidation, maxReasonLength)
	}

	var (
		out  domain.Payment
		sent outbox
	)
	err := s.store.InTx(ctx, func(r repo.Repos) error {
		sent.reset()
		trip, p, err := s.lockForDecision(ctx, r, tripID, organizerID, userID)
		if err != nil {
			return err
		}
		if !p.Status.CanTransition(domain.PaymentRejected) {
			return fmt.Errorf("%w: only reported payments can be rejected, this one is %s", domain.ErrState, p.Status)
		}
		p.Status = domain.PaymentRejected
		p.RejectReason = reason
		out, err = r.Payments.Update(ctx, p)
		if err != nil {
			return err
		}

		msg := fmt.Sprintf("The organizer rejected your payment for %q.", trip.Title)
		if reason != "" {
			msg = fmt.Sprintf("The organizer rejected your payment for %q: %s", trip.Title, reason)
		}
		sent.add(domain.NewNotification(userID, tripID, domain.KindPaymentRejected, "Payment rejected", msg))
		return nil
	})
	if err != nil {
		return domain.Payment{}, fmt.Errorf("service.PaymentService.RejectPayment: %w", err)
	}
	sent.flush(s.notifier)
	return out, nil
}

// lockForDecision checks the organizer and row-locks the payment the
// organizer is ruling on. A row soft-deleted by enforcement is refused here,
// inside the same transaction as the write, so it cannot come back.
func (s *PaymentService) lockForDecision(ctx context.Context, r repo.Repos, tripID, organizerID, userID uuid.UUID) (domain.Trip, domain.Payment, error) {
	trip, err := organizerOf(ctx, r, tripID, organizerID)
	if err != nil {
		return domain.Trip{}, domain.Payment{}, err
	}
	p, err := r.Payments.GetForUpdate(ctx, tripID, userID)
	if err != nil {
		return domain.Trip{}, domain.Payment{}, err
	}
	if p.Removed() {
		return domain.Trip{}, domain.Payment{}, fmt.Errorf("%w: participant was removed from the trip", domain.ErrState)
	}
	return trip, p, nil
}

// ListPendingPayments returns REPORTED payments awaiting the organizer,
// most recently updated first.
func (s *PaymentService) ListPendingPayments(ctx context.Context, tripID, organizerID uuid.UUID) ([]domain.PaymentView, error) {
	r := s.store.Repos()
	if _, err := organizerOf(ctx, r, tripID, organizerID); err != nil {
		return nil, fmt.Errorf("service.PaymentService.ListPendingPayments: %w", err)
	}
	views, err := r.Payments.ListByStatus(ctx, tripID, domain.PaymentReported)
	if err != nil {
		return nil, fmt.Errorf("service.PaymentService.ListPendingPayments: %w", err)
	}
	if views == nil {
		return []domain.PaymentView{}, nil
	}
	return views, nil
}
