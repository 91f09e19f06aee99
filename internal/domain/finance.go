package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	// GraceWindow separates the participant deadline from the organizer
	// deadline, after which unpaid participants are removed.
	GraceWindow = 30 * time.Minute

	// LockWindow is how close to the current deadline a production deployment
	// stops accepting changes to an existing finance configuration.
	LockWindow = 2 * time.Hour
)

// Finance is the payment terms of one trip. Every participant owes
// BaseAmount + Deposit; the organizer owes nothing.
type Finance struct {
	TripID              uuid.UUID
	BaseAmount          int64
	Deposit             int64
	ParticipantDeadline time.Time
	OrganizerDeadline   time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NewFinance builds the terms for a trip, deriving the organizer deadline.
func NewFinance(tripID uuid.UUID, base, deposit int64, participantDeadline time.Time) Finance {
	return Finance{
		TripID:              tripID,
		BaseAmount:          base,
		Deposit:             deposit,
		ParticipantDeadline: participantDeadline,
		OrganizerDeadline:   participantDeadline.Add(GraceWindow),
	}
}

// AmountDue is what each participant owes under these terms.
func (f Finance) AmountDue() int64 {
	return f.BaseAmount + f.Deposit
}

// Locked reports whether the terms are too close to their deadline to change.
// A deadline that has already passed is locked as well.
func (f Finance) Locked(now time.Time) bool {
	return f.ParticipantDeadline.Sub(now) < LockWindow
}

// ReportingOpen reports whether participants may still report payments.
func (f Finance) ReportingOpen(now time.Time) bool {
	return !now.After(f.ParticipantDeadline)
}

// EnforcementDue reports whether unpaid participants should be removed.
func (f Finance) EnforcementDue(now time.Time) bool {
	return !now.Before(f.OrganizerDeadline)
}

// FinanceSchedule is a finance configuration together with the trip fields
// the deadline scheduler needs to address its notifications.
type FinanceSchedule struct {
	Finance
	TripTitle   string
	OrganizerID uuid.UUID
}
