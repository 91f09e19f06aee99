package domain

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus is a state of the payment ledger.
//
//	PENDING ──► REPORTED ──► CONFIRMED (terminal)
//	               │  ▲
//	               ▼  │
//	             REJECTED
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentReported  PaymentStatus = "REPORTED"
	PaymentConfirmed PaymentStatus = "CONFIRMED"
	PaymentRejected  PaymentStatus = "REJECTED"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentPending:  {PaymentReported},
	PaymentReported: {PaymentReported, PaymentConfirmed, PaymentRejected},
	PaymentRejected: {PaymentReported},
}

// CanTransition reports whether the ledger allows moving from s to next.
func (s PaymentStatus) CanTransition(next PaymentStatus) bool {
	for _, allowed := range paymentTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Unpaid reports whether a payment in this status is subject to enforcement.
func (s PaymentStatus) Unpaid() bool {
	return s == PaymentPending || s == PaymentReported || s == PaymentRejected
}

// Evidence points at the proof a participant uploaded. The file itself is
// stored by the upload service.
type Evidence struct {
	URL      string
	FileName string
	Mime     string
}

// Payment is one participant's obligation for a trip. (TripID, UserID) is
// unique. RemovedAt is set when deadline enforcement removed the participant;
// the row is kept for audit.
type Payment struct {
	ID           uuid.UUID
	TripID       uuid.UUID
	UserID       uuid.UUID
	AmountDue    int64
	Status       PaymentStatus
	Evidence     Evidence
	Note         string
	RejectReason string
	ReportedAt   *time.Time
	RemovedAt    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Removed reports whether enforcement has taken the row out of consideration.
func (p Payment) Removed() bool {
	return p.RemovedAt != nil
}

// PaymentView is a payment with the participant's identity joined in.
type PaymentView struct {
	Payment
	User User
}
