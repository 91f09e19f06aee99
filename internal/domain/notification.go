package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationKind classifies a user-facing message.
type NotificationKind string

const (
	KindJoinRequested      NotificationKind = "join_requested"
	KindJoinApproved       NotificationKind = "join_approved"
	KindJoinRejected       NotificationKind = "join_rejected"
	KindDeadlineChanged    NotificationKind = "deadline_changed"
	KindPaymentReported    NotificationKind = "payment_reported"
	KindPaymentConfirmed   NotificationKind = "payment_confirmed"
	KindPaymentRejected    NotificationKind = "payment_rejected"
	KindDeadlineReminder   NotificationKind = "deadline_reminder"
	KindExcluded           NotificationKind = "excluded"
	KindEnforcementSummary NotificationKind = "enforcement_summary"
)

// Notification is one in-app inbox entry. TripID is nil for messages that
// are not about a trip, and is cleared when the trip is deleted.
type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TripID    *uuid.UUID
	Kind      NotificationKind
	Title     string
	Message   string
	ReadAt    *time.Time
	CreatedAt time.Time
}

// NewNotification builds an unsent notification about tripID.
func NewNotification(userID, tripID uuid.UUID, kind NotificationKind, title, message string) Notification {
	return Notification{
		UserID:  userID,
		TripID:  &tripID,
		Kind:    kind,
		Title:   title,
		Message: message,
	}
}
