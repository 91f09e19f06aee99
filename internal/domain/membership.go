package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is a member's position within a trip.
type Role string

const (
	RoleOrganizer   Role = "ORGANIZER"
	RoleParticipant Role = "PARTICIPANT"
)

// MemberStatus is the state of a membership. Removed members have their row
// deleted, so ACTIVE is the only stored value.
type MemberStatus string

const MemberActive MemberStatus = "ACTIVE"

// Membership links a user to a trip. (TripID, UserID) is unique.
type Membership struct {
	TripID    uuid.UUID
	UserID    uuid.UUID
	Role      Role
	Status    MemberStatus
	CreatedAt time.Time
}

// IsActiveParticipant reports whether the member owes a payment.
func (m Membership) IsActiveParticipant() bool {
	return m.Status == MemberActive && m.Role == RoleParticipant
}

// JoinStatus is the state of a join request.
type JoinStatus string

const (
	JoinPending  JoinStatus = "PENDING"
	JoinApproved JoinStatus = "APPROVED"
	JoinRejected JoinStatus = "REJECTED"
)

// JoinRequest is a user's request to become a participant of a public trip.
// (TripID, UserID) is unique; resubmitting resets Status to PENDING.
type JoinRequest struct {
	ID        uuid.UUID
	TripID    uuid.UUID
	UserID    uuid.UUID
	Status    JoinStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// JoinRequestView is a join request with the requester's identity joined in.
type JoinRequestView struct {
	JoinRequest
	User User
}
