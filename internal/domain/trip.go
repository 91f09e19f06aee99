// Package domain contains the core data types for the group trips backend.
// This package depends only on uuid and is imported by every other
// internal package (repo, service, handler, scheduler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Visibility controls whether strangers may ask to join a trip.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// TripStatus is the lifecycle stage of a trip.
type TripStatus string

const (
	TripPlanned  TripStatus = "PLANNED"
	TripActive   TripStatus = "ACTIVE"
	TripFinished TripStatus = "FINISHED"
)

// Next returns the status a trip moves to from s, and false when s is terminal.
func (s TripStatus) Next() (TripStatus, bool) {
	switch s {
	case TripPlanned:
		return TripActive, true
	case TripActive:
		return TripFinished, true
	}
	return "", false
}

// Trip is the top-level aggregate. Memberships, join requests, the finance
// configuration and payments all belong to a trip and are removed with it.
type Trip struct {
	ID          uuid.UUID
	Title       string
	OrganizerID uuid.UUID
	Visibility  Visibility
	Status      TripStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsPublic reports whether the trip accepts join requests.
func (t Trip) IsPublic() bool {
	return t.Visibility == VisibilityPublic
}

// IsOrganizer reports whether userID organizes the trip.
func (t Trip) IsOrganizer(userID uuid.UUID) bool {
	return t.OrganizerID == userID
}
