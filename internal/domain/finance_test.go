package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/pkordes/group-trips/backend/internal/domain"
)

var deadline = time.Date(2030, 6, 3, 18, 0, 0, 0, time.UTC)

func TestNewFinance(t *testing.T) {
	tripID := uuid.New()

	f := domain.NewFinance(tripID, 1500, 500, deadline)

	assert.Equal(t, tripID, f.TripID)
	assert.EqualValues(t, 2000, f.AmountDue())
	assert.Equal(t, deadline.Add(30*time.Minute), f.OrganizerDeadline)
}

func TestFinance_Deadlines(t *testing.T) {
	f := domain.NewFinance(uuid.New(), 1000, 0, deadline)

	tests := []struct {
		name           string
		now            time.Time
		locked         bool
		reportingOpen  bool
		enforcementDue bool
	}{
		{"well before", deadline.Add(-3 * time.Hour), false, true, false},
		{"exactly two hours before", deadline.Add(-2 * time.Hour), false, true, false},
		{"inside lock window", deadline.Add(-2*time.Hour + time.Second), true, true, false},
		{"at participant deadline", deadline, true, true, false},
		{"during grace", deadline.Add(time.Second), true, false, false},
		{"at organizer deadline", deadline.Add(30 * time.Minute), true, false, true},
		{"after organizer deadline", deadline.Add(time.Hour), true, false, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.locked, f.Locked(tc.now), "Locked")
			assert.Equal(t, tc.reportingOpen, f.ReportingOpen(tc.now), "ReportingOpen")
			assert.Equal(t, tc.enforcementDue, f.EnforcementDue(tc.now), "EnforcementDue")
		})
	}
}
