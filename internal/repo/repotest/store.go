// Package repotest provides an in-memory repo.Store for service and
// scheduler tests. InTx works on a copy of the state and publishes it only
// when the callback succeeds, so rollback behaviour can be asserted without
// a database.
package repotest

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/group-trips/backend/internal/domain"
	"github.com/pkordes/group-trips/backend/internal/repo"
)

// compile-time check: Store must satisfy repo.Store.
var _ repo.Store = (*Store)(nil)

type pair struct {
	trip uuid.UUID
	user uuid.UUID
}

type state struct {
	users         map[uuid.UUID]domain.User
	trips         map[uuid.UUID]domain.Trip
	members       map[pair]domain.Membership
	joinRequests  map[uuid.UUID]domain.JoinRequest
	finances      map[uuid.UUID]domain.Finance
	payments      map[pair]domain.Payment
	notifications []domain.Notification
	waypoints     map[uuid.UUID]int
	memories      map[uuid.UUID]int
	seq           int64
}

func newState() *state {
	return &state{
		users:        map[uuid.UUID]domain.User{},
		trips:        map[uuid.UUID]domain.Trip{},
		members:      map[pair]domain.Membership{},
		joinRequests: map[uuid.UUID]domain.JoinRequest{},
		finances:     map[uuid.UUID]domain.Finance{},
		payments:     map[pair]domain.Payment{},
		waypoints:    map[uuid.UUID]int{},
		memories:     map[uuid.UUID]int{},
	}
}

func (s *state) clone() *state {
	return &state{
		users:         maps.Clone(s.users),
		trips:         maps.Clone(s.trips),
		members:       maps.Clone(s.members),
		joinRequests:  maps.Clone(s.joinRequests),
		finances:      maps.Clone(s.finances),
		payments:      maps.Clone(s.payments),
		notifications: slices.Clone(s.notifications),
		waypoints:     maps.Clone(s.waypoints),
		memories:      maps.Clone(s.memories),
		seq:           s.seq,
	}
}

// epoch anchors the logical clock used for created_at/updated_at columns.
var epoch = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

// stamp returns a strictly increasing timestamp, standing in for now().
func (s *state) stamp() time.Time {
	s.seq++
	return epoch.Add(time.Duration(s.seq) * time.Millisecond)
}

// Store is an in-memory repo.Store. The zero value is not usable; call New.
type Store struct {
	mu       sync.Mutex
	st       *state
	failures map[string]error
}

// New returns an empty Store.
func New() *Store {
	return &Store{st: newState(), failures: map[string]error{}}
}

// Repos returns repositories that write straight to the committed state.
func (s *Store) Repos() repo.Repos {
	return s.bind(func(fn func(*state) error) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		return fn(s.st)
	})
}

// InTx runs fn against a private copy of the state. The copy replaces the
// committed state only when fn returns nil. Transactions are serialized.
func (s *Store) InTx(ctx context.Context, fn func(repo.Repos) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.st.clone()
	err := fn(s.bind(func(f func(*state) error) error { return f(work) }))
	if err != nil {
		return err
	}
	s.st = work
	return nil
}

// FailOn makes the named operation return err whenever it touches tripID.
// Operation names are "Repo.Method", e.g. "Payments.ListUnpaid". Operations
// that span all trips, such as "Finances.ListSchedules", use uuid.Nil.
func (s *Store) FailOn(op string, tripID uuid.UUID, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op+"/"+tripID.String()] = err
}

func (s *Store) failure(op string, tripID uuid.UUID) error {
	if err, ok := s.failures[op+"/"+tripID.String()]; ok {
		return fmt.Errorf("repotest: %s: %w", op, err)
	}
	return nil
}

// access runs fn with the state the repositories are bound to.
type access func(func(*state) error) error

func (s *Store) bind(with access) repo.Repos {
	return repo.Repos{
		Trips:         &tripRepo{store: s, with: with},
		Members:       &memberRepo{store: s, with: with},
		JoinRequests:  &joinRequestRepo{store: s, with: with},
		Finances:      &financeRepo{store: s, with: with},
		Payments:      &paymentRepo{store: s, with: with},
		Users:         &userRepo{with: with},
		Notifications: &notificationRepo{with: with},
	}
}

// ---- seeding and inspection helpers -----------------------------------------

// AddUser registers an account, standing in for the identity service.
func (s *Store) AddUser(u domain.User) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	s.st.users[u.ID] = u
	return u
}

// AddWaypoint and AddMemory stand in for the route and album services.
func (s *Store) AddWaypoint(tripID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.waypoints[tripID]++
}

func (s *Store) AddMemory(tripID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.memories[tripID]++
}

// Payment returns the committed payment row of (tripID, userID).
func (s *Store) Payment(tripID, userID uuid.UUID) (domain.Payment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.st.payments[pair{tripID, userID}]
	return p, ok
}

// Member returns the committed membership of (tripID, userID).
func (s *Store) Member(tripID, userID uuid.UUID) (domain.Membership, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.st.members[pair{tripID, userID}]
	return m, ok
}

// Notifications returns every stored inbox row in insertion order.
func (s *Store) Notifications() []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.st.notifications)
}

// RowCounts reports how many rows reference tripID, per table name used by
// repo.TripDeletionPlan. Notifications count rows still pointing at the trip.
func (s *Store) RowCounts(tripID uuid.UUID) map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := map[string]int{
		"trip_memories": s.st.memories[tripID],
		"waypoints":     s.st.waypoints[tripID],
	}
	if _, ok := s.st.trips[tripID]; ok {
		counts["trips"] = 1
	}
	if _, ok := s.st.finances[tripID]; ok {
		counts["trip_finances"] = 1
	}
	for k := range s.st.payments {
		if k.trip == tripID {
			counts["payments"]++
		}
	}
	for k := range s.st.members {
		if k.trip == tripID {
			counts["trip_members"]++
		}
	}
	for _, jr := range s.st.joinRequests {
		if jr.TripID == tripID {
			counts["join_requests"]++
		}
	}
	for _, n := range s.st.notifications {
		if n.TripID != nil && *n.TripID == tripID {
			counts["notifications"]++
		}
	}
	return counts
}
