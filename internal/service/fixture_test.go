package service_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/group-trips/backend/internal/domain"
	"github.com/pkordes/group-trips/backend/internal/repo/repotest"
	"github.com/pkordes/group-trips/backend/internal/service"
)

// recordingNotifier is a service.Notifier that remembers every message.
type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (n *recordingNotifier) Notify(msg domain.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
}

// compile-time check: recordingNotifier must satisfy service.Notifier.
var _ service.Notifier = (*recordingNotifier)(nil)

func (n *recordingNotifier) all() []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Notification(nil), n.sent...)
}

func (n *recordingNotifier) to(userID uuid.UUID, kind domain.NotificationKind) []domain.Notification {
	var out []domain.Notification
	for _, msg := range n.all() {
		if msg.UserID == userID && msg.Kind == kind {
			out = append(out, msg)
		}
	}
	return out
}

func (n *recordingNotifier) reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = nil
}

// ---- fixture -----------------------------------------------------------------

// start is the wall clock every fixture begins at.
var start = time.Date(2030, 6, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store *repotest.Store
	notes *recordingNotifier
	now   time.Time

	trips     *service.TripService
	finance   *service.FinanceService
	payments  *service.PaymentService
	deadlines *service.DeadlineService

	organizer domain.User
	alice     domain.User
	bob       domain.User
	trip      domain.Trip
}

// newFixture returns a public trip organized by Olena with no members yet.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: repotest.New(),
		notes: &recordingNotifier{},
		now:   start,
	}
	clock := func() time.Time { return f.now }
	f.trips = service.NewTripService(f.store, f.notes)
	f.finance = service.NewFinanceService(f.store, f.notes, clock, false)
	f.payments = service.NewPaymentService(f.store, f.notes, clock)
	f.deadlines = service.NewDeadlineService(f.store, f.notes, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))

	f.organizer = f.store.AddUser(domain.User{Name: "Olena", Email: "olena@example.com", PaymentLink: "https://pay.example/olena"})
	f.alice = f.store.AddUser(domain.User{Name: "Alice", Email: "alice@example.com"})
	f.bob = f.store.AddUser(domain.User{Email: "bob@example.com"})

	trip, err := f.trips.CreateTrip(context.Background(), service.CreateTripInput{
		Title:       "Carpathians",
		Public:      true,
		OrganizerID: f.organizer.ID,
	})
	require.NoError(t, err)
	f.trip = trip
	return f
}

// join makes u an ACTIVE participant of the fixture trip.
func (f *fixture) join(t *testing.T, u domain.User) {
	t.Helper()
	ctx := context.Background()
	jr, err := f.trips.RequestJoin(ctx, f.trip.ID, u.ID)
	require.NoError(t, err)
	require.NoError(t, f.trips.ApproveJoinRequest(ctx, f.trip.ID, jr.ID, f.organizer.ID))
}

// configure sets payment terms due after the given delay.
func (f *fixture) configure(t *testing.T, base, deposit int64, in time.Duration) domain.Finance {
	t.Helper()
	fin, err := f.finance.SetFinance(context.Background(), service.SetFinanceInput{
		TripID:              f.trip.ID,
		ActorID:             f.organizer.ID,
		BaseAmount:          base,
		Deposit:             deposit,
		ParticipantDeadline: f.now.Add(in).Format(time.RFC3339),
	})
	require.NoError(t, err)
	return fin
}

// report files evidence for u.
func (f *fixture) report(t *testing.T, u domain.User) domain.Payment {
	t.Helper()
	p, err := f.payments.ReportPayment(context.Background(), service.ReportPaymentInput{
		TripID:   f.trip.ID,
		UserID:   u.ID,
		Evidence: domain.Evidence{URL: "https://files.example/" + u.ID.String() + ".png", FileName: "receipt.png", Mime: "image/png"},
		Note:     "sent via bank transfer",
	})
	require.NoError(t, err)
	return p
}
