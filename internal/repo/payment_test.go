package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/group-trips/backend/internal/domain"
)

func TestPaymentRepo_SeedNewRow(t *testing.T) {
	r, tx := newTestRepos(t)
	ctx := context.Background()
	alice := insertUser(t, tx, "alice")
	trip := insertTrip(t, r, insertUser(t, tx, "olena").ID)

	p, err := r.Payments.Seed(ctx, trip.ID, alice.ID, 2000)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.EqualValues(t, 2000, p.AmountDue)
	assert.Equal(t, domain.PaymentPending, p.Status)
	assert.Nil(t, p.ReportedAt)
	assert.False(t, p.Removed())
}

// Re-seeding keeps evidence for history but resets the decision state.
func TestPaymentRepo_Reseed(t *testing.T) {
	r, tx := newTestRepos(t)
	ctx := context.Background()
	alice := insertUser(t, tx, "alice")
	trip := insertTrip(t, r, insertUser(t, tx, "olena").ID)
	p, err := r.Payments.Seed(ctx, trip.ID, alice.ID, 2000)
	require.NoError(t, err)

	reported := deadline.Add(-time.Hour)
	p.Status = domain.PaymentRejected
	p.Evidence = domain.Evidence{URL: "https://files.example/r.png"}
	p.RejectReason = "blurry"
	p.ReportedAt = &reported
	_, err = r.Payments.Update(ctx, p)
	require.NoError(t, err)
	_, err = r.Payments.MarkRemoved(ctx, trip.ID, []uuid.UUID{alice.ID}, deadline)
	require.NoError(t, err)

	again, err := r.Payments.Seed(ctx, trip.ID, alice.ID, 2500)

	require.NoError(t, err)
	assert.Equal(t, p.ID, again.ID)
	assert.EqualValues(t, 2500, again.AmountDue)
	assert.Equal(t, domain.PaymentPending, again.Status)
	assert.Empty(t, again.RejectReason)
	assert.Nil(t, again.ReportedAt)
	assert.False(t, again.Removed())
	assert.Equal(t, "https://files.example/r.png", again.Evidence.URL)
}

func TestPaymentRepo_UpdateAndGet(t *testing.T) {
	r, tx := newTestRepos(t)
	ctx := context.Background()
	alice := insertUser(t, tx, "alice")
	trip := insertTrip(t, r, insertUser(t, tx, "olena").ID)
	p, err := r.Payments.Seed(ctx, trip.ID, alice.ID, 2000)
	require.NoError(t, err)

	reported := deadline.Add(-time.Hour)
	p.Status = domain.PaymentReported
	p.Evidence = domain.Evidence{URL: "https://files.example/r.pdf", FileName: "r.pdf", Mime: "application/pdf"}
	p.Note = "bank transfer"
	p.ReportedAt = &reported
	_, err = r.Payments.Update(ctx, p)
	require.NoError(t, err)

	got, err := r.Payments.GetForUpdate(ctx, trip.ID, alice.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.PaymentReported, got.Status)
	assert.Equal(t, p.Evidence, got.Evidence)
	assert.Equal(t, "bank transfer", got.Note)
	require.NotNil(t, got.ReportedAt)
	assert.True(t, reported.Equal(*got.ReportedAt))

	_, err = r.Payments.Get(ctx, trip.ID, uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPaymentRepo_ListByStatus(t *testing.T) {
	r, tx := newTestRepos(t)
	ctx := context.Background()
	alice := insertUser(t, tx, "alice")
	bob := insertUser(t, tx, "bob")
	trip := insertTrip(t, r, insertUser(t, tx, "olena").ID)
	p, err := r.Payments.Seed(ctx, trip.ID, alice.ID, 2000)
	require.NoError(t, err)
	_, err = r.Payments.Seed(ctx, trip.ID, bob.ID, 2000)
	require.NoError(t, err)
	p.Status = domain.PaymentReported
	_, err = r.Payments.Update(ctx, p)
	require.NoError(t, err)

	reported, err := r.Payments.ListByStatus(ctx, trip.ID, domain.PaymentReported)
	require.NoError(t, err)
	require.Len(t, reported, 1)
	assert.Equal(t, alice.ID, reported[0].UserID)
	assert.Equal(t, "alice", reported[0].User.Name)

	all, err := r.Payments.ListByTrip(ctx, trip.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

// ListUnpaid only returns rows enforcement may act on: live, not confirmed,
// and owned by a current participant.
func TestPaymentRepo_ListUnpaid(t *testing.T) {
	r, tx := newTestRepos(t)
	ctx := context.Background()
	olena := insertUser(t, tx, "olena")
	pending := insertUser(t, tx, "pending")
	confirmed := insertUser(t, tx, "confirmed")
	removed := insertUser(t, tx, "removed")
	departed := insertUser(t, tx, "departed")
	trip := insertTrip(t, r, olena.ID)
	for _, u := range []domain.User{pending, confirmed, removed, departed} {
		addParticipant(t, r, trip.ID, u.ID)
		_, err := r.Payments.Seed(ctx, trip.ID, u.ID, 2000)
		require.NoError(t, err)
	}

	p, err := r.Payments.Get(ctx, trip.ID, confirmed.ID)
	require.NoError(t, err)
	p.Status = domain.PaymentConfirmed
	_, err = r.Payments.Update(ctx, p)
	require.NoError(t, err)
	_, err = r.Payments.MarkRemoved(ctx, trip.ID, []uuid.UUID{removed.ID}, deadline)
	require.NoError(t, err)
	_, err = r.Members.DeleteParticipants(ctx, trip.ID, []uuid.UUID{departed.ID})
	require.NoError(t, err)

	unpaid, err := r.Payments.ListUnpaid(ctx, trip.ID)

	require.NoError(t, err)
	require.Len(t, unpaid, 1)
	assert.Equal(t, pending.ID, unpaid[0].UserID)
}

func TestPaymentRepo_MarkRemoved(t *testing.T) {
	r, tx := newTestRepos(t)
	ctx := context.Background()
	alice := insertUser(t, tx, "alice")
	trip := insertTrip(t, r, insertUser(t, tx, "olena").ID)
	_, err := r.Payments.Seed(ctx, trip.ID, alice.ID, 2000)
	require.NoError(t, err)

	n, err := r.Payments.MarkRemoved(ctx, trip.ID, []uuid.UUID{alice.ID}, deadline)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	n, err = r.Payments.MarkRemoved(ctx, trip.ID, []uuid.UUID{alice.ID}, deadline.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n, "already removed rows are left alone")

	got, err := r.Payments.Get(ctx, trip.ID, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RemovedAt)
	assert.True(t, deadline.Equal(*got.RemovedAt))

	all, err := r.Payments.ListByTrip(ctx, trip.ID)
	require.NoError(t, err)
	assert.Empty(t, all)
}
