package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/group-trips/backend/internal/domain"
	"github.com/pkordes/group-trips/backend/internal/repo"
	"github.com/pkordes/group-trips/backend/testutil"
)

// newTestTx returns a transaction that is rolled back when the test ends.
func newTestTx(t *testing.T) pgx.Tx {
	t.Helper()
	_, tx := testutil.NewTxRepos(t)
	return tx
}

// newTestRepos returns every repository bound to one rolled-back transaction.
func newTestRepos(t *testing.T) (repo.Repos, pgx.Tx) {
	t.Helper()
	return testutil.NewTxRepos(t)
}

// insertUser creates an account directly; users are owned by the identity
// service so the repo layer only reads them.
func insertUser(t *testing.T, tx pgx.Tx, name string) domain.User {
	t.Helper()
	u := domain.User{
		Email:       name + "-" + uuid.NewString()[:8] + "@example.com",
		Name:        name,
		PaymentLink: "https://pay.example/" + name,
	}
	const q = `INSERT INTO users (email, name, payment_link) VALUES ($1, $2, $3) RETURNING id`
	require.NoError(t, tx.QueryRow(context.Background(), q, u.Email, u.Name, u.PaymentLink).Scan(&u.ID))
	return u
}

// insertTrip creates a public trip organized by organizerID together with
// its ORGANIZER membership.
func insertTrip(t *testing.T, r repo.Repos, organizerID uuid.UUID) domain.Trip {
	t.Helper()
	ctx := context.Background()
	trip, err := r.Trips.Create(ctx, domain.Trip{
		Title:       "Carpathians",
		OrganizerID: organizerID,
		Visibility:  domain.VisibilityPublic,
		Status:      domain.TripPlanned,
	})
	require.NoError(t, err)
	_, err = r.Members.Upsert(ctx, domain.Membership{
		TripID: trip.ID, UserID: organizerID, Role: domain.RoleOrganizer, Status: domain.MemberActive,
	})
	require.NoError(t, err)
	return trip
}

func addParticipant(t *testing.T, r repo.Repos, tripID, userID uuid.UUID) {
	t.Helper()
	_, err := r.Members.Upsert(context.Background(), domain.Membership{
		TripID: tripID, UserID: userID, Role: domain.RoleParticipant, Status: domain.MemberActive,
	})
	require.NoError(t, err)
}

var deadline = time.Date(2030, 6, 3, 18, 0, 0, 0, time.UTC)

func countRows(t *testing.T, tx pgx.Tx, table string, tripID uuid.UUID) int {
	t.Helper()
	var n int
	q := `SELECT count(*) FROM ` + pgx.Identifier{table}.Sanitize() + ` WHERE trip_id = $1`
	if table == "trips" {
		q = `SELECT count(*) FROM trips WHERE id = $1`
	}
	require.NoError(t, tx.QueryRow(context.Background(), q, tripID).Scan(&n))
	return n
}
