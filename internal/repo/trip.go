package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/group-trips/backend/internal/domain"
)

// TripRepo defines the persistence operations for Trips.
// The service layer depends on this interface, not the concrete Postgres implementation,
// which allows the service to be unit-tested against an in-memory store.
type TripRepo interface {
	// Create inserts a new trip and returns the persisted record (with DB-generated
	// id, created_at, and updated_at populated).
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)

	// GetByID retrieves a single trip by its UUID primary key.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)

	// ListPublic returns all public trips, newest first.
	ListPublic(ctx context.Context) ([]domain.Trip, error)

	// UpdateStatus sets the lifecycle status of a trip.
	// Returns domain.ErrNotFound if no trip with that ID exists.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TripStatus) (domain.Trip, error)

	// Delete removes a trip and every row that references it by running
	// TripDeletionPlan in order. It must be called inside Store.InTx.
	// Returns domain.ErrNotFound if the trip does not exist.
	Delete(ctx context.Context, id uuid.UUID) error
}

// deletionStep is one statement of the trip deletion script.
type deletionStep struct {
	table string
	sql   string
}

// tripDeletion lists children before parents. trip_memories and waypoints
// belong to collaborator services; notifications are kept for their
// recipients and only lose the trip reference.
var tripDeletion = []deletionStep{
	{"trip_memories", `DELETE FROM trip_memories WHERE trip_id = @trip_id`},
	{"payments", `DELETE FROM payments WHERE trip_id = @trip_id`},
	{"trip_finances", `DELETE FROM trip_finances WHERE trip_id = @trip_id`},
	{"join_requests", `DELETE FROM join_requests WHERE trip_id = @trip_id`},
	{"trip_members", `DELETE FROM trip_members WHERE trip_id = @trip_id`},
	{"waypoints", `DELETE FROM waypoints WHERE trip_id = @trip_id`},
	{"notifications", `UPDATE notifications SET trip_id = NULL WHERE trip_id = @trip_id`},
	{"trips", `DELETE FROM trips WHERE id = @trip_id`},
}

// TripDeletionPlan returns the tables touched when a trip is deleted, in the
// order the statements run.
func TripDeletionPlan() []string {
	tables := make([]string, len(tripDeletion))
	for i, step := range tripDeletion {
		tables[i] = step.table
	}
	return tables
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db}
}

const tripColumns = `id, title, organizer_id, visibility, status, created_at, updated_at`

// Create inserts a new trip row and returns the full persisted record.
func (r *pgTripRepo) Create(ctx context.Context, trip domain.Trip) (domain.Trip, error) {
	const q = `
		INSERT INTO trips (title, organizer_id, visibility, status)
		VALUES (@title, @organizer_id, @visibility, @status)
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"title":        trip.Title,
		"organizer_id": trip.OrganizerID,
		"visibility":   trip.Visibility,
		"status":       trip.Status,
	}

	result, err := scanTrip(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a trip by primary key.
func (r *pgTripRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error) {
	const q = `SELECT ` + tripColumns + ` FROM trips WHERE id = @id`

	result, err := scanTrip(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.GetByID: %w", err)
	}
	return result, nil
}

// ListPublic returns public trips ordered by created_at descending.
func (r *pgTripRepo) ListPublic(ctx context.Context) ([]domain.Trip, error) {
	const q = `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE visibility = 'public'
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListPublic: %w", err)
	}
	trips, err := collect(rows, scanTrip)
	if err != nil {
		return nil, fmt.Errorf("repo.TripRepo.ListPublic: %w", err)
	}
	return trips, nil
}

// UpdateStatus overwrites the status column and bumps updated_at.
func (r *pgTripRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TripStatus) (domain.Trip, error) {
	const q = `
		UPDATE trips
		SET status = @status, updated_at = now()
		WHERE id = @id
		RETURNING ` + tripColumns

	result, err := scanTrip(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "status": status}))
	if err != nil {
		return domain.Trip{}, fmt.Errorf("repo.TripRepo.UpdateStatus: %w", err)
	}
	return result, nil
}

// Delete runs the deletion script. The final statement removes the trip row
// itself; zero affected rows there means the trip never existed.
func (r *pgTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := pgx.NamedArgs{"trip_id": id}
	for _, step := range tripDeletion {
		tag, err := r.db.Exec(ctx, step.sql, args)
		if err != nil {
			return fmt.Errorf("repo.TripRepo.Delete: %s: %w", step.table, err)
		}
		if step.table == "trips" && tag.RowsAffected() == 0 {
			return fmt.Errorf("repo.TripRepo.Delete: %w", domain.ErrNotFound)
		}
	}
	return nil
}

// scanTrip maps a single database row into a domain.Trip.
func scanTrip(s scanner) (domain.Trip, error) {
	var (
		t           domain.Trip
		id          pgtype.UUID
		organizerID pgtype.UUID
	)

	err := s.Scan(&id, &t.Title, &organizerID, &t.Visibility, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return domain.Trip{}, notFound(err)
	}

	t.ID = fromPgUUID(id)
	t.OrganizerID = fromPgUUID(organizerID)
	return t, nil
}
