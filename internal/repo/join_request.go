package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/group-trips/backend/internal/domain"
)

// JoinRequestRepo defines the persistence operations for join requests.
type JoinRequestRepo interface {
	// Upsert creates a PENDING request for (tripID, userID). If one already
	// exists its status is reset to PENDING and updated_at bumped; id and
	// created_at are kept, so resubmission is idempotent.
	Upsert(ctx context.Context, tripID, userID uuid.UUID) (domain.JoinRequest, error)

	// GetByID returns domain.ErrNotFound if the request does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (domain.JoinRequest, error)

	// SetStatus moves a request to status.
	// Returns domain.ErrNotFound if the request does not exist.
	SetStatus(ctx context.Context, id uuid.UUID, status domain.JoinStatus) (domain.JoinRequest, error)

	// ListPending returns PENDING requests of a trip with the requester joined
	// in, oldest first.
	ListPending(ctx context.Context, tripID uuid.UUID) ([]domain.JoinRequestView, error)
}

type pgJoinRequestRepo struct {
	db db
}

// NewJoinRequestRepo constructs a JoinRequestRepo backed by the provided db connection.
func NewJoinRequestRepo(db db) JoinRequestRepo {
	return &pgJoinRequestRepo{db: db}
}

const joinRequestColumns = `id, trip_id, user_id, status, created_at, updated_at`

func (r *pgJoinRequestRepo) Upsert(ctx context.Context, tripID, userID uuid.UUID) (domain.JoinRequest, error) {
	const q = `
		INSERT INTO join_requests (trip_id, user_id, status)
		VALUES (@trip_id, @user_id, 'PENDING')
		ON CONFLICT (trip_id, user_id) DO UPDATE
		SET status = 'PENDING', updated_at = now()
		RETURNING ` + joinRequestColumns

	result, err := scanJoinRequest(r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID, "user_id": userID}))
	if err != nil {
		return domain.JoinRequest{}, fmt.Errorf("repo.JoinRequestRepo.Upsert: %w", err)
	}
	return result, nil
}

func (r *pgJoinRequestRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.JoinRequest, error) {
	const q = `SELECT ` + joinRequestColumns + ` FROM join_requests WHERE id = @id`

	result, err := scanJoinRequest(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.JoinRequest{}, fmt.Errorf("repo.JoinRequestRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgJoinRequestRepo) SetStatus(ctx context.Context, id uuid.UUID, status domain.JoinStatus) (domain.JoinRequest, error) {
	const q = `
		UPDATE join_requests
		SET status = @status, updated_at = now()
		WHERE id = @id
		RETURNING ` + joinRequestColumns

	result, err := scanJoinRequest(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "status": status}))
	if err != nil {
		return domain.JoinRequest{}, fmt.Errorf("repo.JoinRequestRepo.SetStatus: %w", err)
	}
	return result, nil
}

func (r *pgJoinRequestRepo) ListPending(ctx context.Context, tripID uuid.UUID) ([]domain.JoinRequestView, error) {
	const q = `
		SELECT jr.id, jr.trip_id, jr.user_id, jr.status, jr.created_at, jr.updated_at,
		       u.email, u.name
		FROM join_requests jr
		JOIN users u ON u.id = jr.user_id
		WHERE jr.trip_id = @trip_id AND jr.status = 'PENDING'
		ORDER BY jr.created_at`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.JoinRequestRepo.ListPending: %w", err)
	}
	views, err := collect(rows, scanJoinRequestView)
	if err != nil {
		return nil, fmt.Errorf("repo.JoinRequestRepo.ListPending: %w", err)
	}
	return views, nil
}

func scanJoinRequest(s scanner) (domain.JoinRequest, error) {
	var (
		jr             domain.JoinRequest
		id, trip, user pgtype.UUID
	)
	if err := s.Scan(&id, &trip, &user, &jr.Status, &jr.CreatedAt, &jr.UpdatedAt); err != nil {
		return domain.JoinRequest{}, notFound(err)
	}
	jr.ID, jr.TripID, jr.UserID = fromPgUUID(id), fromPgUUID(trip), fromPgUUID(user)
	return jr, nil
}

func scanJoinRequestView(s scanner) (domain.JoinRequestView, error) {
	var (
		v              domain.JoinRequestView
		id, trip, user pgtype.UUID
	)
	err := s.Scan(&id, &trip, &user, &v.Status, &v.CreatedAt, &v.UpdatedAt, &v.User.Email, &v.User.Name)
	if err != nil {
		return domain.JoinRequestView{}, err
	}
	v.ID, v.TripID, v.UserID = fromPgUUID(id), fromPgUUID(trip), fromPgUUID(user)
	v.User.ID = v.UserID
	return v, nil
}
