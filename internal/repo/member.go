package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/group-trips/backend/internal/domain"
)

// MemberRepo defines the persistence operations for trip memberships.
type MemberRepo interface {
	// Upsert inserts the membership or, when (trip_id, user_id) already exists,
	// overwrites role and status. created_at of an existing row is preserved.
	Upsert(ctx context.Context, m domain.Membership) (domain.Membership, error)

	// Get returns the membership of userID in tripID.
	// Returns domain.ErrNotFound if the user is not a member.
	Get(ctx context.Context, tripID, userID uuid.UUID) (domain.Membership, error)

	// ListActiveParticipants returns ACTIVE PARTICIPANT members ordered by join time.
	ListActiveParticipants(ctx context.Context, tripID uuid.UUID) ([]domain.Membership, error)

	// DeleteParticipants removes PARTICIPANT memberships of the given users and
	// returns how many rows were deleted. Organizer rows are never touched.
	DeleteParticipants(ctx context.Context, tripID uuid.UUID, userIDs []uuid.UUID) (int64, error)
}

// pgMemberRepo is the Postgres implementation of MemberRepo.
type pgMemberRepo struct {
	db db
}

// NewMemberRepo constructs a MemberRepo backed by the provided db connection.
func NewMemberRepo(db db) MemberRepo {
	return &pgMemberRepo{db: db}
}

const memberColumns = `trip_id, user_id, role, status, created_at`

func (r *pgMemberRepo) Upsert(ctx context.Context, m domain.Membership) (domain.Membership, error) {
	const q = `
		INSERT INTO trip_members (trip_id, user_id, role, status)
		VALUES (@trip_id, @user_id, @role, @status)
		ON CONFLICT (trip_id, user_id) DO UPDATE
		SET role = EXCLUDED.role, status = EXCLUDED.status
		RETURNING ` + memberColumns

	args := pgx.NamedArgs{
		"trip_id": m.TripID,
		"user_id": m.UserID,
		"role":    m.Role,
		"status":  m.Status,
	}

	result, err := scanMember(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Membership{}, fmt.Errorf("repo.MemberRepo.Upsert: %w", err)
	}
	return result, nil
}

func (r *pgMemberRepo) Get(ctx context.Context, tripID, userID uuid.UUID) (domain.Membership, error) {
	const q = `
		SELECT ` + memberColumns + `
		FROM trip_members
		WHERE trip_id = @trip_id AND user_id = @user_id`

	result, err := scanMember(r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID, "user_id": userID}))
	if err != nil {
		return domain.Membership{}, fmt.Errorf("repo.MemberRepo.Get: %w", err)
	}
	return result, nil
}

func (r *pgMemberRepo) ListActiveParticipants(ctx context.Context, tripID uuid.UUID) ([]domain.Membership, error) {
	const q = `
		SELECT ` + memberColumns + `
		FROM trip_members
		WHERE trip_id = @trip_id AND role = 'PARTICIPANT' AND status = 'ACTIVE'
		ORDER BY created_at`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.MemberRepo.ListActiveParticipants: %w", err)
	}
	members, err := collect(rows, scanMember)
	if err != nil {
		return nil, fmt.Errorf("repo.MemberRepo.ListActiveParticipants: %w", err)
	}
	return members, nil
}

func (r *pgMemberRepo) DeleteParticipants(ctx context.Context, tripID uuid.UUID, userIDs []uuid.UUID) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	const q = `
		DELETE FROM trip_members
		WHERE trip_id = @trip_id AND role = 'PARTICIPANT' AND user_id = ANY(@user_ids::uuid[])`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"trip_id": tripID, "user_ids": userIDs})
	if err != nil {
		return 0, fmt.Errorf("repo.MemberRepo.DeleteParticipants: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanMember(s scanner) (domain.Membership, error) {
	var (
		m      domain.Membership
		tripID pgtype.UUID
		userID pgtype.UUID
	)
	if err := s.Scan(&tripID, &userID, &m.Role, &m.Status, &m.CreatedAt); err != nil {
		return domain.Membership{}, notFound(err)
	}
	m.TripID = fromPgUUID(tripID)
	m.UserID = fromPgUUID(userID)
	return m, nil
}
