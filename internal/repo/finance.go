package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/group-trips/backend/internal/domain"
)

// FinanceRepo defines the persistence operations for trip finance configurations.
type FinanceRepo interface {
	// Get returns the configuration of a trip.
	// Returns domain.ErrNotFound if finance has not been configured yet.
	Get(ctx context.Context, tripID uuid.UUID) (domain.Finance, error)

	// Upsert writes the configuration keyed by trip_id. On conflict every
	// term is overwritten and created_at is preserved.
	Upsert(ctx context.Context, f domain.Finance) (domain.Finance, error)

	// ListSchedules returns every configured trip with its organizer and
	// title, ordered by participant deadline.
	ListSchedules(ctx context.Context) ([]domain.FinanceSchedule, error)
}

type pgFinanceRepo struct {
	db db
}

// NewFinanceRepo constructs a FinanceRepo backed by the provided db connection.
func NewFinanceRepo(db db) FinanceRepo {
	return &pgFinanceRepo{db: db}
}

const financeColumns = `trip_id, base_amount, deposit, participant_deadline, organizer_deadline, created_at, updated_at`

func (r *pgFinanceRepo) Get(ctx context.Context, tripID uuid.UUID) (domain.Finance, error) {
	const q = `SELECT ` + financeColumns + ` FROM trip_finances WHERE trip_id = @trip_id`

	result, err := scanFinance(r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID}))
	if err != nil {
		return domain.Finance{}, fmt.Errorf("repo.FinanceRepo.Get: %w", err)
	}
	return result, nil
}

func (r *pgFinanceRepo) Upsert(ctx context.Context, f domain.Finance) (domain.Finance, error) {
	const q = `
		INSERT INTO trip_finances (trip_id, base_amount, deposit, participant_deadline, organizer_deadline)
		VALUES (@trip_id, @base_amount, @deposit, @participant_deadline, @organizer_deadline)
		ON CONFLICT (trip_id) DO UPDATE
		SET base_amount          = EXCLUDED.base_amount,
		    deposit              = EXCLUDED.deposit,
		    participant_deadline = EXCLUDED.participant_deadline,
		    organizer_deadline   = EXCLUDED.organizer_deadline,
		    updated_at           = now()
		RETURNING ` + financeColumns

	args := pgx.NamedArgs{
		"trip_id":              f.TripID,
		"base_amount":          f.BaseAmount,
		"deposit":              f.Deposit,
		"participant_deadline": f.ParticipantDeadline,
		"organizer_deadline":   f.OrganizerDeadline,
	}

	result, err := scanFinance(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Finance{}, fmt.Errorf("repo.FinanceRepo.Upsert: %w", err)
	}
	return result, nil
}

func (r *pgFinanceRepo) ListSchedules(ctx context.Context) ([]domain.FinanceSchedule, error) {
	const q = `
		SELECT f.trip_id, f.base_amount, f.deposit, f.participant_deadline, f.organizer_deadline,
		       f.created_at, f.updated_at, t.title, t.organizer_id
		FROM trip_finances f
		JOIN trips t ON t.id = f.trip_id
		ORDER BY f.participant_deadline`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.FinanceRepo.ListSchedules: %w", err)
	}
	schedules, err := collect(rows, scanFinanceSchedule)
	if err != nil {
		return nil, fmt.Errorf("repo.FinanceRepo.ListSchedules: %w", err)
	}
	return schedules, nil
}

func scanFinance(s scanner) (domain.Finance, error) {
	var (
		f      domain.Finance
		tripID pgtype.UUID
	)
	err := s.Scan(&tripID, &f.BaseAmount, &f.Deposit, &f.ParticipantDeadline, &f.OrganizerDeadline, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return domain.Finance{}, notFound(err)
	}
	f.TripID = fromPgUUID(tripID)
	return f, nil
}

func scanFinanceSchedule(s scanner) (domain.FinanceSchedule, error) {
	var (
		fs          domain.FinanceSchedule
		tripID      pgtype.UUID
		organizerID pgtype.UUID
	)
	err := s.Scan(&tripID, &fs.BaseAmount, &fs.Deposit, &fs.ParticipantDeadline, &fs.OrganizerDeadline,
		&fs.CreatedAt, &fs.UpdatedAt, &fs.TripTitle, &organizerID)
	if err != nil {
		return domain.FinanceSchedule{}, err
	}
	fs.TripID = fromPgUUID(tripID)
	fs.OrganizerID = fromPgUUID(organizerID)
	return fs, nil
}
