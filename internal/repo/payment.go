package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/group-trips/backend/internal/domain"
)

// PaymentRepo defines the persistence operations for the payment ledger.
// Listing methods skip rows whose removed_at is set.
type PaymentRepo interface {
	// Get returns the payment of userID in tripID, removed or not.
	// Returns domain.ErrNotFound if no row exists.
	Get(ctx context.Context, tripID, userID uuid.UUID) (domain.Payment, error)

	// GetForUpdate is Get with a row lock held until the transaction ends.
	GetForUpdate(ctx context.Context, tripID, userID uuid.UUID) (domain.Payment, error)

	// Seed assigns amountDue to (tripID, userID). A new row starts PENDING.
	// An existing row gets the new amount, goes back to PENDING and loses
	// reported_at, reject_reason and removed_at; evidence and note are kept
	// for history.
	Seed(ctx context.Context, tripID, userID uuid.UUID, amountDue int64) (domain.Payment, error)

	// Update writes the mutable ledger fields of p (status, evidence, note,
	// reject reason, reported_at) and bumps updated_at.
	Update(ctx context.Context, p domain.Payment) (domain.Payment, error)

	// ListByTrip returns every live payment of a trip with identities, in
	// creation order.
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.PaymentView, error)

	// ListByStatus returns live payments in status, most recently updated first.
	ListByStatus(ctx context.Context, tripID uuid.UUID, status domain.PaymentStatus) ([]domain.PaymentView, error)

	// ListUnpaid locks and returns live payments of ACTIVE PARTICIPANT members
	// whose status is PENDING, REPORTED or REJECTED.
	ListUnpaid(ctx context.Context, tripID uuid.UUID) ([]domain.Payment, error)

	// MarkRemoved soft-deletes the live payments of userIDs and returns how
	// many rows changed.
	MarkRemoved(ctx context.Context, tripID uuid.UUID, userIDs []uuid.UUID, at time.Time) (int64, error)
}

type pgPaymentRepo struct {
	db db
}

// NewPaymentRepo constructs a PaymentRepo backed by the provided db connection.
func NewPaymentRepo(db db) PaymentRepo {
	return &pgPaymentRepo{db: db}
}

const paymentColumns = `p.id, p.trip_id, p.user_id, p.amount_due, p.status,
	p.evidence_url, p.evidence_file_name, p.evidence_mime, p.note, p.reject_reason,
	p.reported_at, p.removed_at, p.created_at, p.updated_at`

func (r *pgPaymentRepo) Get(ctx context.Context, tripID, userID uuid.UUID) (domain.Payment, error) {
	const q = `
		SELECT ` + paymentColumns + `
		FROM payments p
		WHERE p.trip_id = @trip_id AND p.user_id = @user_id`

	result, err := scanPayment(r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID, "user_id": userID}))
	if err != nil {
		return domain.Payment{}, fmt.Errorf("repo.PaymentRepo.Get: %w", err)
	}
	return result, nil
}

func (r *pgPaymentRepo) GetForUpdate(ctx context.Context, tripID, userID uuid.UUID) (domain.Payment, error) {
	const q = `
		SELECT ` + paymentColumns + `
		FROM payments p
		WHERE p.trip_id = @trip_id AND p.user_id = @user_id
		FOR UPDATE`

	result, err := scanPayment(r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID, "user_id": userID}))
	if err != nil {
		return domain.Payment{}, fmt.Errorf("repo.PaymentRepo.GetForUpdate: %w", err)
	}
	return result, nil
}

func (r *pgPaymentRepo) Seed(ctx context.Context, tripID, userID uuid.UUID, amountDue int64) (domain.Payment, error) {
	const q = `
		INSERT INTO payments AS p (trip_id, user_id, amount_due, status)
		VALUES (@trip_id, @user_id, @amount_due, 'PENDING')
		ON CONFLICT (trip_id, user_id) DO UPDATE
		SET amount_due    = EXCLUDED.amount_due,
		    status        = 'PENDING',
		    reported_at   = NULL,
		    reject_reason = '',
		    removed_at    = NULL,
		    updated_at    = now()
		RETURNING ` + paymentColumns

	args := pgx.NamedArgs{"trip_id": tripID, "user_id": userID, "amount_due": amountDue}
	result, err := scanPayment(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Payment{}, fmt.Errorf("repo.PaymentRepo.Seed: %w", err)
	}
	return result, nil
}

func (r *pgPaymentRepo) Update(ctx context.Context, pay domain.Payment) (domain.Payment, error) {
	const q = `
		UPDATE payments AS p
		SET status             = @status,
		    evidence_url       = @evidence_url,
		    evidence_file_name = @evidence_file_name,
		    evidence_mime      = @evidence_mime,
		    note               = @note,
		    reject_reason      = @reject_reason,
		    reported_at        = @reported_at,
		    updated_at         = now()
		WHERE p.trip_id = @trip_id AND p.user_id = @user_id
		RETURNING ` + paymentColumns

	args := pgx.NamedArgs{
		"trip_id":            pay.TripID,
		"user_id":            pay.UserID,
		"status":             pay.Status,
		"evidence_url":       pay.Evidence.URL,
		"evidence_file_name": pay.Evidence.FileName,
		"evidence_mime":      pay.Evidence.Mime,
		"note":               pay.Note,
		"reject_reason":      pay.RejectReason,
		"reported_at":        pay.ReportedAt,
	}
	result, err := scanPayment(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Payment{}, fmt.Errorf("repo.PaymentRepo.Update: %w", err)
	}
	return result, nil
}

func (r *pgPaymentRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.PaymentView, error) {
	const q = `
		SELECT ` + paymentColumns + `, u.email, u.name
		FROM payments p
		JOIN users u ON u.id = p.user_id
		WHERE p.trip_id = @trip_id AND p.removed_at IS NULL
		ORDER BY p.created_at`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.PaymentRepo.ListByTrip: %w", err)
	}
	views, err := collect(rows, scanPaymentView)
	if err != nil {
		return nil, fmt.Errorf("repo.PaymentRepo.ListByTrip: %w", err)
	}
	return views, nil
}

func (r *pgPaymentRepo) ListByStatus(ctx context.Context, tripID uuid.UUID, status domain.PaymentStatus) ([]domain.PaymentView, error) {
	const q = `
		SELECT ` + paymentColumns + `, u.email, u.name
		FROM payments p
		JOIN users u ON u.id = p.user_id
		WHERE p.trip_id = @trip_id AND p.status = @status AND p.removed_at IS NULL
		ORDER BY p.updated_at DESC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID, "status": status})
	if err != nil {
		return nil, fmt.Errorf("repo.PaymentRepo.ListByStatus: %w", err)
	}
	views, err := collect(rows, scanPaymentView)
	if err != nil {
		return nil, fmt.Errorf("repo.PaymentRepo.ListByStatus: %w", err)
	}
	return views, nil
}

func (r *pgPaymentRepo) ListUnpaid(ctx context.Context, tripID uuid.UUID) ([]domain.Payment, error) {
	const q = `
		SELECT ` + paymentColumns + `
		FROM payments p
		JOIN trip_members m ON m.trip_id = p.trip_id AND m.user_id = p.user_id
		WHERE p.trip_id = @trip_id
		  AND p.removed_at IS NULL
		  AND p.status IN ('PENDING', 'REPORTED', 'REJECTED')
		  AND m.role = 'PARTICIPANT'
		  AND m.status = 'ACTIVE'
		ORDER BY p.created_at
		FOR UPDATE OF p`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.PaymentRepo.ListUnpaid: %w", err)
	}
	payments, err := collect(rows, scanPayment)
	if err != nil {
		return nil, fmt.Errorf("repo.PaymentRepo.ListUnpaid: %w", err)
	}
	return payments, nil
}

func (r *pgPaymentRepo) MarkRemoved(ctx context.Context, tripID uuid.UUID, userIDs []uuid.UUID, at time.Time) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	const q = `
		UPDATE payments
		SET removed_at = @at, updated_at = now()
		WHERE trip_id = @trip_id
		  AND user_id = ANY(@user_ids::uuid[])
		  AND removed_at IS NULL`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"trip_id": tripID, "user_ids": userIDs, "at": at})
	if err != nil {
		return 0, fmt.Errorf("repo.PaymentRepo.MarkRemoved: %w", err)
	}
	return tag.RowsAffected(), nil
}

func paymentDest(p *domain.Payment, id, trip, user *pgtype.UUID) []any {
	return []any{
		id, trip, user, &p.AmountDue, &p.Status,
		&p.Evidence.URL, &p.Evidence.FileName, &p.Evidence.Mime, &p.Note, &p.RejectReason,
		&p.ReportedAt, &p.RemovedAt, &p.CreatedAt, &p.UpdatedAt,
	}
}

// scanPayment maps a row selected with paymentColumns into a domain.Payment.
func scanPayment(s scanner) (domain.Payment, error) {
	var (
		p              domain.Payment
		id, trip, user pgtype.UUID
	)
	if err := s.Scan(paymentDest(&p, &id, &trip, &user)...); err != nil {
		return domain.Payment{}, notFound(err)
	}
	p.ID, p.TripID, p.UserID = fromPgUUID(id), fromPgUUID(trip), fromPgUUID(user)
	return p, nil
}

// scanPaymentView is scanPayment followed by the joined user email and name.
func scanPaymentView(s scanner) (domain.PaymentView, error) {
	var (
		v              domain.PaymentView
		id, trip, user pgtype.UUID
	)
	dest := append(paymentDest(&v.Payment, &id, &trip, &user), &v.User.Email, &v.User.Name)
	if err := s.Scan(dest...); err != nil {
		return domain.PaymentView{}, err
	}
	v.ID, v.TripID, v.UserID = fromPgUUID(id), fromPgUUID(trip), fromPgUUID(user)
	v.User.ID = v.UserID
	return v, nil
}
