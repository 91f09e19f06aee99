package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/group-trips/backend/internal/domain"
)

// UserRepo reads accounts owned by the identity service.
type UserRepo interface {
	// GetByID returns domain.ErrNotFound if the account does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (domain.User, error)
}

type pgUserRepo struct {
	db db
}

// NewUserRepo constructs a UserRepo backed by the provided db connection.
func NewUserRepo(db db) UserRepo {
	return &pgUserRepo{db: db}
}

func (r *pgUserRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.User, error) {
	const q = `
		SELECT id, email, name, payment_link, telegram_chat_id
		FROM users
		WHERE id = @id`

	var (
		u      domain.User
		pgID   pgtype.UUID
		chatID pgtype.Int8
	)
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}).Scan(&pgID, &u.Email, &u.Name, &u.PaymentLink, &chatID)
	if err != nil {
		return domain.User{}, fmt.Errorf("repo.UserRepo.GetByID: %w", notFound(err))
	}
	u.ID = fromPgUUID(pgID)
	if chatID.Valid {
		u.TelegramChatID = chatID.Int64
	}
	return u, nil
}
