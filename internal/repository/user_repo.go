package repository

import (
	"context"

	"sniperok/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert mirrors the identity resolved by the identity provider. Anonymous
// identities are stored without an email.
func (r *UserRepository) Upsert(ctx context.Context, id domain.Identity) error {
	var email *string
	if !id.IsAnonymous {
		email = &id.Email
	}
	var username *string
	if id.Username != "" {
		username = &id.Username
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO "user" (id, username, email)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE
		 SET username = COALESCE(EXCLUDED.username, "user".username),
		     email = EXCLUDED.email`,
		id.UserID, username, email,
	)
	return err
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.db.QueryRow(ctx,
		`SELECT id::text, COALESCE(username, ''), email, created_at FROM "user" WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
