package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"habitd/internal/apperr"
	"habitd/internal/model"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// CreateTx inserts a new inactive user inside the caller's transaction,
// so registration and its outbox event commit together.
func (r *UserRepository) CreateTx(ctx context.Context, tx pgx.Tx, u *model.User) error {
	query := `
        INSERT INTO users (username, email, password_hash, is_active)
        VALUES ($1, $2, $3, $4)
        RETURNING id, created_at
    `
	err := tx.QueryRow(ctx, query,
		u.Username,
		u.Email,
		u.PasswordHash,
		u.IsActive,
	).Scan(&u.ID, &u.CreatedAt)

	return apperr.FromDB(err, "user not found", "username or email already taken")
}

// FindByUsername returns a user by username.
func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `
        SELECT id, username, email, password_hash, is_active, created_at
        FROM users
        WHERE username = $1
    `
	return r.scanOne(r.db.QueryRow(ctx, query, username))
}

// FindByID returns a user by primary key.
func (r *UserRepository) FindByID(ctx context.Context, id int) (*model.User, error) {
	query := `
        SELECT id, username, email, password_hash, is_active, created_at
        FROM users
        WHERE id = $1
    `
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

// Activate flips a user's activation flag after email verification.
func (r *UserRepository) Activate(ctx context.Context, id int) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET is_active = TRUE WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}

func (r *UserRepository) scanOne(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsActive, &u.CreatedAt)
	if err != nil {
		return nil, apperr.FromDB(err, "user not found", "")
	}
	return &u, nil
}
