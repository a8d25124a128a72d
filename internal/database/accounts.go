package database

import (
	"context"
	"errors"
	"time"

	"github.com/agroscan/agroscan/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the PostgreSQL error code for a unique constraint failure.
const uniqueViolation = "23505"

// Account represents an admin panel account.
type Account struct {
	ID           uuid.UUID
	FullName     string
	Email        string
	Username     string
	PasswordHash []byte
	CreatedAt    time.Time
}

// CreateAccountParams contains parameters for creating an account.
type CreateAccountParams struct {
	FullName     string
	Email        string
	Username     string
	PasswordHash []byte
}

const accountColumns = `id, full_name, email, username, password_hash, created_at`

func scanAccount(row pgx.Row) (*Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.FullName, &a.Email, &a.Username, &a.PasswordHash, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAccount creates a new account. Usernames are unique ignoring case.
func (db *DB) CreateAccount(ctx context.Context, params CreateAccountParams) (*Account, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO accounts (full_name, email, username, password_hash)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+accountColumns,
		params.FullName, params.Email, params.Username, params.PasswordHash,
	)
	a, err := scanAccount(row)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return nil, store.ErrUsernameTaken
	}
	return a, err
}

// GetAccountByUsername retrieves an account by username, ignoring case.
func (db *DB) GetAccountByUsername(ctx context.Context, username string) (*Account, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE lower(username) = lower($1)`,
		username,
	)
	return scanAccount(row)
}

// DeleteAccount deletes an account by ID.
func (db *DB) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	_, err := db.pool.Exec(ctx,
		`DELETE FROM accounts WHERE id = $1`,
		id,
	)
	return err
}
