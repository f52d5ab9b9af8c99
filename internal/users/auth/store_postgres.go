// Copyright (c) 2026 Selvo. All rights reserved.
// Author: platform@selvo.store

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/selvohq/selvo/internal/platform/apperr"
)

// userColumns is the canonical column list for hydrating a full User entity.
const userColumns = `
	id, name, email, passwordhash, photo, role, verified, provider,
	verificationcodehash, passwordresettokenhash, passwordresetat,
	passwordchangedat, active, createdat, updatedat`

// # User Repository

// PostgresUserRepository implements the UserRepository interface using pgx.
type PostgresUserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new PostgreSQL implementation of the UserRepository.
func NewUserRepository(pool *pgxpool.Pool) *PostgresUserRepository {
	return &PostgresUserRepository{pool: pool}
}

// scanUser hydrates a User from any row carrying userColumns.
func scanUser(row pgx.Row) (*User, error) {
	user := &User{}
	var (
		resetAt   *time.Time
		changedAt *time.Time
	)

	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Photo,
		&user.Role,
		&user.Verified,
		&user.Provider,
		&user.VerificationCodeHash,
		&user.PasswordResetTokenHash,
		&resetAt,
		&changedAt,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if resetAt != nil {
		user.PasswordResetAt = *resetAt
	}
	if changedAt != nil {
		user.PasswordChangedAt = *changedAt
	}

	return user, nil
}

/*
Create persists a new local account into the users.account table.

Description: Initializes timestamps and the active flag, and maps the unique
email constraint into a domain Conflict error.

Parameters:
  - context: context.Context
  - user: *User (Entity to persist)

Returns:
  - error: apperr.Conflict on duplicate email, or connectivity errors
*/
func (repository *PostgresUserRepository) Create(context context.Context, user *User) error {
	const query = `
		INSERT INTO users.account (
			id, name, email, passwordhash, photo, role, verified, provider,
			verificationcodehash, active, createdat, updatedat
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	now := time.Now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	user.Active = true

	_, err := repository.pool.Exec(context, query,
		user.ID,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Photo,
		user.Role,
		user.Verified,
		user.Provider,
		user.VerificationCodeHash,
		user.Active,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperr.Conflict("An account with this email already exists")
		}
		return fmt.Errorf("postgres_user_repo_create_failed: %w", err)
	}

	return nil
}

/*
UpsertByEmail inserts a provider-bootstrapped account, or refreshes the
profile of an existing account with the same email.

Description: Provider sign-in is authoritative for name, photo and provider;
upserted accounts are always flagged verified since the provider vouches for
the email.

Parameters:
  - context: context.Context
  - user: *User (Profile data from the OAuth provider)

Returns:
  - *User: The stored account after insert or update
  - error: Database errors
*/
func (repository *PostgresUserRepository) UpsertByEmail(context context.Context, user *User) (*User, error) {
	const query = `
		INSERT INTO users.account (
			id, name, email, passwordhash, photo, role, verified, provider,
			active, createdat, updatedat
		) VALUES ($1, $2, $3, '', $4, $5, TRUE, $6, TRUE, $7, $7)
		ON CONFLICT (email) DO UPDATE
		SET name = EXCLUDED.name,
			photo = EXCLUDED.photo,
			provider = EXCLUDED.provider,
			verified = TRUE,
			updatedat = EXCLUDED.updatedat
		RETURNING` + userColumns

	now := time.Now()
	stored, err := scanUser(repository.pool.QueryRow(context, query,
		user.ID,
		user.Name,
		user.Email,
		user.Photo,
		user.Role,
		user.Provider,
		now,
	))

	if err != nil {
		return nil, fmt.Errorf("postgres_user_repo_upsert_failed: %w", err)
	}

	return stored, nil
}

/*
FindByID retrieves an active user record by their unique ID.

Parameters:
  - context: context.Context
  - id: string (UUIDv7)

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresUserRepository) FindByID(context context.Context, id string) (*User, error) {
	const query = `
		SELECT` + userColumns + `
		FROM users.account
		WHERE id = $1 AND active = TRUE`

	user, err := scanUser(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_id_failed: %w", err)
	}

	return user, nil
}

/*
FindByEmail retrieves an active user record by their unique email address.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or database errors
*/
func (repository *PostgresUserRepository) FindByEmail(context context.Context, email string) (*User, error) {
	const query = `
		SELECT` + userColumns + `
		FROM users.account
		WHERE email = $1 AND active = TRUE`

	user, err := scanUser(repository.pool.QueryRow(context, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User not found with this email")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_email_failed: %w", err)
	}

	return user, nil
}

/*
FindByVerificationCode retrieves the unverified account holding the given
hashed verification code.

Parameters:
  - context: context.Context
  - codeHash: string (SHA-256 hex of the emailed code)

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresUserRepository) FindByVerificationCode(context context.Context, codeHash string) (*User, error) {
	const query = `
		SELECT` + userColumns + `
		FROM users.account
		WHERE verificationcodehash = $1 AND verified = FALSE AND active = TRUE`

	user, err := scanUser(repository.pool.QueryRow(context, query, codeHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Could not verify email")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_verification_code_failed: %w", err)
	}

	return user, nil
}

/*
FindByPasswordResetToken retrieves the account holding the given hashed reset
token within its reset window.

Description: Expiry is enforced in the query so a stale token behaves exactly
like an unknown one.

Parameters:
  - context: context.Context
  - tokenHash: string (SHA-256 hex of the emailed token)

Returns:
  - *User: Hydrated account entity
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresUserRepository) FindByPasswordResetToken(context context.Context, tokenHash string) (*User, error) {
	const query = `
		SELECT` + userColumns + `
		FROM users.account
		WHERE passwordresettokenhash = $1 AND passwordresetat > NOW() AND active = TRUE`

	user, err := scanUser(repository.pool.QueryRow(context, query, tokenHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Token is invalid or has expired")
		}
		return nil, fmt.Errorf("postgres_user_repo_find_by_reset_token_failed: %w", err)
	}

	return user, nil
}

/*
MarkVerified flips the account to verified = TRUE and clears its code.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Database errors
*/
func (repository *PostgresUserRepository) MarkVerified(context context.Context, userID string) error {
	const query = `
		UPDATE users.account
		SET verified = TRUE, verificationcodehash = '', updatedat = $2
		WHERE id = $1 AND active = TRUE`

	_, err := repository.pool.Exec(context, query, userID, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_mark_verified_failed: %w", err)
	}
	return nil
}

/*
SetPasswordResetToken stores a hashed reset token and its expiry.

Parameters:
  - context: context.Context
  - userID: string
  - tokenHash: string
  - expiresAt: time.Time (End of the reset window)

Returns:
  - error: Execution errors
*/
func (repository *PostgresUserRepository) SetPasswordResetToken(context context.Context, userID, tokenHash string, expiresAt time.Time) error {
	const query = `
		UPDATE users.account
		SET passwordresettokenhash = $2, passwordresetat = $3, updatedat = $4
		WHERE id = $1 AND active = TRUE`

	_, err := repository.pool.Exec(context, query, userID, tokenHash, expiresAt, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_set_reset_token_failed: %w", err)
	}
	return nil
}

/*
ClearPasswordResetToken removes a pending reset token without touching the
password.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: Execution errors
*/
func (repository *PostgresUserRepository) ClearPasswordResetToken(context context.Context, userID string) error {
	const query = `
		UPDATE users.account
		SET passwordresettokenhash = '', passwordresetat = NULL, updatedat = $2
		WHERE id = $1 AND active = TRUE`

	_, err := repository.pool.Exec(context, query, userID, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_clear_reset_token_failed: %w", err)
	}
	return nil
}

/*
UpdatePassword replaces the password hash and stamps the change.

Description: Clears any pending reset token and sets passwordchangedat, which
invalidates every token issued before this moment.

Parameters:
  - context: context.Context
  - userID: string
  - passwordHash: string (New bcrypt hash)

Returns:
  - error: apperr.NotFound when the account does not exist, or execution errors
*/
func (repository *PostgresUserRepository) UpdatePassword(context context.Context, userID, passwordHash string) error {
	const query = `
		UPDATE users.account
		SET passwordhash = $2,
			passwordresettokenhash = '',
			passwordresetat = NULL,
			passwordchangedat = $3,
			updatedat = $3
		WHERE id = $1 AND active = TRUE`

	tag, err := repository.pool.Exec(context, query, userID, passwordHash, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_user_repo_update_password_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User not found")
	}
	return nil
}
