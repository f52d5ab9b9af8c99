// Copyright (c) 2026 Selvo. All rights reserved.
// Author: platform@selvo.store

package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/selvohq/selvo/internal/platform/apperr"
	"github.com/selvohq/selvo/internal/platform/sec"
	"github.com/selvohq/selvo/internal/users/auth"
	"github.com/selvohq/selvo/pkg/pagination"
)

// # Account Repository

// PostgresAccountRepository implements the AccountRepository interface using pgx.
type PostgresAccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new PostgreSQL implementation of the AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *PostgresAccountRepository {
	return &PostgresAccountRepository{pool: pool}
}

// profileColumns is the column list for administrative views. Credential
// recovery fields never leave the auth package.
const profileColumns = `
	id, name, email, photo, role, verified, provider, active, createdat, updatedat`

// scanProfile hydrates the administrative projection of an account.
func scanProfile(row pgx.Row) (*auth.User, error) {
	user := &auth.User{}
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Photo,
		&user.Role,
		&user.Verified,
		&user.Provider,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

/*
FindByID retrieves an active account by its unique ID.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - *auth.User: Administrative projection of the account
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresAccountRepository) FindByID(context context.Context, userID string) (*auth.User, error) {
	const query = `
		SELECT` + profileColumns + `
		FROM users.account
		WHERE id = $1 AND active = TRUE`

	user, err := scanProfile(repository.pool.QueryRow(context, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, fmt.Errorf("postgres_account_repo_find_by_id_failed: %w", err)
	}

	return user, nil
}

/*
UpdateProfile persists changes to the mutable profile fields.

Parameters:
  - context: context.Context
  - user: *auth.User (Carries the new name and photo)

Returns:
  - error: apperr.NotFound or update failures
*/
func (repository *PostgresAccountRepository) UpdateProfile(context context.Context, user *auth.User) error {
	const query = `
		UPDATE users.account
		SET name = $2, photo = $3, updatedat = $4
		WHERE id = $1 AND active = TRUE`

	user.UpdatedAt = time.Now()
	tag, err := repository.pool.Exec(context, query, user.ID, user.Name, user.Photo, user.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres_account_repo_update_profile_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User not found")
	}

	return nil
}

/*
SetRole replaces the authorization role of an account.

Parameters:
  - context: context.Context
  - userID: string
  - role: sec.UserRole

Returns:
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresAccountRepository) SetRole(context context.Context, userID string, role sec.UserRole) error {
	const query = `
		UPDATE users.account
		SET role = $2, updatedat = $3
		WHERE id = $1 AND active = TRUE`

	tag, err := repository.pool.Exec(context, query, userID, role, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_account_repo_set_role_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User not found")
	}

	return nil
}

/*
SoftDelete deactivates an account.

Description: Retention-friendly deletion: the row stays but disappears from
every active lookup, including login.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresAccountRepository) SoftDelete(context context.Context, userID string) error {
	const query = `
		UPDATE users.account
		SET active = FALSE, updatedat = $2
		WHERE id = $1 AND active = TRUE`

	tag, err := repository.pool.Exec(context, query, userID, time.Now())
	if err != nil {
		return fmt.Errorf("postgres_account_repo_soft_delete_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User not found")
	}

	return nil
}

/*
HardDelete permanently removes the account row.

Description: Admin-only. Works on deactivated rows too, which is how a
soft-deleted account is finally purged.

Parameters:
  - context: context.Context
  - userID: string

Returns:
  - error: apperr.NotFound or execution errors
*/
func (repository *PostgresAccountRepository) HardDelete(context context.Context, userID string) error {
	const query = "DELETE FROM users.account WHERE id = $1"

	tag, err := repository.pool.Exec(context, query, userID)
	if err != nil {
		return fmt.Errorf("postgres_account_repo_hard_delete_failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("User not found")
	}

	return nil
}

/*
List returns one page of active accounts, newest first.

Parameters:
  - context: context.Context
  - params: pagination.Params

Returns:
  - []auth.User: The requested page
  - int: Total number of active accounts
  - error: Query failures
*/
func (repository *PostgresAccountRepository) List(context context.Context, params pagination.Params) ([]auth.User, int, error) {
	const countQuery = "SELECT COUNT(*) FROM users.account WHERE active = TRUE"

	total := 0
	if err := repository.pool.QueryRow(context, countQuery).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_count_failed: %w", err)
	}

	const listQuery = `
		SELECT` + profileColumns + `
		FROM users.account
		WHERE active = TRUE
		ORDER BY createdat DESC
		LIMIT $1 OFFSET $2`

	rows, err := repository.pool.Query(context, listQuery, params.Limit, params.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_list_failed: %w", err)
	}
	defer rows.Close()

	users := make([]auth.User, 0, params.Limit)
	for rows.Next() {
		user, err := scanProfile(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("postgres_account_repo_scan_failed: %w", err)
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("postgres_account_repo_rows_failed: %w", err)
	}

	return users, total, nil
}
