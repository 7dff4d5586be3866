package db

import (
	"context"
	"fmt"

	"github.com/bookmark-notes/backend/internal/model"
	"github.com/jackc/pgx/v5"
)

const userColumns = `id, email, hash, hashed_refresh, first_name, last_name, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.HashedRefreshToken,
		&user.FirstName,
		&user.LastName,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateUser relies on the email UNIQUE constraint; callers classify the
// conflict with IsUniqueViolation.
func (db *Postgres) CreateUser(ctx context.Context, email, passwordHash string) (*model.User, error) {
	query := `
		INSERT INTO users (email, hash, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING ` + userColumns
	user, err := scanUser(db.Pool.QueryRow(ctx, query, email, passwordHash))
	if err != nil {
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}
	return user, nil
}

func (db *Postgres) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(db.Pool.QueryRow(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

func (db *Postgres) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

// UpdateRefreshTokenHash overwrites the session slot. A missing user is
// reported as pgx.ErrNoRows.
func (db *Postgres) UpdateRefreshTokenHash(ctx context.Context, id int64, hash string) error {
	tag, err := db.Pool.Exec(ctx, `
		UPDATE users
		SET hashed_refresh = $2, updated_at = NOW()
		WHERE id = $1
	`, id, hash)
	if err != nil {
		return fmt.Errorf("failed to update refresh hash: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update refresh hash: %w", pgx.ErrNoRows)
	}
	return nil
}

// ClearRefreshTokenHash only touches rows that still hold a session, so
// repeated logouts are no-ops.
func (db *Postgres) ClearRefreshTokenHash(ctx context.Context, id int64) error {
	_, err := db.Pool.Exec(ctx, `
		UPDATE users
		SET hashed_refresh = NULL, updated_at = NOW()
		WHERE id = $1 AND hashed_refresh IS NOT NULL
	`, id)
	if err != nil {
		return fmt.Errorf("failed to clear refresh hash: %w", err)
	}
	return nil
}

func (db *Postgres) UpdateUser(ctx context.Context, id int64, req model.EditUserRequest) (*model.User, error) {
	query := `
		UPDATE users
		SET
			email = COALESCE($2, email),
			first_name = COALESCE($3, first_name),
			last_name = COALESCE($4, last_name),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	user, err := scanUser(db.Pool.QueryRow(ctx, query, id, req.Email, req.FirstName, req.LastName))
	if err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}
