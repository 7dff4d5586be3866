package db

import (
	"context"
	"fmt"

	"github.com/bookmark-notes/backend/internal/model"
	"github.com/jackc/pgx/v5"
)

const bookmarkColumns = `id, user_id, title, description, link, created_at, updated_at`

func scanBookmark(row pgx.Row) (*model.Bookmark, error) {
	var b model.Bookmark
	if err := row.Scan(
		&b.ID,
		&b.UserID,
		&b.Title,
		&b.Description,
		&b.Link,
		&b.CreatedAt,
		&b.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &b, nil
}

func (db *Postgres) ListBookmarks(ctx context.Context, userID int64) ([]model.Bookmark, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+bookmarkColumns+`
		FROM bookmarks
		WHERE user_id = $1
		ORDER BY id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks: %w", err)
	}
	defer rows.Close()

	bookmarks := make([]model.Bookmark, 0)
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bookmark: %w", err)
		}
		bookmarks = append(bookmarks, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bookmarks: %w", err)
	}
	return bookmarks, nil
}

// GetBookmarkByID is unscoped; ownership is checked by the caller.
func (db *Postgres) GetBookmarkByID(ctx context.Context, id int64) (*model.Bookmark, error) {
	b, err := scanBookmark(db.Pool.QueryRow(ctx,
		`SELECT `+bookmarkColumns+` FROM bookmarks WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmark: %w", err)
	}
	return b, nil
}

func (db *Postgres) GetUserBookmark(ctx context.Context, userID, id int64) (*model.Bookmark, error) {
	b, err := scanBookmark(db.Pool.QueryRow(ctx,
		`SELECT `+bookmarkColumns+` FROM bookmarks WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get bookmark: %w", err)
	}
	return b, nil
}

func (db *Postgres) CreateBookmark(ctx context.Context, userID int64, req model.CreateBookmarkRequest) (*model.Bookmark, error) {
	b, err := scanBookmark(db.Pool.QueryRow(ctx, `
		INSERT INTO bookmarks (user_id, title, description, link, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING `+bookmarkColumns,
		userID, req.Title, req.Description, req.Link))
	if err != nil {
		return nil, fmt.Errorf("failed to insert bookmark: %w", err)
	}
	return b, nil
}

func (db *Postgres) UpdateBookmark(ctx context.Context, id int64, req model.UpdateBookmarkRequest) (*model.Bookmark, error) {
	b, err := scanBookmark(db.Pool.QueryRow(ctx, `
		UPDATE bookmarks
		SET
			title = COALESCE($2, title),
			description = COALESCE($3, description),
			link = COALESCE($4, link),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+bookmarkColumns,
		id, req.Title, req.Description, req.Link))
	if err != nil {
		return nil, fmt.Errorf("failed to update bookmark: %w", err)
	}
	return b, nil
}

func (db *Postgres) DeleteBookmark(ctx context.Context, id int64) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM bookmarks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete bookmark: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete bookmark: %w", pgx.ErrNoRows)
	}
	return nil
}
