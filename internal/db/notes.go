package db

import (
	"context"
	"fmt"

	"github.com/bookmark-notes/backend/internal/model"
	"github.com/jackc/pgx/v5"
)

const noteColumns = `id, user_id, title, description, related_date, created_at, updated_at`

func scanNote(row pgx.Row) (*model.Note, error) {
	var n model.Note
	if err := row.Scan(
		&n.ID,
		&n.UserID,
		&n.Title,
		&n.Description,
		&n.RelatedDate,
		&n.CreatedAt,
		&n.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &n, nil
}

func (db *Postgres) ListNotes(ctx context.Context, userID int64) ([]model.Note, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT `+noteColumns+`
		FROM notes
		WHERE user_id = $1
		ORDER BY id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer rows.Close()

	notes := make([]model.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notes: %w", err)
	}
	return notes, nil
}

// GetNoteByID is unscoped; ownership is checked by the caller.
func (db *Postgres) GetNoteByID(ctx context.Context, id int64) (*model.Note, error) {
	n, err := scanNote(db.Pool.QueryRow(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	return n, nil
}

func (db *Postgres) GetUserNote(ctx context.Context, userID, id int64) (*model.Note, error) {
	n, err := scanNote(db.Pool.QueryRow(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	return n, nil
}

func (db *Postgres) CreateNote(ctx context.Context, userID int64, req model.CreateNoteRequest) (*model.Note, error) {
	n, err := scanNote(db.Pool.QueryRow(ctx, `
		INSERT INTO notes (user_id, title, description, related_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING `+noteColumns,
		userID, req.Title, req.Description, req.RelatedDate))
	if err != nil {
		return nil, fmt.Errorf("failed to insert note: %w", err)
	}
	return n, nil
}

func (db *Postgres) UpdateNote(ctx context.Context, id int64, req model.UpdateNoteRequest) (*model.Note, error) {
	n, err := scanNote(db.Pool.QueryRow(ctx, `
		UPDATE notes
		SET
			title = COALESCE($2, title),
			description = COALESCE($3, description),
			related_date = COALESCE($4, related_date),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+noteColumns,
		id, req.Title, req.Description, req.RelatedDate))
	if err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}
	return n, nil
}

func (db *Postgres) DeleteNote(ctx context.Context, id int64) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete note: %w", pgx.ErrNoRows)
	}
	return nil
}
