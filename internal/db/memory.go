package db

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/bookmark-notes/backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Memory is a process-local store with the same method set as Postgres.
// Failures are reported with the pgx error values so callers classify both
// backends the same way.
type Memory struct {
	mu        sync.RWMutex
	now       func() time.Time
	users     map[int64]model.User
	bookmarks map[int64]model.Bookmark
	notes     map[int64]model.Note
	lastID    struct{ user, bookmark, note int64 }
}

func NewMemory() *Memory {
	return &Memory{
		now:       time.Now,
		users:     make(map[int64]model.User),
		bookmarks: make(map[int64]model.Bookmark),
		notes:     make(map[int64]model.Note),
	}
}

func (m *Memory) Ping(context.Context) error { return nil }

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: constraint, Message: "duplicate key value violates unique constraint"}
}

func foreignKeyViolation(constraint string) error {
	return &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: constraint, Message: "insert or update violates foreign key constraint"}
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneUser(u model.User) *model.User {
	u.HashedRefreshToken = cloneString(u.HashedRefreshToken)
	u.FirstName = cloneString(u.FirstName)
	u.LastName = cloneString(u.LastName)
	return &u
}

func (m *Memory) emailTaken(email string, except int64) bool {
	for id, u := range m.users {
		if id != except && u.Email == email {
			return true
		}
	}
	return false
}

func (m *Memory) CreateUser(_ context.Context, email, passwordHash string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.emailTaken(email, 0) {
		return nil, fmt.Errorf("failed to insert user: %w", uniqueViolation("users_email_key"))
	}
	m.lastID.user++
	now := m.now()
	u := model.User{
		ID:           m.lastID.user,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	m.users[u.ID] = u
	return cloneUser(u), nil
}

func (m *Memory) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, fmt.Errorf("failed to get user by email: %w", pgx.ErrNoRows)
}

func (m *Memory) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("failed to get user by id: %w", pgx.ErrNoRows)
	}
	return cloneUser(u), nil
}

func (m *Memory) UpdateRefreshTokenHash(_ context.Context, id int64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("failed to update refresh hash: %w", pgx.ErrNoRows)
	}
	u.HashedRefreshToken = &hash
	u.UpdatedAt = m.now()
	m.users[id] = u
	return nil
}

func (m *Memory) ClearRefreshTokenHash(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok || u.HashedRefreshToken == nil {
		return nil
	}
	u.HashedRefreshToken = nil
	u.UpdatedAt = m.now()
	m.users[id] = u
	return nil
}

func (m *Memory) UpdateUser(_ context.Context, id int64, req model.EditUserRequest) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("failed to update user: %w", pgx.ErrNoRows)
	}
	if req.Email != nil {
		if m.emailTaken(*req.Email, id) {
			return nil, fmt.Errorf("failed to update user: %w", uniqueViolation("users_email_key"))
		}
		u.Email = *req.Email
	}
	if req.FirstName != nil {
		u.FirstName = cloneString(req.FirstName)
	}
	if req.LastName != nil {
		u.LastName = cloneString(req.LastName)
	}
	u.UpdatedAt = m.now()
	m.users[id] = u
	return cloneUser(u), nil
}

func cloneBookmark(b model.Bookmark) *model.Bookmark {
	b.Description = cloneString(b.Description)
	return &b
}

func (m *Memory) ListBookmarks(_ context.Context, userID int64) ([]model.Bookmark, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	bookmarks := make([]model.Bookmark, 0)
	for _, b := range m.bookmarks {
		if b.UserID == userID {
			bookmarks = append(bookmarks, *cloneBookmark(b))
		}
	}
	slices.SortFunc(bookmarks, func(a, b model.Bookmark) int { return int(a.ID - b.ID) })
	return bookmarks, nil
}

func (m *Memory) GetBookmarkByID(_ context.Context, id int64) (*model.Bookmark, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.bookmarks[id]
	if !ok {
		return nil, fmt.Errorf("failed to get bookmark: %w", pgx.ErrNoRows)
	}
	return cloneBookmark(b), nil
}

func (m *Memory) GetUserBookmark(_ context.Context, userID, id int64) (*model.Bookmark, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.bookmarks[id]
	if !ok || b.UserID != userID {
		return nil, fmt.Errorf("failed to get bookmark: %w", pgx.ErrNoRows)
	}
	return cloneBookmark(b), nil
}

func (m *Memory) CreateBookmark(_ context.Context, userID int64, req model.CreateBookmarkRequest) (*model.Bookmark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[userID]; !ok {
		return nil, fmt.Errorf("failed to insert bookmark: %w", foreignKeyViolation("bookmarks_user_id_fkey"))
	}
	m.lastID.bookmark++
	now := m.now()
	b := model.Bookmark{
		ID:          m.lastID.bookmark,
		UserID:      userID,
		Title:       req.Title,
		Description: cloneString(req.Description),
		Link:        req.Link,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.bookmarks[b.ID] = b
	return cloneBookmark(b), nil
}

func (m *Memory) UpdateBookmark(_ context.Context, id int64, req model.UpdateBookmarkRequest) (*model.Bookmark, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.bookmarks[id]
	if !ok {
		return nil, fmt.Errorf("failed to update bookmark: %w", pgx.ErrNoRows)
	}
	if req.Title != nil {
		b.Title = *req.Title
	}
	if req.Description != nil {
		b.Description = cloneString(req.Description)
	}
	if req.Link != nil {
		b.Link = *req.Link
	}
	b.UpdatedAt = m.now()
	m.bookmarks[id] = b
	return cloneBookmark(b), nil
}

func (m *Memory) DeleteBookmark(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.bookmarks[id]; !ok {
		return fmt.Errorf("failed to delete bookmark: %w", pgx.ErrNoRows)
	}
	delete(m.bookmarks, id)
	return nil
}

func cloneNote(n model.Note) *model.Note {
	n.Description = cloneString(n.Description)
	n.RelatedDate = cloneTime(n.RelatedDate)
	return &n
}

func (m *Memory) ListNotes(_ context.Context, userID int64) ([]model.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	notes := make([]model.Note, 0)
	for _, n := range m.notes {
		if n.UserID == userID {
			notes = append(notes, *cloneNote(n))
		}
	}
	slices.SortFunc(notes, func(a, b model.Note) int { return int(a.ID - b.ID) })
	return notes, nil
}

func (m *Memory) GetNoteByID(_ context.Context, id int64) (*model.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, ok := m.notes[id]
	if !ok {
		return nil, fmt.Errorf("failed to get note: %w", pgx.ErrNoRows)
	}
	return cloneNote(n), nil
}

func (m *Memory) GetUserNote(_ context.Context, userID, id int64) (*model.Note, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, ok := m.notes[id]
	if !ok || n.UserID != userID {
		return nil, fmt.Errorf("failed to get note: %w", pgx.ErrNoRows)
	}
	return cloneNote(n), nil
}

func (m *Memory) CreateNote(_ context.Context, userID int64, req model.CreateNoteRequest) (*model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[userID]; !ok {
		return nil, fmt.Errorf("failed to insert note: %w", foreignKeyViolation("notes_user_id_fkey"))
	}
	m.lastID.note++
	now := m.now()
	n := model.Note{
		ID:          m.lastID.note,
		UserID:      userID,
		Title:       req.Title,
		Description: cloneString(req.Description),
		RelatedDate: cloneTime(req.RelatedDate),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	m.notes[n.ID] = n
	return cloneNote(n), nil
}

func (m *Memory) UpdateNote(_ context.Context, id int64, req model.UpdateNoteRequest) (*model.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.notes[id]
	if !ok {
		return nil, fmt.Errorf("failed to update note: %w", pgx.ErrNoRows)
	}
	if req.Title != nil {
		n.Title = *req.Title
	}
	if req.Description != nil {
		n.Description = cloneString(req.Description)
	}
	if req.RelatedDate != nil {
		n.RelatedDate = cloneTime(req.RelatedDate)
	}
	n.UpdatedAt = m.now()
	m.notes[id] = n
	return cloneNote(n), nil
}

func (m *Memory) DeleteNote(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.notes[id]; !ok {
		return fmt.Errorf("failed to delete note: %w", pgx.ErrNoRows)
	}
	delete(m.notes, id)
	return nil
}
