package db

import (
	"context"
	"testing"
	"time"

	"github.com/bookmark-notes/backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// store is the method set both backends share.
type store interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	UpdateRefreshTokenHash(ctx context.Context, id int64, hash string) error
	ClearRefreshTokenHash(ctx context.Context, id int64) error
	UpdateUser(ctx context.Context, id int64, req model.EditUserRequest) (*model.User, error)

	ListBookmarks(ctx context.Context, userID int64) ([]model.Bookmark, error)
	GetBookmarkByID(ctx context.Context, id int64) (*model.Bookmark, error)
	GetUserBookmark(ctx context.Context, userID, id int64) (*model.Bookmark, error)
	CreateBookmark(ctx context.Context, userID int64, req model.CreateBookmarkRequest) (*model.Bookmark, error)
	UpdateBookmark(ctx context.Context, id int64, req model.UpdateBookmarkRequest) (*model.Bookmark, error)
	DeleteBookmark(ctx context.Context, id int64) error

	ListNotes(ctx context.Context, userID int64) ([]model.Note, error)
	GetNoteByID(ctx context.Context, id int64) (*model.Note, error)
	GetUserNote(ctx context.Context, userID, id int64) (*model.Note, error)
	CreateNote(ctx context.Context, userID int64, req model.CreateNoteRequest) (*model.Note, error)
	UpdateNote(ctx context.Context, id int64, req model.UpdateNoteRequest) (*model.Note, error)
	DeleteNote(ctx context.Context, id int64) error
}

var (
	_ store = (*Postgres)(nil)
	_ store = (*Memory)(nil)
)

func ptr[T any](v T) *T { return &v }

func runStoreSuite(t *testing.T, s store) {
	ctx := context.Background()

	t.Run("users", func(t *testing.T) {
		user, err := s.CreateUser(ctx, "a@b.com", "hash-a")
		require.NoError(t, err)
		assert.Positive(t, user.ID)
		assert.False(t, user.HasSession())

		_, err = s.CreateUser(ctx, "a@b.com", "hash-b")
		assert.True(t, IsUniqueViolation(err))

		byEmail, err := s.GetUserByEmail(ctx, "a@b.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)
		assert.Equal(t, "hash-a", byEmail.PasswordHash)

		_, err = s.GetUserByEmail(ctx, "missing@b.com")
		assert.True(t, IsNoRows(err))
		_, err = s.GetUserByID(ctx, 999999)
		assert.True(t, IsNoRows(err))

		require.NoError(t, s.UpdateRefreshTokenHash(ctx, user.ID, "rt-hash"))
		got, err := s.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		require.True(t, got.HasSession())
		assert.Equal(t, "rt-hash", *got.HashedRefreshToken)

		assert.True(t, IsNoRows(s.UpdateRefreshTokenHash(ctx, 999999, "x")))

		require.NoError(t, s.ClearRefreshTokenHash(ctx, user.ID))
		require.NoError(t, s.ClearRefreshTokenHash(ctx, user.ID))
		got, err = s.GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		assert.False(t, got.HasSession())

		updated, err := s.UpdateUser(ctx, user.ID, model.EditUserRequest{FirstName: ptr("Ada")})
		require.NoError(t, err)
		assert.Equal(t, "a@b.com", updated.Email)
		require.NotNil(t, updated.FirstName)
		assert.Equal(t, "Ada", *updated.FirstName)
		assert.Nil(t, updated.LastName)

		_, err = s.CreateUser(ctx, "c@d.com", "hash-c")
		require.NoError(t, err)
		_, err = s.UpdateUser(ctx, user.ID, model.EditUserRequest{Email: ptr("c@d.com")})
		assert.True(t, IsUniqueViolation(err))
	})

	t.Run("bookmarks", func(t *testing.T) {
		owner, err := s.CreateUser(ctx, "bm-owner@b.com", "h")
		require.NoError(t, err)
		other, err := s.CreateUser(ctx, "bm-other@b.com", "h")
		require.NoError(t, err)

		_, err = s.CreateBookmark(ctx, 999999, model.CreateBookmarkRequest{Title: "t", Link: "l"})
		assert.True(t, IsForeignKeyViolation(err))

		first, err := s.CreateBookmark(ctx, owner.ID, model.CreateBookmarkRequest{Title: "one", Link: "https://one"})
		require.NoError(t, err)
		second, err := s.CreateBookmark(ctx, owner.ID, model.CreateBookmarkRequest{Title: "two", Description: ptr("d"), Link: "https://two"})
		require.NoError(t, err)
		_, err = s.CreateBookmark(ctx, other.ID, model.CreateBookmarkRequest{Title: "foreign", Link: "https://x"})
		require.NoError(t, err)

		list, err := s.ListBookmarks(ctx, owner.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, first.ID, list[0].ID)
		assert.Equal(t, second.ID, list[1].ID)

		_, err = s.GetUserBookmark(ctx, other.ID, first.ID)
		assert.True(t, IsNoRows(err))
		got, err := s.GetBookmarkByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, owner.ID, got.UserID)

		updated, err := s.UpdateBookmark(ctx, second.ID, model.UpdateBookmarkRequest{Title: ptr("renamed")})
		require.NoError(t, err)
		assert.Equal(t, "renamed", updated.Title)
		assert.Equal(t, "https://two", updated.Link)
		require.NotNil(t, updated.Description)
		assert.Equal(t, "d", *updated.Description)

		require.NoError(t, s.DeleteBookmark(ctx, first.ID))
		assert.True(t, IsNoRows(s.DeleteBookmark(ctx, first.ID)))
		list, err = s.ListBookmarks(ctx, owner.ID)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("notes", func(t *testing.T) {
		owner, err := s.CreateUser(ctx, "note-owner@b.com", "h")
		require.NoError(t, err)

		_, err = s.CreateNote(ctx, 999999, model.CreateNoteRequest{Title: "t"})
		assert.True(t, IsForeignKeyViolation(err))

		when := time.Date(2022, 7, 20, 19, 28, 44, 0, time.UTC)
		note, err := s.CreateNote(ctx, owner.ID, model.CreateNoteRequest{Title: "n", RelatedDate: &when})
		require.NoError(t, err)
		require.NotNil(t, note.RelatedDate)
		assert.True(t, when.Equal(*note.RelatedDate))

		got, err := s.GetUserNote(ctx, owner.ID, note.ID)
		require.NoError(t, err)
		assert.Equal(t, "n", got.Title)

		updated, err := s.UpdateNote(ctx, note.ID, model.UpdateNoteRequest{Description: ptr("desc")})
		require.NoError(t, err)
		assert.Equal(t, "n", updated.Title)
		require.NotNil(t, updated.RelatedDate)

		_, err = s.UpdateNote(ctx, 999999, model.UpdateNoteRequest{Title: ptr("x")})
		assert.True(t, IsNoRows(err))

		require.NoError(t, s.DeleteNote(ctx, note.ID))
		_, err = s.GetNoteByID(ctx, note.ID)
		assert.True(t, IsNoRows(err))
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, NewMemory())
}

func TestMemoryReturnsCopies(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	user, err := m.CreateUser(ctx, "a@b.com", "h")
	require.NoError(t, err)
	require.NoError(t, m.UpdateRefreshTokenHash(ctx, user.ID, "rt"))

	got, err := m.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	*got.HashedRefreshToken = "mutated"

	again, err := m.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "rt", *again.HashedRefreshToken)
}
