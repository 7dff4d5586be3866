package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bookmark-notes/backend/internal/db"
	"github.com/bookmark-notes/backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func seedUsers(t *testing.T, store *db.Memory) (int64, int64) {
	t.Helper()
	ctx := context.Background()
	a, err := store.CreateUser(ctx, "a@b.com", "h")
	require.NoError(t, err)
	b, err := store.CreateUser(ctx, "c@d.com", "h")
	require.NoError(t, err)
	return a.ID, b.ID
}

func TestBookmarkOwnership(t *testing.T) {
	store := db.NewMemory()
	svc := NewBookmarkService(store)
	ctx := context.Background()
	owner, other := seedUsers(t, store)

	created, err := svc.Create(ctx, owner, model.CreateBookmarkRequest{Title: "t", Link: "https://x"})
	require.NoError(t, err)
	assert.Equal(t, owner, created.UserID)

	got, err := svc.Get(ctx, other, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got, "foreign bookmark reads as absent")

	got, err = svc.Get(ctx, owner, 999)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = svc.Update(ctx, other, created.ID, model.UpdateBookmarkRequest{Title: ptr("stolen")})
	assert.ErrorIs(t, err, ErrAccessDenied)
	_, err = svc.Update(ctx, owner, 999, model.UpdateBookmarkRequest{Title: ptr("x")})
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.ErrorIs(t, svc.Delete(ctx, other, created.ID), ErrAccessDenied)

	list, err := svc.List(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, list)

	updated, err := svc.Update(ctx, owner, created.ID, model.UpdateBookmarkRequest{Title: ptr("mine")})
	require.NoError(t, err)
	assert.Equal(t, "mine", updated.Title)

	require.NoError(t, svc.Delete(ctx, owner, created.ID))
	assert.ErrorIs(t, svc.Delete(ctx, owner, created.ID), ErrAccessDenied)
}

func TestBookmarkCreateUnknownOwner(t *testing.T) {
	svc := NewBookmarkService(db.NewMemory())
	_, err := svc.Create(context.Background(), 77, model.CreateBookmarkRequest{Title: "t", Link: "l"})
	assert.ErrorIs(t, err, ErrInvalidOwner)
}

func TestNoteOwnership(t *testing.T) {
	store := db.NewMemory()
	svc := NewNoteService(store)
	ctx := context.Background()
	owner, other := seedUsers(t, store)

	when := time.Date(2022, 7, 20, 19, 28, 44, 0, time.UTC)
	created, err := svc.Create(ctx, owner, model.CreateNoteRequest{Title: "n", RelatedDate: &when})
	require.NoError(t, err)

	got, err := svc.Get(ctx, other, created.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = svc.Get(ctx, owner, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "n", got.Title)

	_, err = svc.Update(ctx, other, created.ID, model.UpdateNoteRequest{Title: ptr("x")})
	assert.ErrorIs(t, err, ErrAccessDenied)
	assert.ErrorIs(t, svc.Delete(ctx, other, created.ID), ErrAccessDenied)

	_, err = svc.Create(ctx, 999, model.CreateNoteRequest{Title: "n"})
	assert.ErrorIs(t, err, ErrInvalidOwner)

	require.NoError(t, svc.Delete(ctx, owner, created.ID))
	list, err := svc.List(ctx, owner)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUserService(t *testing.T) {
	store := db.NewMemory()
	svc := NewUserService(store)
	ctx := context.Background()
	first, second := seedUsers(t, store)

	_, err := svc.GetUser(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	user, err := svc.GetUser(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", user.Email)

	edited, err := svc.EditUser(ctx, first, model.EditUserRequest{FirstName: ptr("Ada"), LastName: ptr("Lovelace")})
	require.NoError(t, err)
	assert.Equal(t, "Ada", *edited.FirstName)
	assert.Equal(t, "Lovelace", *edited.LastName)

	_, err = svc.EditUser(ctx, second, model.EditUserRequest{Email: ptr("a@b.com")})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	_, err = svc.EditUser(ctx, 999, model.EditUserRequest{FirstName: ptr("x")})
	assert.ErrorIs(t, err, ErrAccessDenied)
}

type unavailableNotes struct {
	*db.Memory
}

var errStoreDown = errors.New("connection reset")

func (unavailableNotes) GetUserNote(context.Context, int64, int64) (*model.Note, error) {
	return nil, errStoreDown
}

func (unavailableNotes) GetNoteByID(context.Context, int64) (*model.Note, error) {
	return nil, errStoreDown
}

func TestNoteStoreFailuresPropagate(t *testing.T) {
	store := db.NewMemory()
	owner, _ := seedUsers(t, store)
	svc := NewNoteService(unavailableNotes{store})
	ctx := context.Background()

	got, err := svc.Get(ctx, owner, 1)
	assert.ErrorIs(t, err, errStoreDown)
	assert.Nil(t, got)

	_, err = svc.Update(ctx, owner, 1, model.UpdateNoteRequest{Title: ptr("x")})
	assert.ErrorIs(t, err, errStoreDown)
	assert.NotErrorIs(t, err, ErrAccessDenied)

	assert.ErrorIs(t, svc.Delete(ctx, owner, 1), errStoreDown)
}
