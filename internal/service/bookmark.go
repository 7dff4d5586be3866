package service

import (
	"context"

	"github.com/bookmark-notes/backend/internal/db"
	"github.com/bookmark-notes/backend/internal/model"
)

type BookmarkRepository interface {
	ListBookmarks(ctx context.Context, userID int64) ([]model.Bookmark, error)
	GetBookmarkByID(ctx context.Context, id int64) (*model.Bookmark, error)
	GetUserBookmark(ctx context.Context, userID, id int64) (*model.Bookmark, error)
	CreateBookmark(ctx context.Context, userID int64, req model.CreateBookmarkRequest) (*model.Bookmark, error)
	UpdateBookmark(ctx context.Context, id int64, req model.UpdateBookmarkRequest) (*model.Bookmark, error)
	DeleteBookmark(ctx context.Context, id int64) error
}

// BookmarkService scopes every operation to the calling user. Reads of a
// bookmark the caller does not own look the same as reads of a missing one.
type BookmarkService struct {
	repo BookmarkRepository
}

func NewBookmarkService(repo BookmarkRepository) *BookmarkService {
	return &BookmarkService{repo: repo}
}

func (s *BookmarkService) List(ctx context.Context, userID int64) ([]model.Bookmark, error) {
	return s.repo.ListBookmarks(ctx, userID)
}

// Get returns nil without error when the bookmark is absent or foreign.
func (s *BookmarkService) Get(ctx context.Context, userID, id int64) (*model.Bookmark, error) {
	b, err := s.repo.GetUserBookmark(ctx, userID, id)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}

func (s *BookmarkService) Create(ctx context.Context, userID int64, req model.CreateBookmarkRequest) (*model.Bookmark, error) {
	b, err := s.repo.CreateBookmark(ctx, userID, req)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, ErrInvalidOwner
		}
		return nil, err
	}
	return b, nil
}

func (s *BookmarkService) Update(ctx context.Context, userID, id int64, req model.UpdateBookmarkRequest) (*model.Bookmark, error) {
	if err := s.authorize(ctx, userID, id); err != nil {
		return nil, err
	}
	b, err := s.repo.UpdateBookmark(ctx, id, req)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrAccessDenied
		}
		return nil, err
	}
	return b, nil
}

func (s *BookmarkService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.authorize(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.DeleteBookmark(ctx, id); err != nil {
		if db.IsNoRows(err) {
			return ErrAccessDenied
		}
		return err
	}
	return nil
}

func (s *BookmarkService) authorize(ctx context.Context, userID, id int64) error {
	b, err := s.repo.GetBookmarkByID(ctx, id)
	if err != nil {
		if db.IsNoRows(err) {
			return ErrAccessDenied
		}
		return err
	}
	if b.UserID != userID {
		return ErrAccessDenied
	}
	return nil
}
