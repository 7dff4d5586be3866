package service

import (
	"context"

	"github.com/bookmark-notes/backend/internal/db"
	"github.com/bookmark-notes/backend/internal/model"
)

type NoteRepository interface {
	ListNotes(ctx context.Context, userID int64) ([]model.Note, error)
	GetNoteByID(ctx context.Context, id int64) (*model.Note, error)
	GetUserNote(ctx context.Context, userID, id int64) (*model.Note, error)
	CreateNote(ctx context.Context, userID int64, req model.CreateNoteRequest) (*model.Note, error)
	UpdateNote(ctx context.Context, id int64, req model.UpdateNoteRequest) (*model.Note, error)
	DeleteNote(ctx context.Context, id int64) error
}

type NoteService struct {
	repo NoteRepository
}

func NewNoteService(repo NoteRepository) *NoteService {
	return &NoteService{repo: repo}
}

func (s *NoteService) List(ctx context.Context, userID int64) ([]model.Note, error) {
	return s.repo.ListNotes(ctx, userID)
}

func (s *NoteService) Get(ctx context.Context, userID, id int64) (*model.Note, error) {
	n, err := s.repo.GetUserNote(ctx, userID, id)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return n, nil
}

func (s *NoteService) Create(ctx context.Context, userID int64, req model.CreateNoteRequest) (*model.Note, error) {
	n, err := s.repo.CreateNote(ctx, userID, req)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, ErrInvalidOwner
		}
		return nil, err
	}
	return n, nil
}

func (s *NoteService) Update(ctx context.Context, userID, id int64, req model.UpdateNoteRequest) (*model.Note, error) {
	if err := s.authorize(ctx, userID, id); err != nil {
		return nil, err
	}
	n, err := s.repo.UpdateNote(ctx, id, req)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrAccessDenied
		}
		return nil, err
	}
	return n, nil
}

func (s *NoteService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.authorize(ctx, userID, id); err != nil {
		return err
	}
	if err := s.repo.DeleteNote(ctx, id); err != nil {
		if db.IsNoRows(err) {
			return ErrAccessDenied
		}
		return err
	}
	return nil
}

func (s *NoteService) authorize(ctx context.Context, userID, id int64) error {
	n, err := s.repo.GetNoteByID(ctx, id)
	if err != nil {
		if db.IsNoRows(err) {
			return ErrAccessDenied
		}
		return err
	}
	if n.UserID != userID {
		return ErrAccessDenied
	}
	return nil
}
