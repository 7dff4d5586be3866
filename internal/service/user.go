package service

import (
	"context"

	"github.com/bookmark-notes/backend/internal/db"
	"github.com/bookmark-notes/backend/internal/model"
)

type UserRepository interface {
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	UpdateUser(ctx context.Context, id int64, req model.EditUserRequest) (*model.User, error)
}

type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) EditUser(ctx context.Context, id int64, req model.EditUserRequest) (*model.User, error) {
	user, err := s.repo.UpdateUser(ctx, id, req)
	if err != nil {
		switch {
		case db.IsNoRows(err):
			return nil, ErrAccessDenied
		case db.IsUniqueViolation(err):
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return user, nil
}
