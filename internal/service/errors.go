package service

import "errors"

var (
	ErrDuplicateEmail     = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("unauthorized")
	ErrAccessDenied       = errors.New("access denied")
	ErrInvalidOwner       = errors.New("invalid user id")
	ErrNotFound           = errors.New("not found")
)
