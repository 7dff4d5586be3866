package model

import "time"

type User struct {
	ID                 int64     `json:"id"`
	Email              string    `json:"email"`
	PasswordHash       string    `json:"-"`
	HashedRefreshToken *string   `json:"-"`
	FirstName          *string   `json:"firstName"`
	LastName           *string   `json:"lastName"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

// HasSession reports whether a refresh-token hash is currently stored.
func (u *User) HasSession() bool {
	return u.HashedRefreshToken != nil && *u.HashedRefreshToken != ""
}

type EditUserRequest struct {
	Email     *string `json:"email" binding:"omitempty,email" example:"test@test.com"`
	FirstName *string `json:"firstName" example:"Test"`
	LastName  *string `json:"lastName" example:"Test"`
}
