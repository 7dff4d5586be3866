package model

import "time"

type Note struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"userId"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	RelatedDate *time.Time `json:"relatedDate"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// RelatedDate is decoded from an RFC 3339 string; anything else fails binding.
type CreateNoteRequest struct {
	Title       string     `json:"title" binding:"required" example:"Note Title"`
	Description *string    `json:"description" example:"Note Description"`
	RelatedDate *time.Time `json:"relatedDate" example:"2022-07-20T19:28:44+00:00"`
}

type UpdateNoteRequest struct {
	Title       *string    `json:"title" binding:"omitempty,min=1" example:"Note Title"`
	Description *string    `json:"description" example:"Note Description"`
	RelatedDate *time.Time `json:"relatedDate" example:"2022-07-20T19:28:44+00:00"`
}
