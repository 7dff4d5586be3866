package model

import "time"

type Bookmark struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"userId"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Link        string    `json:"link"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateBookmarkRequest struct {
	Title       string  `json:"title" binding:"required" example:"Bookmark Title"`
	Description *string `json:"description" example:"Bookmark Description"`
	Link        string  `json:"link" binding:"required" example:"https://google.com"`
}

type UpdateBookmarkRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1" example:"Bookmark Title"`
	Description *string `json:"description" example:"Bookmark Description"`
	Link        *string `json:"link" binding:"omitempty,min=1" example:"https://google.com"`
}
