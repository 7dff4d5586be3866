package handler

import (
	"net/http"

	"github.com/bookmark-notes/backend/internal/model"
	"github.com/bookmark-notes/backend/internal/service"
	"github.com/gin-gonic/gin"
)

type BookmarkHandler struct {
	svc *service.BookmarkService
}

func NewBookmarkHandler(svc *service.BookmarkService) *BookmarkHandler {
	return &BookmarkHandler{svc: svc}
}

// List godoc
// @Summary List bookmarks
// @Tags bookmarks
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Bookmark
// @Failure 401 {object} model.ErrorResponse
// @Router /bookmarks [get]
func (h *BookmarkHandler) List(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		writeError(c, service.ErrUnauthenticated)
		return
	}
	bookmarks, err := h.svc.List(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookmarks)
}

// Get godoc
// @Summary Get a bookmark
// @Description Responds with null when the bookmark does not exist or belongs to someone else.
// @Tags bookmarks
// @Produce json
// @Security BearerAuth
// @Param id path int true "Bookmark ID"
// @Success 200 {object} model.Bookmark
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /bookmarks/{id} [get]
func (h *BookmarkHandler) Get(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		writeError(c, service.ErrUnauthenticated)
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	bookmark, err := h.svc.Get(c.Request.Context(), user.ID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookmark)
}

// Create godoc
// @Summary Create a bookmark
// @Tags bookmarks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.CreateBookmarkRequest true "Bookmark"
// @Success 201 {object} model.Bookmark
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /bookmarks [post]
func (h *BookmarkHandler) Create(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		writeError(c, service.ErrUnauthenticated)
		return
	}
	var req model.CreateBookmarkRequest
	if !bindJSON(c, &req) {
		return
	}
	bookmark, err := h.svc.Create(c.Request.Context(), user.ID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bookmark)
}

// Update godoc
// @Summary Update a bookmark
// @Tags bookmarks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Bookmark ID"
// @Param request body model.UpdateBookmarkRequest true "Fields to change"
// @Success 200 {object} model.Bookmark
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Router /bookmarks/{id} [patch]
func (h *BookmarkHandler) Update(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		writeError(c, service.ErrUnauthenticated)
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req model.UpdateBookmarkRequest
	if !bindJSON(c, &req) {
		return
	}
	bookmark, err := h.svc.Update(c.Request.Context(), user.ID, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookmark)
}

// Delete godoc
// @Summary Delete a bookmark
// @Tags bookmarks
// @Security BearerAuth
// @Param id path int true "Bookmark ID"
// @Success 204
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Router /bookmarks/{id} [delete]
func (h *BookmarkHandler) Delete(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		writeError(c, service.ErrUnauthenticated)
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), user.ID, id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
