package handler

import (
	"net/http"

	"github.com/bookmark-notes/backend/internal/model"
	"github.com/bookmark-notes/backend/internal/service"
	"github.com/gin-gonic/gin"
)

type NoteHandler struct {
	svc *service.NoteService
}

func NewNoteHandler(svc *service.NoteService) *NoteHandler {
	return &NoteHandler{svc: svc}
}

// List godoc
// @Summary List notes
// @Tags notes
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Note
// @Failure 401 {object} model.ErrorResponse
// @Router /notes [get]
func (h *NoteHandler) List(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		writeError(c, service.ErrUnauthenticated)
		return
	}
	notes, err := h.svc.List(c.Request.Context(), user.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, notes)
}

// Get godoc
// @Summary Get a note
// @Description Responds with null when the note does not exist or belongs to someone else.
// @Tags notes
// @Produce json
// @Security BearerAuth
// @Param id path int true "Note ID"
// @Success 200 {object} model.Note
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /notes/{id} [get]
func (h *NoteHandler) Get(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		writeError(c, service.ErrUnauthenticated)
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	note, err := h.svc.Get(c.Request.Context(), user.ID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, note)
}

// Create godoc
// @Summary Create a note
// @Tags notes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.CreateNoteRequest true "Note; relatedDate is RFC 3339"
// @Success 201 {object} model.Note
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /notes [post]
func (h *NoteHandler) Create(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		writeError(c, service.ErrUnauthenticated)
		return
	}
	var req model.CreateNoteRequest
	if !bindJSON(c, &req) {
		return
	}
	note, err := h.svc.Create(c.Request.Context(), user.ID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, note)
}

// Update godoc
// @Summary Update a note
// @Tags notes
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Note ID"
// @Param request body model.UpdateNoteRequest true "Fields to change"
// @Success 200 {object} model.Note
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Router /notes/{id} [patch]
func (h *NoteHandler) Update(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		writeError(c, service.ErrUnauthenticated)
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req model.UpdateNoteRequest
	if !bindJSON(c, &req) {
		return
	}
	note, err := h.svc.Update(c.Request.Context(), user.ID, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, note)
}

// Delete godoc
// @Summary Delete a note
// @Tags notes
// @Security BearerAuth
// @Param id path int true "Note ID"
// @Success 204
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Router /notes/{id} [delete]
func (h *NoteHandler) Delete(c *gin.Context) {
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
