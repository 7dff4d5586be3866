package handler

import (
	"net/http"

	"github.com/bookmark-notes/backend/internal/model"
	"github.com/bookmark-notes/backend/internal/service"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	svc *service.UserService
}

func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Me godoc
// @Summary Get current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.User
// @Failure 401 {object} model.ErrorResponse
// @Router /users/me [get]
func (h *UserHandler) Me(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		writeError(c, service.ErrUnauthenticated)
		return
	}
	c.JSON(http.StatusOK, user.User)
}

// Edit godoc
// @Summary Edit current user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body model.EditUserRequest true "Fields to change"
// @Success 200 {object} model.User
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Router /users [patch]
func (h *UserHandler) Edit(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		writeError(c, service.ErrUnauthenticated)
		return
	}

	var req model.EditUserRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.svc.EditUser(c.Request.Context(), user.ID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
