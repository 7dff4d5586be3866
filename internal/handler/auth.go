package handler

import (
	"net/http"

	"github.com/bookmark-notes/backend/internal/model"
	"github.com/bookmark-notes/backend/internal/service"
	"github.com/bookmark-notes/backend/internal/token"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Signup godoc
// @Summary Create an account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.AuthRequest true "Email and password"
// @Success 201 {object} model.TokensResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /auth/signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req model.AuthRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.svc.Signup(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tokensResponse(pair))
}

// Signin godoc
// @Summary Sign in
// @Description Issues a new token pair. Any earlier refresh token stops working.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.AuthRequest true "Email and password"
// @Success 200 {object} model.TokensResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /auth/signin [post]
func (h *AuthHandler) Signin(c *gin.Context) {
	var req model.AuthRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.svc.Signin(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokensResponse(pair))
}

// Logout godoc
// @Summary Log out
// @Tags auth
// @Security BearerAuth
// @Success 200
// @Failure 401 {object} model.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		writeError(c, service.ErrUnauthenticated)
		return
	}
	if err := h.svc.Logout(c.Request.Context(), user.ID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// Refresh godoc
// @Summary Rotate the token pair
// @Description Send the refresh token as the bearer token. It is single use.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.TokensResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	identity := GetRefreshIdentity(c)
	if identity == nil {
		writeError(c, service.ErrUnauthenticated)
		return
	}

	pair, err := h.svc.Refresh(c.Request.Context(), identity.ID, identity.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokensResponse(pair))
}

func tokensResponse(pair token.Pair) model.TokensResponse {
	return model.TokensResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}
}
