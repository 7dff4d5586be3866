package handler

import (
	"log/slog"
	"net/http"

	"github.com/bookmark-notes/backend/internal/service"
	"github.com/gin-gonic/gin"
)

// DefaultPolicies lists every route that does not need an access token.
func DefaultPolicies() RoutePolicies {
	return RoutePolicies{
		http.MethodGet + " /":              PolicyPublic,
		http.MethodGet + " /ping":          PolicyPublic,
		http.MethodGet + " /openapi.json":  PolicyPublic,
		http.MethodPost + " /auth/signup":  PolicyPublic,
		http.MethodPost + " /auth/signin":  PolicyPublic,
		http.MethodPost + " /auth/refresh": PolicyRefresh,
	}
}

type RouterDeps struct {
	Auth           *service.AuthService
	Users          *service.UserService
	Bookmarks      *service.BookmarkService
	Notes          *service.NoteService
	Tokens         TokenVerifier
	Logger         *slog.Logger
	AllowedOrigins []string
}

func NewRouter(deps RouterDeps) *gin.Engine {
	setupValidation()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	r.Use(
		ContextLogger(logger),
		Recovery(logger),
		RequestLogger(logger),
		CORSMiddleware(deps.AllowedOrigins),
		Authenticate(DefaultPolicies(), deps.Tokens, deps.Users),
	)

	r.GET("/", Root)
	r.GET("/ping", Ping)
	r.GET("/openapi.json", OpenAPIDoc)

	auth := NewAuthHandler(deps.Auth)
	r.POST("/auth/signup", auth.Signup)
	r.POST("/auth/signin", auth.Signin)
	r.POST("/auth/logout", auth.Logout)
	r.POST("/auth/refresh", auth.Refresh)

	users := NewUserHandler(deps.Users)
	r.GET("/users/me", users.Me)
	r.PATCH("/users", users.Edit)

	bookmarks := NewBookmarkHandler(deps.Bookmarks)
	r.GET("/bookmarks", bookmarks.List)
	r.POST("/bookmarks", bookmarks.Create)
	r.GET("/bookmarks/:id", bookmarks.Get)
	r.PATCH("/bookmarks/:id", bookmarks.Update)
	r.DELETE("/bookmarks/:id", bookmarks.Delete)

	notes := NewNoteHandler(deps.Notes)
	r.GET("/notes", notes.List)
	r.POST("/notes", notes.Create)
	r.GET("/notes/:id", notes.Get)
	r.PATCH("/notes/:id", notes.Update)
	r.DELETE("/notes/:id", notes.Delete)

	return r
}
