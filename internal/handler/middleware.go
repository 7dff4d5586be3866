package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/bookmark-notes/backend/internal/model"
	"github.com/bookmark-notes/backend/internal/service"
	"github.com/bookmark-notes/backend/internal/token"
	"github.com/gin-gonic/gin"
)

const (
	authUserKey        = "auth_user"
	refreshIdentityKey = "refresh_identity"
	loggerKey          = "logger"
)

type Policy int

const (
	// PolicyAccess is the default for any route missing from the table.
	PolicyAccess Policy = iota
	PolicyPublic
	PolicyRefresh
)

// RoutePolicies maps "METHOD /route/pattern" to the guard that runs before
// the handler.
type RoutePolicies map[string]Policy

func (p RoutePolicies) lookup(method, fullPath string) Policy {
	if policy, ok := p[method+" "+fullPath]; ok {
		return policy
	}
	return PolicyAccess
}

type TokenVerifier interface {
	VerifyAccess(tokenStr string) (*token.Claims, error)
	VerifyRefresh(tokenStr string) (*token.Claims, error)
}

type UserLoader interface {
	GetUser(ctx context.Context, id int64) (*model.User, error)
}

// Authenticate applies the route's policy. Unmatched routes are passed
// through so the router can answer 404.
func Authenticate(policies RoutePolicies, tokens TokenVerifier, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || c.FullPath() == "" {
			c.Next()
			return
		}

		switch policies.lookup(c.Request.Method, c.FullPath()) {
		case PolicyPublic:
			c.Next()
			return
		case PolicyRefresh:
			raw, ok := bearerToken(c)
			if !ok {
				abortUnauthenticated(c)
				return
			}
			claims, err := tokens.VerifyRefresh(raw)
			if err != nil {
				abortUnauthenticated(c)
				return
			}
			id, _ := claims.UserID()
			c.Set(refreshIdentityKey, &model.RefreshIdentity{ID: id, RefreshToken: raw})
			c.Next()
		default:
			raw, ok := bearerToken(c)
			if !ok {
				abortUnauthenticated(c)
				return
			}
			claims, err := tokens.VerifyAccess(raw)
			if err != nil {
				abortUnauthenticated(c)
				return
			}
			id, _ := claims.UserID()
			user, err := users.GetUser(c.Request.Context(), id)
			if err != nil {
				if errors.Is(err, service.ErrNotFound) {
					abortUnauthenticated(c)
					return
				}
				writeError(c, err)
				c.Abort()
				return
			}
			c.Set(authUserKey, &model.AuthUser{ID: user.ID, Email: user.Email, User: user})
			c.Next()
		}
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	scheme, raw, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

func abortUnauthenticated(c *gin.Context) {
	writeError(c, service.ErrUnauthenticated)
	c.Abort()
}

func GetAuthUser(c *gin.Context) *model.AuthUser {
	if value, ok := c.Get(authUserKey); ok {
		if user, ok := value.(*model.AuthUser); ok {
			return user
		}
	}
	return nil
}

func GetRefreshIdentity(c *gin.Context) *model.RefreshIdentity {
	if value, ok := c.Get(refreshIdentityKey); ok {
		if identity, ok := value.(*model.RefreshIdentity); ok {
			return identity
		}
	}
	return nil
}

func CORSMiddleware(allowedOrigins []string) gin.HandlerFunc {
	originMap := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed == "" {
			continue
		}
		originMap[trimmed] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if _, ok := originMap[origin]; ok {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
				c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
				c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			}
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// ContextLogger makes logger available to handlers through loggerFrom.
func ContextLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(loggerKey, logger)
		c.Next()
	}
}

func loggerFrom(c *gin.Context) *slog.Logger {
	if value, ok := c.Get(loggerKey); ok {
		if logger, ok := value.(*slog.Logger); ok {
			return logger
		}
	}
	return slog.Default()
}

// RequestLogger logs one line per request. Headers are never logged since
// they carry bearer tokens.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		attrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", c.FullPath(),
			"status", status,
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if user := GetAuthUser(c); user != nil {
			attrs = append(attrs, "user_id", user.ID)
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.ErrorContext(c.Request.Context(), "request", attrs...)
		case status >= http.StatusBadRequest:
			logger.WarnContext(c.Request.Context(), "request", attrs...)
		default:
			logger.InfoContext(c.Request.Context(), "request", attrs...)
		}
	}
}

func Recovery(logger *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.ErrorContext(c.Request.Context(), "panic recovered", "panic", recovered, "path", c.Request.URL.Path)
		c.AbortWithStatusJSON(http.StatusInternalServerError, model.ErrorResponse{Error: "server error"})
	})
}
