package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/bookmark-notes/backend/internal/model"
	"github.com/bookmark-notes/backend/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const validationFailed = "validation failed"

var setupValidatorOnce sync.Once

// setupValidation makes JSON decoding strict and reports validation errors
// by their JSON field names.
func setupValidation() {
	setupValidatorOnce.Do(func() {
		binding.EnableDecoderDisallowUnknownFields = true
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			v.RegisterTagNameFunc(func(f reflect.StructField) string {
				name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
				if name == "-" {
					return ""
				}
				if name == "" {
					return f.Name
				}
				return name
			})
		}
	})
}

// writeError is the single place service errors become HTTP responses.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidOwner):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, model.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{Error: err.Error()})
	case errors.Is(err, service.ErrAccessDenied):
		c.JSON(http.StatusForbidden, model.ErrorResponse{Error: err.Error()})
	default:
		loggerFrom(c).ErrorContext(c.Request.Context(), "request failed", "path", c.Request.URL.Path, "error", err)
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: "server error"})
	}
}

// bindJSON decodes the body into req and answers 400 on failure.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		writeBindError(c, err)
		return false
	}
	return true
}

func writeBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = describeRule(fe)
		}
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: validationFailed, Fields: fields})
		return
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:  validationFailed,
			Fields: map[string]string{typeErr.Field: "has the wrong type"},
		})
		return
	}

	c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "invalid request body"})
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must not be empty"
	default:
		return "failed " + fe.Tag()
	}
}

// pathID parses the :id route parameter and answers 400 when it is not a
// positive integer.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Error:  validationFailed,
			Fields: map[string]string{"id": "must be a positive integer"},
		})
		return 0, false
	}
	return id, true
}
