package handlers

import (
	"cms/logger"
	"cms/mail"
	"cms/ordering"
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Response struct {
	Error string `json:"error"`
}

var (
	OKResponse = Response{}

	invalidator ordering.Invalidator = ordering.InvalidatorFunc(func(...string) {})
	mailer      mail.Sender          = mail.LogSender{}
)

// Init sets the collaborators shared by all dashboard handlers
func Init(inv ordering.Invalidator, sender mail.Sender) {
	if inv != nil {
		invalidator = inv
	}
	if sender != nil {
		mailer = sender
	}
}

func init() {
	// report validation errors with the JSON names the dashboard posts
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "url", "http_url":
		return "must be a valid URL"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + fe.Param()
	}
	return "is invalid"
}

// bindJSON binds the request body, answering 400 with per-field messages on failure
func bindJSON(c *gin.Context, obj any) bool {
	return checkBinding(c, c.ShouldBindJSON(obj))
}

// trimmer is implemented by requests whose fields are trimmed before the binding rules run
type trimmer interface {
	trim()
}

// bindTrimmedJSON is bindJSON for requests that must be trimmed before validation
func bindTrimmedJSON(c *gin.Context, obj trimmer) bool {
	if c.Request.Body == nil {
		return checkBinding(c, errors.New("missing body"))
	}
	if err := json.NewDecoder(c.Request.Body).Decode(obj); err != nil {
		return checkBinding(c, err)
	}
	obj.trim()
	return checkBinding(c, binding.Validator.ValidateStruct(obj))
}

func checkBinding(c *gin.Context, err error) bool {
	if err == nil {
		return true
	}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		verr := &ordering.ValidationError{}
		for _, fe := range ve {
			verr.Add(fe.Field(), fieldMessage(fe))
		}
		respondError(c, verr)
		return false
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request"})
	return false
}

// respondError maps domain errors to status codes. Storage details never reach the client.
func respondError(c *gin.Context, err error) {
	var verr *ordering.ValidationError
	var serr *ordering.StorageError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "please check the submitted data", "fieldErrors": verr.Fields})
	case errors.Is(err, ordering.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "permission denied"})
	case errors.Is(err, ordering.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.As(err, &serr):
		c.JSON(http.StatusInternalServerError, gin.H{"error": serr.Error()})
	default:
		logger.L().Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// dbError logs err and answers with a generic storage failure
func dbError(c *gin.Context, op string, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, ordering.ErrNotFound)
		return
	}
	logger.L().Error("database error", zap.String("op", op), zap.Error(err))
	respondError(c, &ordering.StorageError{Op: op, Err: err})
}

type IDRequest struct {
	ID string `json:"id" binding:"required"`
}

type ToggleRequest struct {
	ID       string `json:"id" binding:"required"`
	IsActive *bool  `json:"isActive" binding:"required"`
}

type MoveRequest struct {
	ID        string `json:"id" binding:"required"`
	Direction string `json:"direction" binding:"required,oneof=up down"`
}

func queryInt(c *gin.Context, name string, def, min, max int) int {
	v, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return def
	}
	if v < min {
		return min
	}
	if max > 0 && v > max {
		return max
	}
	return v
}
