// Package apierr is the error envelope every handler answers with.
package apierr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bali-advisory/internal/domain/catalog"
	"bali-advisory/internal/domain/leads"
	"bali-advisory/internal/repository"
)

const (
	CodeBadRequest     = "BAD_REQUEST"
	CodeConflict       = "CONFLICT"
	CodeUnauthorized   = "UNAUTHORIZED"
	CodeForbidden      = "FORBIDDEN"
	CodeNotFound       = "NOT_FOUND"
	CodeUnknownProduct = "UNKNOWN_PRODUCT"
	CodePaymentError   = "PAYMENT_ERROR"
	CodeTierRequired   = "TIER_REQUIRED"
	CodeUnavailable    = "UNAVAILABLE"
	CodeInternal       = "INTERNAL"
)

type Response struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func JSON(c *gin.Context, status int, code, message string) {
	c.JSON(status, Response{Code: code, Message: message})
}

func Abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, Response{Code: code, Message: message})
}

func BadRequest(c *gin.Context, message string) {
	JSON(c, http.StatusBadRequest, CodeBadRequest, message)
}

func NotFound(c *gin.Context, message string) {
	JSON(c, http.StatusNotFound, CodeNotFound, message)
}

func Internal(c *gin.Context, message string) {
	JSON(c, http.StatusInternalServerError, CodeInternal, message)
}

// FromError maps domain sentinels onto a status and code. Anything unknown is
// a 500 with a generic message.
func FromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "not found")
	case errors.Is(err, repository.ErrDuplicate), errors.Is(err, leads.ErrDuplicateLead):
		JSON(c, http.StatusConflict, CodeConflict, err.Error())
	case errors.Is(err, catalog.ErrUnknownProduct):
		JSON(c, http.StatusBadRequest, CodeUnknownProduct, "unknown product")
	case errors.Is(err, leads.ErrInvalidEmail),
		errors.Is(err, leads.ErrNameRequired),
		errors.Is(err, leads.ErrInvalidSource),
		errors.Is(err, leads.ErrInvalidStatus):
		BadRequest(c, err.Error())
	default:
		Internal(c, "internal error")
	}
}
