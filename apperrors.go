package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// AppError is the one error shape handlers surface to clients. The taxonomy
// maps to stable statuses: NotFound 404, Unauthorized 401, Forbidden 403,
// Validation 400, Conflict 409. Anything else is an opaque 500.
type AppError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *AppError) Error() string { return e.Message }

func errNotFound(resource, field string, value any) *AppError {
	return &AppError{Status: http.StatusNotFound, Message: fmt.Sprintf("%s not found with %s: %v", resource, field, value)}
}

func errUnauthorized(msg string) *AppError {
	return &AppError{Status: http.StatusUnauthorized, Message: msg}
}

func errForbidden(msg string) *AppError {
	return &AppError{Status: http.StatusForbidden, Message: msg}
}

func errValidation(msg string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Message: msg}
}

func errConflict(msg string) *AppError {
	return &AppError{Status: http.StatusConflict, Message: msg}
}

// bindError converts a gin binding failure into a Validation error, with a
// field-level message map when the failure came from struct validation tags.
func bindError(err error) *AppError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[fe.Field()] = fmt.Sprintf("failed on the '%s' rule", fe.Tag())
		}
		return &AppError{Status: http.StatusBadRequest, Message: "validation failed", Fields: fields}
	}
	return errValidation(err.Error())
}

// respondError writes err as the structured error payload. Storage failures
// and other unknown errors never leak their details to clients.
func respondError(c *gin.Context, err error) {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		appErr = &AppError{Status: http.StatusInternalServerError, Message: "internal server error"}
	}
	body := gin.H{
		"status":    appErr.Status,
		"message":   appErr.Message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if len(appErr.Fields) > 0 {
		body["errors"] = appErr.Fields
	}
	c.JSON(appErr.Status, body)
}
