// Package apperr defines the error type handlers return and its JSON shape.
// The message is rendered under "error" so clients can surface it directly.
package apperr

import (
	"fmt"
	"net/http"
)

type AppError struct {
	Code    string        `json:"code"`
	Status  int           `json:"-"`
	Message string        `json:"error"`
	Details []ErrorDetail `json:"details,omitempty"`
}

type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

func New(code string, status int, msg string) *AppError {
	return &AppError{Code: code, Status: status, Message: msg}
}

func NotFound(entity, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Status:  http.StatusNotFound,
		Message: fmt.Sprintf("%s with id %s not found", entity, id),
	}
}

func Validation(details []ErrorDetail) *AppError {
	msg := "Validation failed"
	if len(details) == 1 {
		msg = details[0].Message
	}
	return &AppError{
		Code:    "VALIDATION_FAILED",
		Status:  http.StatusUnprocessableEntity,
		Message: msg,
		Details: details,
	}
}

func BadRequest(msg string) *AppError {
	return &AppError{Code: "INVALID_PAYLOAD", Status: http.StatusBadRequest, Message: msg}
}

func Unauthorized(msg string) *AppError {
	return &AppError{Code: "UNAUTHORIZED", Status: http.StatusUnauthorized, Message: msg}
}

func Forbidden(msg string) *AppError {
	return &AppError{Code: "FORBIDDEN", Status: http.StatusForbidden, Message: msg}
}

func Conflict(msg string) *AppError {
	return &AppError{Code: "CONFLICT", Status: http.StatusConflict, Message: msg}
}

func Unavailable(msg string) *AppError {
	return &AppError{Code: "UNAVAILABLE", Status: http.StatusServiceUnavailable, Message: msg}
}

func BadGateway(msg string) *AppError {
	return &AppError{Code: "UPSTREAM_FAILED", Status: http.StatusBadGateway, Message: msg}
}
