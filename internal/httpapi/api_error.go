package httpapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/John-Robertt/cvt/internal/compiler"
	"github.com/John-Robertt/cvt/internal/model"
	"github.com/John-Robertt/cvt/internal/render"
)

// APIError is used by the HTTP layer for request validation and a few
// HTTP-specific errors.
type APIError struct {
	Status   int
	AppError model.AppError
	Cause    error
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.AppError.Code, e.AppError.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.AppError.Code, e.AppError.Message, e.Cause)
}

func (e *APIError) Unwrap() error { return e.Cause }

func apiError(status int, app model.AppError, cause error) error {
	return &APIError{Status: status, AppError: app, Cause: cause}
}

func requestError(code, message, hint string) error {
	return apiError(http.StatusBadRequest, model.AppError{
		Code:    code,
		Message: message,
		Stage:   "validate_request",
		Hint:    hint,
	}, nil)
}

func writeErrorFromErr(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	var ae *APIError
	if errors.As(err, &ae) {
		WriteError(w, r, ae.Status, ae.AppError)
		return
	}

	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		status := http.StatusInternalServerError
		if ce.AppError.Code == "FILTER_SYNTAX_ERROR" {
			status = http.StatusBadRequest
		}
		WriteError(w, r, status, ce.AppError)
		return
	}

	var re *render.RenderError
	if errors.As(err, &re) {
		status := http.StatusInternalServerError
		if re.AppError.Code == "UNSUPPORTED_TARGET" {
			status = http.StatusBadRequest
		}
		WriteError(w, r, status, re.AppError)
		return
	}

	// Fallback: internal bug.
	WriteError(w, r, http.StatusInternalServerError, model.AppError{
		Code:    "INTERNAL_ERROR",
		Message: "服务端内部错误",
		Stage:   "internal",
		Hint:    err.Error(),
	})
}
