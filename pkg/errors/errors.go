package nearbuy_errors

import (
	"errors"
	"net/http"
	"time"
)

// Common errors
var (
	ErrValidation       = errors.New("invalid input")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrForbidden        = errors.New("forbidden")
	ErrNotFound         = errors.New("not found")
	ErrInvalidReference = errors.New("invalid reference")
	ErrExpiredWindow    = errors.New("edit window expired")
	ErrAlreadyDeleted   = errors.New("message already deleted")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrAlreadyExists    = errors.New("already exists")
)

// Code maps an error to the stable code clients receive in realtime error
// events and REST responses.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "VALIDATION_ERROR"
	case errors.Is(err, ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, ErrForbidden):
		return "ACCESS_DENIED"
	case errors.Is(err, ErrNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrInvalidReference):
		return "INVALID_REFERENCE"
	case errors.Is(err, ErrExpiredWindow):
		return "EDIT_WINDOW_EXPIRED"
	case errors.Is(err, ErrAlreadyDeleted):
		return "ALREADY_DELETED"
	case errors.Is(err, ErrAlreadyExists):
		return "ALREADY_EXISTS"
	case errors.Is(err, ErrStoreUnavailable):
		return "STORE_UNAVAILABLE"
	default:
		return "INTERNAL_ERROR"
	}
}

// Message returns the client-safe description for an error. Known taxonomy
// errors surface their own text; anything else is masked.
func Message(err error) string {
	for _, known := range []error{
		ErrValidation, ErrUnauthorized, ErrForbidden, ErrNotFound,
		ErrInvalidReference, ErrExpiredWindow, ErrAlreadyDeleted,
		ErrStoreUnavailable, ErrAlreadyExists,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "internal error"
}

// HTTPStatus maps an error to the REST status code for the same failure.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyDeleted), errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidReference), errors.Is(err, ErrExpiredWindow):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NowPtr returns a pointer to current time
func NowPtr() *time.Time {
	now := time.Now()
	return &now
}
