package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/grant-portal/internal/types"
)

// HTTPStatus returns the HTTP status code for an error returned by a service.
func HTTPStatus(err error) int {
	var (
		validation   *types.ErrValidation
		notFound     *types.ErrNotFound
		conflict     *types.ErrStateConflict
		transition   *types.ErrInvalidTransition
		unauthorized *types.ErrUnauthorized
		forbidden    *types.ErrForbidden
		emailTaken   *types.ErrEmailAlreadyExists
		badLogin     *types.ErrInvalidCredentials
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &conflict), errors.As(err, &transition):
		return http.StatusBadRequest
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &unauthorized), errors.As(err, &badLogin):
		return http.StatusUnauthorized
	case errors.As(err, &forbidden):
		return http.StatusForbidden
	case errors.As(err, &emailTaken):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage is the error text sent to clients. Server errors never leak
// their cause.
func publicMessage(err error, status int) string {
	if status >= http.StatusInternalServerError {
		return "Server error"
	}
	var notFound *types.ErrNotFound
	if errors.As(err, &notFound) {
		return capitalize(notFound.Error())
	}
	return err.Error()
}

func capitalize(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
