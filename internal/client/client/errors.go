package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/studioportal/internal/common"
)

var (
	ErrUnavailable = errors.New("server unavailable")
	ErrNotSignedIn = errors.New("not signed in")
	ErrRateLimited = errors.New("rate limited")
	// ErrEvicted ends a realtime subscription the server dropped because the
	// client fell behind.
	ErrEvicted = errors.New("realtime subscription evicted")
)

// APIError is an error response of the portal API. It unwraps to the
// sentinel matching Code, so callers use errors.Is with the common errors.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("portal api: %d %s", e.Status, e.Code)
	}
	return fmt.Sprintf("portal api: %d %s: %s", e.Status, e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Code {
	case "rate_limited":
		return ErrRateLimited
	case "unavailable":
		return ErrUnavailable
	case "":
		return errorForStatus(e.Status)
	}
	return common.ErrorForCode(e.Code)
}

func errorForStatus(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return common.ErrorUnauthorized
	case http.StatusForbidden:
		return common.ErrorForbidden
	case http.StatusNotFound:
		return common.ErrorNotFound
	case http.StatusConflict:
		return common.ErrorAlreadyExists
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return common.ErrorValidation
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return ErrUnavailable
	}
	return common.ErrorInternal
}

// IsAuthError reports whether err means the stored credentials are no
// longer usable.
func IsAuthError(err error) bool {
	return errors.Is(err, common.ErrorUnauthorized) ||
		errors.Is(err, common.ErrInvalidToken) ||
		errors.Is(err, common.ErrTokenExpired) ||
		errors.Is(err, common.ErrRefreshTokenExpired) ||
		errors.Is(err, ErrNotSignedIn)
}
