package common

import "errors"

// codes pairs sentinels with the stable string the HTTP API reports for them.
// Order matters: the first match wins.
var codes = []struct {
	code string
	err  error
}{
	{"refresh_token_expired", ErrRefreshTokenExpired},
	{"token_expired", ErrTokenExpired},
	{"invalid_token", ErrInvalidToken},
	{"unauthorized", ErrorUnauthorized},
	{"forbidden", ErrorForbidden},
	{"validation", ErrorValidation},
	{"not_found", ErrorNotFound},
	{"already_exists", ErrorAlreadyExists},
	{"invalid_transition", ErrInvalidTransition},
}

// ErrorCode returns the API code of err, or "internal".
func ErrorCode(err error) string {
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "internal"
}

// ErrorForCode is the inverse of ErrorCode. Unknown codes map to ErrorInternal.
func ErrorForCode(code string) error {
	for _, c := range codes {
		if c.code == code {
			return c.err
		}
	}
	return ErrorInternal
}
