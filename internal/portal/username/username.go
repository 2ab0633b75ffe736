// Package username normalizes user-chosen handles.
package username

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/dmitrijs2005/studioportal/internal/common"
)

const (
	MinLen = 3
	MaxLen = 20
)

var (
	ErrTooShort = fmt.Errorf("%w: username must be at least %d characters", common.ErrorValidation, MinLen)
	ErrTooLong  = fmt.Errorf("%w: username must be at most %d characters", common.ErrorValidation, MaxLen)
)

// Sanitize lowercases in, maps whitespace, '-' and '.' to '_', drops anything
// outside [a-z0-9_], collapses '_' runs and trims them from both ends. Results
// outside [MinLen, MaxLen] are rejected, never truncated.
func Sanitize(in string) (string, error) {
	var b strings.Builder
	b.Grow(len(in))

	lastUnderscore := true // drops leading '_'
	for _, r := range strings.ToLower(in) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		case r == '_' || r == '-' || r == '.' || unicode.IsSpace(r):
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	out := strings.TrimRight(b.String(), "_")
	switch {
	case len(out) < MinLen:
		return "", ErrTooShort
	case len(out) > MaxLen:
		return "", ErrTooLong
	}
	return out, nil
}

// FromEmail derives a username candidate from the local part of an address.
func FromEmail(email string) (string, error) {
	local, _, _ := strings.Cut(email, "@")
	return Sanitize(local)
}
