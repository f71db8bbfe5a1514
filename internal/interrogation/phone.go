package interrogation

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidPhone is returned when the caller-supplied phone number is not a
// well-formed E.164-ish number. Fatal at the session-manager boundary: no
// session is created or mutated.
var ErrInvalidPhone = errors.New("invalid phone number")

var phonePattern = regexp.MustCompile(`^\+[1-9][0-9]{8,14}$`)

// NormalizePhone strips formatting characters and validates the number,
// returning the canonical +<digits> form.
func NormalizePhone(raw string) (string, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '(', ')', '.':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))

	if cleaned == "" {
		return "", ErrInvalidPhone
	}
	if !strings.HasPrefix(cleaned, "+") {
		cleaned = "+" + cleaned
	}
	if !phonePattern.MatchString(cleaned) {
		return "", ErrInvalidPhone
	}
	return cleaned, nil
}
