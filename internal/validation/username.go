package validation

import (
	"errors"
	"regexp"
	"strings"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{2,29}$`)

// ValidateUsername validates a public profile username
func ValidateUsername(username string) error {
	trimmed := strings.ToLower(strings.TrimSpace(username))

	if trimmed == "" {
		return errors.New("username is required")
	}

	if !usernamePattern.MatchString(trimmed) {
		return errors.New("username must be 3-30 characters, start with a letter or digit, and contain only lowercase letters, digits, hyphens and underscores")
	}

	return nil
}
