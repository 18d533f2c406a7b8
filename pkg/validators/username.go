package validators

import (
	"errors"
	"unicode"
	"unicode/utf8"
)

const maxUsernameLength = 64

var (
	ErrUsernameEmpty   = errors.New("no username provided")
	ErrUsernameTooLong = errors.New("username is too long")
	ErrUsernameInvalid = errors.New("username contains invalid characters")
)

// UsernameValidator expects an already trimmed username
func UsernameValidator(u string) error {
	if u == "" {
		return ErrUsernameEmpty
	}

	if utf8.RuneCountInString(u) > maxUsernameLength {
		return ErrUsernameTooLong
	}

	for _, r := range u {
		if unicode.IsControl(r) {
			return ErrUsernameInvalid
		}
	}

	return nil
}
