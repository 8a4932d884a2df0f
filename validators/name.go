package validators

import (
	"errors"
	"strings"
)

var (
	ErrNameEmpty   = errors.New("no display name provided")
	ErrNameTooLong = errors.New("display name is too long")
)

func NameValidator(n string) error {
	if strings.TrimSpace(n) == "" {
		return ErrNameEmpty
	}

	if len(n) > 100 {
		return ErrNameTooLong
	}

	return nil
}
