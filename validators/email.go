// Package validators contains validators found throughout the application
// that have been abstracted away from the main code
package validators

import (
	"errors"
	"net/mail"
	"strings"
)

// 254 octets is the longest address that fits an SMTP envelope
const maxEmailLen = 254

var (
	ErrEmailEmpty   = errors.New("no email address provided")
	ErrEmailInvalid = errors.New("invalid email address provided")
)

// EmailValidator accepts a bare address only. Display-name forms like
// "Ann <a@x.com>" parse fine but are not a valid account email.
func EmailValidator(e string) error {
	e = strings.TrimSpace(e)

	if e == "" {
		return ErrEmailEmpty
	}

	if len(e) > maxEmailLen {
		return ErrEmailInvalid
	}

	addr, err := mail.ParseAddress(e)
	if err != nil || addr.Address != e {
		return ErrEmailInvalid
	}

	return nil
}
