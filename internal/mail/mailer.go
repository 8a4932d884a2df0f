// Package mail delivers transactional email over SMTP
package mail

import (
	"errors"

	"gopkg.in/gomail.v2"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer is an explicitly constructed SMTP client. It holds its own
// dialer instead of reading process-wide configuration on every send.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
}

func New(cfg Config) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (m *Mailer) Send(to, subject, html string) error {
	if to == m.from {
		return errors.New("invalid recipient address")
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)

	return m.dialer.DialAndSend(msg)
}
