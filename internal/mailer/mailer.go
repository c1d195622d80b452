// Package mailer sends transactional email.
package mailer

import (
	"fmt"
	"net/smtp"

	"prismic/internal/middleware"
)

// Mailer sends application email. A nil-configured Mailer drops messages,
// so callers never have to branch on whether SMTP is set up.
type Mailer struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// New builds a Mailer. An empty host disables sending.
func New(host, port, username, password, from string) *Mailer {
	return &Mailer{host: host, port: port, username: username, password: password, from: from}
}

// SendWelcome delivers the signup greeting asynchronously. Failures are
// logged, never surfaced: registration must not depend on email delivery.
func (m *Mailer) SendWelcome(email, username string) {
	if m == nil || m.host == "" {
		return
	}
	go func() {
		subject := "Welcome to Prismic"
		body := fmt.Sprintf(
			"Hi %s,\r\n\r\nYour account is ready. Generate something beautiful.\r\n",
			username,
		)
		msg := fmt.Sprintf(
			"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s",
			m.from, email, subject, body,
		)

		addr := m.host + ":" + m.port
		auth := smtp.PlainAuth("", m.username, m.password, m.host)
		if err := smtp.SendMail(addr, auth, m.from, []string{email}, []byte(msg)); err != nil {
			middleware.Logger.Warn("welcome email failed",
				"email", email,
				"error", err.Error(),
			)
		}
	}()
}
