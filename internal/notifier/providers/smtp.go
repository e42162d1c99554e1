package providers

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
)

// SMTPSender sends emails via SMTP
type SMTPSender struct {
	host     string
	port     int
	username string
	password string
	from     string
}

// NewSMTPSender creates a new SMTP sender
func NewSMTPSender(host string, port int, username, password, from string) *SMTPSender {
	return &SMTPSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// Message builds the multipart message Send delivers
func (s *SMTPSender) Message(to, subject, htmlBody, plainBody string) *email.Email {
	mail := email.NewEmail()
	mail.From = fmt.Sprintf("apply4me <%s>", s.from)
	mail.To = []string{to}
	mail.Subject = subject
	mail.Text = []byte(plainBody)
	mail.HTML = []byte(htmlBody)
	return mail
}

// Send sends an email via SMTP
func (s *SMTPSender) Send(to, subject, htmlBody, plainBody string) error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	mail := s.Message(to, subject, htmlBody, plainBody)

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	err := mail.Send(addr, auth)
	if err != nil && auth != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
