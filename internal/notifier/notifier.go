// Package notifier emails run summaries.
package notifier

import (
	"fmt"

	"github.com/ibeckermayer/apply4me/internal/config"
	"github.com/ibeckermayer/apply4me/internal/notifier/providers"
	"github.com/ibeckermayer/apply4me/internal/report"
)

// Notifier handles sending run summaries
type Notifier struct {
	sender Sender
	to     string
}

// Sender defines the interface for email sending
type Sender interface {
	Send(to, subject, htmlBody, plainBody string) error
}

// New creates a new notifier delivering to the given address
func New(sender Sender, to string) *Notifier {
	return &Notifier{sender: sender, to: to}
}

// NewFromConfig creates an SMTP notifier, or returns nil when email is disabled
func NewFromConfig(cfg config.EmailConfig) (*Notifier, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if cfg.SMTPHost == "" || cfg.ToAddr == "" {
		return nil, fmt.Errorf("email is enabled but smtp_host or to_address is missing")
	}

	from := cfg.FromAddr
	if from == "" {
		from = cfg.SMTPUser
	}
	sender := providers.NewSMTPSender(
		cfg.SMTPHost,
		cfg.SMTPPort,
		cfg.SMTPUser,
		cfg.SMTPPass,
		from,
	)

	return New(sender, cfg.ToAddr), nil
}

// SendReport sends a run summary
func (n *Notifier) SendReport(r *report.Report) error {
	return n.sender.Send(n.to, r.Subject, r.HTMLBody, r.PlainBody)
}
