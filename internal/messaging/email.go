package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/pauhq/pau/internal/models"
)

// DefaultEmailSubject is used when an inbound email carries no subject.
const DefaultEmailSubject = "PAU"

// EmailSender sends one email. Implementations can be swapped without
// changing callers.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// EmailOpts holds configuration options for the SendGrid sender.
type EmailOpts struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// EmailOption defines a configuration option for the SendGrid sender.
type EmailOption func(*EmailOpts)

// WithSendGridAPIKey sets the SendGrid API key.
func WithSendGridAPIKey(key string) EmailOption {
	return func(o *EmailOpts) { o.APIKey = key }
}

// WithFromEmail sets the sending address.
func WithFromEmail(from string) EmailOption {
	return func(o *EmailOpts) { o.FromEmail = from }
}

// WithFromName sets the sender display name.
func WithFromName(name string) EmailOption {
	return func(o *EmailOpts) { o.FromName = name }
}

// SendGridSender sends emails via the SendGrid API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

// NewSendGridSender creates a SendGrid sender, falling back to the
// SENDGRID_API_KEY and EMAIL_FROM environment variables for unset options.
func NewSendGridSender(opts ...EmailOption) (*SendGridSender, error) {
	var cfg EmailOpts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("SENDGRID_API_KEY")
	}
	if cfg.FromEmail == "" {
		cfg.FromEmail = os.Getenv("EMAIL_FROM")
	}
	if cfg.FromName == "" {
		cfg.FromName = "PAU"
	}
	slog.Debug("SendGrid sender config loaded", "APIKey_set", cfg.APIKey != "", "FromEmail_set", cfg.FromEmail != "")

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("sendgrid API key must be provided")
	}
	if cfg.FromEmail == "" {
		return nil, fmt.Errorf("from email must be provided")
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
	}, nil
}

// FromEmail returns the configured sending address.
func (s *SendGridSender) FromEmail() string {
	return s.fromEmail
}

// Send sends a plain text email via SendGrid.
func (s *SendGridSender) Send(ctx context.Context, to, subject, body string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail("", to)
	message := mail.NewSingleEmail(from, subject, recipient, body, body)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		slog.Error("SendGrid send failed", "to", to, "error", err)
		return fmt.Errorf("failed to send email to %s: %w", to, err)
	}
	if response.StatusCode >= 400 {
		slog.Error("SendGrid send rejected", "to", to, "status", response.StatusCode, "body", response.Body)
		return fmt.Errorf("sendgrid rejected email to %s with status %d", to, response.StatusCode)
	}
	slog.Debug("SendGrid email sent", "to", to, "status", response.StatusCode)
	return nil
}

// ReplySubject builds the outbound subject for an inbound email. Subjects
// already carrying a reply prefix are kept as-is so threads do not grow
// "Re: Re:" chains.
func ReplySubject(subject string) string {
	trimmed := strings.TrimSpace(subject)
	if trimmed == "" {
		return DefaultEmailSubject
	}
	if strings.HasPrefix(strings.ToLower(trimmed), "re:") {
		return trimmed
	}
	return "Re: " + trimmed
}

// EmailDispatcher delivers email replies through an EmailSender.
type EmailDispatcher struct {
	sender EmailSender
}

// NewEmailDispatcher creates a dispatcher for the given email sender.
func NewEmailDispatcher(sender EmailSender) *EmailDispatcher {
	return &EmailDispatcher{sender: sender}
}

// Deliver replies to the inbound sender, threading on the inbound subject.
func (d *EmailDispatcher) Deliver(ctx context.Context, msg models.InboundMessage, text string) error {
	return d.sender.Send(ctx, msg.SenderID, ReplySubject(msg.Subject), text)
}
