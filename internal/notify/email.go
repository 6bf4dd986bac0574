package notify

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/summitlift/elevator-site/pkg/logging"
)

// EmailSender defines the interface for sending emails.
// Implementations can be swapped (SMTP, SES, SendGrid) without changing callers.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage represents an email to be sent.
type EmailMessage struct {
	From    string // "Display Name <address>"; senders fall back to their own default
	To      []string
	ReplyTo string
	Subject string
	Body    string // Plain text body
	HTML    string // Optional HTML body
}

func (m EmailMessage) validate() error {
	if len(m.To) == 0 {
		return fmt.Errorf("notify: message has no recipients")
	}
	return nil
}

// FormatAddress renders a From header value, quoting name when it holds
// characters such as commas or colons.
func FormatAddress(name, addr string) string {
	return (&mail.Address{Name: name, Address: addr}).String()
}

// splitAddress parses "Name <addr>" into its parts, falling back to
// treating the whole string as the address.
func splitAddress(s, defaultName string) (name, addr string) {
	s = strings.TrimSpace(s)
	if parsed, err := mail.ParseAddress(s); err == nil {
		if parsed.Name == "" {
			return defaultName, parsed.Address
		}
		return parsed.Name, parsed.Address
	}
	return defaultName, s
}

// SendGridSender sends emails via SendGrid API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    *logging.Logger
}

// SendGridConfig holds configuration for SendGrid.
type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
	// BaseURL overrides the mail send endpoint.
	BaseURL   string
}

// NewSendGridSender creates a new SendGrid email sender.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = DefaultFromName
	}
	client := sendgrid.NewSendClient(cfg.APIKey)
	if cfg.BaseURL != "" {
		client.BaseURL = cfg.BaseURL
	}
	return &SendGridSender{
		client:    client,
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

// Send sends an email via SendGrid.
func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}
	if err := msg.validate(); err != nil {
		return err
	}

	fromName, fromEmail := s.fromName, s.fromEmail
	if msg.From != "" {
		fromName, fromEmail = splitAddress(msg.From, s.fromName)
	}

	message := sgmail.NewV3Mail()
	message.SetFrom(sgmail.NewEmail(fromName, fromEmail))
	message.Subject = msg.Subject

	p := sgmail.NewPersonalization()
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail("", to))
	}
	message.AddPersonalizations(p)
	if msg.ReplyTo != "" {
		message.SetReplyTo(sgmail.NewEmail("", msg.ReplyTo))
	}

	text := msg.Body
	if text == "" {
		text = msg.Subject
	}
	message.AddContent(sgmail.NewContent("text/plain", text))
	if msg.HTML != "" {
		message.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		s.logger.Error("sendgrid send failed", "error", err, "recipients", len(msg.To))
		return fmt.Errorf("notify: sendgrid send failed: %w", err)
	}

	if response.StatusCode >= 400 {
		s.logger.Error("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
		return fmt.Errorf("notify: sendgrid returned status %d", response.StatusCode)
	}

	s.logger.Info("email sent via sendgrid", "recipients", len(msg.To), "subject", msg.Subject, "status", response.StatusCode)
	return nil
}

// StubEmailSender is a no-op sender for testing or when email is disabled.
type StubEmailSender struct {
	logger *logging.Logger
}

// NewStubEmailSender creates a stub email sender that logs but doesn't send.
func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

// Send logs the email but doesn't actually send it.
func (s *StubEmailSender) Send(ctx context.Context, msg EmailMessage) error {
	if err := msg.validate(); err != nil {
		return err
	}
	s.logger.Info("stub email sender: would send email", "to", msg.To, "subject", msg.Subject)
	return nil
}

var (
	_ EmailSender = (*SendGridSender)(nil)
	_ EmailSender = (*StubEmailSender)(nil)
)
