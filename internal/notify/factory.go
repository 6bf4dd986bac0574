package notify

import (
	"fmt"
	"strings"

	"github.com/summitlift/elevator-site/pkg/logging"
)

// DefaultFromName is the sender display name used when none is configured.
const DefaultFromName = "Summit Lift Website"

// SenderFactory returns the sender to use for a form's configured transport.
type SenderFactory func(cfg SMTPConfig) (EmailSender, error)

// SMTPFactory builds a fresh SMTP sender from each form's settings.
func SMTPFactory(logger *logging.Logger) SenderFactory {
	return func(cfg SMTPConfig) (EmailSender, error) {
		return NewSMTPSender(cfg, logger)
	}
}

// StaticFactory ignores the per-form transport and always returns sender.
// It serves API-based providers where credentials are process-wide.
func StaticFactory(sender EmailSender) SenderFactory {
	return func(SMTPConfig) (EmailSender, error) {
		if sender == nil {
			return nil, fmt.Errorf("notify: email sender not configured")
		}
		return sender, nil
	}
}

// ProviderConfig selects and configures the email provider.
type ProviderConfig struct {
	Provider       string // smtp, ses, sendgrid or stub
	SendGridAPIKey string
	SES            SESAPI
	FromName       string
}

// NewSenderFactory returns the factory for the configured provider.
func NewSenderFactory(cfg ProviderConfig, logger *logging.Logger) (SenderFactory, error) {
	if logger == nil {
		logger = logging.Default()
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "smtp":
		return SMTPFactory(logger), nil
	case "ses":
		sender := NewSESSender(cfg.SES, SESConfig{FromName: cfg.FromName}, logger)
		if sender == nil {
			return nil, fmt.Errorf("notify: ses provider requires an SES client")
		}
		return StaticFactory(sender), nil
	case "sendgrid":
		sender := NewSendGridSender(SendGridConfig{APIKey: cfg.SendGridAPIKey, FromName: cfg.FromName}, logger)
		if sender == nil {
			return nil, fmt.Errorf("notify: sendgrid provider requires SENDGRID_API_KEY")
		}
		return StaticFactory(sender), nil
	case "stub":
		return StaticFactory(NewStubEmailSender(logger)), nil
	default:
		return nil, fmt.Errorf("notify: unknown email provider %q", cfg.Provider)
	}
}
