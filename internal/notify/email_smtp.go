package notify

import (
	"context"
	"fmt"
	"strings"

	gomail "github.com/wneessen/go-mail"

	"github.com/summitlift/elevator-site/pkg/logging"
)

// SMTPConfig is a per-form SMTP transport as configured by site editors.
type SMTPConfig struct {
	Host     string
	Port     int
	Secure   bool // implicit TLS (usually port 465); otherwise STARTTLS when offered
	User     string
	Password string
}

// SMTPSender delivers mail through an SMTP relay using go-mail.
type SMTPSender struct {
	cfg    SMTPConfig
	logger *logging.Logger
}

// NewSMTPSender creates an SMTP sender. Host is required.
func NewSMTPSender(cfg SMTPConfig, logger *logging.Logger) (*SMTPSender, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, fmt.Errorf("notify: smtp host is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SMTPSender{cfg: cfg, logger: logger}, nil
}

func (s *SMTPSender) clientOptions() []gomail.Option {
	opts := []gomail.Option{}
	if s.cfg.Port > 0 {
		opts = append(opts, gomail.WithPort(s.cfg.Port))
	}
	if s.cfg.Secure {
		opts = append(opts, gomail.WithSSL())
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}
	if s.cfg.User != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.User),
			gomail.WithPassword(s.cfg.Password),
		)
	}
	return opts
}

// buildMessage converts an EmailMessage into a go-mail message.
func buildMessage(msg EmailMessage) (*gomail.Msg, error) {
	if err := msg.validate(); err != nil {
		return nil, err
	}
	m := gomail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return nil, fmt.Errorf("notify: invalid from address: %w", err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("notify: invalid recipient: %w", err)
	}
	if msg.ReplyTo != "" {
		if err := m.ReplyTo(msg.ReplyTo); err != nil {
			return nil, fmt.Errorf("notify: invalid reply-to: %w", err)
		}
	}
	m.Subject(msg.Subject)

	switch {
	case msg.HTML != "":
		m.SetBodyString(gomail.TypeTextHTML, msg.HTML)
		if msg.Body != "" {
			m.AddAlternativeString(gomail.TypeTextPlain, msg.Body)
		}
	default:
		m.SetBodyString(gomail.TypeTextPlain, msg.Body)
	}
	return m, nil
}

// Send dials the relay and delivers msg. When msg.From is empty the SMTP
// user is used as the sender address.
func (s *SMTPSender) Send(ctx context.Context, msg EmailMessage) error {
	if msg.From == "" {
		msg.From = FormatAddress(DefaultFromName, s.cfg.User)
	}
	m, err := buildMessage(msg)
	if err != nil {
		return err
	}

	client, err := gomail.NewClient(s.cfg.Host, s.clientOptions()...)
	if err != nil {
		return fmt.Errorf("notify: smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		s.logger.Error("smtp send failed", "error", err, "host", s.cfg.Host, "recipients", len(msg.To))
		return fmt.Errorf("notify: smtp send failed: %w", err)
	}

	s.logger.Info("email sent via smtp", "host", s.cfg.Host, "recipients", len(msg.To), "subject", msg.Subject)
	return nil
}

var _ EmailSender = (*SMTPSender)(nil)
