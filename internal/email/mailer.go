package email

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"projecthub/internal/config"
	"projecthub/internal/monitoring"
	"projecthub/internal/service"

	"github.com/wneessen/go-mail"
)

// SMTPMailer delivers messages over plain SMTP with PLAIN auth. It
// implements service.Mailer.
type SMTPMailer struct {
	client    *mail.Client
	from      string
	logger    *slog.Logger
	telemetry monitoring.Telemetry
}

func NewSMTPMailer(cfg config.EmailConfig, logger *slog.Logger, telemetry monitoring.Telemetry) (*SMTPMailer, error) {
	client, err := mail.NewClient(cfg.Host,
		mail.WithPort(cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cfg.User),
		mail.WithPassword(cfg.Password),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}

	return &SMTPMailer{
		client:    client,
		from:      cfg.From,
		logger:    logger,
		telemetry: telemetry,
	}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg service.Message) error {
	out := mail.NewMsg()
	if err := out.From(m.from); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if msg.ToName != "" {
		if err := out.AddToFormat(msg.ToName, msg.To); err != nil {
			return fmt.Errorf("invalid recipient address: %w", err)
		}
	} else {
		if err := out.To(msg.To); err != nil {
			return fmt.Errorf("invalid recipient address: %w", err)
		}
	}

	out.Subject(msg.Subject)
	out.SetBodyString(mail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		out.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	}
	for _, att := range msg.Attachments {
		if err := out.AttachReader(att.Filename, bytes.NewReader(att.Content)); err != nil {
			return fmt.Errorf("failed to attach %s: %w", att.Filename, err)
		}
	}

	if err := m.client.DialAndSendWithContext(ctx, out); err != nil {
		m.telemetry.RecordEmailDispatch(ctx, msg.Kind, false)
		return fmt.Errorf("failed to send email: %w", err)
	}

	m.telemetry.RecordEmailDispatch(ctx, msg.Kind, true)
	m.logger.DebugContext(ctx, "Email sent", "subject", msg.Subject)
	return nil
}
