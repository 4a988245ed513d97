package mailer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
	Timeout  time.Duration
}

type Mailer struct {
	cfg Config
	log *slog.Logger
}

func New(cfg Config, log *slog.Logger) (*Mailer, error) {
	cfg.Host = strings.TrimSpace(cfg.Host)
	if cfg.Host == "" {
		return nil, errors.New("SMTP host is empty")
	}

	cfg.From = strings.TrimSpace(cfg.From)
	if cfg.From == "" {
		return nil, errors.New("sender address is empty")
	}

	cfg.To = normalizeRecipients(cfg.To)
	if len(cfg.To) == 0 {
		return nil, errors.New("recipient list is empty")
	}

	return &Mailer{cfg: cfg, log: log}, nil
}

// Send delivers an HTML message to every configured recipient.
func (m *Mailer) Send(ctx context.Context, subject string, htmlBody string) error {
	msg, err := m.newMessage(subject, htmlBody)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(m.cfg.Host, m.clientOptions()...)
	if err != nil {
		return fmt.Errorf("create SMTP client: %w", err)
	}

	if err = client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send message (host = %s, port = %d): %w", m.cfg.Host, m.cfg.Port, err)
	}

	m.log.InfoContext(ctx, "Email is sent",
		"subject", subject,
		"recipientCount", len(m.cfg.To),
		"bodyLen", len(htmlBody))

	return nil
}

func (m *Mailer) newMessage(subject string, htmlBody string) (*mail.Msg, error) {
	msg := mail.NewMsg()

	if err := msg.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("set sender: %w", err)
	}

	if err := msg.To(m.cfg.To...); err != nil {
		return nil, fmt.Errorf("set recipients: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, htmlBody)

	return msg, nil
}

func (m *Mailer) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}

	if m.cfg.Port > 0 {
		opts = append(opts, mail.WithPort(m.cfg.Port))
	}

	if m.cfg.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(m.cfg.Timeout))
	}

	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}

	return opts
}

func normalizeRecipients(to []string) []string {
	out := make([]string, 0, len(to))
	for _, addr := range to {
		if addr = strings.TrimSpace(addr); addr != "" {
			out = append(out, addr)
		}
	}

	return out
}
