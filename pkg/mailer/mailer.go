// Package mailer sends verification code emails over SMTP, or logs them when
// SMTP is not configured.
package mailer

import (
	"context"
	"fmt"
	netmail "net/mail"
	"strings"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/acgn-assistant/acgn-assistant/pkg/config"
)

const defaultFrom = "no-reply@localhost"

// Message is a plain text email
type Message struct {
	To      string
	Subject string
	Text    string
}

// Sender delivers a message
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// RegisterCodeMessage is the registration code email
func RegisterCodeMessage(to, code string, minutes int) Message {
	return Message{
		To:      to,
		Subject: "ACGN咨询助手 - 注册验证码",
		Text: "你正在注册 ACGN咨询助手 账号。\n\n" +
			fmt.Sprintf("验证码：%s\n", code) +
			fmt.Sprintf("有效期：%d 分钟\n\n", minutes) +
			"如果这不是你本人操作，请忽略此邮件。",
	}
}

// PasswordResetMessage is the password reset code email
func PasswordResetMessage(to, code string, minutes int) Message {
	return Message{
		To:      to,
		Subject: "ACGN咨询助手 - 密码重置验证码",
		Text: "你正在重置 ACGN咨询助手 的登录密码。\n\n" +
			fmt.Sprintf("验证码：%s\n", code) +
			fmt.Sprintf("有效期：%d 分钟\n\n", minutes) +
			"如果这不是你本人操作，请忽略此邮件。",
	}
}

// FromAddress picks the bare sender address. Some providers reject a From
// header that differs from the authenticated user or carries a display name.
func FromAddress(cfg *config.Config) string {
	if u := strings.TrimSpace(cfg.SMTPUsername); u != "" {
		return u
	}
	if raw := strings.TrimSpace(cfg.SMTPFrom); raw != "" {
		if addr, err := netmail.ParseAddress(raw); err == nil && addr.Address != "" {
			return addr.Address
		}
	}
	return defaultFrom
}

// NewFromConfig returns the SMTP sender, or a LogSender when SMTP is missing
// or debug codes are enabled.
func NewFromConfig(cfg *config.Config, logger *zap.Logger) (Sender, error) {
	if cfg.DebugCodesEnabled() || strings.TrimSpace(cfg.SMTPHost) == "" {
		return NewLogSender(logger), nil
	}
	return NewSMTPSender(cfg)
}

// SMTPSender sends mail with go-mail. Each Send dials a new connection.
type SMTPSender struct {
	client *mail.Client
	from   string
}

// NewSMTPSender configures SSL or STARTTLS, auth and the timeout from cfg
func NewSMTPSender(cfg *config.Config) (*SMTPSender, error) {
	timeout := time.Duration(cfg.SMTPTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	opts := []mail.Option{
		mail.WithPort(cfg.SMTPPort),
		mail.WithTimeout(timeout),
	}
	switch {
	case cfg.SMTPUseSSL:
		opts = append(opts, mail.WithSSL())
	case cfg.SMTPUseTLS:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}
	if u := strings.TrimSpace(cfg.SMTPUsername); u != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(u),
			mail.WithPassword(cfg.SMTPPassword),
		)
	}

	client, err := mail.NewClient(strings.TrimSpace(cfg.SMTPHost), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create smtp client: %w", err)
	}
	return &SMTPSender{client: client, from: FromAddress(cfg)}, nil
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.From(s.from); err != nil {
		return fmt.Errorf("invalid from address: %w", err)
	}
	if err := m.EnvelopeFrom(s.from); err != nil {
		return fmt.Errorf("invalid envelope from address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Text)

	if err := s.client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send to %s failed: %w", msg.To, err)
	}
	return nil
}

// LogSender writes messages to the log instead of sending them
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a LogSender
func NewLogSender(logger *zap.Logger) *LogSender {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, msg Message) error {
	s.logger.Info("email not sent, logging instead",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("text", msg.Text),
	)
	return nil
}
