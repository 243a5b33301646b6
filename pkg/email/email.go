package email

import (
	"context"
	"fmt"
	"html"
	"net/url"
	"strings"

	"github.com/angelmondragon/bazaar-backend/pkg/config"
	"github.com/angelmondragon/bazaar-backend/pkg/logger"
)

// Message is a single HTML email.
type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// NewSender returns an SMTP sender when a host is configured and a logging sender otherwise.
func NewSender(cfg config.MailConfig, logg *logger.Logger) Sender {
	if cfg.Enabled() {
		return NewSMTPSender(cfg)
	}
	return NewLogSender(logg)
}

// LogSender writes messages to the log instead of delivering them.
type LogSender struct {
	logg *logger.Logger
}

func NewLogSender(logg *logger.Logger) *LogSender {
	return &LogSender{logg: logg}
}

func (s *LogSender) Send(ctx context.Context, msg Message) error {
	if len(msg.To) == 0 {
		return fmt.Errorf("email: no recipients")
	}
	if s.logg == nil {
		return nil
	}
	ctx = s.logg.WithFields(ctx, map[string]any{
		"to":      strings.Join(msg.To, ","),
		"subject": msg.Subject,
	})
	s.logg.Info(ctx, "mail delivery disabled; message logged")
	s.logg.Debug(s.logg.WithField(ctx, "body", msg.HTML), "mail body")
	return nil
}

// OTPMessage builds the one-time code email.
func OTPMessage(to, subject, code string) Message {
	return Message{
		To:      []string{to},
		Subject: subject,
		HTML:    fmt.Sprintf("<p>Your OTP code is: <strong>%s</strong></p>", html.EscapeString(code)),
	}
}

// ResetLinkMessage builds the password reset link email.
func ResetLinkMessage(to, resetURL, token string) Message {
	link := resetURL + "?token=" + url.QueryEscape(token)
	return Message{
		To:      []string{to},
		Subject: "Reset your password",
		HTML: fmt.Sprintf(
			`<p>Use the link below to reset your password. It expires soon.</p><p><a href="%s">%s</a></p>`,
			html.EscapeString(link), html.EscapeString(link),
		),
	}
}
