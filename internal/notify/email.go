package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
)

// EmailConfig configures the SMTP channel.
type EmailConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	To       []string
}

// Email sends notices over SMTP.
type Email struct {
	cfg  EmailConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewEmail returns nil when the channel is not configured.
func NewEmail(cfg EmailConfig) *Email {
	if cfg.Host == "" || cfg.From == "" || len(cfg.To) == 0 {
		return nil
	}
	if cfg.Port == "" {
		cfg.Port = "587"
	}
	return &Email{cfg: cfg, send: smtp.SendMail}
}

func (e *Email) Name() string { return "email" }

func (e *Email) Notify(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth smtp.Auth
	if e.cfg.Username != "" {
		auth = smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host)
	}
	addr := net.JoinHostPort(e.cfg.Host, e.cfg.Port)
	if err := e.send(addr, auth, e.cfg.From, e.cfg.To, e.compose(msg)); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func (e *Email) compose(msg Message) []byte {
	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\r\n", e.cfg.From)
	fmt.Fprintf(&sb, "To: %s\r\n", strings.Join(e.cfg.To, ", "))
	fmt.Fprintf(&sb, "Subject: %s\r\n", headerSafe(msg.Subject))
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	sb.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(sb.String())
}

func headerSafe(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
