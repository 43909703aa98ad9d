// Package mailer sends the transactional HTML emails posted to /mail
// (order confirmations and the like) over SMTP.
package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strings"

	"github.com/dmitrijs2005/storefront/internal/common"
	"github.com/dmitrijs2005/storefront/internal/logging"
)

var ErrDisabled = errors.New("mailer is disabled")

// Message is one email. HTMLContent is sent as-is.
type Message struct {
	To          string `json:"to"`
	Subject     string `json:"subject"`
	HTMLContent string `json:"htmlContent"`
}

// Validate rejects messages that would not make a well-formed email.
func (m Message) Validate() error {
	if _, err := mail.ParseAddress(m.To); err != nil {
		return fmt.Errorf("%w: invalid recipient", common.ErrValidation)
	}
	if strings.ContainsAny(m.Subject, "\r\n") {
		return fmt.Errorf("%w: subject must be a single line", common.ErrValidation)
	}
	if strings.TrimSpace(m.HTMLContent) == "" {
		return fmt.Errorf("%w: htmlContent is required", common.ErrValidation)
	}
	return nil
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
	Enabled() bool
}

type Config struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
	// Security is "starttls" (default), "ssl" or "none".
	Security string
}

// sendMail is replaced in tests.
var sendMail = smtp.SendMail

type SMTPMailer struct {
	cfg Config
}

type noopMailer struct{}

func (noopMailer) Send(context.Context, Message) error { return ErrDisabled }
func (noopMailer) Enabled() bool                       { return false }

// New returns an SMTP mailer, or a disabled one when host or sender is
// missing.
func New(cfg Config, log logging.Logger) Mailer {
	cfg.Host = strings.TrimSpace(cfg.Host)
	cfg.Port = strings.TrimSpace(cfg.Port)
	cfg.User = strings.TrimSpace(cfg.User)
	cfg.From = strings.TrimSpace(cfg.From)
	cfg.Security = strings.ToLower(strings.TrimSpace(cfg.Security))
	if cfg.Security == "" {
		cfg.Security = "starttls"
	}
	if cfg.Host == "" || cfg.From == "" {
		log.Warn(context.Background(), "mailer disabled; SMTP host or from missing")
		return noopMailer{}
	}
	if cfg.Port == "" {
		cfg.Port = "587"
	}
	log.Info(context.Background(), "mailer enabled",
		"host", cfg.Host, "port", cfg.Port, "security", cfg.Security, "user", maskForLog(cfg.User))
	return &SMTPMailer{cfg: cfg}
}

func (m *SMTPMailer) Enabled() bool { return true }

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	body := buildMessage(m.cfg.From, msg)

	switch m.cfg.Security {
	case "ssl", "smtps":
		return m.sendSSL(msg.To, body)
	case "none":
		return sendMail(m.addr(), nil, m.cfg.From, []string{msg.To}, body)
	default:
		return m.sendStartTLS(msg.To, body)
	}
}

func (m *SMTPMailer) sendStartTLS(to string, msg []byte) error {
	client, err := smtp.Dial(m.addr())
	if err != nil {
		return err
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
			return err
		}
	}
	return m.deliver(client, to, msg)
}

func (m *SMTPMailer) sendSSL(to string, msg []byte) error {
	conn, err := tls.Dial("tcp", m.addr(), &tls.Config{ServerName: m.cfg.Host})
	if err != nil {
		return err
	}
	client, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer client.Close()

	return m.deliver(client, to, msg)
}

func (m *SMTPMailer) deliver(client *smtp.Client, to string, msg []byte) error {
	if m.cfg.User != "" && m.cfg.Password != "" {
		if err := client.Auth(smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)); err != nil {
			return err
		}
	}
	if err := client.Mail(m.cfg.From); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func (m *SMTPMailer) addr() string {
	return net.JoinHostPort(m.cfg.Host, m.cfg.Port)
}

func buildMessage(from string, msg Message) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", from)
	fmt.Fprintf(&buf, "To: %s\r\n", msg.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/html; charset=utf-8\r\n")
	buf.WriteString("\r\n")
	buf.WriteString(msg.HTMLContent)
	buf.WriteString("\r\n")
	return buf.Bytes()
}

func maskForLog(s string) string {
	if s == "" {
		return "(none)"
	}
	if len(s) <= 2 {
		return "***"
	}
	return s[:1] + "***" + s[len(s)-1:]
}
