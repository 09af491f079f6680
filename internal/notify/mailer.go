package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/storefront-service/internal/config"
)

// ErrMailerDisabled is returned when no SMTP host is configured.
var ErrMailerDisabled = errors.New("mailer not configured")

// Mailer delivers HTML mail.
type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends mail through a single SMTP relay.
type SMTPMailer struct {
	cfg    config.MailConfig
	logger *zap.Logger
	send   sendFunc
}

// NewMailer returns an SMTP mailer, or a disabled one when SMTP_HOST is empty.
func NewMailer(cfg config.MailConfig, logger *zap.Logger) Mailer {
	if strings.TrimSpace(cfg.Host) == "" {
		logger.Warn("SMTP_HOST not provided; OTP mail delivery disabled")
		return disabledMailer{logger: logger}
	}
	return &SMTPMailer{cfg: cfg, logger: logger, send: smtp.SendMail}
}

// Send writes a single HTML message. The context only bounds how long the caller waits.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	from := strings.TrimSpace(m.cfg.From)
	if from == "" {
		return errors.New("mail sender address is required")
	}
	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return errors.New("invalid mail header value")
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	msg := buildMessage(from, to, subject, htmlBody)

	done := make(chan error, 1)
	go func() {
		done <- m.send(addr, auth, from, []string{to}, msg)
	}()

	select {
	case err := <-done:
		if err != nil {
			m.logger.Error("mail delivery failed", zap.String("to", to), zap.Error(err))
			return err
		}
		m.logger.Info("mail sent", zap.String("to", to), zap.String("subject", subject))
		return nil
	case <-ctx.Done():
		m.logger.Error("mail delivery abandoned", zap.String("to", to), zap.Error(ctx.Err()))
		return ctx.Err()
	}
}

func buildMessage(from, to, subject, htmlBody string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}

type disabledMailer struct {
	logger *zap.Logger
}

func (d disabledMailer) Send(_ context.Context, to, subject, _ string) error {
	d.logger.Warn("mail dropped; mailer disabled", zap.String("to", to), zap.String("subject", subject))
	return ErrMailerDisabled
}

// OTPSubject is the subject line of OTP mails.
const OTPSubject = "Your Login OTP"

var otpTemplate = template.Must(template.New("otp").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; border: 1px solid #eee; border-radius: 5px;">
  <h2 style="color: #333;">Authentication OTP</h2>
  <p>Hello,</p>
  <p>Your One-Time Password (OTP) for login is:</p>
  <div style="background-color: #f4f4f4; padding: 10px; text-align: center; font-size: 24px; font-weight: bold; letter-spacing: 5px; margin: 20px 0;">{{.Code}}</div>
  <p>This OTP is valid for {{.Minutes}} minutes. Please do not share it with anyone.</p>
  <p>If you did not request this OTP, please ignore this email.</p>
  <p>Thank you!</p>
</div>`))

// RenderOTPEmail renders the HTML body carrying code.
func RenderOTPEmail(code string, ttl time.Duration) (string, error) {
	var buf bytes.Buffer
	err := otpTemplate.Execute(&buf, struct {
		Code    string
		Minutes int
	}{Code: code, Minutes: int(ttl / time.Minute)})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
