// Package email delivers notification emails over SMTP.
package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/tuanbk654123/QLCP-QLKH/internal/application/port"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Config holds SMTP settings
type Config struct {
	SMTPServer  string
	SMTPPort    int
	SenderName  string
	SenderEmail string
	Password    string
	EnableSSL   bool
}

// mailDialer is the part of gomail.Dialer the sender needs
type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Sender sends HTML email through one SMTP account
type Sender struct {
	cfg    Config
	dialer mailDialer
	logger *zap.Logger
}

// NewSender creates a sender. App passwords are often pasted with spaces;
// they are stripped before use.
func NewSender(cfg Config, logger *zap.Logger) *Sender {
	cfg.Password = strings.ReplaceAll(cfg.Password, " ", "")

	d := gomail.NewDialer(cfg.SMTPServer, cfg.SMTPPort, cfg.SenderEmail, cfg.Password)
	d.SSL = cfg.EnableSSL && cfg.SMTPPort == 465
	if cfg.EnableSSL {
		d.TLSConfig = &tls.Config{ServerName: cfg.SMTPServer, MinVersion: tls.VersionTLS12}
	}

	return &Sender{cfg: cfg, dialer: d, logger: logger}
}

// Enabled reports whether a sender account is configured
func (s *Sender) Enabled() bool {
	return s.cfg.SenderEmail != "" && s.cfg.Password != ""
}

// Send delivers one HTML message to a single address
func (s *Sender) Send(ctx context.Context, to, subject, htmlBody string) error {
	if !s.Enabled() {
		s.logger.Warn("Email settings are not configured, skipping email", zap.String("to", to))
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.cfg.SenderEmail, s.cfg.SenderName)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	s.logger.Info("Sending email", zap.String("to", to), zap.String("subject", subject))

	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error("Failed to send email", zap.String("to", to), zap.Error(err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("Email sent successfully", zap.String("to", to))
	return nil
}

var _ port.EmailSender = (*Sender)(nil)
