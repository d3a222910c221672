// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package email dispatches one-time codes via SMTP.
package email

import (
	"context"
	"fmt"
	"strings"

	"codeberg.org/oliverandrich/go-auth-service/internal/config"
	"codeberg.org/oliverandrich/go-auth-service/internal/i18n"
	"github.com/wneessen/go-mail"
)

// Service sends verification and password reset mail.
type Service struct {
	cfg        *config.SMTPConfig
	ttlMinutes int
}

// NewService creates a new email service. ttlMinutes is the code
// lifetime shown in the mail copy.
func NewService(cfg *config.SMTPConfig, ttlMinutes int) (*Service, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}

	return &Service{cfg: cfg, ttlMinutes: ttlMinutes}, nil
}

// SendVerification mails an email verification code.
func (s *Service) SendVerification(ctx context.Context, toEmail, code, displayName string) error {
	subject := i18n.T(ctx, "mail_verification_subject")
	body := mailBody{
		title:    i18n.T(ctx, "mail_verification_title"),
		greeting: i18n.TData(ctx, "mail_verification_greeting", map[string]any{"Name": displayName}),
		intro:    i18n.T(ctx, "mail_verification_intro"),
		code:     code,
		expiry:   i18n.TData(ctx, "mail_code_expiry", map[string]any{"Minutes": s.ttlMinutes}),
		ignore:   i18n.T(ctx, "mail_verification_ignore"),
		footer:   i18n.T(ctx, "mail_footer"),
	}

	return s.send(toEmail, subject, body)
}

// SendPasswordReset mails a password reset code.
func (s *Service) SendPasswordReset(ctx context.Context, toEmail, code, displayName string) error {
	subject := i18n.T(ctx, "mail_reset_subject")
	body := mailBody{
		title:    i18n.T(ctx, "mail_reset_title"),
		greeting: i18n.TData(ctx, "mail_reset_greeting", map[string]any{"Name": displayName}),
		intro:    i18n.T(ctx, "mail_reset_intro"),
		code:     code,
		expiry:   i18n.TData(ctx, "mail_code_expiry", map[string]any{"Minutes": s.ttlMinutes}),
		ignore:   i18n.T(ctx, "mail_reset_ignore"),
		footer:   i18n.T(ctx, "mail_footer"),
	}

	return s.send(toEmail, subject, body)
}

type mailBody struct {
	title    string
	greeting string
	intro    string
	code     string
	expiry   string
	ignore   string
	footer   string
}

func (b mailBody) text() string {
	return strings.Join([]string{
		b.greeting,
		"",
		b.intro,
		"",
		"    " + b.code,
		"",
		b.expiry,
		b.ignore,
		"",
		b.footer,
	}, "\n")
}

func (b mailBody) html() string {
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; padding: 20px; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">%s</h2>
  <p>%s</p>
  <p>%s</p>
  <div style="background-color: #f4f4f4; padding: 15px; text-align: center; font-size: 24px; font-weight: bold; letter-spacing: 5px; margin: 20px 0;">%s</div>
  <p>%s</p>
  <p>%s</p>
  <hr style="margin: 20px 0;">
  <p style="color: #666; font-size: 12px;">%s</p>
</div>`, b.title, b.greeting, b.intro, b.code, b.expiry, b.ignore, b.footer)
}

// send sends an email via SMTP using go-mail.
func (s *Service) send(to, subject string, body mailBody) error {
	msg := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	} else {
		if err := msg.From(s.cfg.From); err != nil {
			return fmt.Errorf("setting from address: %w", err)
		}
	}

	if err := msg.To(to); err != nil {
		return fmt.Errorf("setting to address: %w", err)
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body.text())
	msg.AddAlternativeString(mail.TypeTextHTML, body.html())

	// Build client options
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
	}

	// Configure TLS based on config and port
	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		// Use implicit TLS (SSL) for port 465, STARTTLS for others
		if s.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	// Add authentication if credentials are provided
	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	client, err := mail.NewClient(s.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("creating mail client: %w", err)
	}

	if err := client.DialAndSend(msg); err != nil {
		return fmt.Errorf("sending email: %w", err)
	}

	return nil
}
