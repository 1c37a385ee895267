package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
)

type EmailService struct {
	client    *resend.Client
	fromEmail string
	isDev     bool
	appURL    string
	appName   string
}

// NewEmailService sends through Resend. In development, or without an API
// key, messages are only logged.
func NewEmailService(apiKey, fromEmail, appURL, appName string, isDev bool) *EmailService {
	var client *resend.Client
	if apiKey != "" && !isDev {
		client = resend.NewClient(apiKey)
	}

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		isDev:     isDev,
		appURL:    appURL,
		appName:   appName,
	}
}

// ResetURL is the link the single-page frontend opens to redeem token.
func (s *EmailService) ResetURL(token string) string {
	return fmt.Sprintf("%s/#reset-password-%s", s.appURL, token)
}

func (s *EmailService) SendPasswordResetEmail(ctx context.Context, email, name, token string) error {
	resetURL := s.ResetURL(token)
	subject, body := passwordResetEmailTemplate(name, resetURL, s.appName)

	return s.send(ctx, "password_reset", email, subject, body, "url", resetURL)
}

func (s *EmailService) send(ctx context.Context, kind, to, subject, body string, devAttrs ...any) error {
	if s.isDev {
		attrs := append([]any{"type", kind, "to", to, "subject", subject}, devAttrs...)
		slog.Info("email sent (dev mode)", attrs...)
		return nil
	}

	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	_, err := s.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("failed to send %s email: %w", kind, err)
	}

	slog.Info("email sent", "type", kind, "to", to)
	return nil
}
