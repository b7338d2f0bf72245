package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/resend/resend-go/v2"
	"github.com/sotfmods/api/internal/model"
)

// MentionMailer delivers one batched notification email per user
type MentionMailer interface {
	SendMentionDigest(email, name string, items []*model.MentionDigestItem) error
}

type EmailService struct {
	client    *resend.Client
	fromEmail string
	isDev     bool
	appURL    string
	appName   string
}

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

func (s *EmailService) SendPasswordResetEmail(email, token, name string) error {
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", s.appURL, token)
	subject, body := passwordResetEmailTemplate(name, resetURL, s.appName)

	if s.isDev {
		slog.Info("email sent (dev mode)", "type", "password_reset", "to", email, "subject", subject, "url", resetURL)
		return nil
	}

	return s.send("password_reset", email, subject, body)
}

func (s *EmailService) SendMentionDigest(email, name string, items []*model.MentionDigestItem) error {
	subject, body := mentionDigestEmailTemplate(name, items, s.appURL, s.appName)

	if s.isDev {
		slog.Info("email sent (dev mode)", "type", "mention_digest", "to", email, "subject", subject, "items", len(items))
		return nil
	}

	return s.send("mention_digest", email, subject, body)
}

func (s *EmailService) send(kind, to, subject, body string) error {
	if s.client == nil {
		return fmt.Errorf("email service not configured (missing RESEND_API_KEY)")
	}

	params := &resend.SendEmailRequest{
		From:    s.fromEmail,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	}

	_, err := s.client.Emails.SendWithContext(context.Background(), params)
	if err != nil {
		return fmt.Errorf("failed to send %s email: %w", kind, err)
	}
	slog.Info("email sent", "type", kind, "to", to)
	return nil
}
